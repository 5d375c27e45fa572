// Package aggregate keeps a carrier's total bonus equal to the sum of its
// installed modules.
package aggregate

import "foundry.ai/internal/foundry/model"

func Add(total *model.Bonuses, delta model.Bonuses) {
	total.Attack += delta.Attack
	total.Defense += delta.Defense
	total.Speed += delta.Speed
	total.Range += delta.Range
}

// Subtract removes delta, flooring every axis at zero. clamped reports that a
// floor was hit, which only happens when the total was already out of sync
// with the installed modules.
func Subtract(total *model.Bonuses, delta model.Bonuses) (clamped bool) {
	sub := func(cur *int, d int) {
		if *cur < d {
			*cur = 0
			clamped = true
			return
		}
		*cur -= d
	}
	sub(&total.Attack, delta.Attack)
	sub(&total.Defense, delta.Defense)
	sub(&total.Speed, delta.Speed)
	sub(&total.Range, delta.Range)
	return clamped
}

// Sum recomputes a total from module bonuses.
func Sum(modules []model.Bonuses) model.Bonuses {
	var out model.Bonuses
	for _, m := range modules {
		Add(&out, m)
	}
	return out
}
