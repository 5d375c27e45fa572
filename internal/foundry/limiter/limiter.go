// Package limiter caps how many times a station may craft and scales the
// resource cost of each successive craft.
package limiter

import "foundry.ai/internal/protocol"

var defaultPercents = []int{100, 150, 225}

type Limiter struct {
	percents  []int
	tolerance int
}

// New builds a limiter from a count-indexed percent table. A nil table uses
// 100/150/225.
func New(percents []int, tolerance int) *Limiter {
	if len(percents) == 0 {
		percents = defaultPercents
	}
	return &Limiter{percents: append([]int(nil), percents...), tolerance: tolerance}
}

// MaxCrafts is the craft capacity unlocked by an upgrade tier.
func (l *Limiter) MaxCrafts(tier int) int {
	n := 1 + tier
	if n > len(l.percents) {
		n = len(l.percents)
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Check rejects a craft when the station already used its capacity.
func (l *Limiter) Check(count, tier int) error {
	if max := l.MaxCrafts(tier); count >= max {
		return protocol.Errorf(protocol.ErrCraftingLimitReached, "station crafted %d of %d", count, max)
	}
	return nil
}

// MultiplierPercent returns the cost percent for the given craft count.
// Counts past the table report the last step.
func (l *Limiter) MultiplierPercent(count int) int {
	if count < 0 {
		count = 0
	}
	if count >= len(l.percents) {
		return l.percents[len(l.percents)-1]
	}
	return l.percents[count]
}

// Required is the amount the ledger deducts: ceil(base*percent/100).
func Required(base, percent int) int {
	return (base*percent + 99) / 100
}

// Truncated is the validator-side scaled amount: floor(base*percent/100).
func Truncated(base, percent int) int {
	return base * percent / 100
}

// AcceptsEstimate reports whether a client-submitted amount matches the
// scaled cost within the rounding tolerance.
func (l *Limiter) AcceptsEstimate(base, percent, amount int) bool {
	t := Truncated(base, percent)
	return amount >= t && amount <= t+l.tolerance
}
