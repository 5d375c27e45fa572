// Package bonus computes the stat bonuses of a freshly crafted item.
package bonus

import "foundry.ai/internal/foundry/model"

type Axis int

const (
	Attack Axis = iota
	Defense
	Speed
	Range
)

var axes = [...]Axis{Attack, Defense, Speed, Range}

func (a Axis) String() string {
	switch a {
	case Attack:
		return "attack"
	case Defense:
		return "defense"
	case Speed:
		return "speed"
	case Range:
		return "range"
	default:
		return "unknown"
	}
}

// aptitude is the per-role base bonus on each axis, in axis order. A zero
// means the role has no aptitude there.
type aptitude [4]int

var carrierAptitude = map[model.Role]aptitude{
	model.RoleScout:       {1, 1, 6, 4},
	model.RoleFrigate:     {3, 3, 3, 3},
	model.RoleCruiser:     {5, 5, 2, 3},
	model.RoleDreadnought: {8, 8, 1, 2},
}

var moduleAptitude = map[model.Role]aptitude{
	model.RoleEngine: {0, 0, 8, 2},
	model.RoleWeapon: {20, 0, 0, 4},
	model.RoleHull:   {0, 8, 0, 0},
	model.RoleShield: {0, 6, 1, 0},
}

// BiomeBonus is the flat bonus a biome adds to every axis a role has aptitude on.
func BiomeBonus(b model.Biome) int {
	switch {
	case b >= 1 && b <= 3:
		return 1
	case b >= 4 && b <= 6:
		return 2
	case b >= 7 && b <= 9:
		return 4
	case b == 10:
		return 8
	default:
		return 0
	}
}

// RoleBonus looks up a role's aptitude on an axis. Unknown roles have none.
func RoleBonus(role model.Role, axis Axis) int {
	kind, ok := role.Kind()
	if !ok || axis < Attack || axis > Range {
		return 0
	}
	if kind == model.KindCarrier {
		return carrierAptitude[role][axis]
	}
	return moduleAptitude[role][axis]
}

func RarityMultiplierPercent(r model.Rarity) int {
	switch r {
	case model.RarityCommon:
		return 100
	case model.RarityRare:
		return 120
	case model.RarityEpic:
		return 150
	case model.RarityLegendary:
		return 200
	case model.RarityMythic:
		return 300
	default:
		return 0
	}
}

// divisor is 100 on every axis except module attack, which divides by 400.
// The asymmetry is kept as shipped; changing it alters game balance.
func divisor(kind model.ItemKind, axis Axis) int {
	if kind == model.KindModule && axis == Attack {
		return 400
	}
	return 100
}

// AxisBonus is round((biome+role)*rarity/D), or 0 when the role has no
// aptitude on the axis regardless of biome.
func AxisBonus(role model.Role, axis Axis, biome model.Biome, rarity model.Rarity) int {
	rb := RoleBonus(role, axis)
	if rb == 0 {
		return 0
	}
	kind, _ := role.Kind()
	d := divisor(kind, axis)
	num := (BiomeBonus(biome) + rb) * RarityMultiplierPercent(rarity)
	return (num + d/2) / d
}

// Calculate returns the full bonus set for an item of role crafted in biome
// at rarity.
func Calculate(role model.Role, biome model.Biome, rarity model.Rarity) model.Bonuses {
	var v [4]int
	for _, a := range axes {
		v[a] = AxisBonus(role, a, biome, rarity)
	}
	return model.Bonuses{Attack: v[Attack], Defense: v[Defense], Speed: v[Speed], Range: v[Range]}
}
