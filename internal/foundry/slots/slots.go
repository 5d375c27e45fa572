// Package slots tracks which modules occupy a carrier's equipment slots.
//
// Every slot category keeps its own occupancy count against the carrier
// archetype's limit for that category.
package slots

import (
	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/protocol"
)

// capacity is indexed by carrier role, then engine/weapon/hull/shield.
var capacity = map[model.Role][4]int{
	model.RoleScout:       {1, 1, 1, 1},
	model.RoleFrigate:     {2, 2, 1, 1},
	model.RoleCruiser:     {3, 2, 2, 2},
	model.RoleDreadnought: {4, 4, 4, 4},
}

// Capacity returns the limit of category on a carrier of the given role.
func Capacity(carrier model.Role, c model.SlotCategory) int {
	caps, ok := capacity[carrier]
	if !ok || c < model.SlotEngine || c > model.SlotShield {
		return 0
	}
	return caps[c-model.SlotEngine]
}

type Installed struct {
	ModuleID string             `json:"module_id"`
	Category model.SlotCategory `json:"slot_category"`
}

// Install records module under its slot category on carrier. changed is
// false when the module already sits in that slot. The caller owns the
// bonus aggregate and the module location.
func Install(carrier *model.Item, module model.Item) (changed bool, err error) {
	if carrier.Loadout == nil {
		carrier.Loadout = model.NewLoadout()
	}
	cat, ok := model.SlotFor(module.Role)
	if !ok {
		return false, protocol.Errorf(protocol.ErrInvalidModuleReference, "%s has no slot category", module.Role)
	}
	if module.Location.Kind == model.LocInstalled && module.Location.ID != carrier.ID {
		return false, protocol.Errorf(protocol.ErrModuleAlreadyInstalled, "module %s is installed on %s", module.ID, module.Location.ID)
	}
	occupants := carrier.Loadout.Slots[cat]
	if indexOf(occupants, module.ID) >= 0 {
		return false, nil
	}
	if limit := Capacity(carrier.Role, cat); len(occupants) >= limit {
		return false, protocol.Errorf(protocol.ErrModuleSlotFull, "%s slots full on %s (%d/%d)", cat, carrier.ID, len(occupants), limit)
	}
	carrier.Loadout.Slots[cat] = append(append([]string(nil), occupants...), module.ID)
	return true, nil
}

// Uninstall clears module from carrier's slots.
func Uninstall(carrier *model.Item, module model.Item) error {
	cat, ok := model.SlotFor(module.Role)
	if !ok {
		return protocol.Errorf(protocol.ErrInvalidModuleReference, "%s has no slot category", module.Role)
	}
	if carrier.Loadout == nil || !module.Location.IsInstalledOn(carrier.ID) {
		return protocol.Errorf(protocol.ErrModuleNotInstalled, "module %s is not installed on %s", module.ID, carrier.ID)
	}
	occupants := carrier.Loadout.Slots[cat]
	i := indexOf(occupants, module.ID)
	if i < 0 {
		return protocol.Errorf(protocol.ErrModuleNotInstalled, "module %s is not installed on %s", module.ID, carrier.ID)
	}
	rest := append(append([]string(nil), occupants[:i]...), occupants[i+1:]...)
	if len(rest) == 0 {
		delete(carrier.Loadout.Slots, cat)
	} else {
		carrier.Loadout.Slots[cat] = rest
	}
	return nil
}

// List returns installed modules by category, then install order.
func List(carrier model.Item) []Installed {
	if carrier.Loadout == nil {
		return nil
	}
	var out []Installed
	for _, c := range model.SlotCategories() {
		for _, id := range carrier.Loadout.Slots[c] {
			out = append(out, Installed{ModuleID: id, Category: c})
		}
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
