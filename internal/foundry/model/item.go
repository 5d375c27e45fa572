package model

import (
	"fmt"
	"sort"
)

type ItemKind string

const (
	KindCarrier ItemKind = "CARRIER"
	KindModule  ItemKind = "MODULE"
)

type Role string

// Carrier archetypes.
const (
	RoleScout       Role = "SCOUT"
	RoleFrigate     Role = "FRIGATE"
	RoleCruiser     Role = "CRUISER"
	RoleDreadnought Role = "DREADNOUGHT"
)

// Module archetypes. Each maps to exactly one SlotCategory.
const (
	RoleEngine Role = "ENGINE"
	RoleWeapon Role = "WEAPON"
	RoleHull   Role = "HULL"
	RoleShield Role = "SHIELD"
)

var carrierRoles = []Role{RoleScout, RoleFrigate, RoleCruiser, RoleDreadnought}
var moduleRoles = []Role{RoleEngine, RoleWeapon, RoleHull, RoleShield}

func CarrierRoles() []Role { return append([]Role(nil), carrierRoles...) }
func ModuleRoles() []Role  { return append([]Role(nil), moduleRoles...) }

// Kind reports the item kind a role produces and whether the role is known.
func (r Role) Kind() (ItemKind, bool) {
	for _, c := range carrierRoles {
		if r == c {
			return KindCarrier, true
		}
	}
	for _, m := range moduleRoles {
		if r == m {
			return KindModule, true
		}
	}
	return "", false
}

type SlotCategory int

const (
	SlotEngine SlotCategory = iota + 1
	SlotWeapon
	SlotHull
	SlotShield
)

var slotNames = map[SlotCategory]string{
	SlotEngine: "ENGINE",
	SlotWeapon: "WEAPON",
	SlotHull:   "HULL",
	SlotShield: "SHIELD",
}

func (c SlotCategory) String() string {
	if s, ok := slotNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

func SlotCategories() []SlotCategory {
	return []SlotCategory{SlotEngine, SlotWeapon, SlotHull, SlotShield}
}

// SlotFor maps a module role to its slot category.
func SlotFor(r Role) (SlotCategory, bool) {
	switch r {
	case RoleEngine:
		return SlotEngine, true
	case RoleWeapon:
		return SlotWeapon, true
	case RoleHull:
		return SlotHull, true
	case RoleShield:
		return SlotShield, true
	default:
		return 0, false
	}
}

// Biome is an environmental tag in [0, MaxBiome].
type Biome int

const MaxBiome Biome = 10

func (b Biome) Valid() bool { return b >= 0 && b <= MaxBiome }

type Rarity int

const (
	RarityCommon Rarity = iota + 1
	RarityRare
	RarityEpic
	RarityLegendary
	RarityMythic
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "COMMON"
	case RarityRare:
		return "RARE"
	case RarityEpic:
		return "EPIC"
	case RarityLegendary:
		return "LEGENDARY"
	case RarityMythic:
		return "MYTHIC"
	default:
		return "UNKNOWN"
	}
}

// Bonuses are the four stat axes every crafted item and loadout carries.
type Bonuses struct {
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
	Range   int `json:"range"`
}

func (b Bonuses) IsZero() bool { return b == Bonuses{} }

type LocationKind string

const (
	LocNone      LocationKind = ""
	LocStation   LocationKind = "STATION"
	LocInstalled LocationKind = "INSTALLED"
)

// Location is Station(id), InstalledOn(carrierID) or None.
type Location struct {
	Kind LocationKind `json:"kind,omitempty"`
	ID   string       `json:"id,omitempty"`
}

func AtStation(stationID string) Location   { return Location{Kind: LocStation, ID: stationID} }
func InstalledOn(carrierID string) Location { return Location{Kind: LocInstalled, ID: carrierID} }

func (l Location) IsStation(stationID string) bool {
	return l.Kind == LocStation && l.ID == stationID
}

func (l Location) IsInstalledOn(carrierID string) bool {
	return l.Kind == LocInstalled && l.ID == carrierID
}

// FormatItemID renders the n-th item id. Ids sort in creation order.
func FormatItemID(n uint64) string { return fmt.Sprintf("ITM%09d", n) }

// Item is a crafted carrier or module. Carriers carry a Loadout; modules never do.
type Item struct {
	ID        string   `json:"id"`
	Kind      ItemKind `json:"kind"`
	Role      Role     `json:"role"`
	Biome     Biome    `json:"biome"`
	Rarity    Rarity   `json:"rarity"`
	Bonuses   Bonuses  `json:"bonuses"`
	CrafterID string   `json:"crafter_id"`
	CraftedAt int64    `json:"crafted_at"`
	Location  Location `json:"location"`

	Loadout *Loadout `json:"loadout,omitempty"`
}

// Loadout is the aggregate equipment state of a carrier.
type Loadout struct {
	Slots   map[SlotCategory][]string `json:"slots"`
	Bonuses Bonuses                   `json:"bonuses"`
}

func NewLoadout() *Loadout {
	return &Loadout{Slots: map[SlotCategory][]string{}}
}

func (it Item) Clone() Item {
	out := it
	if it.Loadout != nil {
		out.Loadout = it.Loadout.Clone()
	}
	return out
}

func (l *Loadout) Clone() *Loadout {
	if l == nil {
		return nil
	}
	out := &Loadout{Slots: make(map[SlotCategory][]string, len(l.Slots)), Bonuses: l.Bonuses}
	for c, ids := range l.Slots {
		if len(ids) == 0 {
			continue
		}
		out.Slots[c] = append([]string(nil), ids...)
	}
	return out
}

// ModuleIDs lists every installed module id in category order.
func (l *Loadout) ModuleIDs() []string {
	if l == nil {
		return nil
	}
	cats := make([]SlotCategory, 0, len(l.Slots))
	for c := range l.Slots {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	var out []string
	for _, c := range cats {
		out = append(out, l.Slots[c]...)
	}
	return out
}
