package model

import "testing"

func TestRoleKindAndSlot(t *testing.T) {
	for _, r := range CarrierRoles() {
		if k, ok := r.Kind(); !ok || k != KindCarrier {
			t.Fatalf("%s: kind=%q ok=%v", r, k, ok)
		}
		if _, ok := SlotFor(r); ok {
			t.Fatalf("%s: carrier should have no slot", r)
		}
	}
	for _, r := range ModuleRoles() {
		if k, ok := r.Kind(); !ok || k != KindModule {
			t.Fatalf("%s: kind=%q ok=%v", r, k, ok)
		}
		c, ok := SlotFor(r)
		if !ok || c.String() != string(r) {
			t.Fatalf("%s: slot=%v ok=%v", r, c, ok)
		}
	}
	if _, ok := Role("BATTLESTAR").Kind(); ok {
		t.Fatalf("unknown role accepted")
	}
}

func TestBiomeValid(t *testing.T) {
	for b := Biome(-1); b <= MaxBiome+1; b++ {
		want := b >= 0 && b <= 10
		if b.Valid() != want {
			t.Fatalf("biome %d: valid=%v", b, b.Valid())
		}
	}
}

func TestItemCloneIsDeep(t *testing.T) {
	it := Item{ID: FormatItemID(7), Kind: KindCarrier, Loadout: NewLoadout()}
	it.Loadout.Slots[SlotWeapon] = []string{"ITM000000001"}

	cp := it.Clone()
	cp.Loadout.Slots[SlotWeapon][0] = "ITM000000002"
	cp.Loadout.Bonuses.Attack = 9

	if it.Loadout.Slots[SlotWeapon][0] != "ITM000000001" || it.Loadout.Bonuses.Attack != 0 {
		t.Fatalf("clone shares state: %+v", it.Loadout)
	}
	if it.ID != "ITM000000007" {
		t.Fatalf("id = %q", it.ID)
	}
}

func TestModuleIDsInCategoryOrder(t *testing.T) {
	l := NewLoadout()
	l.Slots[SlotShield] = []string{"S1"}
	l.Slots[SlotEngine] = []string{"E1", "E2"}
	l.Slots[SlotHull] = nil

	got := l.ModuleIDs()
	want := []string{"E1", "E2", "S1"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v want %v", got, want)
		}
	}
}

func TestStationBalanceList(t *testing.T) {
	s := Station{Balances: map[string]int{"ORE": 3, "GAS": 0, "ALLOY": 1}}
	got := s.BalanceList()
	if len(got) != 2 || got[0].Kind != "ALLOY" || got[1].Kind != "ORE" {
		t.Fatalf("balances = %+v", got)
	}
	cp := s.Clone()
	cp.Balances["ORE"] = 99
	if s.Balances["ORE"] != 3 {
		t.Fatalf("clone shares balances")
	}
}
