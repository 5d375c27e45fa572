package bonus

import (
	"testing"

	"foundry.ai/internal/foundry/model"
)

func TestBiomeBonus(t *testing.T) {
	want := map[model.Biome]int{0: 0, 1: 1, 2: 1, 3: 1, 4: 2, 5: 2, 6: 2, 7: 4, 8: 4, 9: 4, 10: 8, 11: 0, -1: 0}
	for b, w := range want {
		if got := BiomeBonus(b); got != w {
			t.Fatalf("BiomeBonus(%d)=%d want %d", b, got, w)
		}
	}
}

func TestRarityMultiplierPercent(t *testing.T) {
	want := map[model.Rarity]int{
		model.RarityCommon:    100,
		model.RarityRare:      120,
		model.RarityEpic:      150,
		model.RarityLegendary: 200,
		model.RarityMythic:    300,
	}
	for r, w := range want {
		if got := RarityMultiplierPercent(r); got != w {
			t.Fatalf("%s: %d want %d", r, got, w)
		}
	}
}

func TestEngineModule_CommonBiome1(t *testing.T) {
	got := Calculate(model.RoleEngine, 1, model.RarityCommon)
	if got.Speed != 9 {
		t.Fatalf("speed = %d, want round((1+8)*100/100)=9", got.Speed)
	}
	if got.Attack != 0 {
		t.Fatalf("engine has no attack aptitude; attack = %d", got.Attack)
	}
	if got.Defense != 0 {
		t.Fatalf("engine has no defense aptitude; defense = %d", got.Defense)
	}
	if got.Range != 3 {
		t.Fatalf("range = %d, want 3", got.Range)
	}
}

func TestZeroAptitudeIgnoresBiome(t *testing.T) {
	for _, b := range []model.Biome{0, 4, 10} {
		got := Calculate(model.RoleHull, b, model.RarityMythic)
		if got.Attack != 0 || got.Speed != 0 || got.Range != 0 {
			t.Fatalf("biome %d leaked into zero-aptitude axes: %+v", b, got)
		}
		if got.Defense == 0 {
			t.Fatalf("hull defense should be non-zero")
		}
	}
}

func TestModuleAttackUsesQuarterDivisor(t *testing.T) {
	// (8+20)*300/400 = 21
	got := AxisBonus(model.RoleWeapon, Attack, 10, model.RarityMythic)
	if got != 21 {
		t.Fatalf("weapon attack = %d want 21", got)
	}
	// Same inputs on a non-attack axis divide by 100: (8+4)*300/100 = 36.
	if got := AxisBonus(model.RoleWeapon, Range, 10, model.RarityMythic); got != 36 {
		t.Fatalf("weapon range = %d want 36", got)
	}
	// Carrier attack divides by 100: (1+8)*120/100 = 10.8 -> 11.
	if got := AxisBonus(model.RoleDreadnought, Attack, 1, model.RarityRare); got != 11 {
		t.Fatalf("dreadnought attack = %d want 11", got)
	}
}

func TestRoundsHalfUp(t *testing.T) {
	// (1+20)*100/400 = 5.25 -> 5
	if got := AxisBonus(model.RoleWeapon, Attack, 1, model.RarityCommon); got != 5 {
		t.Fatalf("got %d want 5", got)
	}
	// (2+20)*100/400 = 5.5 -> 6
	if got := AxisBonus(model.RoleWeapon, Attack, 4, model.RarityCommon); got != 6 {
		t.Fatalf("got %d want 6", got)
	}
	// (0+1)*150/100 = 1.5 -> 2
	if got := AxisBonus(model.RoleScout, Attack, 0, model.RarityEpic); got != 2 {
		t.Fatalf("got %d want 2", got)
	}
}

func TestUnknownRoleHasNoBonus(t *testing.T) {
	if got := Calculate(model.Role("BATTLESTAR"), 10, model.RarityMythic); !got.IsZero() {
		t.Fatalf("unknown role produced %+v", got)
	}
}
