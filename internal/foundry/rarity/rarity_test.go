package rarity

import (
	"testing"

	"foundry.ai/internal/foundry/model"
)

func seedWithWindow(w uint32) Seed {
	var s Seed
	s[0] = 0xAB
	s[29] = byte(w >> 16)
	s[30] = byte(w >> 8)
	s[31] = byte(w)
	return s
}

func TestForLevel(t *testing.T) {
	cases := []struct {
		level int
		want  model.Rarity
	}{
		{0, model.RarityCommon},
		{1, model.RarityCommon},
		{2, model.RarityRare},
		{3, model.RarityRare},
		{4, model.RarityEpic},
		{5, model.RarityEpic},
		{6, model.RarityLegendary},
		{7, model.RarityLegendary},
		{8, model.RarityMythic},
		{12, model.RarityMythic},
	}
	for _, tc := range cases {
		if got := ForLevel(tc.level); got != tc.want {
			t.Fatalf("ForLevel(%d)=%s want %s", tc.level, got, tc.want)
		}
	}
}

func TestBoostThresholds(t *testing.T) {
	cases := []struct {
		window uint32
		want   int
	}{
		{0x000000, 2},
		{0x03FFFF, 2},
		{0x040000, 1},
		{0x0FFFFF, 1},
		{0x100000, 0},
		{0xFFFFFF, 0},
	}
	for _, tc := range cases {
		if got := Boost(seedWithWindow(tc.window)); got != tc.want {
			t.Fatalf("Boost(%#x)=%d want %d", tc.window, got, tc.want)
		}
	}
}

func TestRoll_AppliesBoostToLevel(t *testing.T) {
	if got := Roll(seedWithWindow(0x000001), 1); got != model.RarityRare {
		t.Fatalf("level 1 +2 should be RARE, got %s", got)
	}
	if got := Roll(seedWithWindow(0x050000), 5); got != model.RarityLegendary {
		t.Fatalf("level 5 +1 should be LEGENDARY, got %s", got)
	}
	if got := Roll(seedWithWindow(0xABCDEF), 7); got != model.RarityLegendary {
		t.Fatalf("level 7 +0 should be LEGENDARY, got %s", got)
	}
}

func TestNewSeed_Deterministic(t *testing.T) {
	a := NewSeed(1700000000, "player-1", "station-9")
	b := NewSeed(1700000000, "player-1", "station-9")
	if a != b {
		t.Fatalf("same inputs produced different seeds")
	}
	if Roll(a, 3) != Roll(b, 3) {
		t.Fatalf("same seed produced different rarities")
	}
	if c := NewSeed(1700000001, "player-1", "station-9"); c == a {
		t.Fatalf("timestamp must feed the seed")
	}
	if c := NewSeed(1700000000, "player-2", "station-9"); c == a {
		t.Fatalf("crafter must feed the seed")
	}
}

func TestBoostDistribution(t *testing.T) {
	// Walk the window in fixed steps: exactly 1/64 of it boosts by 2 and
	// 3/64 by 1.
	var two, one, total int
	for w := uint32(0); w <= 0xFFFFFF; w += 0x100 {
		switch Boost(seedWithWindow(w)) {
		case 2:
			two++
		case 1:
			one++
		}
		total++
	}
	if two*64 != total {
		t.Fatalf("+2 share = %d/%d", two, total)
	}
	if one*64 != total*3 {
		t.Fatalf("+1 share = %d/%d", one, total)
	}
}
