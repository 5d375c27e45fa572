package limiter

import (
	"testing"

	"foundry.ai/internal/protocol"
)

func TestMultiplierPercent_Table(t *testing.T) {
	l := New(nil, 1)
	want := map[int]int{0: 100, 1: 150, 2: 225}
	for count, p := range want {
		if got := l.MultiplierPercent(count); got != p {
			t.Fatalf("MultiplierPercent(%d)=%d want %d", count, got, p)
		}
	}
	if got := l.MultiplierPercent(7); got != 225 {
		t.Fatalf("past-table count should hold last step, got %d", got)
	}
}

func TestMaxCraftsAndCheck(t *testing.T) {
	l := New(nil, 1)
	for tier := 0; tier <= 2; tier++ {
		max := l.MaxCrafts(tier)
		if max != tier+1 {
			t.Fatalf("MaxCrafts(%d)=%d", tier, max)
		}
		for count := 0; count < max; count++ {
			if err := l.Check(count, tier); err != nil {
				t.Fatalf("tier=%d count=%d: unexpected %v", tier, count, err)
			}
		}
		if err := l.Check(max, tier); !protocol.IsCode(err, protocol.ErrCraftingLimitReached) {
			t.Fatalf("tier=%d count=%d: expected limit, got %v", tier, max, err)
		}
	}
	if got := l.MaxCrafts(9); got != 3 {
		t.Fatalf("tier beyond table should cap at 3, got %d", got)
	}
}

func TestRequiredRoundsUp(t *testing.T) {
	cases := []struct{ base, pct, want int }{
		{100, 100, 100},
		{100, 150, 150},
		{100, 225, 225},
		{25, 150, 38},
		{15, 225, 34},
		{1, 150, 2},
	}
	for _, tc := range cases {
		if got := Required(tc.base, tc.pct); got != tc.want {
			t.Fatalf("Required(%d,%d)=%d want %d", tc.base, tc.pct, got, tc.want)
		}
	}
}

func TestAcceptsEstimate_Tolerance(t *testing.T) {
	l := New(nil, 1)
	// 25*150/100 = 37.5: validator truncates to 37, ceil is 38.
	if !l.AcceptsEstimate(25, 150, 37) || !l.AcceptsEstimate(25, 150, 38) {
		t.Fatalf("37 and 38 must both be accepted")
	}
	if l.AcceptsEstimate(25, 150, 36) || l.AcceptsEstimate(25, 150, 39) {
		t.Fatalf("estimates outside [37,38] must be rejected")
	}
	// Exact products still allow the +1 unit.
	if !l.AcceptsEstimate(100, 150, 151) {
		t.Fatalf("+1 tolerance must hold for exact products")
	}
}
