package rank

import (
	"math"
	"testing"
)

func TestTiersPartitionXPSpace(t *testing.T) {
	if Tiers[0].MinXP != 0 {
		t.Errorf("first tier starts at %d, want 0", Tiers[0].MinXP)
	}
	for i := 1; i < len(Tiers); i++ {
		if Tiers[i].MinXP != Tiers[i-1].MaxXP+1 {
			t.Errorf("gap or overlap between %q (max %d) and %q (min %d)",
				Tiers[i-1].Name, Tiers[i-1].MaxXP, Tiers[i].Name, Tiers[i].MinXP)
		}
		if Tiers[i].Ordinal != i {
			t.Errorf("tier %q ordinal = %d, want %d", Tiers[i].Name, Tiers[i].Ordinal, i)
		}
	}
	if Tiers[len(Tiers)-1].MaxXP != math.MaxInt {
		t.Error("top tier is not unbounded")
	}
}

func TestForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want string
	}{
		{0, "محارب مبتدئ"},
		{499, "محارب مبتدئ"},
		{500, "محارب صاعد"},
		{1499, "محارب صاعد"},
		{1500, "فارس"},
		{3499, "فارس"},
		{3500, "بطل"},
		{7000, "قائد"},
		{15000, "ملك الظلال"},
		{1_000_000, "ملك الظلال"},
	}

	for _, tt := range tests {
		if got := ForXP(tt.xp); got.Name != tt.want {
			t.Errorf("ForXP(%d) = %q, want %q", tt.xp, got.Name, tt.want)
		}
	}
}

func TestForXP_Idempotent(t *testing.T) {
	for _, xp := range []int{0, 750, 15000} {
		first := ForXP(xp)
		second := ForXP(xp)
		if first != second {
			t.Errorf("ForXP(%d) not stable: %+v vs %+v", xp, first, second)
		}
	}
}

func TestProgressToNext(t *testing.T) {
	// Fresh tier boundary: zero progress into the third tier.
	p := ProgressToNext(1500)
	if p.Current.Name != "فارس" {
		t.Fatalf("current tier = %q, want فارس", p.Current.Name)
	}
	if p.Percent != 0 {
		t.Errorf("percent at tier floor = %v, want 0", p.Percent)
	}
	if p.Next == nil || p.Next.Name != "بطل" {
		t.Errorf("next tier = %+v, want بطل", p.Next)
	}
	if p.XPRemaining != 2000 {
		t.Errorf("xp remaining = %d, want 2000", p.XPRemaining)
	}
}

func TestProgressToNext_TopTier(t *testing.T) {
	p := ProgressToNext(20000)
	if p.Next != nil {
		t.Errorf("next at top tier = %+v, want nil", p.Next)
	}
	if p.Percent != 100 {
		t.Errorf("percent at top tier = %v, want 100", p.Percent)
	}
	if p.XPRemaining != 0 {
		t.Errorf("xp remaining at top tier = %d, want 0", p.XPRemaining)
	}
}

func TestProgressToNext_PercentBounds(t *testing.T) {
	for xp := 0; xp <= 20000; xp += 37 {
		p := ProgressToNext(xp)
		if p.Percent < 0 || p.Percent > 100 {
			t.Fatalf("ProgressToNext(%d).Percent = %v, outside [0,100]", xp, p.Percent)
		}
		if (p.Percent == 100) != (p.Current.Ordinal == len(Tiers)-1) {
			// 100% is reserved for the top tier; the max-span ratio keeps
			// lower tiers strictly below it.
			t.Fatalf("ProgressToNext(%d): percent 100 outside top tier", xp)
		}
		if p.XPRemaining < 0 {
			t.Fatalf("ProgressToNext(%d).XPRemaining = %d, negative", xp, p.XPRemaining)
		}
	}
}
