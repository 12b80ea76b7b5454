// Package rank defines the warrior progression tiers and the pure lookup
// functions over them. The tier table is fixed at process start: six tiers
// partitioning [0, ∞) with no gaps or overlaps.
package rank

import "math"

// Tier is one named band of cumulative XP.
type Tier struct {
	Name    string `json:"name"`
	MinXP   int    `json:"min_xp"`
	MaxXP   int    `json:"max_xp"` // math.MaxInt for the unbounded top tier
	Icon    string `json:"icon"`
	Ordinal int    `json:"ordinal"`
}

// Tiers is the immutable rank table, ordered by ascending XP range.
var Tiers = []Tier{
	{Name: "محارب مبتدئ", MinXP: 0, MaxXP: 499, Icon: "⚔️", Ordinal: 0},
	{Name: "محارب صاعد", MinXP: 500, MaxXP: 1499, Icon: "🛡️", Ordinal: 1},
	{Name: "فارس", MinXP: 1500, MaxXP: 3499, Icon: "🏇", Ordinal: 2},
	{Name: "بطل", MinXP: 3500, MaxXP: 6999, Icon: "⭐", Ordinal: 3},
	{Name: "قائد", MinXP: 7000, MaxXP: 14999, Icon: "👑", Ordinal: 4},
	{Name: "ملك الظلال", MinXP: 15000, MaxXP: math.MaxInt, Icon: "🌑", Ordinal: 5},
}

// ForXP returns the tier whose range contains xp. Falls back to the lowest
// tier; unreachable in practice since the top tier is unbounded.
func ForXP(xp int) Tier {
	for _, t := range Tiers {
		if xp >= t.MinXP && xp <= t.MaxXP {
			return t
		}
	}
	return Tiers[0]
}

// Progress describes where a cumulative XP total sits within the tier table.
type Progress struct {
	Current     Tier    `json:"current"`
	Next        *Tier   `json:"next,omitempty"`
	Percent     float64 `json:"percent"`      // 0–100 within the current tier
	XPRemaining int     `json:"xp_remaining"` // XP until the next tier's floor
}

// ProgressToNext computes progress within the current tier and the XP left
// until the next one. At the top tier Next is nil, Percent is 100 and
// XPRemaining is 0.
func ProgressToNext(xp int) Progress {
	current := ForXP(xp)
	if current.Ordinal == len(Tiers)-1 {
		return Progress{Current: current, Percent: 100, XPRemaining: 0}
	}

	next := Tiers[current.Ordinal+1]
	span := current.MaxXP - current.MinXP + 1
	percent := math.Min(100, float64(xp-current.MinXP)/float64(span)*100)
	remaining := next.MinXP - xp
	if remaining < 0 {
		remaining = 0
	}

	return Progress{
		Current:     current,
		Next:        &next,
		Percent:     percent,
		XPRemaining: remaining,
	}
}
