package xp

import (
	"testing"
	"time"
)

func TestCalculateXP(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		factor  float64
		want    int
	}{
		{"two hours main", 125 * time.Minute, 4.0, 500},
		{"one hour side", 60 * time.Minute, 2.0, 120},
		{"sub-minute floors to one minute", 20 * time.Second, 4.0, 4},
		{"exact minute", time.Minute, 2.0, 2},
		{"fractional factor rounds", 3 * time.Minute, 2.5, 8},
		{"partial minute truncated", 90 * time.Second, 4.0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateXP(base, base.Add(tt.elapsed), tt.factor)
			if err != nil {
				t.Fatalf("CalculateXP: %v", err)
			}
			if got != tt.want {
				t.Errorf("CalculateXP(%v, factor=%v) = %d, want %d", tt.elapsed, tt.factor, got, tt.want)
			}
		})
	}
}

func TestCalculateXP_EndBeforeStart(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	if _, err := CalculateXP(base, base.Add(-time.Minute), 4.0); err == nil {
		t.Error("expected error for end before start, got nil")
	}
}

func TestCalculateXP_InvalidFactor(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for _, factor := range []float64{0, -1.5} {
		if _, err := CalculateXP(base, base.Add(time.Hour), factor); err == nil {
			t.Errorf("expected error for factor %v, got nil", factor)
		}
	}
}

func TestEstimateXP(t *testing.T) {
	tests := []struct {
		minutes int
		kind    TaskKind
		want    int
	}{
		{60, KindMain, 240},
		{60, KindSide, 120},
		{25, KindMain, 100},
		{1, KindSide, 2},
		{0, KindMain, 0},
	}

	for _, tt := range tests {
		if got := EstimateXP(tt.minutes, tt.kind); got != tt.want {
			t.Errorf("EstimateXP(%d, %s) = %d, want %d", tt.minutes, tt.kind, got, tt.want)
		}
	}
}

func TestXPToTime(t *testing.T) {
	if got := XPToTime(240, KindMain); got != 60 {
		t.Errorf("XPToTime(240, main) = %d, want 60", got)
	}
	if got := XPToTime(240, KindSide); got != 120 {
		t.Errorf("XPToTime(240, side) = %d, want 120", got)
	}
}

func TestEstimateXPRoundTrip(t *testing.T) {
	// XPToTime is the display inverse of EstimateXP for whole durations.
	for _, minutes := range []int{1, 15, 30, 90, 480} {
		for _, kind := range []TaskKind{KindMain, KindSide} {
			if got := XPToTime(EstimateXP(minutes, kind), kind); got != minutes {
				t.Errorf("round trip %d minutes (%s) = %d", minutes, kind, got)
			}
		}
	}
}

func TestValidKind(t *testing.T) {
	if !ValidKind(KindMain) || !ValidKind(KindSide) {
		t.Error("known kinds reported invalid")
	}
	if ValidKind("epic") {
		t.Error("unknown kind reported valid")
	}
}
