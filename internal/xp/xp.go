package xp

import (
	"fmt"
	"math"
	"time"
)

// TaskKind distinguishes main quests from side quests. Main tasks earn XP at
// double the side-task rate.
type TaskKind string

const (
	KindMain TaskKind = "main"
	KindSide TaskKind = "side"
)

// Default difficulty factors per task kind. The factor is fixed on the task
// at creation time and never recomputed afterwards.
const (
	MainDifficultyFactor = 4.0
	SideDifficultyFactor = 2.0
)

// ValidKind reports whether k is a known task kind.
func ValidKind(k TaskKind) bool {
	return k == KindMain || k == KindSide
}

// DefaultDifficultyFactor resolves the difficulty factor for a task kind.
// Unknown kinds fall back to the main-task factor.
func DefaultDifficultyFactor(kind TaskKind) float64 {
	if kind == KindSide {
		return SideDifficultyFactor
	}
	return MainDifficultyFactor
}

// CalculateXP computes the XP awarded for a task worked from start to end
// with the given difficulty factor.
//
// XP = round(minutes * factor), where minutes is the elapsed whole-minute
// count floored to a minimum of 1 so that sub-minute completions still earn
// something.
func CalculateXP(start, end time.Time, difficultyFactor float64) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("end time %s is before start time %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if difficultyFactor <= 0 {
		return 0, fmt.Errorf("difficulty factor must be positive, got %v", difficultyFactor)
	}

	minutes := int(end.Sub(start).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return int(math.Round(float64(minutes) * difficultyFactor)), nil
}

// EstimateXP previews the XP a task of the given kind would earn if it took
// durationMinutes. Used when creating a task, before any timestamps exist.
func EstimateXP(durationMinutes int, kind TaskKind) int {
	return int(math.Round(float64(durationMinutes) * DefaultDifficultyFactor(kind)))
}

// XPToTime converts an XP amount back to an approximate duration in minutes.
// Display only; not the inverse used for awarding.
func XPToTime(xp int, kind TaskKind) int {
	return int(math.Round(float64(xp) / DefaultDifficultyFactor(kind)))
}
