package aiparse

import (
	"encoding/json"
	"strings"

	"github.com/warriorapp/warriord/internal/xp"
)

// DefaultCategory is substituted when the model invents a category outside
// the known set. The original value is preserved as a suggestion so the UI
// can offer it as a new custom category.
const DefaultCategory = "personal"

// Quest is an AI-suggested candidate task. Quests are ephemeral: held by the
// client until accepted into the task store or discarded.
type Quest struct {
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Category          string      `json:"category"`
	TaskKind          xp.TaskKind `json:"taskType"`
	Difficulty        int         `json:"difficulty"`
	SuggestedCategory string      `json:"suggestedCategory,omitempty"`
}

// TaskDraft is the structured form of a free-text task description.
type TaskDraft struct {
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	EstimatedMinutes     *int        `json:"estimatedMinutes"` // nil = open-ended
	Category             string      `json:"category"`
	SuggestedNewCategory string      `json:"suggestedNewCategory,omitempty"`
	TaskKind             xp.TaskKind `json:"taskType"`
}

// Motivation is a short message from the King.
type Motivation struct {
	Message            string `json:"message"`
	Type               string `json:"type"` // encouragement, challenge, wisdom
	BasedOnPerformance bool   `json:"basedOnPerformance"`
}

// Analysis is the King's performance report.
type Analysis struct {
	Analysis      string   `json:"analysis"`
	Strengths     []string `json:"strengths"`
	Improvements  []string `json:"improvements"`
	OverallRating string   `json:"overallRating"` // excellent, good, average, needs_work
}

var motivationTypes = map[string]bool{"encouragement": true, "challenge": true, "wisdom": true}
var ratings = map[string]bool{"excellent": true, "good": true, "average": true, "needs_work": true}

// ParseQuests decodes a quest list from raw model output. Unknown categories
// and task kinds are recovered with defaults rather than rejected; each
// recovery is reported as a warning. Quests without a title are dropped.
func ParseQuests(raw string, knownCategories []string) ([]Quest, []string, *ParseError) {
	span, perr := ExtractJSON(raw)
	if perr != nil {
		return nil, nil, perr
	}

	var quests []Quest
	if err := json.Unmarshal([]byte(span), &quests); err != nil {
		return nil, nil, parseErrorf(MalformedJSON, "decoding quest list: %v", err)
	}

	var warnings []string
	out := quests[:0]
	for i := range quests {
		q := quests[i]
		if strings.TrimSpace(q.Title) == "" {
			warnings = append(warnings, "dropped quest with empty title")
			continue
		}
		if w := recoverCategory(&q.Category, &q.SuggestedCategory, knownCategories); w != "" {
			warnings = append(warnings, w)
		}
		if !xp.ValidKind(q.TaskKind) {
			warnings = append(warnings, "unknown task kind "+string(q.TaskKind)+", defaulting to main")
			q.TaskKind = xp.KindMain
		}
		if q.Difficulty < 1 || q.Difficulty > 5 {
			q.Difficulty = 2
		}
		out = append(out, q)
	}
	return out, warnings, nil
}

// ParseTaskDraft decodes a single task draft. A missing title is the one
// unrecoverable shape error: there is no default worth inventing for it.
func ParseTaskDraft(raw string, knownCategories []string) (TaskDraft, []string, *ParseError) {
	span, perr := ExtractJSON(raw)
	if perr != nil {
		return TaskDraft{}, nil, perr
	}

	var draft TaskDraft
	if err := json.Unmarshal([]byte(span), &draft); err != nil {
		return TaskDraft{}, nil, parseErrorf(MalformedJSON, "decoding task draft: %v", err)
	}

	if strings.TrimSpace(draft.Title) == "" {
		return TaskDraft{}, nil, parseErrorf(MissingField, "task draft has no title")
	}

	var warnings []string
	if w := recoverCategory(&draft.Category, &draft.SuggestedNewCategory, knownCategories); w != "" {
		warnings = append(warnings, w)
	}
	if !xp.ValidKind(draft.TaskKind) {
		warnings = append(warnings, "unknown task kind "+string(draft.TaskKind)+", defaulting to main")
		draft.TaskKind = xp.KindMain
	}
	if draft.EstimatedMinutes != nil && *draft.EstimatedMinutes <= 0 {
		draft.EstimatedMinutes = nil
	}
	return draft, warnings, nil
}

// ParseMotivation decodes a motivation message, defaulting the type when the
// model invents one outside the known set.
func ParseMotivation(raw string) (Motivation, []string, *ParseError) {
	span, perr := ExtractJSON(raw)
	if perr != nil {
		return Motivation{}, nil, perr
	}

	var m Motivation
	if err := json.Unmarshal([]byte(span), &m); err != nil {
		return Motivation{}, nil, parseErrorf(MalformedJSON, "decoding motivation: %v", err)
	}
	if strings.TrimSpace(m.Message) == "" {
		return Motivation{}, nil, parseErrorf(MissingField, "motivation has no message")
	}

	var warnings []string
	if !motivationTypes[m.Type] {
		warnings = append(warnings, "unknown motivation type "+m.Type+", defaulting to encouragement")
		m.Type = "encouragement"
	}
	return m, warnings, nil
}

// ParseAnalysis decodes a performance report, defaulting an unknown rating
// to average.
func ParseAnalysis(raw string) (Analysis, []string, *ParseError) {
	span, perr := ExtractJSON(raw)
	if perr != nil {
		return Analysis{}, nil, perr
	}

	var a Analysis
	if err := json.Unmarshal([]byte(span), &a); err != nil {
		return Analysis{}, nil, parseErrorf(MalformedJSON, "decoding analysis: %v", err)
	}
	if strings.TrimSpace(a.Analysis) == "" {
		return Analysis{}, nil, parseErrorf(MissingField, "analysis has no summary text")
	}

	var warnings []string
	if !ratings[a.OverallRating] {
		warnings = append(warnings, "unknown rating "+a.OverallRating+", defaulting to average")
		a.OverallRating = "average"
	}
	return a, warnings, nil
}

// recoverCategory validates *category against the known set. On a miss the
// original value moves into *suggested and *category becomes the default.
func recoverCategory(category, suggested *string, known []string) string {
	c := strings.TrimSpace(*category)
	for _, k := range known {
		if c == k {
			*category = c
			return ""
		}
	}
	warning := "unknown category " + c + ", defaulting to " + DefaultCategory
	if c == "" {
		warning = "missing category, defaulting to " + DefaultCategory
	} else {
		*suggested = c
	}
	*category = DefaultCategory
	return warning
}
