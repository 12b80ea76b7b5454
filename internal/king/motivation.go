package king

import (
	"context"
	"fmt"

	"github.com/warriorapp/warriord/internal/aiparse"
)

// performanceShortCircuit: at this many completions today the warrior is
// doing fine and a canned message is served without calling the model. This
// keeps the happy path free of a network dependency.
const performanceShortCircuit = 3

// MotivationContext summarizes the warrior's day for the motivation prompt.
type MotivationContext struct {
	TotalXP        int
	CompletedToday int
	PendingTasks   int
	LastTaskTitle  string // optional
}

// GenerateMotivation produces a short motivational message. The returned
// Motivation is always usable: when the model call or parse fails, the first
// personality template is substituted and the error is returned alongside it
// for logging, so callers can tell degradation from success without losing
// the message.
func (a *Agent) GenerateMotivation(ctx context.Context, mc MotivationContext) (aiparse.Motivation, error) {
	templates := Templates(a.personality)

	if mc.CompletedToday >= performanceShortCircuit {
		return aiparse.Motivation{
			Message:            templates[a.pick(len(templates))],
			Type:               "encouragement",
			BasedOnPerformance: false,
		}, nil
	}

	fallback := aiparse.Motivation{
		Message:            templates[0],
		Type:               "encouragement",
		BasedOnPerformance: false,
	}

	raw, err := a.chatter.GenerateText(ctx, SystemPrompt(a.personality), nil, buildMotivationPrompt(a.personality, mc))
	if err != nil {
		return fallback, fmt.Errorf("king motivation: %w", err)
	}

	m, _, perr := aiparse.ParseMotivation(raw)
	if perr != nil {
		return fallback, perr
	}
	m.BasedOnPerformance = true
	return m, nil
}

func buildMotivationPrompt(p Personality, mc MotivationContext) string {
	prompt := fmt.Sprintf(`أنت الملك.
قدم رسالة تحفيزية قصيرة (جملة أو جملتين) للمحارب.

حالة المحارب:
- XP الإجمالي: %d
- المهام المكتملة اليوم: %d
- المهام المعلقة: %d`, mc.TotalXP, mc.CompletedToday, mc.PendingTasks)

	if mc.LastTaskTitle != "" {
		prompt += "\n- آخر مهمة مكتملة: " + mc.LastTaskTitle
	}

	prompt += `

قدم الرد بصيغة JSON فقط:
{
  "message": "رسالة التحفيز",
  "type": "encouragement|challenge|wisdom"
}`
	return prompt
}
