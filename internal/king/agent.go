// Package king implements the "King" advisor: a stateful façade over the
// generative model, specialized into chat, quest suggestion, motivation, and
// performance analysis. One Agent serves one session; handlers construct a
// fresh Agent per request and the chat page keeps its own history.
package king

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/warriorapp/warriord/internal/genai"
)

// maxHistoryTurns bounds the rolling conversation window so prompts cannot
// grow without limit over a long session. Oldest turns are dropped first.
const maxHistoryTurns = 20

// Chatter is the model boundary. Implemented by genai.Client; mocked in tests.
type Chatter interface {
	GenerateText(ctx context.Context, systemInstruction string, history []genai.Turn, message string) (string, error)
}

// UserContext is the numeric summary embedded into chat messages so the King
// can ground replies in the warrior's actual progress.
type UserContext struct {
	TotalXP        int
	CompletedTasks int
	PendingTasks   int
}

// Agent is a single King session: one personality, one bounded history.
type Agent struct {
	chatter     Chatter
	personality Personality
	history     []genai.Turn
	pick        func(n int) int // template selector, swapped out in tests
}

// New creates an Agent with the given personality. Unknown personalities are
// coerced to the default.
func New(chatter Chatter, p Personality) *Agent {
	if !ValidPersonality(p) {
		p = DefaultPersonality
	}
	return &Agent{
		chatter:     chatter,
		personality: p,
		pick:        rand.Intn,
	}
}

// Personality returns the session personality.
func (a *Agent) Personality() Personality {
	return a.personality
}

// SetPersonality switches the session voice. The conversation history is
// reset: the personality belongs to the session, not to individual turns.
func (a *Agent) SetPersonality(p Personality) {
	if !ValidPersonality(p) {
		p = DefaultPersonality
	}
	a.personality = p
	a.history = nil
}

// Resume installs a previously stored conversation window, trimmed to the
// session bound. Used to rebuild a session from the durable interaction log
// when agents are constructed per request.
func (a *Agent) Resume(history []genai.Turn) {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	a.history = append([]genai.Turn(nil), history...)
}

// History returns a copy of the current conversation window.
func (a *Agent) History() []genai.Turn {
	out := make([]genai.Turn, len(a.history))
	copy(out, a.history)
	return out
}

// Chat sends a user message to the King and returns the reply. When uc is
// non-nil the message is annotated with the warrior's numeric summary; the
// annotation is part of the stored turn, not tracked separately. Both the
// user turn and the reply are appended to the session window.
func (a *Agent) Chat(ctx context.Context, message string, uc *UserContext) (string, error) {
	contextual := message
	if uc != nil {
		contextual += fmt.Sprintf("\n\n[معلومات المحارب: XP=%d, مهام منجزة=%d, مهام قيد التنفيذ=%d]",
			uc.TotalXP, uc.CompletedTasks, uc.PendingTasks)
	}

	reply, err := a.chatter.GenerateText(ctx, SystemPrompt(a.personality), a.history, contextual)
	if err != nil {
		return "", fmt.Errorf("king chat: %w", err)
	}

	a.append(genai.Turn{Role: "user", Text: contextual})
	a.append(genai.Turn{Role: "model", Text: reply})
	return reply, nil
}

func (a *Agent) append(t genai.Turn) {
	a.history = append(a.history, t)
	if len(a.history) > maxHistoryTurns {
		a.history = a.history[len(a.history)-maxHistoryTurns:]
	}
}
