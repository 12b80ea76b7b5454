package king

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/warriorapp/warriord/internal/genai"
	"github.com/warriorapp/warriord/internal/xp"
)

// mockChatter implements Chatter for testing.
type mockChatter struct {
	response   string
	err        error
	calls      int
	lastSystem string
	lastMsg    string
	lastHist   []genai.Turn
}

func (m *mockChatter) GenerateText(ctx context.Context, system string, history []genai.Turn, message string) (string, error) {
	m.calls++
	m.lastSystem = system
	m.lastMsg = message
	m.lastHist = history
	return m.response, m.err
}

func TestChat_ContextAnnotation(t *testing.T) {
	mock := &mockChatter{response: "أحسنت أيها المحارب"}
	a := New(mock, Wise)

	reply, err := a.Chat(context.Background(), "ماذا أفعل اليوم؟", &UserContext{TotalXP: 1500, CompletedTasks: 12, PendingTasks: 3})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "أحسنت أيها المحارب" {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(mock.lastMsg, "XP=1500") || !strings.Contains(mock.lastMsg, "مهام منجزة=12") {
		t.Errorf("context annotation missing from message: %q", mock.lastMsg)
	}
	if mock.lastSystem != SystemPrompt(Wise) {
		t.Error("wrong system prompt")
	}

	hist := a.History()
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	if hist[0].Role != "user" || hist[1].Role != "model" {
		t.Errorf("history roles = %s, %s", hist[0].Role, hist[1].Role)
	}
}

func TestChat_HistoryWindowBounded(t *testing.T) {
	mock := &mockChatter{response: "رد"}
	a := New(mock, Inspiring)

	for i := 0; i < maxHistoryTurns; i++ {
		if _, err := a.Chat(context.Background(), fmt.Sprintf("رسالة %d", i), nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := len(a.History()); got != maxHistoryTurns {
		t.Errorf("history length = %d, want capped at %d", got, maxHistoryTurns)
	}
	// Oldest turns were evicted.
	if strings.Contains(a.History()[0].Text, "رسالة 0") {
		t.Error("oldest turn not evicted")
	}
}

func TestChat_ErrorPropagates(t *testing.T) {
	mock := &mockChatter{err: errors.New("network down")}
	a := New(mock, Harsh)

	if _, err := a.Chat(context.Background(), "مرحبا", nil); err == nil {
		t.Fatal("expected error")
	}
	if len(a.History()) != 0 {
		t.Error("failed call must not pollute history")
	}
}

func TestSetPersonality_ResetsHistory(t *testing.T) {
	mock := &mockChatter{response: "رد"}
	a := New(mock, Wise)
	if _, err := a.Chat(context.Background(), "مرحبا", nil); err != nil {
		t.Fatal(err)
	}

	a.SetPersonality(Harsh)
	if a.Personality() != Harsh {
		t.Errorf("personality = %s", a.Personality())
	}
	if len(a.History()) != 0 {
		t.Error("history survived personality switch")
	}
}

func TestNew_UnknownPersonalityCoerced(t *testing.T) {
	a := New(&mockChatter{}, Personality("sarcastic"))
	if a.Personality() != DefaultPersonality {
		t.Errorf("personality = %s, want default", a.Personality())
	}
}

func TestGenerateQuests(t *testing.T) {
	mock := &mockChatter{response: `[
		{"title":"تمرين صباحي","description":"ثلاثون دقيقة","category":"health","taskType":"side","difficulty":2},
		{"title":"خطة الأسبوع","description":"تحديد الأولويات","category":"work","taskType":"main","difficulty":3}
	]`}
	a := New(mock, Wise)

	completed := []CompletedTask{
		{Title: "تقرير", Category: "work", TaskKind: xp.KindMain},
		{Title: "قراءة", Category: "study", TaskKind: xp.KindSide},
	}
	quests, _, err := a.GenerateQuests(context.Background(), completed, 900, 2, []string{"work", "study", "health", "personal"})
	if err != nil {
		t.Fatalf("GenerateQuests: %v", err)
	}
	if len(quests) != 2 {
		t.Fatalf("got %d quests, want 2", len(quests))
	}

	// The prompt must surface under-represented categories (all of them
	// here, each below the balance threshold) and the archive lines.
	if !strings.Contains(mock.lastMsg, "health") {
		t.Error("neglected categories missing from prompt")
	}
	if !strings.Contains(mock.lastMsg, "- تقرير [work] (رئيسية)") {
		t.Errorf("archive line missing from prompt:\n%s", mock.lastMsg)
	}
	if len(mock.lastHist) != 0 {
		t.Error("quest generation must not reuse chat history")
	}
}

func TestGenerateQuests_PromptCapsHistory(t *testing.T) {
	mock := &mockChatter{response: `[]`}
	a := New(mock, Wise)

	completed := make([]CompletedTask, 40)
	for i := range completed {
		completed[i] = CompletedTask{Title: fmt.Sprintf("مهمة %d", i), Category: "work"}
	}
	if _, _, err := a.GenerateQuests(context.Background(), completed, 0, 0, []string{"work"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(mock.lastMsg, "مهمة 20") {
		t.Error("prompt includes tasks beyond the recency cap")
	}
	if !strings.Contains(mock.lastMsg, "مهمة 14") {
		t.Error("prompt missing tasks within the recency cap")
	}
}

func TestGenerateQuests_ParseFailure(t *testing.T) {
	mock := &mockChatter{response: "أعتذر، لا أستطيع اقتراح مهام الآن."}
	a := New(mock, Wise)

	quests, _, err := a.GenerateQuests(context.Background(), nil, 0, 0, []string{"work"})
	if err == nil {
		t.Fatal("expected typed parse error")
	}
	if len(quests) != 0 {
		t.Errorf("quests = %v, want empty", quests)
	}
}

func TestGenerateMotivation_ShortCircuit(t *testing.T) {
	mock := &mockChatter{response: `{"message":"ignored","type":"challenge"}`}
	a := New(mock, Harsh)
	a.pick = func(n int) int { return 1 }

	m, err := a.GenerateMotivation(context.Background(), MotivationContext{CompletedToday: 5})
	if err != nil {
		t.Fatalf("GenerateMotivation: %v", err)
	}
	if mock.calls != 0 {
		t.Error("model called despite performance short-circuit")
	}
	if m.BasedOnPerformance {
		t.Error("template message marked as performance-based")
	}
	if m.Message != Templates(Harsh)[1] {
		t.Errorf("message = %q, want template 1", m.Message)
	}
}

func TestGenerateMotivation_ModelPath(t *testing.T) {
	mock := &mockChatter{response: `{"message":"انهض وأكمل ما بدأت","type":"challenge"}`}
	a := New(mock, Harsh)

	m, err := a.GenerateMotivation(context.Background(), MotivationContext{CompletedToday: 1, LastTaskTitle: "تقرير"})
	if err != nil {
		t.Fatalf("GenerateMotivation: %v", err)
	}
	if !m.BasedOnPerformance {
		t.Error("model-generated message not marked performance-based")
	}
	if m.Type != "challenge" {
		t.Errorf("type = %q", m.Type)
	}
	if !strings.Contains(mock.lastMsg, "تقرير") {
		t.Error("last task title missing from prompt")
	}
}

func TestGenerateMotivation_FallbackOnParseFailure(t *testing.T) {
	mock := &mockChatter{response: "كلام بلا JSON"}
	a := New(mock, Wise)

	m, err := a.GenerateMotivation(context.Background(), MotivationContext{CompletedToday: 0})
	if err == nil {
		t.Fatal("expected error for telemetry")
	}
	if m.Message != Templates(Wise)[0] {
		t.Errorf("fallback message = %q, want first template", m.Message)
	}
	if m.BasedOnPerformance {
		t.Error("fallback marked performance-based")
	}
}

func TestAnalyzePerformance_Fallback(t *testing.T) {
	mock := &mockChatter{err: errors.New("timeout")}
	a := New(mock, Wise)

	report, err := a.AnalyzePerformance(context.Background(), PerformanceStats{TotalXP: 100})
	if err == nil {
		t.Fatal("expected error")
	}
	if report.OverallRating != "average" {
		t.Errorf("fallback rating = %q, want average", report.OverallRating)
	}
	if report.Analysis == "" {
		t.Error("fallback analysis text empty")
	}
}
