package king

import (
	"context"
	"fmt"
	"strings"

	"github.com/warriorapp/warriord/internal/aiparse"
	"github.com/warriorapp/warriord/internal/xp"
)

// maxHistoryTasks caps how many recent completions are described to the
// model when building the quest prompt.
const maxHistoryTasks = 15

// balanceThreshold: categories with fewer completions than this are called
// out as needing attention so the model favors them.
const balanceThreshold = 3

// CompletedTask is the slice of a task the quest prompt needs.
type CompletedTask struct {
	Title       string
	Description string
	Category    string
	TaskKind    xp.TaskKind
}

// GenerateQuests asks the model for 3–4 quest suggestions grounded in the
// warrior's archive, biased toward under-represented categories. The call is
// stateless: it does not touch the chat history. On a parse failure the
// returned error is the typed ParseError so callers can log it; the quest
// list is empty, never partial garbage.
func (a *Agent) GenerateQuests(ctx context.Context, completed []CompletedTask, totalXP, pendingCount int, categories []string) ([]aiparse.Quest, []string, error) {
	prompt := buildQuestPrompt(completed, totalXP, pendingCount, categories)

	raw, err := a.chatter.GenerateText(ctx, SystemPrompt(a.personality), nil, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("king quest generation: %w", err)
	}

	quests, warnings, perr := aiparse.ParseQuests(raw, categories)
	if perr != nil {
		return nil, nil, perr
	}
	return quests, warnings, nil
}

func buildQuestPrompt(completed []CompletedTask, totalXP, pendingCount int, categories []string) string {
	counts := make(map[string]int)
	for _, t := range completed {
		counts[t.Category]++
	}

	var neglected []string
	for _, c := range categories {
		if counts[c] < balanceThreshold {
			neglected = append(neglected, c)
		}
	}
	balance := "متوازن"
	if len(neglected) > 0 {
		balance = strings.Join(neglected, ", ")
	}

	recent := completed
	if len(recent) > maxHistoryTasks {
		recent = recent[:maxHistoryTasks]
	}
	var lines []string
	for _, t := range recent {
		line := "- " + t.Title
		if t.Description != "" {
			line += ": " + t.Description
		}
		line += " [" + t.Category + "]"
		if t.TaskKind == xp.KindMain {
			line += " (رئيسية)"
		} else if t.TaskKind == xp.KindSide {
			line += " (جانبية)"
		}
		lines = append(lines, line)
	}
	tasksDescription := strings.Join(lines, "\n")
	if tasksDescription == "" {
		tasksDescription = "(لا توجد مهام مكتملة بعد)"
	}

	var dist []string
	for _, c := range categories {
		dist = append(dist, fmt.Sprintf("%s(%d)", c, counts[c]))
	}

	return fmt.Sprintf(`أنت مساعد ذكي تقترح مهام عملية للمستخدم بناءً على تحليل مهامه السابقة.

=== المهام المكتملة سابقاً ===
%s

=== إحصائيات ===
- إجمالي XP: %d
- توزيع الفئات: %s
- الفئات التي تحتاج اهتمام: %s
- المهام المعلقة حالياً: %d

=== المطلوب ===
اقترح 3-4 مهام جديدة بناءً على نمط المستخدم:
1. مهام مشابهة لما يفعله المستخدم عادةً
2. أضف مهام في الفئات الأقل استخداماً لتحقيق التوازن
3. العناوين قصيرة ومباشرة
4. الوصف جملة واحدة واضحة

قدم بصيغة JSON فقط (بدون أي نص آخر):
[
  {
    "title": "عنوان قصير",
    "description": "وصف مختصر",
    "category": "%s",
    "taskType": "main|side",
    "difficulty": 1-5
  }
]`, tasksDescription, totalXP, strings.Join(dist, ", "), balance, pendingCount, strings.Join(categories, "|"))
}
