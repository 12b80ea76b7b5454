package king

import (
	"context"
	"fmt"
	"strings"

	"github.com/warriorapp/warriord/internal/aiparse"
)

// ParseTask turns a free-text (often dictated) task description into a
// structured draft. Stateless; the chat history is not consulted.
func (a *Agent) ParseTask(ctx context.Context, text string, categories []string) (aiparse.TaskDraft, []string, error) {
	prompt := fmt.Sprintf(`حوّل النص التالي إلى مهمة منظمة.

النص: "%s"

قدم الرد بصيغة JSON فقط (بدون أي نص آخر):
{
  "title": "عنوان قصير للمهمة",
  "description": "وصف مختصر",
  "estimatedMinutes": 30,
  "category": "%s",
  "taskType": "main|side"
}

ملاحظات:
- estimatedMinutes رقم تقريبي بالدقائق، أو null إذا كانت المهمة مفتوحة
- إذا لم تناسب أي فئة معروفة، اختر الأقرب`, text, strings.Join(categories, "|"))

	raw, err := a.chatter.GenerateText(ctx, SystemPrompt(a.personality), nil, prompt)
	if err != nil {
		return aiparse.TaskDraft{}, nil, fmt.Errorf("king task parse: %w", err)
	}

	draft, warnings, perr := aiparse.ParseTaskDraft(raw, categories)
	if perr != nil {
		return aiparse.TaskDraft{}, nil, perr
	}
	return draft, warnings, nil
}
