package king

import (
	"context"
	"fmt"
	"time"

	"github.com/warriorapp/warriord/internal/aiparse"
)

// PerformanceStats feeds the King's performance report.
type PerformanceStats struct {
	TotalXP                int
	CompletedTasks         int
	AvgXPPerTask           int
	MostProductiveCategory string
	CompletedToday         int
	PendingTasks           int
}

// fallbackAnalysis is returned when the model output cannot be used.
var fallbackAnalysis = aiparse.Analysis{
	Analysis:      "لم أتمكن من تحليل أدائك حالياً. حاول مرة أخرى.",
	Strengths:     []string{},
	Improvements:  []string{},
	OverallRating: "average",
}

// AnalyzePerformance asks the model for a structured performance report. On
// any failure the fallback report is returned together with the error.
func (a *Agent) AnalyzePerformance(ctx context.Context, stats PerformanceStats) (aiparse.Analysis, error) {
	prompt := fmt.Sprintf(`حلل أداء المحارب وقدم تقرير مفصل بصيغة JSON فقط:

- إجمالي XP: %d
- المهام المكتملة: %d
- متوسط XP لكل مهمة: %d
- الفئة الأكثر إنتاجية: %s
- المهام المكتملة اليوم: %d
- المهام المعلقة: %d

قدم التحليل بصيغة JSON التالية فقط (بدون أي نص إضافي):
{
  "analysis": "تحليل موجز 2-3 جمل يتماشى مع شخصيتك",
  "strengths": ["نقطة قوة 1", "نقطة قوة 2"],
  "improvements": ["نقطة تحسين 1", "نقطة تحسين 2"],
  "overallRating": "excellent|good|average|needs_work"
}`, stats.TotalXP, stats.CompletedTasks, stats.AvgXPPerTask, stats.MostProductiveCategory, stats.CompletedToday, stats.PendingTasks)

	raw, err := a.chatter.GenerateText(ctx, SystemPrompt(a.personality), nil, prompt)
	if err != nil {
		return fallbackAnalysis, fmt.Errorf("king analysis: %w", err)
	}

	report, _, perr := aiparse.ParseAnalysis(raw)
	if perr != nil {
		return fallbackAnalysis, perr
	}
	return report, nil
}

// WelcomeStats feeds the canned greeting.
type WelcomeStats struct {
	CompletedToday int
	PendingTasks   int
}

// Welcome returns a time-of-day greeting in the King's voice. No model call.
func (a *Agent) Welcome(userName string, stats WelcomeStats, now time.Time) string {
	greeting := "مساء النور"
	switch h := now.Hour(); {
	case h < 12:
		greeting = "صباح الخير"
	case h < 18:
		greeting = "مساء الخير"
	}

	switch a.personality {
	case Harsh:
		return fmt.Sprintf("%s أيها المحارب %s! لديك %d مهام معلقة. لا وقت للراحة!", greeting, userName, stats.PendingTasks)
	case Wise:
		return fmt.Sprintf("%s %s. أراك قد أنجزت %d مهام اليوم. استمر بحكمة.", greeting, userName, stats.CompletedToday)
	default:
		return fmt.Sprintf("%s بطلنا %s! 🌟 يوم جديد مليء بالفرص ينتظرك!", greeting, userName)
	}
}
