package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warriorapp/warriord/internal/aiparse"
	"github.com/warriorapp/warriord/internal/genai"
	"github.com/warriorapp/warriord/internal/king"
	"github.com/warriorapp/warriord/internal/storage"
	"github.com/warriorapp/warriord/internal/xp"
)

// chatFallback is served when the model cannot be reached so the chat page
// never renders an empty reply.
const chatFallback = "عذراً أيها المحارب، لا أستطيع الرد الآن. حاول مرة أخرى بعد قليل."

// kingAgent builds a fresh Agent for this request, voiced by the profile's
// personality. Sessions are not shared between requests; chat continuity
// comes from the durable interaction log.
func kingAgent(deps Deps, uid string) (*king.Agent, storage.Profile, error) {
	profile, err := deps.Tasks.Profile(uid)
	if err != nil {
		return nil, storage.Profile{}, err
	}
	return king.New(deps.Chatter, king.Personality(profile.AIPersonality)), profile, nil
}

// chatHistory rebuilds the conversation window from the stored chat log,
// oldest first.
func chatHistory(deps Deps, uid string, limit int) []genai.Turn {
	logged, err := deps.Store.ListInteractions(uid, limit)
	if err != nil {
		slog.Warn("could not load chat history", "error", err)
		return nil
	}
	var turns []genai.Turn
	for i := len(logged) - 1; i >= 0; i-- {
		in := logged[i]
		if in.Kind != "chat" {
			continue
		}
		role := "user"
		if in.Role == "assistant" {
			role = "model"
		}
		turns = append(turns, genai.Turn{Role: role, Text: in.Content})
	}
	return turns
}

func saveInteraction(deps Deps, uid, kind, role, content string) {
	err := deps.Store.SaveInteraction(storage.Interaction{
		ID:        uuid.NewString(),
		UserID:    uid,
		Kind:      kind,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("could not save interaction", "kind", kind, "error", err)
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	Degraded bool   `json:"degraded,omitempty"`
}

func handleKingChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		uid := userID(r)
		agent, _, err := kingAgent(deps, uid)
		if err != nil {
			respondError(w, err)
			return
		}
		agent.Resume(chatHistory(deps, uid, 40))

		stats, err := deps.Tasks.Stats(uid)
		if err != nil {
			respondError(w, err)
			return
		}
		uc := &king.UserContext{
			TotalXP:        stats.TotalXP,
			CompletedTasks: stats.CompletedTotal,
			PendingTasks:   stats.OpenTasks,
		}

		reply, err := agent.Chat(r.Context(), req.Message, uc)
		if err != nil {
			slog.Warn("king chat degraded", "error", err)
			writeJSON(w, http.StatusOK, chatResponse{Reply: chatFallback, Degraded: true})
			return
		}

		saveInteraction(deps, uid, "chat", "user", req.Message)
		saveInteraction(deps, uid, "chat", "assistant", reply)
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
	}
}

type questsResponse struct {
	Quests   []aiparse.Quest `json:"quests"`
	Warnings []string        `json:"warnings,omitempty"`
}

func handleKingQuests(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := userID(r)
		agent, profile, err := kingAgent(deps, uid)
		if err != nil {
			respondError(w, err)
			return
		}

		recent, err := deps.Store.ListRecentCompleted(uid, 50)
		if err != nil {
			respondError(w, err)
			return
		}
		completed := make([]king.CompletedTask, len(recent))
		for i, t := range recent {
			completed[i] = king.CompletedTask{
				Title:       t.Title,
				Description: t.Description,
				Category:    t.Category,
				TaskKind:    xp.TaskKind(t.TaskType),
			}
		}

		categories, err := deps.Tasks.Categories().Known(uid)
		if err != nil {
			respondError(w, err)
			return
		}
		pending, err := deps.Store.CountOpenTasks(uid)
		if err != nil {
			respondError(w, err)
			return
		}

		quests, warnings, err := agent.GenerateQuests(r.Context(), completed, profile.TotalXP, pending, categories)
		if err != nil {
			// Suggestions are advisory; serve an empty list rather than an
			// error page and keep the cause in the log.
			slog.Warn("king quest generation degraded", "error", err)
			writeJSON(w, http.StatusOK, questsResponse{Quests: []aiparse.Quest{}})
			return
		}
		if quests == nil {
			quests = []aiparse.Quest{}
		}

		if b, err := json.Marshal(quests); err == nil {
			saveInteraction(deps, uid, "quests", "assistant", string(b))
		}
		writeJSON(w, http.StatusOK, questsResponse{Quests: quests, Warnings: warnings})
	}
}

func handleKingMotivation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := userID(r)
		agent, _, err := kingAgent(deps, uid)
		if err != nil {
			respondError(w, err)
			return
		}

		stats, err := deps.Tasks.Stats(uid)
		if err != nil {
			respondError(w, err)
			return
		}
		mc := king.MotivationContext{
			TotalXP:        stats.TotalXP,
			CompletedToday: stats.CompletedToday,
			PendingTasks:   stats.OpenTasks,
		}
		if last, err := deps.Store.LastCompletedTask(uid); err == nil {
			mc.LastTaskTitle = last.Title
		} else if !errors.Is(err, storage.ErrNotFound) {
			respondError(w, err)
			return
		}

		motivation, err := agent.GenerateMotivation(r.Context(), mc)
		if err != nil {
			// The fallback template is already in motivation.
			slog.Warn("king motivation degraded", "error", err)
		}

		saveInteraction(deps, uid, "motivation", "assistant", motivation.Message)
		writeJSON(w, http.StatusOK, motivation)
	}
}

func handleKingAnalyze(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := userID(r)
		agent, profile, err := kingAgent(deps, uid)
		if err != nil {
			respondError(w, err)
			return
		}

		stats, err := deps.Tasks.Stats(uid)
		if err != nil {
			respondError(w, err)
			return
		}

		completed, err := deps.Store.ListTasks(uid, storage.StatusCompleted)
		if err != nil {
			respondError(w, err)
			return
		}
		counts := make(map[string]int)
		var topCategory string
		for _, t := range completed {
			counts[t.Category]++
			if topCategory == "" || counts[t.Category] > counts[topCategory] {
				topCategory = t.Category
			}
		}

		avg := 0
		if stats.CompletedTotal > 0 {
			avg = profile.TotalXP / stats.CompletedTotal
		}

		report, err := agent.AnalyzePerformance(r.Context(), king.PerformanceStats{
			TotalXP:                profile.TotalXP,
			CompletedTasks:         stats.CompletedTotal,
			AvgXPPerTask:           avg,
			MostProductiveCategory: topCategory,
			CompletedToday:         stats.CompletedToday,
			PendingTasks:           stats.OpenTasks,
		})
		if err != nil {
			// The fallback report is already in report.
			slog.Warn("king analysis degraded", "error", err)
		}

		saveInteraction(deps, uid, "analysis", "assistant", report.Analysis)
		writeJSON(w, http.StatusOK, report)
	}
}

type parseTaskRequest struct {
	Text string `json:"text"`
}

type parseTaskResponse struct {
	Draft    aiparse.TaskDraft `json:"draft"`
	Warnings []string          `json:"warnings,omitempty"`
}

func handleKingParseTask(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req parseTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}

		uid := userID(r)
		agent, _, err := kingAgent(deps, uid)
		if err != nil {
			respondError(w, err)
			return
		}
		categories, err := deps.Tasks.Categories().Known(uid)
		if err != nil {
			respondError(w, err)
			return
		}

		draft, warnings, err := agent.ParseTask(r.Context(), req.Text, categories)
		if err != nil {
			var perr *aiparse.ParseError
			if errors.As(err, &perr) {
				httpError(w, http.StatusUnprocessableEntity, "parse_error", "could not structure task: %v", perr)
				return
			}
			httpError(w, http.StatusBadGateway, "api_error", "model unavailable: %v", err)
			return
		}

		saveInteraction(deps, uid, "parse_task", "user", req.Text)
		if b, err := json.Marshal(draft); err == nil {
			saveInteraction(deps, uid, "parse_task", "assistant", string(b))
		}
		writeJSON(w, http.StatusOK, parseTaskResponse{Draft: draft, Warnings: warnings})
	}
}

type welcomeResponse struct {
	Message string `json:"message"`
}

func handleKingWelcome(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := userID(r)
		agent, profile, err := kingAgent(deps, uid)
		if err != nil {
			respondError(w, err)
			return
		}
		stats, err := deps.Tasks.Stats(uid)
		if err != nil {
			respondError(w, err)
			return
		}

		msg := agent.Welcome(profile.Name, king.WelcomeStats{
			CompletedToday: stats.CompletedToday,
			PendingTasks:   stats.OpenTasks,
		}, time.Now())
		writeJSON(w, http.StatusOK, welcomeResponse{Message: msg})
	}
}
