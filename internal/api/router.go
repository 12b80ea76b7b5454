// Package api exposes the warriord HTTP surface: account auth, task
// lifecycle, progression stats, and the King advisor endpoints.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warriorapp/warriord/internal/auth"
	"github.com/warriorapp/warriord/internal/engine"
	"github.com/warriorapp/warriord/internal/king"
	"github.com/warriorapp/warriord/internal/storage"
	"github.com/warriorapp/warriord/internal/transcribe"
)

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Store       *storage.Store
	Tasks       *engine.TaskService
	Tokens      *auth.Manager
	Chatter     king.Chatter        // model boundary; mocked in tests
	Transcriber *transcribe.Client  // optional; nil disables /transcribe
}

// NewHandler builds the full warriord router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/auth/signup", handleSignup(deps))
	r.Post("/auth/login", handleLogin(deps))

	r.Group(func(r chi.Router) {
		r.Use(JWTAuth(deps.Tokens))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", handleListTasks(deps))
			r.Post("/", handleCreateTask(deps))
			r.Get("/{id}", handleGetTask(deps))
			r.Patch("/{id}", handleUpdateTask(deps))
			r.Delete("/{id}", handleDeleteTask(deps))
			r.Post("/{id}/start", handleStartTask(deps))
			r.Post("/{id}/complete", handleCompleteTask(deps))
			r.Post("/{id}/cancel", handleCancelTask(deps))
		})

		r.Get("/profile", handleGetProfile(deps))
		r.Patch("/profile", handlePatchProfile(deps))
		r.Get("/stats", handleStats(deps))
		r.Get("/ranks", handleRanks(deps))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", handleListCategories(deps))
			r.Post("/", handleCreateCategory(deps))
			r.Delete("/{id}", handleDeleteCategory(deps))
		})

		r.Route("/king", func(r chi.Router) {
			r.Post("/chat", handleKingChat(deps))
			r.Post("/quests", handleKingQuests(deps))
			r.Post("/motivation", handleKingMotivation(deps))
			r.Post("/analyze", handleKingAnalyze(deps))
			r.Post("/parse-task", handleKingParseTask(deps))
			r.Get("/welcome", handleKingWelcome(deps))
		})

		r.Get("/interactions", handleListInteractions(deps))
		r.Delete("/interactions/{id}", handleDeleteInteraction(deps))

		r.Post("/transcribe", handleTranscribe(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
