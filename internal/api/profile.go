package api

import (
	"encoding/json"
	"net/http"

	"github.com/warriorapp/warriord/internal/engine"
	"github.com/warriorapp/warriord/internal/rank"
)

type patchProfileRequest struct {
	Name          *string `json:"name"`
	AvatarURL     *string `json:"avatar_url"`
	AIPersonality *string `json:"ai_personality"`
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := deps.Tasks.Profile(userID(r))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func handlePatchProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req patchProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		profile, err := deps.Tasks.UpdateProfile(userID(r), engine.UpdateProfileInput{
			Name:          req.Name,
			AvatarURL:     req.AvatarURL,
			AIPersonality: req.AIPersonality,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.Tasks.Stats(userID(r))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

type ranksResponse struct {
	Tiers    []rank.Tier   `json:"tiers"`
	Progress rank.Progress `json:"progress"`
}

func handleRanks(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := deps.Tasks.Profile(userID(r))
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ranksResponse{
			Tiers:    rank.Tiers,
			Progress: rank.ProgressToNext(profile.TotalXP),
		})
	}
}
