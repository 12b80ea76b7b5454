package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warriorapp/warriord/internal/auth"
	"github.com/warriorapp/warriord/internal/king"
	"github.com/warriorapp/warriord/internal/rank"
	"github.com/warriorapp/warriord/internal/storage"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string          `json:"token"`
	User    storage.User    `json:"user"`
	Profile storage.Profile `json:"profile"`
}

func handleSignup(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if _, err := mail.ParseAddress(req.Email); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid email address")
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		if _, err := deps.Store.GetUserByEmail(req.Email); err == nil {
			httpError(w, http.StatusConflict, "conflict", "email already registered")
			return
		} else if !errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusInternalServerError, "api_error", "checking email: %v", err)
			return
		}

		now := time.Now().UTC()
		user := storage.User{
			ID:           uuid.NewString(),
			Email:        strings.ToLower(req.Email),
			PasswordHash: hash,
			CreatedAt:    now,
		}
		if err := deps.Store.CreateUser(user); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "creating user: %v", err)
			return
		}

		profile := storage.Profile{
			ID:            user.ID,
			Name:          name,
			Rank:          rank.Tiers[0].Name,
			AIPersonality: string(king.DefaultPersonality),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := deps.Store.CreateProfile(profile); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "creating profile: %v", err)
			return
		}

		token, err := deps.Tokens.Issue(user.ID, user.Email)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "issuing token: %v", err)
			return
		}

		writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user, Profile: profile})
	}
}

func handleLogin(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		user, err := deps.Store.GetUserByEmail(req.Email)
		if errors.Is(err, storage.ErrNotFound) {
			// Same error as a bad password so probes cannot enumerate accounts.
			httpError(w, http.StatusUnauthorized, "authentication_error", "invalid email or password")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "looking up user: %v", err)
			return
		}
		if !auth.CheckPassword(req.Password, user.PasswordHash) {
			httpError(w, http.StatusUnauthorized, "authentication_error", "invalid email or password")
			return
		}

		profile, err := deps.Tasks.Profile(user.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading profile: %v", err)
			return
		}

		token, err := deps.Tokens.Issue(user.ID, user.Email)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "issuing token: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, authResponse{Token: token, User: user, Profile: profile})
	}
}
