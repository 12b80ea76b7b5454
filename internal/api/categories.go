package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warriorapp/warriord/internal/category"
	"github.com/warriorapp/warriord/internal/storage"
)

var categoryIDPattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

type createCategoryRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type categoriesResponse struct {
	Categories []category.Category `json:"categories"`
}

func handleListCategories(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := append([]category.Category(nil), category.Defaults...)

		custom, err := deps.Store.ListCategories(userID(r))
		if err != nil {
			respondError(w, err)
			return
		}
		for _, c := range custom {
			out = append(out, category.Category{ID: c.ID, Name: c.Name})
		}
		writeJSON(w, http.StatusOK, categoriesResponse{Categories: out})
	}
}

func handleCreateCategory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req createCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		id := strings.ToLower(strings.TrimSpace(req.ID))
		if !categoryIDPattern.MatchString(id) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "category id must match %s", categoryIDPattern)
			return
		}
		if category.IsBuiltin(id) {
			httpError(w, http.StatusConflict, "conflict", "category %q is built in", id)
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = id
		}

		uid := userID(r)
		known, err := deps.Tasks.Categories().Valid(uid, id)
		if err != nil {
			respondError(w, err)
			return
		}
		if known {
			httpError(w, http.StatusConflict, "conflict", "category %q already exists", id)
			return
		}

		cat := storage.CustomCategory{ID: id, UserID: uid, Name: name, CreatedAt: time.Now().UTC()}
		if err := deps.Store.AddCategory(cat); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, cat)
	}
}

func handleDeleteCategory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if category.IsBuiltin(id) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "cannot delete built-in category %q", id)
			return
		}
		// Existing tasks keep the category label; only the registry entry goes.
		if err := deps.Store.DeleteCategory(userID(r), id); err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
