package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type GenerateSummaryRequest struct {
	ArticleID string `json:"articleId"`
	Text      string `json:"text"`
}

type SaveArticleRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

func (h *APIHandler) GenerateSummaryHandler(w http.ResponseWriter, r *http.Request) error {
	var req GenerateSummaryRequest
	if err := h.bind(w, r, &req); err != nil {
		return err
	}

	summary, err := h.summaries.Generate(r.Context(), req.ArticleID, req.Text)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, ok(summary))
	return nil
}

func (h *APIHandler) ListSavedHandler(w http.ResponseWriter, r *http.Request) error {
	user := userFromContext(r.Context())
	saved, err := h.summaries.ListSaved(r.Context(), user.ID)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, okList(saved))
	return nil
}

func (h *APIHandler) SaveArticleHandler(w http.ResponseWriter, r *http.Request) error {
	var req SaveArticleRequest
	if err := h.bind(w, r, &req); err != nil {
		return err
	}

	user := userFromContext(r.Context())
	saved, err := h.summaries.Save(r.Context(), user.ID, chi.URLParam(r, "articleId"), req.Notes)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, ok(saved))
	return nil
}

func (h *APIHandler) UnsaveArticleHandler(w http.ResponseWriter, r *http.Request) error {
	user := userFromContext(r.Context())
	if err := h.summaries.Unsave(r.Context(), user.ID, chi.URLParam(r, "articleId")); err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, ok(map[string]any{}))
	return nil
}
