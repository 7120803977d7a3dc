package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *APIHandler) HeadlinesHandler(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	articles, err := h.news.Headlines(r.Context(), q.Get("category"), q.Get("country"), pageFromQuery(r))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, okList(articles))
	return nil
}

func (h *APIHandler) CategoryHandler(w http.ResponseWriter, r *http.Request) error {
	articles, err := h.news.Headlines(r.Context(), chi.URLParam(r, "category"), r.URL.Query().Get("country"), pageFromQuery(r))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, okList(articles))
	return nil
}

func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) error {
	articles, err := h.news.Search(r.Context(), r.URL.Query().Get("q"), pageFromQuery(r))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, okList(articles))
	return nil
}

func (h *APIHandler) ArticleHandler(w http.ResponseWriter, r *http.Request) error {
	article, err := h.news.GetArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, ok(article))
	return nil
}
