package api

import (
	"net/http"
	"strconv"

	"newsbrief.io/newsbrief/internal/core"
)

type APIHandler struct {
	accounts  *core.AccountService
	news      *core.NewsService
	summaries *core.SummaryService
	validator *requestValidator
}

func NewAPIHandler(accounts *core.AccountService, news *core.NewsService, summaries *core.SummaryService) *APIHandler {
	return &APIHandler{
		accounts:  accounts,
		news:      news,
		summaries: summaries,
		validator: newRequestValidator(),
	}
}

// bind decodes and validates a JSON request body.
func (h *APIHandler) bind(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return h.validator.Struct(dst)
}

// pageFromQuery reads page and limit; bad values fall back to the defaults.
func pageFromQuery(r *http.Request) core.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return core.Page{Number: number, Limit: limit}
}
