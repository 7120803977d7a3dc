package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"newsbrief.io/newsbrief/internal/core"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json; charset=utf-8"

	maxBodyBytes = 1 << 20
)

// envelope is the body of every API response.
type envelope struct {
	Success bool             `json:"success"`
	Data    any              `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
	Count   *int             `json:"count,omitempty"`
	Message string           `json:"message,omitempty"`
	Token   string           `json:"token,omitempty"`
	User    *core.PublicUser `json:"user,omitempty"`
}

func ok(data any) envelope {
	return envelope{Success: true, Data: data}
}

func okList[T any](items []T) envelope {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return envelope{Success: true, Data: items, Count: &n}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Server Error"}`))
		return
	}

	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: false, Error: message})
}

// decodeJSON reads a size-limited JSON body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return newHTTPError(http.StatusRequestEntityTooLarge, "Request body too large", err)
	}
	return newHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err), err)
}
