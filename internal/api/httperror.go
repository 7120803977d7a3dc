package api

import (
	"errors"
	"log/slog"
	"net/http"

	"newsbrief.io/newsbrief/internal/core"
)

const msgServerError = "Server Error"

// HTTPError is an error raised by the HTTP layer itself, such as a malformed
// body or a failed validation.
type HTTPError struct {
	Code    int
	Message string
	cause   error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.cause
}

func newHTTPError(code int, message string, cause error) *HTTPError {
	return &HTTPError{Code: code, Message: message, cause: cause}
}

func statusForKind(kind core.Kind) int {
	switch kind {
	case core.KindValidation, core.KindInvalidToken:
		return http.StatusBadRequest
	case core.KindUnauthorized:
		return http.StatusUnauthorized
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppHandler is a handler that reports failures by returning them.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to http.HandlerFunc, turning a returned
// error into an error envelope.
func MakeHandler(handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := handler(w, r); err != nil {
			respondError(w, r, err)
		}
	}
}

// respondError maps known errors to their status and public message. Anything
// else is logged and answered with a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		appErr  *core.Error
		httpErr *HTTPError
		status  int
		message string
	)

	switch {
	case errors.As(err, &appErr):
		status = statusForKind(appErr.Kind)
		message = appErr.Message
		slog.Warn("Client error response", "code", status, "msg", message, "path", r.URL.Path, "method", r.Method)

	case errors.As(err, &httpErr):
		status = httpErr.Code
		message = httpErr.Message
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		if cause := errors.Unwrap(httpErr); cause != nil && cause.Error() != message {
			slog.Log(r.Context(), level, "Error response", "code", status, "msg", message, "cause", cause,
				"path", r.URL.Path, "method", r.Method)
		} else {
			slog.Log(r.Context(), level, "Error response", "code", status, "msg", message,
				"path", r.URL.Path, "method", r.Method)
		}

	default:
		status = http.StatusInternalServerError
		message = msgServerError
		slog.Error("Unhandled internal error", "path", r.URL.Path, "method", r.Method, "error", err)
	}

	if w.Header().Get(headerContentType) != "" {
		slog.Warn("Handler returned error after writing response", "path", r.URL.Path, "method", r.Method, "error", err)
		return
	}
	respondFailure(w, status, message)
}
