package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"newsbrief.io/newsbrief/internal/core"
	"newsbrief.io/newsbrief/internal/store"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UpdateProfileRequest carries the only mutable profile fields; anything else
// in the body is ignored.
type UpdateProfileRequest struct {
	Name        *string        `json:"name" validate:"omitempty,max=50"`
	Preferences map[string]any `json:"preferences"`
}

func sessionResponse(w http.ResponseWriter, status int, session *core.Session) {
	respondJSON(w, status, envelope{Success: true, Token: session.Token, User: &session.User})
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := h.bind(w, r, &req); err != nil {
		return err
	}

	session, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	sessionResponse(w, http.StatusCreated, session)
	return nil
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := h.bind(w, r, &req); err != nil {
		return err
	}

	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	sessionResponse(w, http.StatusOK, session)
	return nil
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) error {
	user := userFromContext(r.Context())
	profile, err := h.accounts.Profile(r.Context(), user.ID)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, ok(profile))
	return nil
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) error {
	var req UpdateProfileRequest
	if err := h.bind(w, r, &req); err != nil {
		return err
	}

	user := userFromContext(r.Context())
	updated, err := h.accounts.UpdateProfile(r.Context(), user.ID, store.ProfileUpdate{
		Name:        req.Name,
		Preferences: req.Preferences,
	})
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, ok(updated))
	return nil
}

func (h *APIHandler) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) error {
	var req ForgotPasswordRequest
	if err := h.bind(w, r, &req); err != nil {
		return err
	}

	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, core.ErrMailNotSent) {
			return newHTTPError(http.StatusInternalServerError, "Email could not be sent", err)
		}
		return err
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: core.MsgResetRequested})
	return nil
}

func (h *APIHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) error {
	var req ResetPasswordRequest
	if err := h.bind(w, r, &req); err != nil {
		return err
	}

	if err := h.accounts.ResetPassword(r.Context(), chi.URLParam(r, "resetToken"), req.Password); err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: core.MsgPasswordReset})
	return nil
}
