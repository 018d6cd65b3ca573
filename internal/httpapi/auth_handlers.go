package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"niceblog.org/internal/audit"
	"niceblog.org/internal/auth"
)

func (a *API) authRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := passwordPolicy(req.Password); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrConflict):
			writeError(w, r, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{"user_id": user.ID})
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "registered",
		"id":     user.ID,
	})
}

// authConfirm completes email confirmation for the logged-in account.
func (a *API) authConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}
	token := strings.Trim(strings.TrimPrefix(r.URL.Path, "/auth/confirm/"), "/")
	if token == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	identity := auth.IdentityFromContext(r.Context())
	if identity.IsAnonymous() {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := a.auth.Confirm(r.Context(), identity.User(), token); err != nil {
		writeError(w, r, http.StatusForbidden, "invalid token")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.confirm", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "confirmed"})
}

func (a *API) authUnconfirmed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "unconfirmed",
		"detail": "confirm your email address to continue",
	})
}

type resetRequest struct {
	Email string `json:"email"`
}

type newPasswordRequest struct {
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// authRequestReset issues a reset token for the account's email.
// The response does not reveal whether the address is registered.
func (a *API) authRequestReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.RequestPasswordReset(r.Context(), req.Email); err != nil && !errors.Is(err, auth.ErrNotFound) {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.reset.request", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) authResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	token := strings.Trim(strings.TrimPrefix(r.URL.Path, "/auth/reset/"), "/")
	if token == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	var req newPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := passwordPolicy(req.Password); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ResetPassword(r.Context(), token, req.Password); err != nil {
		writeError(w, r, http.StatusForbidden, "invalid token")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.reset.complete", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) authChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity := auth.IdentityFromContext(r.Context())
	if identity.IsAnonymous() {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := passwordPolicy(req.NewPassword); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ChangePassword(r.Context(), identity.User(), req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, http.StatusForbidden, "invalid credentials")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password.change", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
