package httpapi

import (
	"net/http"
	"strings"
	"time"

	"niceblog.org/internal/audit"
	"niceblog.org/internal/auth"
)

const sessionCookie = "niceblog_session"

// withSession resolves the session cookie into a request identity.
// A missing or invalid cookie leaves the request anonymous; an
// authenticated but unconfirmed account is redirected to the
// confirmation holding page for everything outside the auth flow.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := a.auth.AuthenticateSession(r.Context(), cookie.Value)
		if err != nil {
			clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}
		if !identity.Confirmed() && needsConfirmedAccount(r.URL.Path) {
			http.Redirect(w, r, "/auth/unconfirmed", http.StatusFound)
			return
		}
		ctx := auth.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func needsConfirmedAccount(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics", "/v1/info":
		return false
	}
	if strings.HasPrefix(path, "/auth/") || strings.HasPrefix(path, "/api/") {
		return false
	}
	return true
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func (a *API) authLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, http.StatusForbidden, "invalid credentials")
		return
	}
	token, err := a.auth.SessionToken(user, req.Remember)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	maxAge := 0
	if req.Remember {
		maxAge = int(auth.RememberTokenTTL / time.Second)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":  user.ID,
		"remember": req.Remember,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) authLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
