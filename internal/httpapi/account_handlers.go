package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"niceblog.org/internal/audit"
	"niceblog.org/internal/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// accountPayload is the account shape served to API clients. The token
// field is only populated for the account's own requests.
type accountPayload struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Location    string    `json:"location"`
	AboutMe     string    `json:"about_me"`
	MemberSince time.Time `json:"member_since"`
	Token       string    `json:"token"`
}

// passwordPolicy bounds password length at the input boundary.
func passwordPolicy(password string) error {
	if len(password) < 6 || len(password) > 16 {
		return fmt.Errorf("password must be between 6 and 16 characters")
	}
	return nil
}

func (a *API) account(user *auth.User, withToken bool) (accountPayload, error) {
	p := accountPayload{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Location:    user.Location,
		AboutMe:     user.AboutMe,
		MemberSince: user.MemberSince,
	}
	if withToken {
		token, err := a.auth.APIToken(user)
		if err != nil {
			return accountPayload{}, err
		}
		p.Token = token
	}
	return p, nil
}

func (a *API) apiLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeEnvelopeError(w, http.StatusForbidden, "invalid credentials")
		return
	}
	payload, err := a.account(user, true)
	if err != nil {
		writeEnvelopeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "api.login", map[string]any{"user_id": user.ID})
	writeEnvelope(w, payload)
}

func (a *API) apiRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := passwordPolicy(req.Password); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.RegisterAPI(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	payload, err := a.account(user, true)
	if err != nil {
		writeEnvelopeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "api.register", map[string]any{"user_id": user.ID})
	writeEnvelope(w, payload)
}

// apiUserScoped serves /api/users/{id} and its comments/favourites.
func (a *API) apiUserScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
	if path == "" {
		writeEnvelopeError(w, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	userID := parts[0]

	switch {
	case len(parts) == 1:
		a.apiUser(w, r, userID)
	case len(parts) == 2 && parts[1] == "comments":
		a.apiUserComments(w, r, userID)
	case len(parts) == 2 && parts[1] == "favourites":
		a.apiUserFavourites(w, r, userID)
	default:
		writeEnvelopeError(w, http.StatusNotFound, "resource not found")
	}
}

func (a *API) apiUser(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		// fall through below
	case http.MethodPut:
		a.apiUpdateProfile(w, r, userID)
		return
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
		return
	}
	user, err := a.auth.User(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	requesterID, _ := auth.UserIDFromContext(r.Context())
	payload, err := a.account(user, requesterID == user.ID)
	if err != nil {
		writeEnvelopeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeEnvelope(w, payload)
}

type profileRequest struct {
	Location string `json:"location"`
	AboutMe  string `json:"about_me"`
}

// apiUpdateProfile lets an account rewrite its own location and about_me.
// Nobody, administrators included, edits another account's profile here.
func (a *API) apiUpdateProfile(w http.ResponseWriter, r *http.Request, userID string) {
	requesterID, ok := auth.UserIDFromContext(r.Context())
	if !ok || requesterID != userID {
		writeEnvelopeError(w, http.StatusForbidden, "forbidden")
		return
	}
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.User(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if err := a.auth.UpdateProfile(r.Context(), user, req.Location, req.AboutMe); err != nil {
		handleServiceError(w, err)
		return
	}
	payload, err := a.account(user, true)
	if err != nil {
		writeEnvelopeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "api.profile_update", map[string]any{"user_id": user.ID})
	writeEnvelope(w, payload)
}

func (a *API) apiUserComments(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	page, err := a.blogs.UserComments(r.Context(), userID, parsePage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeEnvelope(w, page)
}

func (a *API) apiUserFavourites(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	page, err := a.blogs.Favourites(r.Context(), userID, parsePage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeEnvelope(w, page)
}
