package httpapi

import (
	"net/http"
	"strings"

	"niceblog.org/internal/audit"
	"niceblog.org/internal/auth"
)

// manageComments handles /manage/comments/{id}/disable and /enable.
func (a *API) manageComments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !requireAdministrator(w, r) {
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/manage/comments/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		writeEnvelopeError(w, http.StatusNotFound, "resource not found")
		return
	}
	commentID := parts[0]
	var disabled bool
	switch parts[1] {
	case "disable":
		disabled = true
	case "enable":
		disabled = false
	default:
		writeEnvelopeError(w, http.StatusNotFound, "resource not found")
		return
	}

	var (
		c   any
		err error
	)
	if disabled {
		c, err = a.blogs.DisableComment(r.Context(), commentID)
	} else {
		c, err = a.blogs.EnableComment(r.Context(), commentID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	event := "comment.enable"
	if disabled {
		event = "comment.disable"
	}
	_ = audit.LogEvent(r.Context(), event, map[string]any{"comment_id": commentID})
	writeEnvelope(w, c)
}

func (a *API) manageRolesList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !requireAdministrator(w, r) {
		return
	}
	roles, err := a.auth.ListRoles(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeEnvelope(w, map[string]any{"roles": roles})
}

type rolePermissionRequest struct {
	Action     string `json:"action"`
	Permission string `json:"permission"`
}

// manageRoleScoped handles /manage/roles/{name}/permissions.
func (a *API) manageRoleScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !requireAdministrator(w, r) {
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/manage/roles/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "permissions" {
		writeEnvelopeError(w, http.StatusNotFound, "resource not found")
		return
	}
	roleName := parts[0]

	var req rolePermissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}
	perm, err := auth.ParsePermission(req.Permission)
	if err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var role *auth.Role
	switch req.Action {
	case "grant":
		role, err = a.auth.GrantPermission(r.Context(), roleName, perm)
	case "revoke":
		role, err = a.auth.RevokePermission(r.Context(), roleName, perm)
	default:
		writeEnvelopeError(w, http.StatusBadRequest, "action must be grant or revoke")
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "role.permissions."+req.Action, map[string]any{
		"role":       roleName,
		"permission": perm.String(),
	})
	writeEnvelope(w, role)
}
