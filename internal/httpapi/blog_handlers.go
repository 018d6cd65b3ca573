package httpapi

import (
	"net/http"
	"strings"

	"niceblog.org/internal/audit"
	"niceblog.org/internal/auth"
	"niceblog.org/internal/blog"
)

type blogRequest struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Content string   `json:"content"`
	Labels  []string `json:"labels"`
	Publish bool     `json:"publish"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type previewRequest struct {
	Content string `json:"content"`
}

// apiBlogScoped routes /api/blogs/ and everything underneath it.
func (a *API) apiBlogScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/blogs/"), "/")
	if path == "" {
		a.apiBlogCollection(w, r)
		return
	}
	parts := strings.Split(path, "/")
	if parts[0] == "drafts" && len(parts) == 1 {
		a.apiDrafts(w, r)
		return
	}
	blogID := parts[0]
	switch {
	case len(parts) == 1:
		a.apiBlog(w, r, blogID)
	case len(parts) == 2 && parts[1] == "comments":
		a.apiBlogComments(w, r, blogID)
	case len(parts) == 2 && parts[1] == "comment":
		a.apiBlogComment(w, r, blogID)
	case len(parts) == 2 && parts[1] == "favourite":
		a.apiBlogFavourite(w, r, blogID, true)
	case len(parts) == 2 && parts[1] == "unfavourite":
		a.apiBlogFavourite(w, r, blogID, false)
	default:
		writeEnvelopeError(w, http.StatusNotFound, "resource not found")
	}
}

func (a *API) apiBlogCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, err := a.blogs.List(r.Context(), parsePage(r))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeEnvelope(w, page)
	case http.MethodPost:
		a.apiBlogCreate(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) apiBlogCreate(w http.ResponseWriter, r *http.Request) {
	if !requirePermission(w, r, auth.PermWrite) {
		return
	}
	var req blogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}
	authorID, _ := auth.UserIDFromContext(r.Context())
	b, err := a.blogs.Create(r.Context(), authorID, blog.BlogInput{
		Title:   req.Title,
		Summary: req.Summary,
		Content: req.Content,
		Labels:  req.Labels,
	}, req.Publish)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "blog.create", map[string]any{
		"blog_id": b.ID,
		"draft":   b.Draft,
	})
	writeEnvelope(w, b)
}

func (a *API) apiBlog(w http.ResponseWriter, r *http.Request, blogID string) {
	switch r.Method {
	case http.MethodGet:
		identity := auth.IdentityFromContext(r.Context())
		b, err := a.blogs.Get(r.Context(), blogID, identity.IsAdministrator())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeEnvelope(w, b)
	case http.MethodPut:
		a.apiBlogEdit(w, r, blogID)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) apiBlogEdit(w http.ResponseWriter, r *http.Request, blogID string) {
	if !requirePermission(w, r, auth.PermWrite) {
		return
	}
	identity := auth.IdentityFromContext(r.Context())
	existing, err := a.blogs.Get(r.Context(), blogID, true)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing.AuthorID != identity.User().ID && !identity.IsAdministrator() {
		writeEnvelopeError(w, http.StatusForbidden, "forbidden")
		return
	}
	var req blogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := a.blogs.Edit(r.Context(), blogID, blog.BlogInput{
		Title:   req.Title,
		Summary: req.Summary,
		Content: req.Content,
		Labels:  req.Labels,
	}, req.Publish)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "blog.edit", map[string]any{"blog_id": b.ID})
	writeEnvelope(w, b)
}

func (a *API) apiDrafts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !requireAdministrator(w, r) {
		return
	}
	page, err := a.blogs.Drafts(r.Context(), parsePage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeEnvelope(w, page)
}

func (a *API) apiBlogComments(w http.ResponseWriter, r *http.Request, blogID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity := auth.IdentityFromContext(r.Context())
	page, err := a.blogs.Comments(r.Context(), blogID, parsePage(r), identity.IsAdministrator())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeEnvelope(w, page)
}

func (a *API) apiBlogComment(w http.ResponseWriter, r *http.Request, blogID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if !requirePermission(w, r, auth.PermComment) {
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}
	authorID, _ := auth.UserIDFromContext(r.Context())
	c, err := a.blogs.AddComment(r.Context(), blogID, authorID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "comment.create", map[string]any{
		"blog_id":    blogID,
		"comment_id": c.ID,
	})
	writeEnvelope(w, c)
}

func (a *API) apiBlogFavourite(w http.ResponseWriter, r *http.Request, blogID string, add bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !requirePermission(w, r, auth.PermFavourite) {
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	var err error
	if add {
		err = a.blogs.Favourite(r.Context(), userID, blogID)
	} else {
		err = a.blogs.Unfavourite(r.Context(), userID, blogID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeEnvelope(w, map[string]any{"blog_id": blogID, "favourite": add})
}

// apiLabelScoped serves /api/labels/ and /api/labels/{id}/blogs.
func (a *API) apiLabelScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/labels/"), "/")
	if path == "" {
		labels, err := a.blogs.Labels(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeEnvelope(w, map[string]any{"labels": labels})
		return
	}
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "blogs" {
		writeEnvelopeError(w, http.StatusNotFound, "resource not found")
		return
	}
	page, err := a.blogs.ByLabel(r.Context(), parts[0], parsePage(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeEnvelope(w, page)
}

// apiPreview renders markdown for the editor without persisting anything.
func (a *API) apiPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
		return
	}
	html, err := blog.RenderHTML(req.Content)
	if err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, "invalid markdown")
		return
	}
	writeEnvelope(w, map[string]any{"html": html})
}
