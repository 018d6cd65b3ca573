package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"niceblog.org/internal/ids"
)

// DefaultPerPage is the page size used by the API listings.
const DefaultPerPage = 10

// Service provides blog, label, comment and favourite operations. Permission
// checks live at the request boundary; the service enforces domain rules only
// (draft visibility, uniqueness, non-empty content).
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("blog: store is required")
	}
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// BlogInput carries the author-editable fields of a blog. Markdown content
// is rendered to HTML on every create and edit.
type BlogInput struct {
	Title   string
	Summary string
	Content string
	Labels  []string
}

func (in *BlogInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return nil
}

// Create stores a new blog, as a draft or published immediately.
func (s *Service) Create(ctx context.Context, authorID string, in BlogInput, publish bool) (*Blog, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	rendered, err := RenderHTML(in.Content)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	b := &Blog{
		ID:          ids.New(),
		AuthorID:    authorID,
		Title:       in.Title,
		Summary:     in.Summary,
		Content:     in.Content,
		ContentHTML: rendered,
		Draft:       !publish,
		EditedAt:    now,
		CreatedAt:   now,
	}
	if publish {
		published := now
		b.PublishedAt = &published
	}
	if err := s.store.CreateBlog(ctx, b); err != nil {
		return nil, err
	}
	if err := s.applyLabels(ctx, b, in.Labels); err != nil {
		return nil, err
	}
	return b, nil
}

// Edit replaces the editable fields and optionally publishes a draft.
// Publishing is one-way: an already published blog stays published.
func (s *Service) Edit(ctx context.Context, id string, in BlogInput, publish bool) (*Blog, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	b, err := s.store.FindBlog(ctx, id)
	if err != nil {
		return nil, err
	}
	rendered, err := RenderHTML(in.Content)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	b.Title = in.Title
	b.Summary = in.Summary
	b.Content = in.Content
	b.ContentHTML = rendered
	b.EditedAt = now
	if publish && b.Draft {
		b.Draft = false
		published := now
		b.PublishedAt = &published
	}
	if err := s.store.UpdateBlog(ctx, b); err != nil {
		return nil, err
	}
	if err := s.applyLabels(ctx, b, in.Labels); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) applyLabels(ctx context.Context, b *Blog, names []string) error {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	labels, err := s.store.EnsureLabels(ctx, cleaned)
	if err != nil {
		return err
	}
	labelIDs := make([]string, 0, len(labels))
	labelNames := make([]string, 0, len(labels))
	for _, l := range labels {
		labelIDs = append(labelIDs, l.ID)
		labelNames = append(labelNames, l.Name)
	}
	if err := s.store.SetBlogLabels(ctx, b.ID, labelIDs); err != nil {
		return err
	}
	b.Labels = labelNames
	return nil
}

// Get loads one blog. Drafts stay hidden unless includeDraft is set.
func (s *Service) Get(ctx context.Context, id string, includeDraft bool) (*Blog, error) {
	b, err := s.store.FindBlog(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Draft && !includeDraft {
		return nil, ErrNotFound
	}
	return b, nil
}

// List returns one page of published blogs, newest first.
func (s *Service) List(ctx context.Context, page int) (BlogPage, error) {
	return s.listBlogs(ctx, BlogQuery{Page: clampPage(page), PerPage: DefaultPerPage})
}

// Drafts returns one page of unpublished blogs.
func (s *Service) Drafts(ctx context.Context, page int) (BlogPage, error) {
	return s.listBlogs(ctx, BlogQuery{Drafts: true, Page: clampPage(page), PerPage: DefaultPerPage})
}

// ByLabel returns one page of published blogs carrying the label.
func (s *Service) ByLabel(ctx context.Context, labelID string, page int) (BlogPage, error) {
	if _, err := s.store.FindLabel(ctx, labelID); err != nil {
		return BlogPage{}, err
	}
	return s.listBlogs(ctx, BlogQuery{LabelID: labelID, Page: clampPage(page), PerPage: DefaultPerPage})
}

func (s *Service) listBlogs(ctx context.Context, q BlogQuery) (BlogPage, error) {
	items, total, err := s.store.ListBlogs(ctx, q)
	if err != nil {
		return BlogPage{}, err
	}
	return BlogPage{Items: items, CurrentPage: q.Page, TotalPages: totalPages(total, q.PerPage)}, nil
}

// Labels returns the full label catalog.
func (s *Service) Labels(ctx context.Context) ([]Label, error) {
	return s.store.ListLabels(ctx)
}

// AddComment attaches a comment to a published blog.
func (s *Service) AddComment(ctx context.Context, blogID, authorID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	if _, err := s.Get(ctx, blogID, false); err != nil {
		return nil, err
	}
	c := &Comment{
		ID:        ids.New(),
		BlogID:    blogID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Comments returns one page of a blog's comments, newest first. Disabled
// comments are included only when the caller moderates.
func (s *Service) Comments(ctx context.Context, blogID string, page int, includeDisabled bool) (CommentPage, error) {
	// Moderators are the only callers who may list a draft's comments, so
	// the existence check hides drafts exactly like a direct fetch does.
	if _, err := s.Get(ctx, blogID, includeDisabled); err != nil {
		return CommentPage{}, err
	}
	page = clampPage(page)
	items, total, err := s.store.ListBlogComments(ctx, blogID, includeDisabled, page, DefaultPerPage)
	if err != nil {
		return CommentPage{}, err
	}
	return CommentPage{Items: items, CurrentPage: page, TotalPages: totalPages(total, DefaultPerPage)}, nil
}

// UserComments returns one page of the comments a user authored.
func (s *Service) UserComments(ctx context.Context, userID string, page int) (CommentPage, error) {
	page = clampPage(page)
	items, total, err := s.store.ListUserComments(ctx, userID, page, DefaultPerPage)
	if err != nil {
		return CommentPage{}, err
	}
	return CommentPage{Items: items, CurrentPage: page, TotalPages: totalPages(total, DefaultPerPage)}, nil
}

// DisableComment hides a comment from regular listings.
func (s *Service) DisableComment(ctx context.Context, id string) (*Comment, error) {
	return s.moderateComment(ctx, id, true)
}

// EnableComment restores a previously disabled comment.
func (s *Service) EnableComment(ctx context.Context, id string) (*Comment, error) {
	return s.moderateComment(ctx, id, false)
}

func (s *Service) moderateComment(ctx context.Context, id string, disabled bool) (*Comment, error) {
	c, err := s.store.FindComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Disabled != disabled {
		if err := s.store.SetCommentDisabled(ctx, id, disabled); err != nil {
			return nil, err
		}
		c.Disabled = disabled
	}
	return c, nil
}

// Favourite marks a published blog as a favourite of the user. Marking the
// same blog twice is reported as ErrConflict.
func (s *Service) Favourite(ctx context.Context, userID, blogID string) error {
	if _, err := s.Get(ctx, blogID, false); err != nil {
		return err
	}
	f := &Favourite{UserID: userID, BlogID: blogID, CreatedAt: s.now().UTC()}
	return s.store.CreateFavourite(ctx, f)
}

// Unfavourite removes the favourite mark.
func (s *Service) Unfavourite(ctx context.Context, userID, blogID string) error {
	return s.store.DeleteFavourite(ctx, userID, blogID)
}

// Favourites returns one page of the user's favourites, newest first.
func (s *Service) Favourites(ctx context.Context, userID string, page int) (FavouritePage, error) {
	page = clampPage(page)
	items, total, err := s.store.ListUserFavourites(ctx, userID, page, DefaultPerPage)
	if err != nil {
		return FavouritePage{}, err
	}
	return FavouritePage{Items: items, CurrentPage: page, TotalPages: totalPages(total, DefaultPerPage)}, nil
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func totalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
