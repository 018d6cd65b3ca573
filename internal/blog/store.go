package blog

import "context"

// BlogQuery narrows a blog listing.
type BlogQuery struct {
	Drafts  bool   // list drafts instead of published blogs
	LabelID string // restrict to one label
	Page    int
	PerPage int
}

// Store describes persistence operations required by the blog subsystem.
// List methods return the page items plus the total number of matching rows.
type Store interface {
	CreateBlog(ctx context.Context, b *Blog) error
	UpdateBlog(ctx context.Context, b *Blog) error
	FindBlog(ctx context.Context, id string) (*Blog, error)
	ListBlogs(ctx context.Context, q BlogQuery) ([]*Blog, int, error)

	EnsureLabels(ctx context.Context, names []string) ([]Label, error)
	SetBlogLabels(ctx context.Context, blogID string, labelIDs []string) error
	ListLabels(ctx context.Context) ([]Label, error)
	FindLabel(ctx context.Context, id string) (Label, error)

	CreateComment(ctx context.Context, c *Comment) error
	FindComment(ctx context.Context, id string) (*Comment, error)
	SetCommentDisabled(ctx context.Context, id string, disabled bool) error
	ListBlogComments(ctx context.Context, blogID string, includeDisabled bool, page, perPage int) ([]*Comment, int, error)
	ListUserComments(ctx context.Context, userID string, page, perPage int) ([]*Comment, int, error)

	CreateFavourite(ctx context.Context, f *Favourite) error
	DeleteFavourite(ctx context.Context, userID, blogID string) error
	ListUserFavourites(ctx context.Context, userID string, page, perPage int) ([]*Favourite, int, error)
}
