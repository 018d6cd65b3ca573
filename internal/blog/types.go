package blog

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("blog: not found")
	ErrConflict     = errors.New("blog: already exists")
	ErrInvalidInput = errors.New("blog: invalid input")
)

// Blog is an article. A draft is visible only to administrators; publishing
// stamps PublishedAt and makes it part of the public listing.
type Blog struct {
	ID          string     `json:"id"`
	AuthorID    string     `json:"author_id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Content     string     `json:"content"`
	ContentHTML string     `json:"content_html"`
	Draft       bool       `json:"draft"`
	Labels      []string   `json:"labels"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	EditedAt    time.Time  `json:"edited_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Label is a tag attached to blogs.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Comment belongs to a blog. A disabled comment is withheld from listings
// for everyone but administrators.
type Comment struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blog_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
}

// Favourite marks a blog as liked by a user. The (user, blog) pair is unique.
type Favourite struct {
	UserID    string    `json:"user_id"`
	BlogID    string    `json:"blog_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BlogPage is one page of a blog listing.
type BlogPage struct {
	Items       []*Blog `json:"blogs"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_page"`
}

// CommentPage is one page of a comment listing.
type CommentPage struct {
	Items       []*Comment `json:"comments"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_page"`
}

// FavouritePage is one page of a favourites listing.
type FavouritePage struct {
	Items       []*Favourite `json:"favourites"`
	CurrentPage int          `json:"current_page"`
	TotalPages  int          `json:"total_page"`
}
