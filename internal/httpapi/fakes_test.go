package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"niceblog.org/internal/auth"
	"niceblog.org/internal/blog"
)

// fakeAuthStore is an in-memory auth.Store for handler tests.
type fakeAuthStore struct {
	users map[string]auth.User
	roles map[string]auth.Role
}

func newFakeAuthStore() *fakeAuthStore {
	return &fakeAuthStore{users: map[string]auth.User{}, roles: map[string]auth.Role{}}
}

func (f *fakeAuthStore) Users() auth.UserStore { return fakeUsers{f} }
func (f *fakeAuthStore) Roles() auth.RoleStore { return fakeRoles{f} }

type fakeUsers struct{ s *fakeAuthStore }

func (u fakeUsers) Create(_ context.Context, user *auth.User) error {
	for _, existing := range u.s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return auth.ErrConflict
		}
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u fakeUsers) Find(_ context.Context, id string) (*auth.User, error) {
	user, ok := u.s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &user, nil
}

func (u fakeUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range u.s.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (u fakeUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range u.s.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (u fakeUsers) Update(_ context.Context, user *auth.User) error {
	if _, ok := u.s.users[user.ID]; !ok {
		return auth.ErrNotFound
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u fakeUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, ok := u.s.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	user.PasswordHash = passwordHash
	u.s.users[userID] = user
	return nil
}

func (u fakeUsers) TouchLastSeen(_ context.Context, userID string, at time.Time) error {
	user, ok := u.s.users[userID]
	if !ok {
		return auth.ErrNotFound
	}
	user.LastSeen = at
	u.s.users[userID] = user
	return nil
}

type fakeRoles struct{ s *fakeAuthStore }

func (r fakeRoles) Create(_ context.Context, role *auth.Role) error {
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return auth.ErrConflict
		}
	}
	r.s.roles[role.ID] = *role
	return nil
}

func (r fakeRoles) Find(_ context.Context, id string) (*auth.Role, error) {
	role, ok := r.s.roles[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return &role, nil
}

func (r fakeRoles) FindByName(_ context.Context, name string) (*auth.Role, error) {
	for _, role := range r.s.roles {
		if role.Name == name {
			found := role
			return &found, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r fakeRoles) FindDefault(_ context.Context) (*auth.Role, error) {
	for _, role := range r.s.roles {
		if role.Default {
			found := role
			return &found, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r fakeRoles) List(_ context.Context) ([]*auth.Role, error) {
	var result []*auth.Role
	for id := range r.s.roles {
		role := r.s.roles[id]
		result = append(result, &role)
	}
	return result, nil
}

func (r fakeRoles) Update(_ context.Context, role *auth.Role) error {
	if _, ok := r.s.roles[role.ID]; !ok {
		return auth.ErrNotFound
	}
	r.s.roles[role.ID] = *role
	return nil
}

// fakeBlogStore is an in-memory blog.Store for handler tests.
type fakeBlogStore struct {
	blogs      []blog.Blog
	labels     []blog.Label
	blogLabels map[string][]string
	comments   []blog.Comment
	favourites []blog.Favourite
}

func newFakeBlogStore() *fakeBlogStore {
	return &fakeBlogStore{blogLabels: map[string][]string{}}
}

func (f *fakeBlogStore) CreateBlog(_ context.Context, b *blog.Blog) error {
	f.blogs = append(f.blogs, *b)
	return nil
}

func (f *fakeBlogStore) UpdateBlog(_ context.Context, b *blog.Blog) error {
	for i := range f.blogs {
		if f.blogs[i].ID == b.ID {
			f.blogs[i] = *b
			return nil
		}
	}
	return blog.ErrNotFound
}

func (f *fakeBlogStore) FindBlog(_ context.Context, id string) (*blog.Blog, error) {
	for i := range f.blogs {
		if f.blogs[i].ID == id {
			b := f.blogs[i]
			return &b, nil
		}
	}
	return nil, blog.ErrNotFound
}

func (f *fakeBlogStore) ListBlogs(_ context.Context, q blog.BlogQuery) ([]*blog.Blog, int, error) {
	var matched []*blog.Blog
	for i := range f.blogs {
		b := f.blogs[i]
		if b.Draft != q.Drafts {
			continue
		}
		if q.LabelID != "" && !containsString(f.blogLabels[b.ID], q.LabelID) {
			continue
		}
		matched = append(matched, &b)
	}
	total := len(matched)
	start := (q.Page - 1) * q.PerPage
	if start >= total {
		return nil, total, nil
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeBlogStore) EnsureLabels(_ context.Context, names []string) ([]blog.Label, error) {
	var result []blog.Label
	for _, name := range names {
		var found *blog.Label
		for i := range f.labels {
			if f.labels[i].Name == name {
				found = &f.labels[i]
				break
			}
		}
		if found == nil {
			f.labels = append(f.labels, blog.Label{ID: "label-" + name, Name: name})
			found = &f.labels[len(f.labels)-1]
		}
		result = append(result, *found)
	}
	return result, nil
}

func (f *fakeBlogStore) SetBlogLabels(_ context.Context, blogID string, labelIDs []string) error {
	f.blogLabels[blogID] = labelIDs
	return nil
}

func (f *fakeBlogStore) ListLabels(_ context.Context) ([]blog.Label, error) {
	return f.labels, nil
}

func (f *fakeBlogStore) FindLabel(_ context.Context, id string) (blog.Label, error) {
	for _, l := range f.labels {
		if l.ID == id {
			return l, nil
		}
	}
	return blog.Label{}, blog.ErrNotFound
}

func (f *fakeBlogStore) CreateComment(_ context.Context, c *blog.Comment) error {
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeBlogStore) FindComment(_ context.Context, id string) (*blog.Comment, error) {
	for i := range f.comments {
		if f.comments[i].ID == id {
			c := f.comments[i]
			return &c, nil
		}
	}
	return nil, blog.ErrNotFound
}

func (f *fakeBlogStore) SetCommentDisabled(_ context.Context, id string, disabled bool) error {
	for i := range f.comments {
		if f.comments[i].ID == id {
			f.comments[i].Disabled = disabled
			return nil
		}
	}
	return blog.ErrNotFound
}

func (f *fakeBlogStore) ListBlogComments(_ context.Context, blogID string, includeDisabled bool, page, perPage int) ([]*blog.Comment, int, error) {
	var matched []*blog.Comment
	for i := range f.comments {
		c := f.comments[i]
		if c.BlogID != blogID {
			continue
		}
		if c.Disabled && !includeDisabled {
			continue
		}
		matched = append(matched, &c)
	}
	return pageSlice(matched, page, perPage), len(matched), nil
}

func (f *fakeBlogStore) ListUserComments(_ context.Context, userID string, page, perPage int) ([]*blog.Comment, int, error) {
	var matched []*blog.Comment
	for i := range f.comments {
		c := f.comments[i]
		if c.AuthorID == userID {
			matched = append(matched, &c)
		}
	}
	return pageSlice(matched, page, perPage), len(matched), nil
}

func (f *fakeBlogStore) CreateFavourite(_ context.Context, fav *blog.Favourite) error {
	for _, existing := range f.favourites {
		if existing.UserID == fav.UserID && existing.BlogID == fav.BlogID {
			return blog.ErrConflict
		}
	}
	f.favourites = append(f.favourites, *fav)
	return nil
}

func (f *fakeBlogStore) DeleteFavourite(_ context.Context, userID, blogID string) error {
	for i, existing := range f.favourites {
		if existing.UserID == userID && existing.BlogID == blogID {
			f.favourites = append(f.favourites[:i], f.favourites[i+1:]...)
			return nil
		}
	}
	return blog.ErrNotFound
}

func (f *fakeBlogStore) ListUserFavourites(_ context.Context, userID string, page, perPage int) ([]*blog.Favourite, int, error) {
	var matched []*blog.Favourite
	for i := range f.favourites {
		fav := f.favourites[i]
		if fav.UserID == userID {
			matched = append(matched, &fav)
		}
	}
	return pageSlice(matched, page, perPage), len(matched), nil
}

func pageSlice[T any](items []*T, page, perPage int) []*T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsString(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

func newTestBlogService() (*blog.Service, error) {
	return blog.NewService(newFakeBlogStore())
}

// testAPI bundles everything handler tests need.
type testAPI struct {
	api       *API
	handler   http.Handler
	authSvc   *auth.Service
	blogSvc   *blog.Service
	authStore *fakeAuthStore
	blogStore *fakeBlogStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	tokens, err := auth.NewTokens("handler-test-secret")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	authStore := newFakeAuthStore()
	authSvc, err := auth.NewService(authStore, tokens, auth.WithAdminEmail("admin@example.com"))
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	if err := authSvc.EnsureRoles(context.Background()); err != nil {
		t.Fatalf("EnsureRoles: %v", err)
	}
	blogStore := newFakeBlogStore()
	blogSvc, err := blog.NewService(blogStore)
	if err != nil {
		t.Fatalf("blog.NewService: %v", err)
	}
	api := New(authSvc, blogSvc, ReadyProbe{}, "test", WithRateLimit(1000, 1000))
	return &testAPI{
		api:       api,
		handler:   api.Handler(),
		authSvc:   authSvc,
		blogSvc:   blogSvc,
		authStore: authStore,
		blogStore: blogStore,
	}
}
