package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memStore is an in-memory Store used across the service tests.
type memStore struct {
	users map[string]User
	roles map[string]Role
}

func newMemStore() *memStore {
	return &memStore{users: map[string]User{}, roles: map[string]Role{}}
}

func (m *memStore) Users() UserStore { return memUsers{m} }
func (m *memStore) Roles() RoleStore { return memRoles{m} }

type memUsers struct{ s *memStore }

func (u memUsers) Create(_ context.Context, user *User) error {
	for _, existing := range u.s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return ErrConflict
		}
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u memUsers) Find(_ context.Context, id string) (*User, error) {
	user, ok := u.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (u memUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range u.s.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (u memUsers) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, user := range u.s.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (u memUsers) Update(_ context.Context, user *User) error {
	if _, ok := u.s.users[user.ID]; !ok {
		return ErrNotFound
	}
	u.s.users[user.ID] = *user
	return nil
}

func (u memUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, ok := u.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	u.s.users[userID] = user
	return nil
}

func (u memUsers) TouchLastSeen(_ context.Context, userID string, at time.Time) error {
	user, ok := u.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.LastSeen = at
	u.s.users[userID] = user
	return nil
}

type memRoles struct{ s *memStore }

func (r memRoles) Create(_ context.Context, role *Role) error {
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return ErrConflict
		}
	}
	r.s.roles[role.ID] = *role
	return nil
}

func (r memRoles) Find(_ context.Context, id string) (*Role, error) {
	role, ok := r.s.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &role, nil
}

func (r memRoles) FindByName(_ context.Context, name string) (*Role, error) {
	for _, role := range r.s.roles {
		if role.Name == name {
			found := role
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r memRoles) FindDefault(_ context.Context) (*Role, error) {
	for _, role := range r.s.roles {
		if role.Default {
			found := role
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r memRoles) List(_ context.Context) ([]*Role, error) {
	var out []*Role
	for _, role := range r.s.roles {
		found := role
		out = append(out, &found)
	}
	return out, nil
}

func (r memRoles) Update(_ context.Context, role *Role) error {
	if _, ok := r.s.roles[role.ID]; !ok {
		return ErrNotFound
	}
	r.s.roles[role.ID] = *role
	return nil
}

// recordingMailer captures the last token handed to the mail collaborator.
type recordingMailer struct {
	confirmToken string
	resetToken   string
}

func (m *recordingMailer) SendConfirmation(_ context.Context, _, token string) error {
	m.confirmToken = token
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, _, token string) error {
	m.resetToken = token
	return nil
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	tokens, err := NewTokens("service-test-secret")
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	svc, err := NewService(store, tokens, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.EnsureRoles(context.Background()); err != nil {
		t.Fatalf("EnsureRoles: %v", err)
	}
	return svc, store
}

func TestEnsureRolesIdempotent(t *testing.T) {
	svc, store := newTestService(t)

	// A second run must rewrite, not duplicate.
	if err := svc.EnsureRoles(context.Background()); err != nil {
		t.Fatalf("second EnsureRoles: %v", err)
	}
	if len(store.roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(store.roles))
	}

	userRole, err := store.Roles().FindByName(context.Background(), RoleUser)
	if err != nil {
		t.Fatalf("FindByName(User): %v", err)
	}
	if !userRole.Default {
		t.Fatalf("User role must be the default")
	}
	if userRole.HasPermission(PermWrite) || userRole.HasPermission(PermAdmin) {
		t.Fatalf("User role must not hold WRITE or ADMIN")
	}

	adminRole, err := store.Roles().FindByName(context.Background(), RoleAdministrator)
	if err != nil {
		t.Fatalf("FindByName(Administrator): %v", err)
	}
	if adminRole.Default {
		t.Fatalf("Administrator role must not be the default")
	}
	if !adminRole.HasPermission(PermFavourite | PermComment | PermWrite | PermAdmin) {
		t.Fatalf("Administrator role missing permissions: %d", adminRole.Permissions)
	}
}

func TestRegisterAssignsRoles(t *testing.T) {
	svc, store := newTestService(t, WithAdminEmail("boss@example.com"))
	ctx := context.Background()

	alice, err := svc.Register(ctx, "Alice@Example.com", "alice", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if alice.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", alice.Email)
	}
	if alice.Confirmed {
		t.Fatalf("browser registration must start unconfirmed")
	}
	role, err := store.Roles().Find(ctx, alice.RoleID)
	if err != nil || role.Name != RoleUser {
		t.Fatalf("expected default User role, got %v (%v)", role, err)
	}

	boss, err := svc.Register(ctx, "boss@example.com", "boss", "secret1")
	if err != nil {
		t.Fatalf("Register admin: %v", err)
	}
	role, err = store.Roles().Find(ctx, boss.RoleID)
	if err != nil || role.Name != RoleAdministrator {
		t.Fatalf("expected Administrator role for admin email, got %v (%v)", role, err)
	}

	api, err := svc.RegisterAPI(ctx, "mobile@example.com", "mobile", "secret1")
	if err != nil {
		t.Fatalf("RegisterAPI: %v", err)
	}
	if !api.Confirmed {
		t.Fatalf("API registration must start confirmed")
	}
}

func TestRegisterConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RegisterAPI(ctx, "a@x.com", "alice", "secret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.RegisterAPI(ctx, "a@x.com", "other", "secret1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
	if _, err := svc.RegisterAPI(ctx, "b@x.com", "alice", "secret1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}
	if _, err := svc.RegisterAPI(ctx, "not-an-email", "carol", "secret1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	svc, _ := newTestService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	if _, err := svc.RegisterAPI(ctx, "a@x.com", "alice", "secret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	clock = now.Add(time.Hour)
	user, err := svc.Login(ctx, "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !user.LastSeen.Equal(clock) {
		t.Fatalf("last_seen not touched: %v", user.LastSeen)
	}

	if _, err := svc.Login(ctx, "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	// Unknown email must be indistinguishable from a wrong password.
	if _, err := svc.Login(ctx, "nobody@x.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestConfirmLifecycle(t *testing.T) {
	mailer := &recordingMailer{}
	svc, store := newTestService(t, WithMailer(mailer))
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@x.com", "alice", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if mailer.confirmToken == "" {
		t.Fatalf("expected a confirmation token to be mailed")
	}
	userToken := mailer.confirmToken

	other, err := svc.Register(ctx, "b@x.com", "bob", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	// A token minted for another account is refused.
	if err := svc.Confirm(ctx, other, userToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong subject, got %v", err)
	}

	if err := svc.Confirm(ctx, user, userToken); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	stored, err := store.Users().Find(ctx, user.ID)
	if err != nil || !stored.Confirmed {
		t.Fatalf("confirmation flag not persisted: %v (%v)", stored, err)
	}

	// Confirmation is terminal; resubmitting the token is a no-op.
	if err := svc.Confirm(ctx, stored, userToken); err != nil {
		t.Fatalf("re-Confirm: %v", err)
	}

	if err := svc.Confirm(ctx, stored, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage token, got %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	mailer := &recordingMailer{}
	svc, _ := newTestService(t, WithMailer(mailer))
	ctx := context.Background()

	if _, err := svc.RegisterAPI(ctx, "a@x.com", "alice", "secret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if mailer.resetToken == "" {
		t.Fatalf("expected a reset token to be mailed")
	}
	if err := svc.RequestPasswordReset(ctx, "nobody@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.ResetPassword(ctx, mailer.resetToken, "newsecret"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.Login(ctx, "a@x.com", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, "a@x.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted")
	}

	if err := svc.ResetPassword(ctx, "garbage", "whatever"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterAPI(ctx, "a@x.com", "alice", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.ChangePassword(ctx, user, "wrong", "newsecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user, "secret1", "newsecret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, "a@x.com", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAuthenticateAPIToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.RegisterAPI(ctx, "a@x.com", "alice", "secret1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := svc.APIToken(user)
	if err != nil {
		t.Fatalf("APIToken: %v", err)
	}

	identity, err := svc.AuthenticateAPIToken(ctx, token)
	if err != nil {
		t.Fatalf("AuthenticateAPIToken: %v", err)
	}
	if identity.IsAnonymous() || identity.User().ID != user.ID {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if !identity.Can(PermComment) || identity.Can(PermWrite) {
		t.Fatalf("identity permissions do not match the User role")
	}

	// A session token must not authenticate the API surface.
	session, err := svc.SessionToken(user, false)
	if err != nil {
		t.Fatalf("SessionToken: %v", err)
	}
	if _, err := svc.AuthenticateAPIToken(ctx, session); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for cross-purpose token, got %v", err)
	}
}

func TestGrantRevokePermission(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	role, err := svc.GrantPermission(ctx, RoleUser, PermWrite)
	if err != nil {
		t.Fatalf("GrantPermission: %v", err)
	}
	if !role.HasPermission(PermWrite) {
		t.Fatalf("WRITE not granted")
	}

	role, err = svc.RevokePermission(ctx, RoleUser, PermWrite)
	if err != nil {
		t.Fatalf("RevokePermission: %v", err)
	}
	if role.HasPermission(PermWrite) {
		t.Fatalf("WRITE not revoked")
	}
	if !role.HasPermission(PermComment) {
		t.Fatalf("unrelated flag disturbed")
	}

	if _, err := svc.GrantPermission(ctx, "Moderator", PermWrite); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown role, got %v", err)
	}
}
