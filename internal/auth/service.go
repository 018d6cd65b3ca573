package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"niceblog.org/internal/ids"
)

// Service provides account lifecycle, role and token operations on top of a
// Store. All methods are safe for concurrent use; the database rows are the
// only shared mutable state.
type Service struct {
	store      Store
	tokens     *Tokens
	mailer     Mailer
	adminEmail string
	now        func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAdminEmail designates the email address that receives the
// Administrator role at registration.
func WithAdminEmail(email string) ServiceOption {
	return func(s *Service) {
		s.adminEmail = strings.ToLower(strings.TrimSpace(email))
	}
}

// WithMailer sets the mail delivery collaborator.
func WithMailer(m Mailer) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.mailer = m
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, tokens *Tokens, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	svc := &Service{
		store:  store,
		tokens: tokens,
		mailer: NopMailer{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// EnsureRoles seeds the canonical role set. Safe to rerun: roles are looked
// up by name and rewritten in place, never duplicated. Exactly one role
// (User) ends up flagged as the default.
func (s *Service) EnsureRoles(ctx context.Context) error {
	roles := s.store.Roles()
	for _, seed := range seedRoles {
		role, err := roles.FindByName(ctx, seed.Name)
		switch {
		case errors.Is(err, ErrNotFound):
			role = &Role{
				ID:        ids.New(),
				Name:      seed.Name,
				CreatedAt: s.now().UTC(),
			}
			role.ResetPermissions()
			role.AddPermission(seed.Permissions)
			role.Default = seed.Default
			role.UpdatedAt = role.CreatedAt
			if err := roles.Create(ctx, role); err != nil {
				return fmt.Errorf("seed role %s: %w", seed.Name, err)
			}
		case err != nil:
			return err
		default:
			role.ResetPermissions()
			role.AddPermission(seed.Permissions)
			role.Default = seed.Default
			role.UpdatedAt = s.now().UTC()
			if err := roles.Update(ctx, role); err != nil {
				return fmt.Errorf("seed role %s: %w", seed.Name, err)
			}
		}
	}
	return nil
}

// Register creates an unconfirmed account with the default role and mails a
// confirmation token. The configured administrator email receives the
// Administrator role instead.
func (s *Service) Register(ctx context.Context, email, username, password string) (*User, error) {
	user, err := s.register(ctx, email, username, password, false)
	if err != nil {
		return nil, err
	}
	token, err := s.ConfirmationToken(user)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendConfirmation(ctx, user.Email, token); err != nil {
		return nil, fmt.Errorf("send confirmation: %w", err)
	}
	return user, nil
}

// RegisterAPI creates an account for the mobile/API flow, which skips the
// email confirmation round-trip: the account starts out confirmed.
func (s *Service) RegisterAPI(ctx context.Context, email, username, password string) (*User, error) {
	return s.register(ctx, email, username, password, true)
}

func (s *Service) register(ctx context.Context, email, username, password string, confirmed bool) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	role, err := s.roleFor(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		ID:          ids.New(),
		Username:    username,
		Email:       email,
		Confirmed:   confirmed,
		RoleID:      role.ID,
		MemberSince: now,
		LastSeen:    now,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) roleFor(ctx context.Context, email string) (*Role, error) {
	roles := s.store.Roles()
	if s.adminEmail != "" && email == s.adminEmail {
		return roles.FindByName(ctx, RoleAdministrator)
	}
	return roles.FindDefault(ctx)
}

// Login verifies a submitted email and password and touches last_seen.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}
	now := s.now().UTC()
	if err := s.store.Users().TouchLastSeen(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastSeen = now
	return user, nil
}

// Identity resolves a user id into an authenticated identity with its role.
func (s *Service) Identity(ctx context.Context, userID string) (Identity, error) {
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return Anonymous(), err
	}
	role, err := s.store.Roles().Find(ctx, user.RoleID)
	if err != nil {
		return Anonymous(), err
	}
	return Authenticated(user, role), nil
}

// User loads an account by id.
func (s *Service) User(ctx context.Context, id string) (*User, error) {
	return s.store.Users().Find(ctx, id)
}

// ConfirmationToken mints a confirm token for the account, valid one hour.
func (s *Service) ConfirmationToken(user *User) (string, error) {
	return s.tokens.Issue(TokenConfirm, user.ID, ConfirmTokenTTL)
}

// ResetTokenFor mints a password-reset token for the account.
func (s *Service) ResetTokenFor(user *User) (string, error) {
	return s.tokens.Issue(TokenReset, user.ID, ResetTokenTTL)
}

// APIToken mints the long-lived bearer credential embedded in every account
// JSON representation.
func (s *Service) APIToken(user *User) (string, error) {
	return s.tokens.Issue(TokenAPI, user.ID, APITokenTTL)
}

// SessionToken mints the token carried by the browser session cookie. The
// remember flag trades a day-long session for a thirty-day one.
func (s *Service) SessionToken(user *User, remember bool) (string, error) {
	ttl := SessionTokenTTL
	if remember {
		ttl = RememberTokenTTL
	}
	return s.tokens.Issue(TokenSession, user.ID, ttl)
}

// Confirm flips the confirmation flag when the token was minted for this
// account. Confirmation is terminal: reconfirming is a no-op, and a token
// minted for another account is refused.
func (s *Service) Confirm(ctx context.Context, user *User, token string) error {
	subject, err := s.tokens.Verify(TokenConfirm, token)
	if err != nil {
		return ErrInvalidToken
	}
	if subject != user.ID {
		return ErrInvalidToken
	}
	if user.Confirmed {
		return nil
	}
	user.Confirmed = true
	return s.store.Users().Update(ctx, user)
}

// RequestPasswordReset mails a reset token to the account behind email. An
// unknown email is reported as ErrNotFound so the web layer can decide how
// much to reveal.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := s.ResetTokenFor(user)
	if err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, user.Email, token)
}

// ResetPassword verifies a reset token and replaces the credential.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	subject, err := s.tokens.Verify(TokenReset, token)
	if err != nil {
		return ErrInvalidToken
	}
	user, err := s.store.Users().Find(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.store.Users().UpdatePassword(ctx, user.ID, user.PasswordHash)
}

// ChangePassword replaces the credential after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, user *User, oldPassword, newPassword string) error {
	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidCredentials
	}
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.store.Users().UpdatePassword(ctx, user.ID, user.PasswordHash)
}

// UpdateProfile replaces the mutable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, user *User, location, aboutMe string) error {
	user.Location = strings.TrimSpace(location)
	user.AboutMe = strings.TrimSpace(aboutMe)
	return s.store.Users().Update(ctx, user)
}

// AuthenticateAPIToken resolves a bearer token into an identity.
func (s *Service) AuthenticateAPIToken(ctx context.Context, token string) (Identity, error) {
	return s.authenticate(ctx, TokenAPI, token)
}

// AuthenticateSession resolves a session cookie token into an identity.
func (s *Service) AuthenticateSession(ctx context.Context, token string) (Identity, error) {
	return s.authenticate(ctx, TokenSession, token)
}

func (s *Service) authenticate(ctx context.Context, kind TokenKind, token string) (Identity, error) {
	subject, err := s.tokens.Verify(kind, token)
	if err != nil {
		return Anonymous(), ErrInvalidToken
	}
	identity, err := s.Identity(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Anonymous(), ErrInvalidToken
		}
		return Anonymous(), err
	}
	return identity, nil
}

// ListRoles returns the role catalog.
func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.store.Roles().List(ctx)
}

// GrantPermission adds a flag to the named role's bitmask.
func (s *Service) GrantPermission(ctx context.Context, roleName string, p Permission) (*Role, error) {
	return s.editRole(ctx, roleName, func(role *Role) {
		role.AddPermission(p)
	})
}

// RevokePermission clears a flag from the named role's bitmask.
func (s *Service) RevokePermission(ctx context.Context, roleName string, p Permission) (*Role, error) {
	return s.editRole(ctx, roleName, func(role *Role) {
		role.RemovePermission(p)
	})
}

func (s *Service) editRole(ctx context.Context, roleName string, edit func(*Role)) (*Role, error) {
	role, err := s.store.Roles().FindByName(ctx, strings.TrimSpace(roleName))
	if err != nil {
		return nil, err
	}
	edit(role)
	role.UpdatedAt = s.now().UTC()
	if err := s.store.Roles().Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}
