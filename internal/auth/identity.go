package auth

// Identity is the resolved caller of a request: anonymous or an authenticated
// account with its role loaded. It replaces any notion of a global "current
// user" — middleware resolves it once and threads it through the context.
type Identity struct {
	user *User
	role *Role
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of a resolved account.
func Authenticated(user *User, role *Role) Identity {
	return Identity{user: user, role: role}
}

// IsAnonymous reports whether no account stands behind the identity.
func (id Identity) IsAnonymous() bool {
	return id.user == nil
}

// User returns the account behind the identity, nil for anonymous callers.
func (id Identity) User() *User {
	return id.user
}

// Role returns the resolved role, nil for anonymous callers.
func (id Identity) Role() *Role {
	return id.role
}

// Can reports whether the identity holds the permission. Anonymous callers
// hold no permissions at all.
func (id Identity) Can(p Permission) bool {
	return id.user != nil && id.role != nil && id.role.HasPermission(p)
}

// IsAdministrator reports whether the identity holds the ADMIN flag.
func (id Identity) IsAdministrator() bool {
	return id.Can(PermAdmin)
}

// Confirmed reports whether the account behind the identity has completed the
// email confirmation flow. Anonymous callers are never confirmed.
func (id Identity) Confirmed() bool {
	return id.user != nil && id.user.Confirmed
}
