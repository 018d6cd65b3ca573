package auth

import "time"

// Canonical role names seeded at bootstrap.
const (
	RoleUser          = "User"
	RoleAdministrator = "Administrator"
)

// Role is a named bundle of permissions. Exactly one role carries the Default
// flag and is assigned to accounts whose email does not match the configured
// administrator address.
type Role struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Default     bool       `json:"default"`
	Permissions Permission `json:"permissions"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasPermission reports whether every bit of p is granted.
func (r *Role) HasPermission(p Permission) bool {
	return r.Permissions&p == p
}

// AddPermission grants p. Granting an already-held flag is a no-op.
func (r *Role) AddPermission(p Permission) {
	r.Permissions |= p
}

// RemovePermission revokes p. Revoking an absent flag is a no-op.
func (r *Role) RemovePermission(p Permission) {
	r.Permissions &^= p
}

// ResetPermissions clears every flag.
func (r *Role) ResetPermissions() {
	r.Permissions = 0
}

// seedRoles is the canonical role set. EnsureRoles rewrites these by name, so
// rerunning the seed never duplicates a role.
var seedRoles = []struct {
	Name        string
	Permissions Permission
	Default     bool
}{
	{RoleUser, PermFavourite | PermComment, true},
	{RoleAdministrator, PermFavourite | PermComment | PermWrite | PermAdmin, false},
}
