package auth

import (
	"fmt"
	"strings"
)

// Permission is a single capability encoded as one bit. Flags are disjoint
// powers of two, so a grant set composes with bitwise OR and tests with AND.
type Permission int

const (
	// PermFavourite allows marking blogs as favourites.
	PermFavourite Permission = 1 << iota
	// PermComment allows commenting on published blogs.
	PermComment
	// PermWrite allows authoring and editing blogs.
	PermWrite
	// PermAdmin allows comment moderation and role management.
	PermAdmin
)

var permissionNames = map[Permission]string{
	PermFavourite: "FAVOURITE",
	PermComment:   "COMMENT",
	PermWrite:     "WRITE",
	PermAdmin:     "ADMIN",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Permission(%d)", int(p))
}

// ParsePermission resolves a flag by its canonical name. Used by the role
// management endpoints, which address permissions symbolically.
func ParsePermission(name string) (Permission, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for p, n := range permissionNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, name)
}
