package auth

import "testing"

func TestPermissionComposition(t *testing.T) {
	role := &Role{Name: RoleUser}

	role.AddPermission(PermFavourite)
	if !role.HasPermission(PermFavourite) {
		t.Fatalf("expected FAVOURITE after grant")
	}
	role.AddPermission(PermComment)
	// Granting twice must not disturb the bitmask.
	role.AddPermission(PermComment)
	if !role.HasPermission(PermFavourite | PermComment) {
		t.Fatalf("expected combined flags, got %d", role.Permissions)
	}

	role.RemovePermission(PermFavourite)
	if role.HasPermission(PermFavourite) {
		t.Fatalf("FAVOURITE should be revoked")
	}
	if !role.HasPermission(PermComment) {
		t.Fatalf("unrelated COMMENT flag was disturbed")
	}
	role.RemovePermission(PermFavourite)
	if role.Permissions != PermComment {
		t.Fatalf("double revoke changed the bitmask: %d", role.Permissions)
	}

	role.ResetPermissions()
	if role.Permissions != 0 {
		t.Fatalf("reset left flags set: %d", role.Permissions)
	}
}

func TestPermissionFlagsAreDisjoint(t *testing.T) {
	flags := []Permission{PermFavourite, PermComment, PermWrite, PermAdmin}
	for i, a := range flags {
		for _, b := range flags[i+1:] {
			if a&b != 0 {
				t.Fatalf("flags %v and %v overlap", a, b)
			}
		}
	}
	if PermFavourite != 1 || PermComment != 2 || PermWrite != 4 || PermAdmin != 8 {
		t.Fatalf("unexpected flag values: %d %d %d %d", PermFavourite, PermComment, PermWrite, PermAdmin)
	}
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission(" write ")
	if err != nil || p != PermWrite {
		t.Fatalf("ParsePermission(write) = %v, %v", p, err)
	}
	if _, err := ParsePermission("MODERATE"); err == nil {
		t.Fatalf("expected error for unknown permission")
	}
}

func TestAnonymousIdentityHoldsNothing(t *testing.T) {
	anon := Anonymous()
	if !anon.IsAnonymous() {
		t.Fatalf("expected anonymous")
	}
	for _, p := range []Permission{PermFavourite, PermComment, PermWrite, PermAdmin} {
		if anon.Can(p) {
			t.Fatalf("anonymous identity must not hold %v", p)
		}
	}
	if anon.IsAdministrator() || anon.Confirmed() {
		t.Fatalf("anonymous identity must fail admin and confirmed checks")
	}
}

func TestAuthenticatedIdentityChecksRole(t *testing.T) {
	role := &Role{Name: RoleAdministrator, Permissions: PermFavourite | PermComment | PermWrite | PermAdmin}
	user := &User{ID: "u1", Confirmed: true}
	id := Authenticated(user, role)

	if !id.Can(PermWrite) || !id.IsAdministrator() {
		t.Fatalf("administrator identity missing expected permissions")
	}

	limited := Authenticated(user, &Role{Name: RoleUser, Permissions: PermFavourite | PermComment})
	if limited.Can(PermWrite) || limited.IsAdministrator() {
		t.Fatalf("user role must not hold WRITE or ADMIN")
	}
}
