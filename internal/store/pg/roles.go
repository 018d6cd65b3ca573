package pg

import (
	"context"
	"database/sql"
	"errors"

	"niceblog.org/internal/auth"
)

type roleStore struct {
	db *sql.DB
}

const roleColumns = `id, name, is_default, permissions, created_at, updated_at`

func (s *roleStore) Create(ctx context.Context, role *auth.Role) error {
	_, err := s.db.ExecContext(ctx, `
		insert into roles (id, name, is_default, permissions, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6)
	`, role.ID, role.Name, role.Default, int(role.Permissions), role.CreatedAt, role.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *roleStore) Find(ctx context.Context, id string) (*auth.Role, error) {
	return s.findBy(ctx, `id = $1`, id)
}

func (s *roleStore) FindByName(ctx context.Context, name string) (*auth.Role, error) {
	return s.findBy(ctx, `name = $1`, name)
}

func (s *roleStore) FindDefault(ctx context.Context) (*auth.Role, error) {
	return s.findBy(ctx, `is_default = $1`, true)
}

func (s *roleStore) findBy(ctx context.Context, where string, arg any) (*auth.Role, error) {
	var (
		role  auth.Role
		perms int
	)
	err := s.db.QueryRowContext(ctx, `
		select `+roleColumns+`
		from roles
		where `+where,
		arg,
	).Scan(&role.ID, &role.Name, &role.Default, &perms, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	role.Permissions = auth.Permission(perms)
	return &role, nil
}

func (s *roleStore) List(ctx context.Context) ([]*auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+roleColumns+`
		from roles
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*auth.Role
	for rows.Next() {
		var (
			role  auth.Role
			perms int
		)
		if err := rows.Scan(&role.ID, &role.Name, &role.Default, &perms, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		role.Permissions = auth.Permission(perms)
		result = append(result, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *roleStore) Update(ctx context.Context, role *auth.Role) error {
	res, err := s.db.ExecContext(ctx, `
		update roles
		set name = $2, is_default = $3, permissions = $4, updated_at = $5
		where id = $1
	`, role.ID, role.Name, role.Default, int(role.Permissions), role.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return requireRow(res)
}
