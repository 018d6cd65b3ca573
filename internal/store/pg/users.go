package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"niceblog.org/internal/auth"
)

type userStore struct {
	db *sql.DB
}

const userColumns = `id, username, email, password_hash, confirmed, role_id, location, about_me, member_since, last_seen`

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, username, email, password_hash, confirmed, role_id, location, about_me, member_since, last_seen)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Confirmed, u.RoleID, u.Location, u.AboutMe, u.MemberSince, u.LastSeen)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	return s.findBy(ctx, `id = $1`, id)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findBy(ctx, `email = $1`, email)
}

func (s *userStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	return s.findBy(ctx, `username = $1`, username)
}

func (s *userStore) findBy(ctx context.Context, where string, arg any) (*auth.User, error) {
	var u auth.User
	err := s.db.QueryRowContext(ctx, `
		select `+userColumns+`
		from users
		where `+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Confirmed, &u.RoleID,
		&u.Location, &u.AboutMe, &u.MemberSince, &u.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userStore) Update(ctx context.Context, u *auth.User) error {
	res, err := s.db.ExecContext(ctx, `
		update users
		set username = $2, email = $3, confirmed = $4, role_id = $5, location = $6, about_me = $7
		where id = $1
	`, u.ID, u.Username, u.Email, u.Confirmed, u.RoleID, u.Location, u.AboutMe)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return requireRow(res)
}

func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set password_hash = $2 where id = $1
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *userStore) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update users set last_seen = $2 where id = $1
	`, userID, at)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}
