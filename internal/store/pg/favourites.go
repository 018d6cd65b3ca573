package pg

import (
	"context"
	"strconv"

	"niceblog.org/internal/blog"
)

func (s *Store) CreateFavourite(ctx context.Context, f *blog.Favourite) error {
	_, err := s.db.ExecContext(ctx, `
		insert into favourites (user_id, blog_id, created_at)
		values ($1, $2, $3)
	`, f.UserID, f.BlogID, f.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return blog.ErrConflict
			case pgErrForeignKeyViolation:
				return blog.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *Store) DeleteFavourite(ctx context.Context, userID, blogID string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from favourites where user_id = $1 and blog_id = $2
	`, userID, blogID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return blog.ErrNotFound
	}
	return nil
}

func (s *Store) ListUserFavourites(ctx context.Context, userID string, page, perPage int) ([]*blog.Favourite, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		select count(*) from favourites where user_id = $1
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := s.db.QueryContext(ctx, `
		select user_id, blog_id, created_at
		from favourites
		where user_id = $1
		order by created_at desc
		limit `+strconv.Itoa(perPage)+` offset `+strconv.Itoa(offset), userID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*blog.Favourite
	for rows.Next() {
		var f blog.Favourite
		if err := rows.Scan(&f.UserID, &f.BlogID, &f.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}
