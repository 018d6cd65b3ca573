package pg

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"niceblog.org/internal/blog"
)

const commentColumns = `id, blog_id, author_id, content, disabled, created_at`

func (s *Store) CreateComment(ctx context.Context, c *blog.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		insert into comments (id, blog_id, author_id, content, disabled, created_at)
		values ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.BlogID, c.AuthorID, c.Content, c.Disabled, c.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return blog.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) FindComment(ctx context.Context, id string) (*blog.Comment, error) {
	var c blog.Comment
	err := s.db.QueryRowContext(ctx, `
		select `+commentColumns+`
		from comments
		where id = $1
	`, id).Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.Disabled, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SetCommentDisabled(ctx context.Context, id string, disabled bool) error {
	res, err := s.db.ExecContext(ctx, `
		update comments set disabled = $2 where id = $1
	`, id, disabled)
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

func (s *Store) ListBlogComments(ctx context.Context, blogID string, includeDisabled bool, page, perPage int) ([]*blog.Comment, int, error) {
	where := `blog_id = $1`
	args := []any{blogID}
	if !includeDisabled {
		where += ` and disabled = false`
	}
	return s.listComments(ctx, where, args, page, perPage)
}

func (s *Store) ListUserComments(ctx context.Context, authorID string, page, perPage int) ([]*blog.Comment, int, error) {
	return s.listComments(ctx, `author_id = $1`, []any{authorID}, page, perPage)
}

func (s *Store) listComments(ctx context.Context, where string, args []any, page, perPage int) ([]*blog.Comment, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from comments where `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := s.db.QueryContext(ctx, `
		select `+commentColumns+`
		from comments
		where `+where+`
		order by created_at asc
		limit `+strconv.Itoa(perPage)+` offset `+strconv.Itoa(offset), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*blog.Comment
	for rows.Next() {
		var c blog.Comment
		if err := rows.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.Disabled, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}
