package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"niceblog.org/internal/blog"
	"niceblog.org/internal/ids"
)

const blogColumns = `id, author_id, title, summary, content, content_html, draft, published_at, edited_at, created_at`

func (s *Store) CreateBlog(ctx context.Context, b *blog.Blog) error {
	_, err := s.db.ExecContext(ctx, `
		insert into blogs (id, author_id, title, summary, content, content_html, draft, published_at, edited_at, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, b.ID, b.AuthorID, b.Title, b.Summary, b.Content, b.ContentHTML, b.Draft, b.PublishedAt, b.EditedAt, b.CreatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return blog.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) UpdateBlog(ctx context.Context, b *blog.Blog) error {
	res, err := s.db.ExecContext(ctx, `
		update blogs
		set title = $2, summary = $3, content = $4, content_html = $5, draft = $6, published_at = $7, edited_at = $8
		where id = $1
	`, b.ID, b.Title, b.Summary, b.Content, b.ContentHTML, b.Draft, b.PublishedAt, b.EditedAt)
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

func (s *Store) FindBlog(ctx context.Context, id string) (*blog.Blog, error) {
	var b blog.Blog
	err := s.db.QueryRowContext(ctx, `
		select `+blogColumns+`
		from blogs
		where id = $1
	`, id).Scan(&b.ID, &b.AuthorID, &b.Title, &b.Summary, &b.Content, &b.ContentHTML,
		&b.Draft, &b.PublishedAt, &b.EditedAt, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	labels, err := s.blogLabelNames(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Labels = labels
	return &b, nil
}

func (s *Store) ListBlogs(ctx context.Context, q blog.BlogQuery) ([]*blog.Blog, int, error) {
	where := `b.draft = $1`
	args := []any{q.Drafts}
	join := ``
	if q.LabelID != "" {
		join = `join blog_labels bl on bl.blog_id = b.id`
		where += ` and bl.label_id = $2`
		args = append(args, q.LabelID)
	}

	var total int
	countQuery := fmt.Sprintf(`select count(*) from blogs b %s where %s`, join, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := `b.published_at desc nulls last`
	if q.Drafts {
		order = `b.edited_at desc`
	}
	limit := q.PerPage
	offset := (q.Page - 1) * q.PerPage
	listQuery := fmt.Sprintf(`
		select b.id, b.author_id, b.title, b.summary, b.content, b.content_html, b.draft, b.published_at, b.edited_at, b.created_at
		from blogs b %s
		where %s
		order by %s
		limit %d offset %d
	`, join, where, order, limit, offset)

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*blog.Blog
	for rows.Next() {
		var b blog.Blog
		if err := rows.Scan(&b.ID, &b.AuthorID, &b.Title, &b.Summary, &b.Content, &b.ContentHTML,
			&b.Draft, &b.PublishedAt, &b.EditedAt, &b.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, b := range result {
		labels, err := s.blogLabelNames(ctx, b.ID)
		if err != nil {
			return nil, 0, err
		}
		b.Labels = labels
	}
	return result, total, nil
}

func (s *Store) blogLabelNames(ctx context.Context, blogID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select l.name
		from labels l
		join blog_labels bl on bl.label_id = l.id
		where bl.blog_id = $1
		order by l.name
	`, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) EnsureLabels(ctx context.Context, names []string) ([]blog.Label, error) {
	result := make([]blog.Label, 0, len(names))
	for _, name := range names {
		var l blog.Label
		err := s.db.QueryRowContext(ctx, `select id, name from labels where name = $1`, name).
			Scan(&l.ID, &l.Name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			l = blog.Label{ID: ids.New(), Name: name}
			if _, err := s.db.ExecContext(ctx, `
				insert into labels (id, name) values ($1, $2)
				on conflict (name) do nothing
			`, l.ID, l.Name); err != nil {
				return nil, err
			}
			// Another request may have inserted the label concurrently.
			if err := s.db.QueryRowContext(ctx, `select id, name from labels where name = $1`, name).
				Scan(&l.ID, &l.Name); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, err
		}
		result = append(result, l)
	}
	return result, nil
}

func (s *Store) SetBlogLabels(ctx context.Context, blogID string, labelIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from blog_labels where blog_id = $1`, blogID); err != nil {
		return err
	}
	for _, labelID := range labelIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into blog_labels (blog_id, label_id) values ($1, $2)
		`, blogID, labelID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListLabels(ctx context.Context) ([]blog.Label, error) {
	rows, err := s.db.QueryContext(ctx, `select id, name from labels order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []blog.Label
	for rows.Next() {
		var l blog.Label
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (s *Store) FindLabel(ctx context.Context, id string) (blog.Label, error) {
	var l blog.Label
	err := s.db.QueryRowContext(ctx, `select id, name from labels where id = $1`, id).
		Scan(&l.ID, &l.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return blog.Label{}, blog.ErrNotFound
	}
	if err != nil {
		return blog.Label{}, err
	}
	return l, nil
}
