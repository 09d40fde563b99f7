package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/database"
	"github.com/mkrupp/quill/internal/infra/logging"
)

const selectPosts = `
	SELECT p.id, p.title, p.content, p.user_id, p.created_at,
	       u.id, u.username, u.email, u.image_file, u.created_at
	FROM posts p
	JOIN users u ON u.id = p.user_id`

const newestFirst = " ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?"

// SQLPostRepository implements Repository on top of database/sql.
type SQLPostRepository struct {
	db  *database.DB
	log logging.Logger
}

var _ Repository = (*SQLPostRepository)(nil)

// NewSQLPostRepository creates a new SQLPostRepository on an open, migrated database.
func NewSQLPostRepository(db *database.DB) *SQLPostRepository {
	return &SQLPostRepository{
		db: db,
		log: logging.GetLogger("repo.post.sql_post_repository").With(
			logging.Group("db", "driver", db.Driver()),
		),
	}
}

// CreatePost implements Repository.CreatePost.
func (r *SQLPostRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	if post.CreatedAt == 0 {
		post.CreatedAt = time.Now().Unix()
	}

	err := r.db.QueryRowContext(ctx,
		r.db.Rebind("INSERT INTO posts (title, content, user_id, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		post.Title,
		post.Content,
		post.AuthorID,
		post.CreatedAt,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// GetPost implements Repository.GetPost.
func (r *SQLPostRepository) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, r.db.Rebind(selectPosts+" WHERE p.id = ?"), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrPostNotFound, err)
		}

		return nil, fmt.Errorf("query post: %w", err)
	}

	return post, nil
}

// UpdatePost implements Repository.UpdatePost.
func (r *SQLPostRepository) UpdatePost(ctx context.Context, post *domain.Post) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind("UPDATE posts SET title = ?, content = ? WHERE id = ?"),
		post.Title,
		post.Content,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return expectOneRow(res)
}

// DeletePost implements Repository.DeletePost.
func (r *SQLPostRepository) DeletePost(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM posts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return expectOneRow(res)
}

// ListRecent implements Repository.ListRecent.
func (r *SQLPostRepository) ListRecent(ctx context.Context, page, perPage int) (domain.Page[*domain.Post], error) {
	return r.list(ctx, page, perPage, "", nil)
}

// ListByAuthor implements Repository.ListByAuthor.
func (r *SQLPostRepository) ListByAuthor(
	ctx context.Context,
	authorID int64,
	page, perPage int,
) (domain.Page[*domain.Post], error) {
	return r.list(ctx, page, perPage, " WHERE p.user_id = ?", []any{authorID})
}

func (r *SQLPostRepository) list(
	ctx context.Context,
	number, perPage int,
	where string,
	args []any,
) (_ domain.Page[*domain.Post], err error) {
	page, offset, inRange := domain.NewPage[*domain.Post](number, perPage)

	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "list posts failed", "error", err)
		}
	}()

	// count and page read from one snapshot
	err = r.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		if err := tx.QueryRowContext(ctx,
			r.db.Rebind("SELECT COUNT(*) FROM posts p"+where),
			args...,
		).Scan(&page.Total); err != nil {
			return fmt.Errorf("count posts: %w", err)
		}

		if !inRange {
			return nil
		}

		rows, err := tx.QueryContext(ctx,
			r.db.Rebind(selectPosts+where+newestFirst),
			append(args, perPage, offset)...,
		)
		if err != nil {
			return fmt.Errorf("query posts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			post, err := scanPost(rows)
			if err != nil {
				return fmt.Errorf("scan post: %w", err)
			}

			page.Items = append(page.Items, post)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate posts: %w", err)
		}

		return nil
	})

	return page, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*domain.Post, error) {
	var (
		post   domain.Post
		author domain.User
	)

	if err := row.Scan(
		&post.ID, &post.Title, &post.Content, &post.AuthorID, &post.CreatedAt,
		&author.ID, &author.Username, &author.Email, &author.ImageFile, &author.CreatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	post.Author = &author

	return &post, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return domain.ErrPostNotFound
	}

	return nil
}
