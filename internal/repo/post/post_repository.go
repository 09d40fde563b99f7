package post

import (
	"context"

	"github.com/mkrupp/quill/internal/domain"
)

// Repository defines the interface for post persistence.
// Reads populate Post.Author.
type Repository interface {
	// CreatePost inserts a post and sets its ID.
	CreatePost(ctx context.Context, post *domain.Post) error

	// GetPost retrieves a post by ID.
	// Returns ErrPostNotFound if there is no such post.
	GetPost(ctx context.Context, id int64) (*domain.Post, error)

	// UpdatePost stores title and content of an existing post.
	UpdatePost(ctx context.Context, post *domain.Post) error

	// DeletePost removes a post.
	DeletePost(ctx context.Context, id int64) error

	// ListRecent returns the given page of all posts, newest first.
	ListRecent(ctx context.Context, page, perPage int) (domain.Page[*domain.Post], error)

	// ListByAuthor returns the given page of one author's posts, newest first.
	ListByAuthor(ctx context.Context, authorID int64, page, perPage int) (domain.Page[*domain.Post], error)
}
