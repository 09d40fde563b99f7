// Package postsvc implements authoring and listing of blog posts.
package postsvc

import (
	"context"
	"fmt"

	"github.com/juju/clock"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/logging"
	"github.com/mkrupp/quill/internal/repo/post"
)

// PostConfig contains configuration parameters for the post service.
type PostConfig struct {
	// PerPage is the page size of the front page listing
	PerPage int `env:"PER_PAGE" default:"4"`
	// AuthorPerPage is the page size of a single author's listing
	AuthorPerPage int `env:"AUTHOR_PER_PAGE" default:"3"`
}

// PostService provides post management functionality.
type PostService struct {
	Config   PostConfig
	PostRepo post.Repository
	Clock    clock.Clock
	Log      logging.Logger
}

// NewPostService creates a new PostService using the given repository.
func NewPostService(repo post.Repository, clk clock.Clock, cfg PostConfig) *PostService {
	return &PostService{
		Config:   cfg,
		PostRepo: repo,
		Clock:    clk,
		Log:      logging.GetLogger("svc.postsvc.post_service"),
	}
}

// CreatePost publishes a new post written by author.
func (s *PostService) CreatePost(
	ctx context.Context,
	author *domain.User,
	title, content string,
) (_ *domain.Post, err error) {
	log := s.Log.With(logging.Group("post", "author_id", author.ID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post created")
		}
	}()

	newPost := &domain.Post{
		Title:     title,
		Content:   content,
		AuthorID:  author.ID,
		Author:    author,
		CreatedAt: s.Clock.Now().Unix(),
	}

	if err := s.PostRepo.CreatePost(ctx, newPost); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	return newPost, nil
}

// GetPost loads a post with its author.
// Returns ErrPostNotFound if there is no such post.
func (s *PostService) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	found, err := s.PostRepo.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return found, nil
}

// GetOwnPost loads a post for editing.
// Returns ErrForbidden if editor is not its author.
func (s *PostService) GetOwnPost(ctx context.Context, editor *domain.User, id int64) (*domain.Post, error) {
	found, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if !found.OwnedBy(editor) {
		return nil, fmt.Errorf("%w: post %d", domain.ErrForbidden, id)
	}

	return found, nil
}

// UpdatePost replaces title and content of a post owned by editor.
func (s *PostService) UpdatePost(
	ctx context.Context,
	editor *domain.User,
	id int64,
	title, content string,
) (_ *domain.Post, err error) {
	log := s.Log.With(logging.Group("post", "id", id))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "update post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post updated")
		}
	}()

	found, err := s.GetOwnPost(ctx, editor, id)
	if err != nil {
		return nil, err
	}

	found.Title = title
	found.Content = content

	if err := s.PostRepo.UpdatePost(ctx, found); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	return found, nil
}

// DeletePost removes a post owned by editor.
func (s *PostService) DeletePost(ctx context.Context, editor *domain.User, id int64) (err error) {
	log := s.Log.With(logging.Group("post", "id", id))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "delete post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post deleted")
		}
	}()

	if _, err := s.GetOwnPost(ctx, editor, id); err != nil {
		return err
	}

	if err := s.PostRepo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return nil
}

// ListRecent returns a page of all posts, newest first.
func (s *PostService) ListRecent(ctx context.Context, page int) (domain.Page[*domain.Post], error) {
	posts, err := s.PostRepo.ListRecent(ctx, page, s.Config.PerPage)
	if err != nil {
		return posts, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}

// ListByAuthor returns a page of author's posts, newest first.
func (s *PostService) ListByAuthor(
	ctx context.Context,
	author *domain.User,
	page int,
) (domain.Page[*domain.Post], error) {
	posts, err := s.PostRepo.ListByAuthor(ctx, author.ID, page, s.Config.AuthorPerPage)
	if err != nil {
		return posts, fmt.Errorf("list posts by author: %w", err)
	}

	return posts, nil
}
