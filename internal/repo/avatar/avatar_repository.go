package avatar

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mkrupp/quill/internal/domain"
)

// Repository defines the interface for profile picture storage.
type Repository interface {
	// Exists reports whether an avatar with the given file name is stored.
	Exists(ctx context.Context, filename string) bool

	// Store persists an avatar under avatar.Filename, replacing any previous content.
	Store(ctx context.Context, avatar *domain.Avatar) error

	// Fetch retrieves an avatar by file name.
	// Returns ErrAvatarNotFound if there is no such avatar.
	Fetch(ctx context.Context, filename string) (*domain.Avatar, error)

	// URL returns the address browsers load the avatar from.
	URL(filename string) string
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)

// StaticPrefix is the path avatars are served under when the backend has no public URL.
const StaticPrefix = "/static/profile_pics/"

func checkName(filename string) error {
	if filename == "" ||
		filename != filepath.Base(filename) ||
		strings.HasPrefix(filename, ".") ||
		strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAvatarName, filename)
	}

	return nil
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
