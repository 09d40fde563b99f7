package user

import (
	"context"

	"github.com/mkrupp/quill/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// CreateUser adds a new user and sets its ID.
	// Returns ErrUserAlreadyExists if the username or email is already taken.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByID retrieves a user by primary key.
	// Returns ErrUserNotFound if there is no such user.
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// GetUserByEmail retrieves a user by login email.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByUsername retrieves a user by display name.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// UpdateProfile stores username, email and avatar of an existing user.
	// Returns ErrUserAlreadyExists if the new username or email is taken.
	UpdateProfile(ctx context.Context, user *domain.User) error

	// UpdatePassword replaces the password hash of an existing user.
	UpdatePassword(ctx context.Context, id int64, passwordHash []byte) error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
