package user

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

const userColumns = "id, username, email, image_file, password_hash, created_at"

// SQLUserRepository implements Repository on top of database/sql.
type SQLUserRepository struct {
	db  *database.DB
	log logging.Logger
}

var _ Repository = (*SQLUserRepository)(nil)

// SQLUserRepositoryFactory creates a factory function that returns a new SQLUserRepository.
// The factory function implements the RepositoryFactory type.
func SQLUserRepositoryFactory(db *database.DB) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLUserRepository(db), nil
	}
}

// NewSQLUserRepository creates a new SQLUserRepository on an open, migrated database.
func NewSQLUserRepository(db *database.DB) *SQLUserRepository {
	return &SQLUserRepository{
		db: db,
		log: logging.GetLogger("repo.user.sql_user_repository").With(
			logging.Group("db", "driver", db.Driver()),
		),
	}
}

// CreateUser implements Repository.CreateUser.
func (r *SQLUserRepository) CreateUser(ctx context.Context, user *domain.User) (err error) {
	defer func() {
		if err != nil {
			r.log.DebugContext(ctx, "create user failed", "error", err)
		}
	}()

	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	if user.ImageFile == "" {
		user.ImageFile = domain.DefaultImageFile
	}

	err = r.db.QueryRowContext(ctx, r.db.Rebind(
		"INSERT INTO users (username, email, image_file, password_hash, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id",
	),
		user.Username,
		user.Email,
		user.ImageFile,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetUserByID implements Repository.GetUserByID.
func (r *SQLUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(ctx, "id", id)
}

// GetUserByEmail implements Repository.GetUserByEmail.
func (r *SQLUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, "email", email)
}

// GetUserByUsername implements Repository.GetUserByUsername.
func (r *SQLUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUser(ctx, "username", username)
}

func (r *SQLUserRepository) getUser(ctx context.Context, column string, value any) (*domain.User, error) {
	var user domain.User

	//nolint:gosec
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT "+userColumns+" FROM users WHERE "+column+" = ?"),
		value,
	).Scan(&user.ID, &user.Username, &user.Email, &user.ImageFile, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return nil, fmt.Errorf("query user by %s: %w", column, err)
	}

	return &user, nil
}

// UpdateProfile implements Repository.UpdateProfile.
func (r *SQLUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind("UPDATE users SET username = ?, email = ?, image_file = ? WHERE id = ?"),
		user.Username,
		user.Email,
		user.AvatarFile(),
		user.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return fmt.Errorf("update user: %w", err)
	}

	return expectOneRow(res)
}

// UpdatePassword implements Repository.UpdatePassword.
func (r *SQLUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash []byte) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind("UPDATE users SET password_hash = ? WHERE id = ?"),
		passwordHash,
		id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
