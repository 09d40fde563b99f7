// Package authsvc manages accounts: registration, login, profile updates
// and the email-based password reset flow.
package authsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/logging"
	"github.com/mkrupp/quill/internal/repo/avatar"
	"github.com/mkrupp/quill/internal/repo/user"
	"github.com/mkrupp/quill/internal/svc/imagesvc"
	"github.com/mkrupp/quill/internal/svc/mailsvc"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// SecretKey signs reset tokens and session cookies
	SecretKey string `env:"SECRET_KEY"`

	// ResetTokenTTL is how long a password reset link stays valid
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" default:"30m"`

	// BcryptCost is the work factor of password hashes
	BcryptCost int `env:"BCRYPT_COST" default:"12"`
}

// AuthService provides account management functionality.
type AuthService struct {
	Config     AuthConfig
	UserRepo   user.Repository
	AvatarRepo avatar.Repository
	ImageSvc   imagesvc.ImageService
	Mailer     mailsvc.MailService
	Tokens     *TokenSigner
	Hasher     PasswordHasher
	Clock      clock.Clock
	Log        logging.Logger
}

// NewAuthService creates a new AuthService with the given collaborators and configuration.
// Returns an error if the user repository cannot be created.
func NewAuthService(
	repoFactory user.RepositoryFactory,
	avatarRepo avatar.Repository,
	imageSvc imagesvc.ImageService,
	mailer mailsvc.MailService,
	clk clock.Clock,
	cfg AuthConfig,
) (*AuthService, error) {
	if cfg.SecretKey == "" {
		return nil, ErrEmptySecret
	}

	userRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &AuthService{
		Config:     cfg,
		UserRepo:   userRepo,
		AvatarRepo: avatarRepo,
		ImageSvc:   imageSvc,
		Mailer:     mailer,
		Tokens:     NewTokenSigner([]byte(cfg.SecretKey), cfg.ResetTokenTTL, clk),
		Hasher:     NewBcryptHasher(cfg.BcryptCost),
		Clock:      clk,
		Log:        logging.GetLogger("svc.authsvc.auth_service"),
	}, nil
}

// RegisterUser creates a new account. The password is hashed before storage.
// Returns ErrUserAlreadyExists if the username or email is taken.
func (s *AuthService) RegisterUser(
	ctx context.Context,
	username, email, password string,
) (_ *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	passwordHash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	//nolint:exhaustruct
	newUser := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		ImageFile:    domain.DefaultImageFile,
		CreatedAt:    s.Clock.Now().Unix(),
	}

	if err := s.UserRepo.CreateUser(ctx, newUser); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return newUser, nil
}

// Authenticate checks an email/password pair.
// Returns ErrInvalidCredentials if the user is unknown or the password does not match.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (_ *domain.User, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	found, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, errors.Join(domain.ErrInvalidCredentials, err)
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	log = log.With(logging.Group("user", "id", found.ID))

	if err := s.Hasher.Compare(found.PasswordHash, password); err != nil {
		return nil, errors.Join(domain.ErrInvalidCredentials, err)
	}

	return found, nil
}

// GetUser loads the account with the given ID.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	found, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return found, nil
}

// GetUserByUsername loads the account with the given display name.
func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	found, err := s.UserRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return found, nil
}

// UsernameTaken reports whether another account uses username.
func (s *AuthService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return taken(s.UserRepo.GetUserByUsername(ctx, username))
}

// EmailTaken reports whether another account uses email.
func (s *AuthService) EmailTaken(ctx context.Context, email string) (bool, error) {
	return taken(s.UserRepo.GetUserByEmail(ctx, email))
}

func taken(_ *domain.User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("get user: %w", err)
	}
}

// SetPassword replaces the password of the account registered with email.
func (s *AuthService) SetPassword(ctx context.Context, email, password string) (err error) {
	log := s.Log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "set password failed", "error", err)
		} else {
			log.InfoContext(ctx, "password set")
		}
	}()

	found, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	return s.updatePassword(ctx, found.ID, password)
}

func (s *AuthService) updatePassword(ctx context.Context, userID int64, password string) error {
	passwordHash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.UserRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}
