package authsvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/logging"
)

// Upload is a file received from a form.
type Upload struct {
	Filename string
	Data     []byte
}

// AccountUpdate holds the editable profile fields.
type AccountUpdate struct {
	Username string
	Email    string
	Picture  *Upload // nil keeps the current avatar
}

// UpdateAccount applies update to account. A new picture is thumbnailed
// and stored under a random name; the previous file is left in place.
func (s *AuthService) UpdateAccount(
	ctx context.Context,
	account *domain.User,
	update AccountUpdate,
) (err error) {
	log := s.Log.With(logging.Group("user", "id", account.ID))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update account failed", "error", err)
		} else {
			log.DebugContext(ctx, "account updated")
		}
	}()

	changed := *account
	changed.Username = update.Username
	changed.Email = update.Email

	if update.Picture != nil {
		pic, err := s.ImageSvc.ProcessAvatar(ctx, update.Picture.Filename, update.Picture.Data)
		if err != nil {
			return fmt.Errorf("process avatar: %w", err)
		}

		if err := s.AvatarRepo.Store(ctx, pic); err != nil {
			return fmt.Errorf("store avatar: %w", err)
		}

		changed.ImageFile = pic.Filename
	}

	if err := s.UserRepo.UpdateProfile(ctx, &changed); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	*account = changed

	return nil
}

// AvatarURL returns the browser address of the user's avatar.
func (s *AuthService) AvatarURL(account *domain.User) string {
	return s.AvatarRepo.URL(account.AvatarFile())
}

// EnsureDefaultAvatar stores the placeholder avatar unless it already exists.
func (s *AuthService) EnsureDefaultAvatar(ctx context.Context) error {
	if s.AvatarRepo.Exists(ctx, domain.DefaultImageFile) {
		return nil
	}

	pic, err := s.ImageSvc.DefaultAvatar(ctx)
	if err != nil {
		return fmt.Errorf("render default avatar: %w", err)
	}

	if err := s.AvatarRepo.Store(ctx, pic); err != nil {
		return fmt.Errorf("store default avatar: %w", err)
	}

	return nil
}
