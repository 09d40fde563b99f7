package authsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/logging"
	"github.com/mkrupp/quill/internal/svc/mailsvc"
)

const resetMailSubject = "Password Reset Request"

// ResetLinkFunc turns a reset token into the absolute URL mailed to the user.
type ResetLinkFunc func(token string) string

// RequestPasswordReset mails a reset link to the account registered with
// email. Unknown addresses are ignored without error so that callers cannot
// tell which accounts exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string, link ResetLinkFunc) (err error) {
	log := s.Log.With(logging.Group("reset", "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "request password reset failed", "error", err)
		} else {
			log.DebugContext(ctx, "password reset requested")
		}
	}()

	found, err := s.UserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log = log.With(logging.Group("reset", "unknown", true))

			return nil
		}

		return fmt.Errorf("get user: %w", err)
	}

	token, err := s.Tokens.Sign(found.ID)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	msg := mailsvc.Message{
		To:      found.Email,
		Subject: resetMailSubject,
		Body: "To reset your password, visit the following link:\n" +
			link(token) + "\n\n" +
			"If you did not make this request then simply ignore this email and no changes will be made.\n",
	}

	if err := s.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}

// VerifyResetToken returns the account a valid token was issued for.
// Returns ErrInvalidResetToken if the token is invalid, expired or its user is gone.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	found, err := s.UserRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, errors.Join(domain.ErrInvalidResetToken, err)
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	return found, nil
}

// ResetPassword sets a new password for the account the token was issued for.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (err error) {
	defer func() {
		if err != nil {
			s.Log.WarnContext(ctx, "reset password failed", "error", err)
		} else {
			s.Log.InfoContext(ctx, "password reset")
		}
	}()

	found, err := s.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}

	return s.updatePassword(ctx, found.ID, password)
}
