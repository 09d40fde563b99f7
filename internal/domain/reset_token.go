package domain

import "errors"

var (
	// ErrInvalidResetToken is returned when a reset token is malformed, tampered or expired.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrInvalidSession is returned when a session cookie cannot be verified.
	ErrInvalidSession = errors.New("invalid session")
)

// ResetClaims is the payload of a password reset token.
type ResetClaims struct {
	UserID    int64 // Account the token was issued for
	ExpiresAt int64 // Unix timestamp when the token expires
}
