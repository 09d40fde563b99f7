package authsvc

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/quill/internal/domain"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	// Compare returns nil when password matches hash.
	Compare(hash []byte, password string) error
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

var _ PasswordHasher = BcryptHasher{}

// NewBcryptHasher clamps cost into bcrypt's accepted range.
func NewBcryptHasher(cost int) BcryptHasher {
	return BcryptHasher{cost: min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)}
}

// Hash returns domain.ErrPasswordTooLong for passwords over
// domain.MaxPasswordBytes.
func (h BcryptHasher) Hash(password string) ([]byte, error) {
	if len(password) > domain.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrPasswordTooLong, len(password))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			err = errors.Join(domain.ErrPasswordTooLong, err)
		}

		return nil, fmt.Errorf("generate hash: %w", err)
	}

	return hash, nil
}

func (h BcryptHasher) Compare(hash []byte, password string) error {
	//nolint:wrapcheck
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}
