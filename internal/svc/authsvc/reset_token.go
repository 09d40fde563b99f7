package authsvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"

	"github.com/mkrupp/quill/internal/domain"
)

const resetAudience = "password-reset"

// ErrEmptySecret is returned when no signing secret is configured.
var ErrEmptySecret = errors.New("empty secret key")

type resetClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies stateless password reset tokens
// (HS256 JWTs carrying the user ID and an expiry).
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenSigner(secret []byte, ttl time.Duration, clk clock.Clock) *TokenSigner {
	return &TokenSigner{secret: secret, ttl: ttl, clock: clk}
}

// Sign returns a token for userID that expires after the configured TTL.
func (s *TokenSigner) Sign(userID int64) (string, error) {
	now := s.clock.Now()

	//nolint:exhaustruct
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, resetClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{resetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks signature, audience and expiry of token.
// Returns ErrInvalidResetToken for any failure.
func (s *TokenSigner) Verify(token string) (domain.ResetClaims, error) {
	var claims resetClaims

	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resetAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return domain.ResetClaims{}, errors.Join(domain.ErrInvalidResetToken, err)
	}

	if !parsed.Valid || claims.UserID == 0 {
		return domain.ResetClaims{}, domain.ErrInvalidResetToken
	}

	return domain.ResetClaims{
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}, nil
}
