package authsvc_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/svc/authsvc"
)

func resetLink(token string) string {
	return "http://localhost:5000/reset_password/" + token
}

func tokenFromMail(t *testing.T, body string) string {
	t.Helper()

	const prefix = "http://localhost:5000/reset_password/"

	idx := strings.Index(body, prefix)
	require.GreaterOrEqual(t, idx, 0, body)

	return strings.Fields(body[idx+len(prefix):])[0]
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	t.Parallel()

	env := setupTestService(t)
	ctx := context.Background()

	alice, err := env.svc.RegisterUser(ctx, "alice", "alice@x.com", "old")
	require.NoError(t, err)

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "alice@x.com", resetLink))
	require.Len(t, env.mailer.sent, 1)

	msg := env.mailer.sent[0]
	assert.Equal(t, "alice@x.com", msg.To)
	assert.Equal(t, "Password Reset Request", msg.Subject)

	token := tokenFromMail(t, msg.Body)

	found, err := env.svc.VerifyResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	require.NoError(t, env.svc.ResetPassword(ctx, token, "new"))

	_, err = env.svc.Authenticate(ctx, "alice@x.com", "new")
	require.NoError(t, err)

	_, err = env.svc.Authenticate(ctx, "alice@x.com", "old")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	t.Parallel()

	env := setupTestService(t)

	require.NoError(t, env.svc.RequestPasswordReset(context.Background(), "nobody@x.com", resetLink))
	assert.Empty(t, env.mailer.sent)
}

func TestAuthService_RequestPasswordReset_MailError(t *testing.T) {
	t.Parallel()

	env := setupTestService(t)
	ctx := context.Background()

	_, err := env.svc.RegisterUser(ctx, "alice", "alice@x.com", "pw")
	require.NoError(t, err)

	env.mailer.err = ErrRepoError

	require.ErrorIs(t, env.svc.RequestPasswordReset(ctx, "alice@x.com", resetLink), ErrRepoError)
}

func TestAuthService_VerifyResetToken(t *testing.T) {
	t.Parallel()

	env := setupTestService(t)
	ctx := context.Background()

	alice, err := env.svc.RegisterUser(ctx, "alice", "alice@x.com", "pw")
	require.NoError(t, err)

	valid, err := env.svc.Tokens.Sign(alice.ID)
	require.NoError(t, err)

	ghost, err := env.svc.Tokens.Sign(999)
	require.NoError(t, err)

	otherKey := authsvc.NewTokenSigner([]byte("other-secret"), 30*time.Minute, env.clock)
	forged, err := otherKey.Sign(alice.ID)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "tampered", token: valid[:len(valid)-2] + "xx"},
		{name: "wrong key", token: forged},
		{name: "unknown user", token: ghost},
	}

	for _, tt := range tests {
		_, err := env.svc.VerifyResetToken(ctx, tt.token)
		require.ErrorIs(t, err, domain.ErrInvalidResetToken, tt.name)
	}

	_, err = env.svc.VerifyResetToken(ctx, valid)
	require.NoError(t, err)
}

func TestTokenSigner_Expiry(t *testing.T) {
	t.Parallel()

	env := setupTestService(t)

	token, err := env.svc.Tokens.Sign(1)
	require.NoError(t, err)

	env.clock.Advance(29 * time.Minute)

	claims, err := env.svc.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)

	env.clock.Advance(2 * time.Minute)

	_, err = env.svc.Tokens.Verify(token)
	require.ErrorIs(t, err, domain.ErrInvalidResetToken)
}
