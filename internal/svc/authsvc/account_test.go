package authsvc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/svc/authsvc"
)

func TestAuthService_UpdateAccount(t *testing.T) {
	t.Parallel()

	env := setupTestService(t)
	ctx := context.Background()

	alice, err := env.svc.RegisterUser(ctx, "alice", "alice@x.com", "pw")
	require.NoError(t, err)

	require.NoError(t, env.svc.UpdateAccount(ctx, alice, authsvc.AccountUpdate{
		Username: "alicia",
		Email:    "alicia@x.com",
	}))
	assert.Equal(t, domain.DefaultImageFile, alice.ImageFile)

	require.NoError(t, env.svc.UpdateAccount(ctx, alice, authsvc.AccountUpdate{
		Username: "alicia",
		Email:    "alicia@x.com",
		Picture:  &authsvc.Upload{Filename: "me.png", Data: []byte("png")},
	}))
	assert.Equal(t, "0123456789abcdef.png", alice.ImageFile)
	assert.True(t, env.avatars.Exists(ctx, "0123456789abcdef.png"))

	stored, err := env.svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", stored.Username)
	assert.Equal(t, "alicia@x.com", stored.Email)
	assert.Equal(t, "0123456789abcdef.png", stored.ImageFile)
	assert.Equal(t, "/avatars/0123456789abcdef.png", env.svc.AvatarURL(stored))
}

func TestAuthService_UpdateAccount_BadPicture(t *testing.T) {
	t.Parallel()

	env := setupTestService(t)
	ctx := context.Background()

	alice, err := env.svc.RegisterUser(ctx, "alice", "alice@x.com", "pw")
	require.NoError(t, err)

	env.images.err = domain.ErrImageTypeMismatch

	err = env.svc.UpdateAccount(ctx, alice, authsvc.AccountUpdate{
		Username: "alicia",
		Email:    "alice@x.com",
		Picture:  &authsvc.Upload{Filename: "me.png", Data: []byte("jpeg")},
	})
	require.ErrorIs(t, err, domain.ErrImageTypeMismatch)
	assert.Equal(t, "alice", alice.Username, "failed update leaves the account untouched")
}

func TestAuthService_EnsureDefaultAvatar(t *testing.T) {
	t.Parallel()

	env := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, env.svc.EnsureDefaultAvatar(ctx))
	assert.True(t, env.avatars.Exists(ctx, domain.DefaultImageFile))

	env.avatars.stored[domain.DefaultImageFile].Data = []byte("custom")

	require.NoError(t, env.svc.EnsureDefaultAvatar(ctx))
	assert.Equal(t, []byte("custom"), env.avatars.stored[domain.DefaultImageFile].Data, "existing default is kept")
}
