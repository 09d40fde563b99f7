package avatar_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/repo/avatar"
)

func TestFileSystemRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	basedir := filepath.Join(t.TempDir(), "profile_pics")

	repo, err := avatar.FileSystemAvatarRepositoryFactory(avatar.FileSystemAvatarRepositoryConfig{Basedir: basedir})(ctx)
	require.NoError(t, err)

	info, err := os.Stat(basedir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	pic := &domain.Avatar{Filename: "0123456789abcdef.png", MIMEType: "image/png", Data: []byte("png-bytes")}

	assert.False(t, repo.Exists(ctx, pic.Filename))
	require.NoError(t, repo.Store(ctx, pic))
	assert.True(t, repo.Exists(ctx, pic.Filename))

	// overwrite with shorter content must not leave trailing bytes
	require.NoError(t, repo.Store(ctx, &domain.Avatar{Filename: pic.Filename, Data: []byte("png")}))

	got, err := repo.Fetch(ctx, pic.Filename)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), got.Data)
	assert.Equal(t, "image/png", got.MIMEType)

	assert.Equal(t, "/static/profile_pics/0123456789abcdef.png", repo.URL(pic.Filename))

	_, err = repo.Fetch(ctx, "missing.jpg")
	require.ErrorIs(t, err, domain.ErrAvatarNotFound)
}

func TestFileSystemRepository_RejectsPathNames(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	repo, err := avatar.NewFileSystemAvatarRepository(ctx, avatar.FileSystemAvatarRepositoryConfig{Basedir: t.TempDir()})
	require.NoError(t, err)

	for _, name := range []string{"", "../secret.png", "a/b.png", ".hidden", `..\x.png`} {
		_, err := repo.Fetch(ctx, name)
		require.ErrorIs(t, err, domain.ErrInvalidAvatarName, name)

		err = repo.Store(ctx, &domain.Avatar{Filename: name, Data: []byte("x")})
		require.ErrorIs(t, err, domain.ErrInvalidAvatarName, name)

		assert.False(t, repo.Exists(ctx, name), name)
	}
}
