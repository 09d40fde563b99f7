package avatar_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/repo/avatar"
)

type object struct {
	data        []byte
	contentType string
}

type mockS3 struct {
	mu      sync.Mutex
	objects map[string]object
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string]object)}
}

func (m *mockS3) PutObject(
	_ context.Context,
	in *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = object{data: data, contentType: aws.ToString(in.ContentType)}

	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) GetObject(
	_ context.Context,
	in *s3.GetObjectInput,
	_ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: aws.String(obj.contentType),
	}, nil
}

func (m *mockS3) HeadObject(
	_ context.Context,
	in *s3.HeadObjectInput,
	_ ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}

	return &s3.HeadObjectOutput{}, nil
}

func TestS3Repository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newMockS3()
	cfg := avatar.S3AvatarRepositoryConfig{Bucket: "quill", Prefix: "profile_pics/"}
	repo := avatar.NewS3AvatarRepository(client, cfg)

	pic := &domain.Avatar{Filename: "0123456789abcdef.jpg", MIMEType: "image/jpeg", Data: []byte("jpeg-bytes")}

	assert.False(t, repo.Exists(ctx, pic.Filename))
	require.NoError(t, repo.Store(ctx, pic))
	assert.True(t, repo.Exists(ctx, pic.Filename))
	assert.Contains(t, client.objects, "quill/profile_pics/0123456789abcdef.jpg")

	got, err := repo.Fetch(ctx, pic.Filename)
	require.NoError(t, err)
	assert.Equal(t, pic, got)

	_, err = repo.Fetch(ctx, "missing.png")
	require.ErrorIs(t, err, domain.ErrAvatarNotFound)

	_, err = repo.Fetch(ctx, "../escape.png")
	require.ErrorIs(t, err, domain.ErrInvalidAvatarName)
}

func TestS3Repository_URL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		publicURL string
		want      string
	}{
		{publicURL: "", want: "/static/profile_pics/a.png"},
		{publicURL: "https://cdn.example.com/quill/", want: "https://cdn.example.com/quill/profile_pics/a.png"},
	}

	for _, tt := range tests {
		repo := avatar.NewS3AvatarRepository(newMockS3(), avatar.S3AvatarRepositoryConfig{
			Bucket:    "quill",
			Prefix:    "profile_pics/",
			PublicURL: tt.publicURL,
		})

		assert.Equal(t, tt.want, repo.URL("a.png"))
	}
}

func TestS3Repository_StoreError(t *testing.T) {
	t.Parallel()

	repo := avatar.NewS3AvatarRepository(failingS3{}, avatar.S3AvatarRepositoryConfig{Bucket: "quill"})

	err := repo.Store(context.Background(), &domain.Avatar{Filename: "a.png", Data: []byte("x")})
	require.ErrorIs(t, err, errUnavailable)
}

var errUnavailable = errors.New("unavailable")

type failingS3 struct{ avatar.S3API }

func (failingS3) PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return nil, errUnavailable
}
