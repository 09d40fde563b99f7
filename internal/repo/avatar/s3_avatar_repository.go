package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/logging"
)

// S3AvatarRepositoryConfig holds the object storage settings.
type S3AvatarRepositoryConfig struct {
	Bucket string `env:"BUCKET" default:"quill"`
	Region string `env:"REGION" default:"us-east-1"`
	// BaseEndpoint points at an S3 compatible server such as MinIO; empty uses AWS
	BaseEndpoint string `env:"BASE_ENDPOINT" default:""`
	AccessKey    string `env:"ACCESS_KEY" default:""`
	SecretKey    string `env:"SECRET_KEY" default:""`
	// Prefix is prepended to every object key
	Prefix string `env:"PREFIX" default:"profile_pics/"`
	// PublicURL is the browser-facing bucket address; empty serves avatars through the app
	PublicURL string `env:"PUBLIC_URL" default:""`
}

// S3API is the subset of *s3.Client the repository needs.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3AvatarRepositoryFactory creates a factory function that returns a new S3Repository.
func S3AvatarRepositoryFactory(cfg S3AvatarRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}

		return NewS3AvatarRepository(client, cfg), nil
	}
}

// NewS3Client builds an S3 client from the default AWS config chain,
// overridden by static credentials and a custom endpoint when configured.
func NewS3Client(ctx context.Context, cfg S3AvatarRepositoryConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}

	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Repository implements Repository on an S3 bucket.
type S3Repository struct {
	client S3API
	cfg    S3AvatarRepositoryConfig
	log    logging.Logger
}

var _ Repository = (*S3Repository)(nil)

func NewS3AvatarRepository(client S3API, cfg S3AvatarRepositoryConfig) *S3Repository {
	return &S3Repository{
		client: client,
		cfg:    cfg,
		log: logging.GetLogger("repo.avatar.s3_repository").With(
			logging.Group("repo", "bucket", cfg.Bucket, "prefix", cfg.Prefix),
		),
	}
}

func (s3Repo *S3Repository) key(filename string) string {
	return s3Repo.cfg.Prefix + filename
}

func (s3Repo *S3Repository) Exists(ctx context.Context, filename string) bool {
	if checkName(filename) != nil {
		return false
	}

	_, err := s3Repo.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s3Repo.cfg.Bucket),
		Key:    aws.String(s3Repo.key(filename)),
	})

	return err == nil
}

func (s3Repo *S3Repository) URL(filename string) string {
	if s3Repo.cfg.PublicURL == "" {
		return StaticPrefix + filename
	}

	return strings.TrimSuffix(s3Repo.cfg.PublicURL, "/") + "/" + s3Repo.key(filename)
}

func (s3Repo *S3Repository) Store(ctx context.Context, avatar *domain.Avatar) (err error) {
	defer func() {
		log := s3Repo.log.With(logging.Group("avatar", "name", avatar.Filename))
		if err != nil {
			log.ErrorContext(ctx, "avatar store failed", "error", err)
		} else {
			log.DebugContext(ctx, "avatar stored", "size", len(avatar.Data))
		}
	}()

	if err := checkName(avatar.Filename); err != nil {
		return err
	}

	//nolint:exhaustruct
	if _, err := s3Repo.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s3Repo.cfg.Bucket),
		Key:           aws.String(s3Repo.key(avatar.Filename)),
		Body:          bytes.NewReader(avatar.Data),
		ContentLength: aws.Int64(int64(len(avatar.Data))),
		ContentType:   aws.String(avatar.MIMEType),
	}); err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

func (s3Repo *S3Repository) Fetch(ctx context.Context, filename string) (_ *domain.Avatar, err error) {
	if err := checkName(filename); err != nil {
		return nil, err
	}

	//nolint:exhaustruct
	out, err := s3Repo.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3Repo.cfg.Bucket),
		Key:    aws.String(s3Repo.key(filename)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			err = errors.Join(domain.ErrAvatarNotFound, err)
		}

		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}

	mimeType := aws.ToString(out.ContentType)
	if mimeType == "" {
		mimeType = mimeTypeFor(filename)
	}

	return &domain.Avatar{Filename: filename, MIMEType: mimeType, Data: data}, nil
}
