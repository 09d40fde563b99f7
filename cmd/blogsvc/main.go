package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/juju/clock"

	"github.com/mkrupp/quill/internal/infra/config"
	"github.com/mkrupp/quill/internal/infra/database"
	"github.com/mkrupp/quill/internal/infra/logging"
	"github.com/mkrupp/quill/internal/infra/metrics"
	"github.com/mkrupp/quill/internal/infra/session"
	"github.com/mkrupp/quill/internal/infra/transport/http"
	"github.com/mkrupp/quill/internal/repo/avatar"
	"github.com/mkrupp/quill/internal/repo/post"
	"github.com/mkrupp/quill/internal/repo/user"
	"github.com/mkrupp/quill/internal/svc/authsvc"
	"github.com/mkrupp/quill/internal/svc/blogsvc"
	"github.com/mkrupp/quill/internal/svc/imagesvc"
	"github.com/mkrupp/quill/internal/svc/mailsvc"
	"github.com/mkrupp/quill/internal/svc/postsvc"
)

const (
	appName = "quill"
	svcName = "blogsvc"

	avatarBackendFS = "fs"
	avatarBackendS3 = "s3"
)

var ErrUnknownAvatarBackend = errors.New("unknown avatar backend")

type AvatarConfig struct {
	// Backend is "fs" or "s3"
	Backend string `env:"BACKEND" default:"fs"`

	FS avatar.FileSystemAvatarRepositoryConfig
	S3 avatar.S3AvatarRepositoryConfig `envPrefix:"S3_"`
}

type MetricsConfig struct {
	Enabled bool `env:"ENABLED" default:"true"`
}

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig        `envPrefix:"LOG_"`
	HTTP    blogsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	DB      database.Config             `envPrefix:"DB_"`
	Auth    authsvc.AuthConfig          `envPrefix:"AUTH_"`
	Session session.SessionConfig       `envPrefix:"SESSION_"`
	Posts   postsvc.PostConfig          `envPrefix:"POSTS_"`
	Image   imagesvc.ImageConfig        `envPrefix:"IMAGE_"`
	Avatar  AvatarConfig                `envPrefix:"AVATAR_"`
	Mail    mailsvc.MailConfig          `envPrefix:"MAIL_"`
	Metrics MetricsConfig               `envPrefix:"METRICS_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.LoadDotenv(".env"); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func avatarRepositoryFactory(cfg AvatarConfig) (avatar.RepositoryFactory, error) {
	switch cfg.Backend {
	case avatarBackendFS:
		return avatar.FileSystemAvatarRepositoryFactory(cfg.FS), nil
	case avatarBackendS3:
		return avatar.S3AvatarRepositoryFactory(cfg.S3), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAvatarBackend, cfg.Backend)
	}
}

//nolint:funlen,cyclop
func run(ctx context.Context, cfg Config) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.blogsvc")

		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
			panic(err)
		}

		log.InfoContext(ctx, "shutdown")
	}()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	avatarFactory, err := avatarRepositoryFactory(cfg.Avatar)
	if err != nil {
		return err
	}

	avatars, err := avatarFactory(ctx)
	if err != nil {
		return fmt.Errorf("new avatar repository: %w", err)
	}

	imageSvc, err := imagesvc.NewThumbnailImageService(cfg.Image)
	if err != nil {
		return fmt.Errorf("new image service: %w", err)
	}

	mailer, err := mailsvc.NewMailService(cfg.Mail)
	if err != nil {
		return fmt.Errorf("new mail service: %w", err)
	}

	authSvc, err := authsvc.NewAuthService(
		user.SQLUserRepositoryFactory(db),
		avatars,
		imageSvc,
		mailer,
		clock.WallClock,
		cfg.Auth,
	)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}

	if err := authSvc.EnsureDefaultAvatar(ctx); err != nil {
		return fmt.Errorf("ensure default avatar: %w", err)
	}

	postSvc := postsvc.NewPostService(post.NewSQLPostRepository(db), clock.WallClock, cfg.Posts)

	sessions, err := session.NewManager([]byte(cfg.Auth.SecretKey), clock.WallClock, cfg.Session)
	if err != nil {
		return fmt.Errorf("new session manager: %w", err)
	}

	collector := metrics.NewCollector()
	opts := []blogsvc.Option{blogsvc.WithEventCounter(collector)}

	if cfg.Metrics.Enabled {
		metricsHandler, err := collector.Handler()
		if err != nil {
			return fmt.Errorf("metrics handler: %w", err)
		}

		opts = append(opts, blogsvc.WithMetricsHandler(metricsHandler))
	}

	httpTransport, err := blogsvc.NewHTTPTransport(authSvc, postSvc, avatars, sessions, cfg.HTTP, opts...)
	if err != nil {
		return fmt.Errorf("new http transport: %w", err)
	}

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig,
		http.WithRequestObserver(collector),
		http.WithPanicHandler(httpTransport.HandleInternalError),
	); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
