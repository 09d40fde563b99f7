package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/gnuflag"

	"github.com/mkrupp/quill/internal/infra/config"
	"github.com/mkrupp/quill/internal/infra/database"
	"github.com/mkrupp/quill/internal/infra/logging"
	"github.com/mkrupp/quill/internal/repo/user"
	"github.com/mkrupp/quill/internal/svc/authsvc"
)

const (
	appName = "quill"
	svcName = "blogsvc"
)

// Config shares the blogsvc namespace so both binaries read the same .env.
type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig `envPrefix:"LOG_"`
	DB   database.Config      `envPrefix:"DB_"`
	Auth authsvc.AuthConfig   `envPrefix:"AUTH_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, "blogadmin"}, "."))
	)

	flags := gnuflag.NewFlagSet("blogadmin", gnuflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}

	envFile := flags.String("env-file", ".env", "dotenv file to load before reading the environment")

	if err := flags.Parse(false, os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if err := config.LoadDotenv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg, flags.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "blogadmin:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, args []string) error {
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// the admin tool never sends mail or touches avatars
	authSvc, err := authsvc.NewAuthService(
		user.SQLUserRepositoryFactory(db),
		nil,
		nil,
		nil,
		clock.WallClock,
		cfg.Auth,
	)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}

	return newAdmin(db, authSvc, os.Stdout).Run(ctx, args)
}
