package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/juju/gnuflag"
	"golang.org/x/term"

	"github.com/mkrupp/quill/internal/infra/database"
	"github.com/mkrupp/quill/internal/infra/logging"
)

const usage = `usage: blogadmin [--env-file FILE] <command> [args]

commands:
  migrate                apply pending database migrations
  set-password <email>   replace the password of an account

`

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMissingArgument  = errors.New("missing argument")
	ErrEmptyPassword    = errors.New("password must not be empty")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// PasswordSetter is the part of the auth service the admin tool needs.
type PasswordSetter interface {
	SetPassword(ctx context.Context, email, password string) error
}

// Migrator applies the schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

type admin struct {
	migrator  Migrator
	passwords PasswordSetter
	out       io.Writer
	log       logging.Logger

	// readPassword reads one line from the terminal without echo.
	readPassword func() ([]byte, error)
}

var _ Migrator = (*database.DB)(nil)

func newAdmin(migrator Migrator, passwords PasswordSetter, out io.Writer) *admin {
	return &admin{
		migrator:  migrator,
		passwords: passwords,
		out:       out,
		log:       logging.GetLogger("cmd.blogadmin"),
		readPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec
		},
	}
}

// Run dispatches args[0] to the matching command.
func (a *admin) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: command", ErrMissingArgument)
	}

	switch args[0] {
	case "migrate":
		return a.migrate(ctx)
	case "set-password":
		return a.setPassword(ctx, args[1:])
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}
}

func (a *admin) migrate(ctx context.Context) error {
	if err := a.migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Fprintln(a.out, "database is up to date")

	return nil
}

func (a *admin) setPassword(ctx context.Context, args []string) error {
	flags := gnuflag.NewFlagSet("set-password", gnuflag.ContinueOnError)
	flags.SetOutput(a.out)

	if err := flags.Parse(true, args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if flags.NArg() != 1 {
		return fmt.Errorf("%w: email", ErrMissingArgument)
	}

	email := flags.Arg(0)

	password, err := a.prompt("New password: ")
	if err != nil {
		return err
	}

	if password == "" {
		return ErrEmptyPassword
	}

	confirm, err := a.prompt("Repeat password: ")
	if err != nil {
		return err
	}

	if password != confirm {
		return ErrPasswordMismatch
	}

	if err := a.passwords.SetPassword(ctx, email, password); err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	a.log.InfoContext(ctx, "password changed", "email", email)
	fmt.Fprintf(a.out, "password for %s updated\n", email)

	return nil
}

func (a *admin) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)

	line, err := a.readPassword()

	fmt.Fprintln(a.out)

	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	return string(line), nil
}
