// Package database opens the SQL store shared by the repositories and keeps
// its schema current. SQLite (modernc) and PostgreSQL (pgx) are supported;
// queries are written with "?" placeholders and rebound per dialect.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/quill/internal/infra/logging"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	pgUniqueViolation = "23505"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

//go:embed migrations
var migrations embed.FS

// Config holds the connection settings.
type Config struct {
	// Driver is "sqlite" or "pgx"
	Driver string `env:"DRIVER" default:"sqlite"`
	// DSN is a file path for sqlite or a connection URL for pgx
	DSN string `env:"DSN" default:"var/storage/quill.db"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" default:"5m"`
}

// DB wraps *sql.DB with the dialect it talks to.
type DB struct {
	*sql.DB

	driver string
}

// Open connects to the database described by cfg and pings it.
func Open(ctx context.Context, cfg Config) (_ *DB, err error) {
	log := logging.GetLogger("infra.database").With(logging.Group("db", "driver", cfg.Driver))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "open database failed", "error", err)
		} else {
			log.DebugContext(ctx, "database opened")
		}
	}()

	var dsn string

	switch cfg.Driver {
	case DriverSQLite:
		dsn = sqliteDSN(cfg.DSN)
	case DriverPostgres:
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// modernc sqlite does not support concurrent writers
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{DB: db, driver: cfg.Driver}, nil
}

// New wraps an existing connection, e.g. one created by sqlmock.
func New(db *sql.DB, driver string) *DB {
	return &DB{DB: db, driver: driver}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Driver returns the database/sql driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites "?" placeholders into the dialect's bind syntax.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var (
		out strings.Builder
		n   int
	)

	out.Grow(len(query) + 8)

	for _, r := range query {
		if r != '?' {
			out.WriteRune(r)

			continue
		}

		n++
		out.WriteString("$" + strconv.Itoa(n))
	}

	return out.String()
}

// Migrate applies all pending migrations for the dialect.
func (db *DB) Migrate(ctx context.Context) (err error) {
	log := logging.GetLogger("infra.database")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "migrate failed", "error", err)
		}
	}()

	dialect, dir := goose.DialectSQLite3, "migrations/sqlite"
	if db.driver == DriverPostgres {
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	for _, result := range results {
		log.InfoContext(ctx, "migration applied",
			"version", result.Source.Version,
			"duration", result.Duration,
		)
	}

	return nil
}

// IsUniqueViolation reports whether err was caused by a UNIQUE or PRIMARY
// KEY constraint.
func IsUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		default:
			return false
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	return false
}
