package database_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/quill/internal/infra/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "quill.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))

	return db
}

func countUsers(t *testing.T, db *database.DB) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))

	return n
}

func insertUser(ctx context.Context, tx database.DBTX, name string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		name, name+"@example.com", []byte("hash"), 1,
	)

	return err //nolint:wrapcheck
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := database.Open(context.Background(), database.Config{Driver: "oracle"})
	require.ErrorIs(t, err, database.ErrUnsupportedDriver)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	require.NoError(t, db.Migrate(context.Background()))

	var imageFile string

	require.NoError(t, insertUser(context.Background(), db, "alice"))
	require.NoError(t, db.QueryRow("SELECT image_file FROM users WHERE username = ?", "alice").Scan(&imageFile))
	assert.Equal(t, "default.png", imageFile)

	_, err := db.Exec("INSERT INTO posts (title, content, user_id, created_at) VALUES ('t', 'c', 1, 1)")
	require.NoError(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	require.NoError(t, insertUser(context.Background(), db, "alice"))

	err := insertUser(context.Background(), db, "alice")
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.True(t, database.IsUniqueViolation(fmt.Errorf("wrapped: %w", err)))

	assert.True(t, database.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, database.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, database.IsUniqueViolation(errors.New("other")))
}

func TestRebind(t *testing.T) {
	t.Parallel()

	query := "SELECT id FROM posts WHERE user_id = ? LIMIT ? OFFSET ?"

	assert.Equal(t, query, database.New(nil, database.DriverSQLite).Rebind(query))
	assert.Equal(t,
		"SELECT id FROM posts WHERE user_id = $1 LIMIT $2 OFFSET $3",
		database.New(nil, database.DriverPostgres).Rebind(query),
	)
}

func TestWithTx(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)

		err := db.WithTx(context.Background(), func(ctx context.Context, tx database.DBTX) error {
			return insertUser(ctx, tx, "alice")
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countUsers(t, db))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		boom := errors.New("boom")

		err := db.WithTx(context.Background(), func(ctx context.Context, tx database.DBTX) error {
			require.NoError(t, insertUser(ctx, tx, "alice"))

			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 0, countUsers(t, db))
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)

		assert.Panics(t, func() {
			_ = db.WithTx(context.Background(), func(ctx context.Context, tx database.DBTX) error {
				require.NoError(t, insertUser(ctx, tx, "alice"))
				panic("kaput")
			})
		})
		assert.Equal(t, 0, countUsers(t, db))
	})
}
