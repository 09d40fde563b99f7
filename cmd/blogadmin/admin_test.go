package main

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMigrator struct {
	calls int
	err   error
}

func (m *mockMigrator) Migrate(context.Context) error {
	m.calls++

	return m.err
}

type mockPasswordSetter struct {
	mu        sync.Mutex
	passwords map[string]string
	err       error
}

func (m *mockPasswordSetter) SetPassword(_ context.Context, email, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.passwords[email] = password

	return nil
}

func newTestAdmin(inputs ...string) (*admin, *mockMigrator, *mockPasswordSetter, *bytes.Buffer) {
	var (
		out       bytes.Buffer
		migrator  = &mockMigrator{}
		passwords = &mockPasswordSetter{passwords: map[string]string{}}
	)

	a := newAdmin(migrator, passwords, &out)
	a.readPassword = func() ([]byte, error) {
		if len(inputs) == 0 {
			return nil, errors.New("no input")
		}

		line := inputs[0]
		inputs = inputs[1:]

		return []byte(line), nil
	}

	return a, migrator, passwords, &out
}

func TestAdmin_Migrate(t *testing.T) {
	t.Parallel()

	a, migrator, _, out := newTestAdmin()

	require.NoError(t, a.Run(t.Context(), []string{"migrate"}))
	assert.Equal(t, 1, migrator.calls)
	assert.Contains(t, out.String(), "up to date")

	migrator.err = errors.New("boom")
	assert.Error(t, a.Run(t.Context(), []string{"migrate"}))
}

func TestAdmin_SetPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		inputs  []string
		wantErr error
		want    string
	}{
		{
			name:   "success",
			args:   []string{"set-password", "alice@example.com"},
			inputs: []string{"s3cret", "s3cret"},
			want:   "s3cret",
		},
		{
			name:    "missing email",
			args:    []string{"set-password"},
			wantErr: ErrMissingArgument,
		},
		{
			name:    "empty password",
			args:    []string{"set-password", "alice@example.com"},
			inputs:  []string{""},
			wantErr: ErrEmptyPassword,
		},
		{
			name:    "mismatch",
			args:    []string{"set-password", "alice@example.com"},
			inputs:  []string{"one", "two"},
			wantErr: ErrPasswordMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, _, passwords, _ := newTestAdmin(tt.inputs...)

			err := a.Run(t.Context(), tt.args)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, passwords.passwords)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, passwords.passwords["alice@example.com"])
		})
	}
}

func TestAdmin_UnknownCommand(t *testing.T) {
	t.Parallel()

	a, _, _, _ := newTestAdmin()

	require.ErrorIs(t, a.Run(t.Context(), []string{"frobnicate"}), ErrUnknownCommand)
	require.ErrorIs(t, a.Run(t.Context(), nil), ErrMissingArgument)
}
