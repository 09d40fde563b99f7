package form_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/quill/internal/infra/form"
)

type signup struct {
	Username        string `form:"username" validate:"required,min=2,max=20"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password,notrim" validate:"notblank,maxbytes=72"`
	ConfirmPassword string `form:"confirm_password,notrim" validate:"notblank,eqfield=Password"`
}

func TestDecode_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		values     url.Values
		wantErrors map[string]string
	}{
		{
			name: "valid",
			values: url.Values{
				"username": {"alice"}, "email": {"alice@x.com"},
				"password": {"pw"}, "confirm_password": {"pw"},
			},
		},
		{
			name:   "all missing",
			values: url.Values{},
			wantErrors: map[string]string{
				"username":         "This field is required.",
				"email":            "This field is required.",
				"password":         "This field is required.",
				"confirm_password": "This field is required.",
			},
		},
		{
			name: "too short and bad email",
			values: url.Values{
				"username": {"a"}, "email": {"not-an-email"},
				"password": {"pw"}, "confirm_password": {"pw"},
			},
			wantErrors: map[string]string{
				"username": "Field must be between 2 and 20 characters long.",
				"email":    "Invalid email address.",
			},
		},
		{
			name: "mismatched confirmation",
			values: url.Values{
				"username": {"alice"}, "email": {"alice@x.com"},
				"password": {"pw"}, "confirm_password": {"other"},
			},
			wantErrors: map[string]string{
				"confirm_password": "Field must be equal to password.",
			},
		},
		{
			name: "whitespace only",
			values: url.Values{
				"username": {"   "}, "email": {"alice@x.com"},
				"password": {"  "}, "confirm_password": {"  "},
			},
			wantErrors: map[string]string{
				"username":         "This field is required.",
				"password":         "This field is required.",
				"confirm_password": "This field is required.",
			},
		},
		{
			name: "password over 72 bytes",
			values: url.Values{
				"username": {"alice"}, "email": {"alice@x.com"},
				"password":         {strings.Repeat("a", 73)},
				"confirm_password": {strings.Repeat("a", 73)},
			},
			wantErrors: map[string]string{
				"password": "Field cannot be longer than 72 bytes.",
			},
		},
		{
			name: "multibyte password counted in bytes",
			values: url.Values{
				"username": {"alice"}, "email": {"alice@x.com"},
				"password":         {strings.Repeat("é", 37)},
				"confirm_password": {strings.Repeat("é", 37)},
			},
			wantErrors: map[string]string{
				"password": "Field cannot be longer than 72 bytes.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var input signup

			result, err := form.Decode(tt.values, &input)
			require.NoError(t, err)

			assert.Equal(t, len(tt.wantErrors) == 0, result.Valid())
			assert.Len(t, result.Errors, len(tt.wantErrors))

			for field, msg := range tt.wantErrors {
				assert.Equal(t, []string{msg}, result.FieldErrors(field), field)
			}
		})
	}
}

func TestDecode_Trimming(t *testing.T) {
	t.Parallel()

	var input signup

	result, err := form.Decode(url.Values{
		"username": {"  alice "}, "email": {" alice@x.com"},
		"password": {" pw "}, "confirm_password": {" pw "},
	}, &input)
	require.NoError(t, err)
	require.True(t, result.Valid())

	assert.Equal(t, "alice", input.Username)
	assert.Equal(t, "alice@x.com", input.Email)
	assert.Equal(t, " pw ", input.Password)
	assert.Equal(t, "alice", result.String("username"))
}

func TestDecode_Checkbox(t *testing.T) {
	t.Parallel()

	type remember struct {
		Remember bool `form:"remember"`
	}

	var checked remember

	_, err := form.Decode(url.Values{"remember": {"true"}}, &checked)
	require.NoError(t, err)
	assert.True(t, checked.Remember)

	var unchecked remember

	result, err := form.Decode(url.Values{}, &unchecked)
	require.NoError(t, err)
	assert.False(t, unchecked.Remember)
	assert.False(t, result.Bool("remember"))

	var invalid remember

	result, err = form.Decode(url.Values{"remember": {"maybe"}}, &invalid)
	require.NoError(t, err)
	require.False(t, result.Valid())
	assert.Equal(t, []string{"Not a valid value."}, result.FieldErrors("remember"))
}

func TestDecode_LengthMessages(t *testing.T) {
	t.Parallel()

	type post struct {
		Title string `form:"title" validate:"max=5"`
		Slug  string `form:"slug" validate:"min=3"`
	}

	var input post

	result, err := form.Decode(url.Values{"title": {"toolong"}, "slug": {"ab"}}, &input)
	require.NoError(t, err)
	assert.Equal(t, []string{"Field cannot be longer than 5 characters."}, result.FieldErrors("title"))
	assert.Equal(t, []string{"Field must be at least 3 characters long."}, result.FieldErrors("slug"))

	result, err = form.Decode(url.Values{"title": {"héllo"}, "slug": {"abc"}}, &input)
	require.NoError(t, err)
	assert.True(t, result.Valid())
}

func TestDecode_BadDestination(t *testing.T) {
	t.Parallel()

	var input signup

	_, err := form.Decode(url.Values{}, input)
	require.ErrorIs(t, err, form.ErrNotStructPointer)

	type unsupported struct {
		Tags []string `form:"tags"`
	}

	_, err = form.Decode(url.Values{}, &unsupported{})
	require.ErrorIs(t, err, form.ErrUnsupportedKind)
}

func TestResult_AddErrorAndFill(t *testing.T) {
	t.Parallel()

	r := form.Fill(map[string]any{"title": "Hello"})
	assert.True(t, r.Valid())
	assert.Equal(t, "Hello", r.String("title"))
	assert.Empty(t, r.String("missing"))

	r.AddError("title", "taken")
	assert.False(t, r.Valid())
}

func TestInt(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"":    1,
		"3":   3,
		"0":   1,
		"-2":  1,
		"abc": 1,
		"12":  12,
	}

	for raw, want := range tests {
		assert.Equal(t, want, form.Int(url.Values{"page": {raw}}, "page", 1, 1), raw)
	}
}
