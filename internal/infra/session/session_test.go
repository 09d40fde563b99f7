package session_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	context_ "github.com/mkrupp/quill/internal/infra/context"
	"github.com/mkrupp/quill/internal/infra/session"
)

func newManager(t *testing.T, csrf bool) (*session.Manager, *testclock.Clock) {
	t.Helper()

	clk := testclock.NewClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	m, err := session.NewManager([]byte("test-secret"), clk, session.SessionConfig{
		CookieName:  "session",
		TTL:         time.Hour,
		RememberTTL: 365 * 24 * time.Hour,
		CSRF:        csrf,
	})
	require.NoError(t, err)

	return m, clk
}

// roundTrip saves s and loads it back through a request carrying the cookie.
func roundTrip(t *testing.T, m *session.Manager, s *session.Session) (*session.Session, *http.Cookie) {
	t.Helper()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, s))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])

	return m.Load(req), cookies[0]
}

func TestNewManager_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := session.NewManager(nil, testclock.NewClock(time.Now()), session.SessionConfig{})
	require.ErrorIs(t, err, session.ErrEmptySecret)
}

func TestManager_RoundTrip(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, true)

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, s.Authenticated())
	assert.NotEmpty(t, s.CSRFToken)

	s.Login(7, false)
	s.AddFlash(session.FlashSuccess, "Welcome")

	loaded, cookie := roundTrip(t, m, s)
	assert.Equal(t, int64(7), loaded.UserID)
	assert.Equal(t, s.CSRFToken, loaded.CSRFToken)
	assert.Zero(t, cookie.MaxAge, "non-remembered login uses a browser-session cookie")
	assert.True(t, cookie.HttpOnly)

	flashes := loaded.PopFlashes()
	assert.Equal(t, []session.Flash{{Category: session.FlashSuccess, Message: "Welcome"}}, flashes)
	assert.Empty(t, loaded.PopFlashes())
}

func TestManager_RememberCookie(t *testing.T) {
	t.Parallel()

	m, clk := newManager(t, true)

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.Login(7, true)

	loaded, cookie := roundTrip(t, m, s)
	assert.True(t, loaded.Remember)
	assert.Equal(t, 365*24*60*60, cookie.MaxAge)

	clk.Advance(48 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	assert.Equal(t, int64(7), m.Load(req).UserID, "remembered login survives the short TTL")
}

func TestManager_LoadRejectsBadCookies(t *testing.T) {
	t.Parallel()

	m, clk := newManager(t, true)

	other, err := session.NewManager([]byte("other-secret"), clk, session.SessionConfig{CookieName: "session", TTL: time.Hour})
	require.NoError(t, err)

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.Login(7, false)

	_, valid := roundTrip(t, m, s)
	_, forged := roundTrip(t, other, s)

	tests := []struct {
		name  string
		value string
		after time.Duration
	}{
		{name: "garbage", value: "garbage"},
		{name: "wrong key", value: forged.Value},
		{name: "tampered", value: valid.Value[:len(valid.Value)-2] + "xx"},
		{name: "expired", value: valid.Value, after: 2 * time.Hour},
	}

	for _, tt := range tests {
		clk.Advance(tt.after)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: tt.value})

		assert.False(t, m.Load(req).Authenticated(), tt.name)
	}
}

func TestSession_Logout(t *testing.T) {
	t.Parallel()

	s := session.FromContext(t.Context())
	s.Login(3, true)
	token := s.CSRFToken
	s.AddFlash(session.FlashInfo, "bye")

	s.Logout()

	assert.False(t, s.Authenticated())
	assert.False(t, s.Remember)
	assert.NotEqual(t, token, s.CSRFToken)
	assert.Len(t, s.Flashes, 1)
}

func rejectWithStatus(w http.ResponseWriter, _ *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		http.Error(w, "too large", http.StatusRequestEntityTooLarge)

		return
	}

	http.Error(w, err.Error(), http.StatusBadRequest)
}

func TestManager_Middleware(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, true)

	var seenUser int64

	handler := m.Middleware(1<<20, rejectWithStatus)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = context_.UserIDFromContext(r.Context())

		s := session.FromContext(r.Context())
		if r.Method == http.MethodPost {
			s.Login(42, false)
		}

		http.Redirect(w, r, "/", http.StatusFound)
	}))

	// A first visit gets a cookie with a CSRF token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Len(t, rec.Result().Cookies(), 1)

	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookie)
	token := m.Load(req).CSRFToken

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec
	}

	assert.Equal(t, http.StatusBadRequest, post(url.Values{}).Code)
	assert.Equal(t, http.StatusBadRequest, post(url.Values{session.CSRFField: {"wrong"}}).Code)

	rec = post(url.Values{session.CSRFField: {token}})
	require.Equal(t, http.StatusFound, rec.Code)

	// The login is visible on the next request.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, int64(42), seenUser)
}

func TestManager_MiddlewareBodyTooLarge(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, true)

	var reached bool

	handler := m.Middleware(1<<10, rejectWithStatus)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true

		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, rec.Result().Cookies(), 1)

	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	token := m.Load(req).CSRFToken

	send := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		req.Body = http.MaxBytesReader(rec, req.Body, 64)

		handler.ServeHTTP(rec, req)

		return rec
	}

	form := url.Values{session.CSRFField: {token}}

	rec = send(form.Encode() + "&content=" + strings.Repeat("x", 128))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, reached)
	assert.Len(t, rec.Result().Cookies(), 1, "the session is saved on rejection")

	rec = send(form.Encode())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, reached)
}

func TestManager_MiddlewareWithoutCSRF(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, false)
	assert.False(t, m.CSRFEnabled())

	handler := m.Middleware(1<<20, rejectWithStatus)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, rec.Result().Cookies(), 1)
}
