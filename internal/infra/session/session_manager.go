package session

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"

	context_ "github.com/mkrupp/quill/internal/infra/context"
	"github.com/mkrupp/quill/internal/infra/logging"
)

const (
	sessionAudience = "session"

	// CSRFField is the form field every POST must carry.
	CSRFField = "csrf_token"
)

var (
	// ErrEmptySecret is returned when no signing secret is configured.
	ErrEmptySecret = errors.New("empty session secret")
	// ErrCSRFMismatch is returned when a POST does not echo the session's token.
	ErrCSRFMismatch = errors.New("csrf token mismatch")
)

// SessionConfig contains configuration parameters for session cookies.
type SessionConfig struct {
	CookieName   string `env:"COOKIE_NAME" default:"session"`
	CookieSecure bool   `env:"COOKIE_SECURE" default:"false"`

	// TTL bounds a session that is not remembered
	TTL time.Duration `env:"TTL" default:"24h"`
	// RememberTTL is the lifetime of a "remember me" login
	RememberTTL time.Duration `env:"REMEMBER_TTL" default:"8760h"`

	// CSRF enables token checks on POST requests
	CSRF bool `env:"CSRF" default:"true"`
}

type sessionClaims struct {
	UserID   int64   `json:"user_id,omitempty"`
	Remember bool    `json:"remember,omitempty"`
	CSRF     string  `json:"csrf"`
	Flashes  []Flash `json:"flashes,omitempty"`
	jwt.RegisteredClaims
}

// Manager encodes sessions into HS256-signed cookies and back.
type Manager struct {
	cfg    SessionConfig
	secret []byte
	clock  clock.Clock
	log    logging.Logger
}

// NewManager creates a Manager signing with secret.
func NewManager(secret []byte, clk clock.Clock, cfg SessionConfig) (*Manager, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	return &Manager{
		cfg:    cfg,
		secret: secret,
		clock:  clk,
		log:    logging.GetLogger("infra.session"),
	}, nil
}

// Load decodes the session cookie of r. A missing, tampered or expired
// cookie yields a fresh anonymous session.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return newSession()
	}

	var claims sessionClaims

	_, err = jwt.ParseWithClaims(cookie.Value, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		m.log.DebugContext(r.Context(), "discarding session cookie", "error", err)

		return newSession()
	}

	if claims.CSRF == "" {
		claims.CSRF = newCSRFToken()
	}

	return &Session{
		UserID:    claims.UserID,
		Remember:  claims.Remember,
		CSRFToken: claims.CSRF,
		Flashes:   claims.Flashes,
	}
}

// Save writes s as a cookie. Remembered sessions get a persistent cookie,
// all others a browser-session cookie.
func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	now := m.clock.Now()

	ttl := m.cfg.TTL
	if s.Remember {
		ttl = m.cfg.RememberTTL
	}

	//nolint:exhaustruct
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID:   s.UserID,
		Remember: s.Remember,
		CSRF:     s.CSRFToken,
		Flashes:  s.Flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	//nolint:exhaustruct
	cookie := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}

	if s.Remember {
		cookie.Expires = now.Add(ttl)
		cookie.MaxAge = int(ttl.Seconds())
	}

	http.SetCookie(w, cookie)

	return nil
}

// CSRFEnabled reports whether POST requests must carry the session token.
func (m *Manager) CSRFEnabled() bool {
	return m.cfg.CSRF
}

// CheckCSRF parses the form of r and compares the submitted token with the
// session's. Body errors such as *http.MaxBytesError are returned as is.
func (m *Manager) CheckCSRF(r *http.Request, s *Session, maxMemory int64) error {
	if !m.cfg.CSRF {
		return nil
	}

	if err := parseForm(r, maxMemory); err != nil {
		return err
	}

	submitted := r.PostForm.Get(CSRFField)
	if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(s.CSRFToken)) != 1 {
		return ErrCSRFMismatch
	}

	return nil
}

func parseForm(r *http.Request, maxMemory int64) error {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}

	if err != nil {
		return fmt.Errorf("parse form: %w", err)
	}

	return nil
}

// RejectFunc answers a request the middleware refused to pass on.
type RejectFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware loads the session into the request context, stores the user
// ID for the log handlers and writes the cookie back before the response
// header goes out. POST bodies are parsed with maxMemory; requests whose
// body cannot be read or whose CSRF check fails go to onReject.
func (m *Manager) Middleware(maxMemory int64, onReject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		//nolint:varnamelen
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := m.Load(r)

			ctx := WithSession(r.Context(), s)
			if s.Authenticated() {
				ctx = context_.WithUserID(ctx, s.UserID)
			}

			r = r.WithContext(ctx)

			sw := &sessionResponseWriter{ResponseWriter: w, manager: m, request: r, session: s}

			if r.Method == http.MethodPost {
				if err := m.CheckCSRF(r, s, maxMemory); err != nil {
					m.log.WarnContext(ctx, "rejecting request", "error", err)
					onReject(sw, r, err)
					sw.save()

					return
				}
			}

			next.ServeHTTP(sw, r)
			sw.save()
		})
	}
}

// sessionResponseWriter saves the session right before the header is sent.
type sessionResponseWriter struct {
	http.ResponseWriter

	manager *Manager
	request *http.Request
	session *Session
	saved   bool
}

func (w *sessionResponseWriter) save() {
	if w.saved {
		return
	}

	w.saved = true

	if err := w.manager.Save(w.ResponseWriter, w.session); err != nil {
		w.manager.log.ErrorContext(w.request.Context(), "save session failed", "error", err)
	}
}

func (w *sessionResponseWriter) WriteHeader(code int) {
	w.save()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionResponseWriter) Write(b []byte) (int, error) {
	w.save()

	//nolint:wrapcheck
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *sessionResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
