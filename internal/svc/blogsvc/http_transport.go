// Package blogsvc serves the blog's HTML pages: registration and login,
// account management, posts, author listings and the password reset flow.
package blogsvc

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/quill/internal/infra/logging"
	"github.com/mkrupp/quill/internal/infra/session"
	http_ "github.com/mkrupp/quill/internal/infra/transport/http"
	"github.com/mkrupp/quill/internal/repo/avatar"
	"github.com/mkrupp/quill/internal/svc/authsvc"
	"github.com/mkrupp/quill/internal/svc/postsvc"
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// BaseURL is the externally visible origin used in mailed links
	BaseURL string `env:"BASE_URL" default:"http://localhost:5000"`

	// MaxBodySize bounds request bodies, uploads included. Default is 6MB.
	MaxBodySize int64 `env:"MAX_BODY_SIZE" default:"6291456"`

	// MultipartFormMaxMemory is the part of a multipart form kept in memory.
	MultipartFormMaxMemory int64 `env:"MULTIPART_FORM_MAX_MEMORY" default:"1048576"`

	// RateLimit throttles POSTs to the login, register and reset forms
	RateLimit http_.RateLimiterConfig `envPrefix:"RATE_LIMIT_"`
}

// EventCounter counts domain events such as logins and new posts.
type EventCounter interface {
	CountEvent(event string)
}

type nopEventCounter struct{}

func (nopEventCounter) CountEvent(string) {}

// HTTPTransport renders the blog. It is the application context: every
// collaborator a handler needs hangs off it.
type HTTPTransport struct {
	auth     *authsvc.AuthService
	posts    *postsvc.PostService
	avatars  avatar.Repository
	sessions *session.Manager
	events   EventCounter
	metrics  http.Handler
	limiter  *http_.RateLimiter
	pages    map[string]*template.Template
	router   chi.Router
	log      logging.Logger
	cfg      HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// Option customizes an HTTPTransport.
type Option func(*HTTPTransport)

// WithEventCounter reports domain events to counter.
func WithEventCounter(counter EventCounter) Option {
	return func(ht *HTTPTransport) { ht.events = counter }
}

// WithMetricsHandler serves handler under /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(ht *HTTPTransport) { ht.metrics = handler }
}

// NewHTTPTransport creates a new HTTPTransport and parses its templates.
func NewHTTPTransport(
	auth *authsvc.AuthService,
	posts *postsvc.PostService,
	avatars avatar.Repository,
	sessions *session.Manager,
	cfg HTTPTransportConfig,
	opts ...Option,
) (*HTTPTransport, error) {
	//nolint:exhaustruct
	ht := &HTTPTransport{
		auth:     auth,
		posts:    posts,
		avatars:  avatars,
		sessions: sessions,
		events:   nopEventCounter{},
		limiter:  http_.NewRateLimiter(cfg.RateLimit),
		log:      logging.GetLogger("svc.blogsvc.http_transport"),
		cfg:      cfg,
	}

	for _, opt := range opts {
		opt(ht)
	}

	pages, err := ht.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	ht.pages = pages

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	ht.router = ht.routes(static)

	return ht, nil
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// routes wires the handlers:
//   - GET / and /home, /about, /posts/{id}, /user/{username}
//   - GET/POST /register, /login, /reset_password, /reset_password/{token} (anonymous only)
//   - GET /logout
//   - GET/POST /account, /posts/new, /posts/{id}/update and POST /posts/{id}/delete (login required)
//   - GET /static/*, /static/profile_pics/{name} and /metrics
func (ht *HTTPTransport) routes(static fs.FS) chi.Router {
	r := chi.NewRouter()
	r.NotFound(ht.HandleNotFound)
	r.MethodNotAllowed(ht.HandleMethodNotAllowed)

	r.Get(strings.TrimSuffix(avatar.StaticPrefix, "/")+"/{name}", ht.HandleAvatar)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	if ht.metrics != nil {
		r.Handle("/metrics", ht.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(ht.limitBody)
		r.Use(ht.sessions.Middleware(ht.cfg.MultipartFormMaxMemory, ht.HandleRejectedForm))
		r.Use(ht.loadUser)

		r.Get("/", ht.HandleHome)
		r.Get("/home", ht.HandleHome)
		r.Get("/about", ht.HandleAbout)
		r.Get("/posts/{id}", ht.HandleShowPost)
		r.Get("/user/{username}", ht.HandleUserPosts)
		r.Get("/logout", ht.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(ht.anonymousOnly)
			r.Use(http_.RateLimitingMiddleware(ht.limiter, ht.HandleTooManyRequests))

			r.Get("/register", ht.HandleRegister)
			r.Post("/register", ht.HandleRegister)
			r.Get("/login", ht.HandleLogin)
			r.Post("/login", ht.HandleLogin)
			r.Get("/reset_password", ht.HandleResetRequest)
			r.Post("/reset_password", ht.HandleResetRequest)
			r.Get("/reset_password/{token}", ht.HandleResetPassword)
			r.Post("/reset_password/{token}", ht.HandleResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(ht.loginRequired)

			r.Get("/account", ht.HandleAccount)
			r.Post("/account", ht.HandleAccount)
			r.Get("/posts/new", ht.HandleNewPost)
			r.Post("/posts/new", ht.HandleNewPost)
			r.Get("/posts/{id}/update", ht.HandleUpdatePost)
			r.Post("/posts/{id}/update", ht.HandleUpdatePost)
			r.Post("/posts/{id}/delete", ht.HandleDeletePost)
		})
	})

	return r
}
