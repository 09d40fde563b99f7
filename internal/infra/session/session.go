// Package session keeps per-browser state in a signed cookie: the logged-in
// user, the remember flag, a CSRF token and one-shot flash messages.
package session

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Flash categories used by the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a message shown once on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Session is the decoded state of one browser.
type Session struct {
	UserID    int64
	Remember  bool
	CSRFToken string
	Flashes   []Flash
}

type contextKey struct{}

func newSession() *Session {
	//nolint:exhaustruct
	return &Session{CSRFToken: newCSRFToken()}
}

func newCSRFToken() string {
	return uuid.NewString()
}

// Login binds the session to userID. A remembered session outlives the
// browser session.
func (s *Session) Login(userID int64, remember bool) {
	s.UserID = userID
	s.Remember = remember
	// A fresh token on privilege change.
	s.CSRFToken = newCSRFToken()
}

// Logout forgets the user but keeps pending flashes.
func (s *Session) Logout() {
	s.UserID = 0
	s.Remember = false
	s.CSRFToken = newCSRFToken()
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s.UserID != 0
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns and clears the queued messages.
func (s *Session) PopFlashes() []Flash {
	flashes := slices.Clone(s.Flashes)
	s.Flashes = nil

	return flashes
}

// FromContext returns the session of the current request. Requests that
// did not pass the middleware get an empty, unsaved session.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok {
		return s
	}

	return newSession()
}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}
