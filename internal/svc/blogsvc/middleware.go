package blogsvc

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/session"
)

const msgLoginRequired = "Please log in to access this page."

type currentUserKey struct{}

// currentUser returns the logged-in user of the request, or nil.
func currentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(currentUserKey{}).(*domain.User)

	return u
}

// limitBody caps the request body at MaxBodySize.
func (ht *HTTPTransport) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ht.cfg.MaxBodySize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, ht.cfg.MaxBodySize)
		}

		next.ServeHTTP(w, r)
	})
}

// loadUser resolves the session's user ID. A session pointing at a
// deleted account is logged out.
func (ht *HTTPTransport) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.Authenticated() {
			next.ServeHTTP(w, r)

			return
		}

		u, err := ht.auth.GetUser(r.Context(), sess.UserID)

		switch {
		case err == nil:
			r = r.WithContext(context.WithValue(r.Context(), currentUserKey{}, u))
		case errors.Is(err, domain.ErrUserNotFound):
			sess.Logout()
		default:
			ht.log.ErrorContext(r.Context(), "load session user failed", "error", err)
			ht.HandleInternalError(w, r)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// loginRequired sends anonymous visitors to the login page, remembering
// where they wanted to go.
func (ht *HTTPTransport) loginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r.Context()) == nil {
			session.FromContext(r.Context()).AddFlash(session.FlashInfo, msgLoginRequired)
			redirect(w, r, routeURL("login")+"?next="+url.QueryEscape(r.URL.Path))

			return
		}

		next.ServeHTTP(w, r)
	})
}

// anonymousOnly sends logged-in users home.
func (ht *HTTPTransport) anonymousOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r.Context()) != nil {
			redirect(w, r, routeURL("home"))

			return
		}

		next.ServeHTTP(w, r)
	})
}
