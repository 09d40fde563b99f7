package blogsvc

import (
	"errors"
	"net/http"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/logging"
)

var (
	errBadRequest      = errors.New("bad request")
	errNotFound        = errors.New("not found")
	errUnknownTemplate = errors.New("unknown template")
)

type errorPage struct {
	heading string
	message string
}

//nolint:gochecknoglobals
var errorPages = map[int]errorPage{
	http.StatusBadRequest: {
		"Bad Request (400)",
		"The browser sent a request this server could not understand.",
	},
	http.StatusForbidden: {
		"You don't have permission to do that (403)",
		"Please check your account and try again.",
	},
	http.StatusNotFound: {
		"Oops. Page Not Found (404)",
		"That page does not exist. Please try a different location.",
	},
	http.StatusMethodNotAllowed: {
		"Method Not Allowed (405)",
		"The method is not allowed for the requested URL.",
	},
	http.StatusRequestEntityTooLarge: {
		"Request Too Large (413)",
		"The data you submitted exceeds the size limit.",
	},
	http.StatusTooManyRequests: {
		"Too Many Requests (429)",
		"You are sending requests too quickly. Please wait a moment and try again.",
	},
	http.StatusInternalServerError: {
		"Something went wrong (500)",
		"We're experiencing some trouble on our end. Please try again in the near future.",
	},
}

// statusFor maps handler errors onto HTTP status codes.
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errNotFound),
		errors.Is(err, domain.ErrPostNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAvatarNotFound),
		errors.Is(err, domain.ErrInvalidAvatarName):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// serve runs fn and turns a returned error into an error page.
func (ht *HTTPTransport) serve(w http.ResponseWriter, r *http.Request, op string, fn handlerFunc) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	err := fn(w, r)

	switch status := statusFor(err); {
	case err == nil:
		log.DebugContext(r.Context(), op+" done")
	case status >= http.StatusInternalServerError:
		log.ErrorContext(r.Context(), op+" failed", "error", err)
		ht.renderError(w, r, status)
	default:
		log.WarnContext(r.Context(), op+" rejected", "error", err, "status", status)
		ht.renderError(w, r, status)
	}
}

func (ht *HTTPTransport) renderError(w http.ResponseWriter, r *http.Request, status int) {
	page, ok := errorPages[status]
	if !ok {
		page = errorPages[http.StatusInternalServerError]
	}

	//nolint:exhaustruct
	data := &pageData{
		Title:   http.StatusText(status),
		Status:  status,
		Heading: page.heading,
		Message: page.message,
	}

	if err := ht.render(w, r, status, "error", data); err != nil {
		ht.log.ErrorContext(r.Context(), "render error page failed", "error", err)
		http.Error(w, http.StatusText(status), status)
	}
}

// HandleNotFound renders the 404 page.
func (ht *HTTPTransport) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	ht.renderError(w, r, http.StatusNotFound)
}

// HandleMethodNotAllowed renders the 405 page.
func (ht *HTTPTransport) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	ht.renderError(w, r, http.StatusMethodNotAllowed)
}

// HandleRejectedForm renders the error page for POSTs the session
// middleware refused: 413 for bodies over MaxBodySize, 400 for unreadable
// bodies and missing or stale CSRF tokens.
func (ht *HTTPTransport) HandleRejectedForm(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		ht.renderError(w, r, http.StatusRequestEntityTooLarge)

		return
	}

	ht.renderError(w, r, http.StatusBadRequest)
}

// HandleTooManyRequests renders the 429 page for rate limited clients.
func (ht *HTTPTransport) HandleTooManyRequests(w http.ResponseWriter, r *http.Request) {
	ht.renderError(w, r, http.StatusTooManyRequests)
}

// HandleInternalError renders the 500 page. It is passed to the rescueing
// middleware for recovered panics.
func (ht *HTTPTransport) HandleInternalError(w http.ResponseWriter, r *http.Request) {
	ht.renderError(w, r, http.StatusInternalServerError)
}
