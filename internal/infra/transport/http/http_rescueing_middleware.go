package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/quill/internal/infra/logging"
)

// RescueingMiddleware recovers from panics in HTTP handlers.
// It logs the panic and stack trace, then hands the response to onPanic,
// or writes a plain 500 Internal Server Error when onPanic is nil.
func RescueingMiddleware(next http.Handler, log logging.Logger, onPanic http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler { //nolint:errorlint,err113
					panic(p)
				}

				log.ErrorContext(ctx, "request panic", slog.Group("http",
					"uri", r.RequestURI,
					"method", r.Method,
				), slog.Group("error",
					"panic", p,
					"stack", string(debug.Stack()),
				))

				if onPanic != nil {
					onPanic(w, r)

					return
				}

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}(r.Context())
		next.ServeHTTP(w, r)
	})
}
