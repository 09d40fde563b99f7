// Package context holds the request-scoped values shared between the HTTP
// middleware, the session layer and the log handlers.
package context

type contextKey string
