package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mkrupp/quill/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// ServerAddr is the network address to listen on
	ServerAddr string `env:"SERVER_ADDR" default:":5000"`
	// ReadHeaderTimeout is the timeout for reading request headers
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" default:"5s"`

	ReadTimeout  time.Duration `env:"READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" default:"10s"`

	// ShutdownTimeout bounds the graceful shutdown once the context is done
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPTransport defines the interface for HTTP handlers that can serve requests.
type HTTPTransport interface {
	http.Handler
}

type serveOptions struct {
	observer RequestObserver
	onPanic  http.HandlerFunc
}

// ServeOption customizes the middleware chain built by ListenAndServe.
type ServeOption func(*serveOptions)

// WithRequestObserver reports every finished request to observer.
func WithRequestObserver(observer RequestObserver) ServeOption {
	return func(o *serveOptions) { o.observer = observer }
}

// WithPanicHandler renders the response after a recovered panic.
func WithPanicHandler(onPanic http.HandlerFunc) ServeOption {
	return func(o *serveOptions) { o.onPanic = onPanic }
}

// Wrap applies the standard middleware for panic recovery, logging and
// tracing to handler.
func Wrap(handler HTTPTransport, log logging.Logger, opts ...ServeOption) http.Handler {
	var options serveOptions
	for _, opt := range opts {
		opt(&options)
	}

	var h http.Handler = handler

	h = RescueingMiddleware(h, log, options.onPanic)
	h = LoggingMiddleware(h, log, options.observer)
	h = TracingMiddleware(h)

	return h
}

// ListenAndServe listens on cfg.ServerAddr and serves handler until ctx is done.
func ListenAndServe(ctx context.Context, handler HTTPTransport, cfg HTTPTransportConfig, opts ...ServeOption) error {
	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return Serve(ctx, sock, handler, cfg, opts...)
}

// Serve serves handler on sock with the standard middleware until ctx is
// done, then shuts the server down gracefully.
func Serve(
	ctx context.Context,
	sock net.Listener,
	handler HTTPTransport,
	cfg HTTPTransportConfig,
	opts ...ServeOption,
) (err error) {
	log := logging.GetLogger("infra.transport.http")

	//nolint:exhaustruct
	server := &http.Server{
		Handler:           Wrap(handler, log, opts...),
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serveErr := make(chan error, 1)

	go func() {
		log.InfoContext(ctx, "listening", "addr", sock.Addr().String())
		serveErr <- server.Serve(sock)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()

		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
