package http_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	context_ "github.com/mkrupp/quill/internal/infra/context"
	"github.com/mkrupp/quill/internal/infra/logging"
	http_ "github.com/mkrupp/quill/internal/infra/transport/http"
)

type observation struct {
	method string
	route  string
	status int
}

type mockObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (m *mockObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen = append(m.seen, observation{method: method, route: route, status: status})
}

func newRouter() chi.Router {
	router := chi.NewRouter()
	router.Get("/post/{id}", func(w http.ResponseWriter, r *http.Request) {
		traceID, _ := context_.TraceIDFromContext(r.Context())
		_, _ = io.WriteString(w, chi.URLParam(r, "id")+" "+traceID)
	})
	router.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	return router
}

func TestWrap_TracingAndObserver(t *testing.T) {
	t.Parallel()

	observer := &mockObserver{}
	handler := http_.Wrap(newRouter(), logging.NewNopLogger(), http_.WithRequestObserver(observer))

	req := httptest.NewRequest(http.MethodGet, "/post/12", nil)
	req.Header.Set(http_.TraceIDHeader, "trace-abc")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12 trace-abc", rec.Body.String())
	assert.Equal(t, "trace-abc", rec.Header().Get(http_.TraceIDHeader))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(http_.TraceIDHeader))

	assert.Equal(t, []observation{
		{method: http.MethodGet, route: "/post/{id}", status: http.StatusOK},
		{method: http.MethodGet, route: "", status: http.StatusNotFound},
	}, observer.seen)
}

func TestWrap_RecoversPanics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []http_.ServeOption
		wantBody string
	}{
		{name: "default response", opts: nil, wantBody: "Internal Server Error\n"},
		{
			name: "custom panic handler",
			opts: []http_.ServeOption{http_.WithPanicHandler(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, "custom error page")
			})},
			wantBody: "custom error page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := http_.Wrap(newRouter(), logging.NewNopLogger(), tt.opts...)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	sock, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- http_.Serve(ctx, sock, newRouter(), http_.HTTPTransportConfig{
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   time.Second,
		})
	}()

	resp, err := http.Get("http://" + sock.Addr().String() + "/post/3") //nolint:noctx
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Contains(t, string(body), "3 ")

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
