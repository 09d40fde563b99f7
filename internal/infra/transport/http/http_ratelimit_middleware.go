package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures the per-client limiter for form submissions.
type RateLimiterConfig struct {
	// Rate is the sustained number of requests per second per client
	Rate float64 `env:"RATE" default:"1"`
	// Burst is the number of requests a client may send at once
	Burst int `env:"BURST" default:"10"`
	// IdleTTL is how long an idle client's limiter is kept around
	IdleTTL time.Duration `env:"IDLE_TTL" default:"10m"`
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	cfg RateLimiterConfig
	now func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

// Allow reports whether the client identified by key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	client, ok := l.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.cfg.Rate), l.cfg.Burst)}
		l.clients[key] = client
	}

	client.lastSeen = now

	return client.limiter.AllowN(now, 1)
}

func (l *RateLimiter) sweep(now time.Time) {
	if l.cfg.IdleTTL <= 0 || now.Sub(l.lastSweep) < l.cfg.IdleTTL {
		return
	}

	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > l.cfg.IdleTTL {
			delete(l.clients, key)
		}
	}

	l.lastSweep = now
}

// RateLimitingMiddleware hands POST requests from clients that exhausted
// their bucket to onLimited, or answers them with a plain 429 Too Many
// Requests when onLimited is nil. Other methods pass through.
func RateLimitingMiddleware(limiter *RateLimiter, onLimited http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && !limiter.Allow(clientIP(r)) {
				if onLimited != nil {
					onLimited(w, r)

					return
				}

				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
