package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig holds the per-client request budget.
type RateLimiterConfig struct {
	Rate            rate.Limit    // sustained requests per second
	Burst           int           // requests allowed at once
	CleanupInterval time.Duration // how often idle clients are forgotten
}

// DefaultRateLimiterConfig allows 10 req/s with bursts of 20.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:            rate.Limit(10),
		Burst:           20,
		CleanupInterval: 5 * time.Minute,
	}
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a token bucket per client IP. Wire it after chi's
// RealIP so proxied requests are keyed by the original client.
type RateLimiter struct {
	config RateLimiterConfig
	log    *slog.Logger

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a RateLimiter and starts its background cleanup.
// Call Stop when the server shuts down.
func NewRateLimiter(config RateLimiterConfig, log *slog.Logger) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultRateLimiterConfig().CleanupInterval
	}
	rl := &RateLimiter{
		config:  config,
		log:     log,
		clients: make(map[string]*clientLimiter),
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the background cleanup. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware rejects requests over budget with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !rl.limiter(key).Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rl.config.Rate)))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, retry later")
				rl.log.WarnContext(r.Context(), "rate limit exceeded", "client", key)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientCount returns the number of clients currently tracked.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst)}
		rl.clients[key] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup forgets clients idle for more than two cleanup intervals.
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, cl := range rl.clients {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.clients, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfterSeconds estimates how long until one token is refilled.
func retryAfterSeconds(r rate.Limit) int {
	if r <= 0 || r == rate.Inf {
		return 1
	}
	return max(int(math.Ceil(1.0/float64(r))), 1)
}
