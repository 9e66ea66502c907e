package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pkordes/tripplanner/internal/middleware"
)

func newTestLimiter(t *testing.T, burst int) *middleware.RateLimiter {
	t.Helper()
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:            rate.Limit(0.5),
		Burst:           burst,
		CleanupInterval: time.Hour,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(rl.Stop)
	return rl
}

func doFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := newTestLimiter(t, 2)
	h := rl.Middleware()(okHandler)

	require.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1111").Code)
	require.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:2222").Code)

	rec := doFrom(h, "10.0.0.1:3333")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"rate_limited"`)
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := newTestLimiter(t, 1)
	h := rl.Middleware()(okHandler)

	require.Equal(t, http.StatusOK, doFrom(h, "10.0.0.1:1111").Code)
	require.Equal(t, http.StatusTooManyRequests, doFrom(h, "10.0.0.1:1111").Code)

	assert.Equal(t, http.StatusOK, doFrom(h, "10.0.0.2:1111").Code)
	assert.Equal(t, 2, rl.ClientCount())
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newTestLimiter(t, 1)

	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}
