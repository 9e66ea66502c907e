package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/tripplanner/internal/domain"
)

// NewSlogLogger returns a middleware that logs each request as a structured
// line via the provided slog.Logger. It captures method, path, HTTP status,
// duration, and the request ID set by chi's RequestID middleware. Server
// errors are logged at error level, client errors at warn.
//
// Wire it after chimiddleware.RequestID so the request ID is available.
// The acting user is logged when the authenticator runs further down the chain.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// WrapResponseWriter intercepts WriteHeader so we can read the
			// status code after the downstream handler has run.
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// The authenticator stores the actor on a derived request, which
			// this middleware never sees. Give it a slot to fill instead.
			slot := &actorSlot{}
			next.ServeHTTP(ww, r.WithContext(withActorSlot(r.Context(), slot)))

			level := slog.LevelInfo
			switch status := ww.Status(); {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			}
			if slot.userID != "" {
				attrs = append(attrs, "actor", slot.userID)
			}
			log.Log(r.Context(), level, "request", attrs...)
		})
	}
}

type actorSlot struct{ userID string }

type actorSlotKey struct{}

func withActorSlot(ctx context.Context, s *actorSlot) context.Context {
	return context.WithValue(ctx, actorSlotKey{}, s)
}

// recordActor sets the actor on the request context and reports it to the
// request logger, if one is in the chain.
func recordActor(r *http.Request, userID string) *http.Request {
	if s, ok := r.Context().Value(actorSlotKey{}).(*actorSlot); ok {
		s.userID = userID
	}
	return r.WithContext(domain.WithActor(r.Context(), userID))
}
