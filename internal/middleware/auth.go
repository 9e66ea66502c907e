package middleware

import (
	"net/http"
	"strings"
)

// TokenVerifier resolves a bearer token to a user id. *auth.Verifier satisfies it.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// NewAuthenticator returns a middleware that identifies the acting user from
// an "Authorization: Bearer <token>" header.
//
//   - No header: the request continues anonymously.
//   - A valid token: the user id is stored with domain.WithActor.
//   - Anything else: 401, the handler does not run.
//
// A nil verifier disables authentication and every request is anonymous.
func NewAuthenticator(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "authorization header must be a bearer token")
				return
			}
			userID, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			next.ServeHTTP(w, recordActor(r, userID))
		})
	}
}
