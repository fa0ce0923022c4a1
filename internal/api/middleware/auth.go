package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the borrower session attached by
// SessionMiddleware, or nil when the request carried none.
func SessionFromContext(ctx context.Context) *session.BorrowerSession {
	sess, _ := ctx.Value(sessionContextKey{}).(*session.BorrowerSession)
	return sess
}

// SessionMiddleware validates the borrower session token and attaches it to
// the request context. The session's upstream access token is also attached
// so servicing-system calls made downstream authenticate as this borrower.
func SessionMiddleware(manager *session.Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logger.Warn("SessionMiddleware: Missing or malformed Authorization header")
				http.Error(w, `{"error":{"message":"Unauthorized"}}`, http.StatusUnauthorized)
				return
			}

			sess, err := manager.Parse(token)
			if err != nil {
				logger.Warn("SessionMiddleware: Invalid session token", "error", err)
				http.Error(w, `{"error":{"message":"Unauthorized"}}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			if sess.AccessToken != "" {
				ctx = vesta.WithBearerToken(ctx, sess.AccessToken)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}
