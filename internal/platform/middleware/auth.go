package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// SessionCookieName is the cookie carrying the session capsule.
const SessionCookieName = "authgate_session"

// SessionReader validates a session capsule and returns the bound identity id.
type SessionReader interface {
	Read(ctx context.Context, token string) (string, error)
}

// Context keys for authenticated request state.
type contextKeyIdentityID struct{}
type contextKeySessionToken struct{}

var (
	ContextKeyIdentityID   = contextKeyIdentityID{}
	ContextKeySessionToken = contextKeySessionToken{}
)

// GetIdentityID retrieves the authenticated identity id from the context.
func GetIdentityID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyIdentityID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetSessionToken retrieves the raw session capsule from the context.
func GetSessionToken(ctx context.Context) string {
	token, ok := ctx.Value(ContextKeySessionToken).(string)
	if !ok {
		return ""
	}
	return token
}

// SessionFromRequest extracts the session capsule from the session cookie,
// falling back to a Bearer Authorization header for non-browser clients.
func SessionFromRequest(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value, true
		}
	}
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		if value := strings.TrimSpace(after); value != "" {
			return value, true
		}
	}
	return "", false
}

// RequireSession gates protected routes. It resolves the session capsule,
// validates it through the session manager, and injects the identity id into
// the request context. Failures get a uniform 401 envelope.
func RequireSession(sessions SessionReader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := SessionFromRequest(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing session",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Not logged in")
				return
			}

			identityID, err := sessions.Read(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid session",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired session")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyIdentityID, identityID)
			ctx = context.WithValue(ctx, ContextKeySessionToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + description + `"}`))
}
