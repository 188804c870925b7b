package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/pavelhrube/go-account-api/internal/httputil"
	"github.com/pavelhrube/go-account-api/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	payloadContextKey   ContextKey = "session_payload"
	sessionIDContextKey ContextKey = "session_id"
)

// Middleware resolves the session identity on every request
type Middleware struct {
	store      *Store
	cookieName string
}

func NewMiddleware(store *Store, cookieName string) *Middleware {
	return &Middleware{store: store, cookieName: cookieName}
}

// Resolve runs before route dispatch. A request without a cookie, with an
// unknown session id, or with an expired session simply proceeds with no
// authenticated identity. An invalid session is never an error here.
func (m *Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionIDFromRequest(r, m.cookieName)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		payload, err := m.store.Get(r.Context(), sid)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				// Store failure: log and continue unauthenticated rather
				// than failing the whole request
				logger := logging.GetLoggerFromContext(r.Context())
				logger.Error("failed to load session", "error", err.Error())
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), payloadContextKey, payload)
		ctx = context.WithValue(ctx, sessionIDContextKey, sid)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth gates protected routes: without an authenticated identity in
// the request context, the downstream handler is never invoked.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeAuthRequired, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FromContext extracts the authenticated session payload, if any
func FromContext(ctx context.Context) (*Payload, bool) {
	payload, ok := ctx.Value(payloadContextKey).(*Payload)
	return payload, ok
}

// IDFromContext extracts the current session id, if any
func IDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionIDContextKey).(string)
	return sid, ok
}
