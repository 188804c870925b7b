package http

import (
	"net/http"
	"strings"
)

// SecurityHeaders sets the response headers every route shares. The API is
// JSON-only and cookie-authenticated, so responses must never be cached or
// framed, and nothing under /api ever executes in a browser.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if strings.HasPrefix(r.URL.Path, "/swagger/") {
			// The swagger UI is the one HTML surface; it inlines its own
			// scripts and styles
			h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		} else {
			h.Set("Content-Security-Policy", "default-src 'none'")
			// Account responses carry session-scoped data
			h.Set("Cache-Control", "no-store")
		}

		next.ServeHTTP(w, r)
	})
}
