package session

import (
	"net/http"
	"time"
)

// SetSessionCookie writes the session id cookie. HttpOnly keeps it away from
// scripts, SameSite=Lax restricts cross-site sends, Secure is on outside of
// development. The client never reads this cookie; it learns auth state from
// the /api/auth/me endpoint.
func SetSessionCookie(w http.ResponseWriter, name, sid string, ttl time.Duration, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie immediately
func ClearSessionCookie(w http.ResponseWriter, name string, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionIDFromRequest extracts the session id from the request cookie
func sessionIDFromRequest(r *http.Request, name string) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
