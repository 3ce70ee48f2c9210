package middleware

import (
	"net/http"
	"time"
)

// TokenCookieName is the cookie carrying the bearer token. Client-readable
// (not HttpOnly) so hybrid clients can mirror it into an Authorization header.
const TokenCookieName = "Authorization"

// SetTokenCookie hands the signed token to the client with a max-age matching
// the standard session lifetime.
func SetTokenCookie(w http.ResponseWriter, tokenStr string, lifetime time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(lifetime.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie removes the token cookie. Best-effort cleanup on any auth
// failure so the client does not retry a dead credential.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}
