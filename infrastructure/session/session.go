// Package session issues the session cookie. Sessions themselves live only in
// process memory (see cache.UserSessionCache) and end with the process.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

const CookieName = "X-Session-Token"

// DefaultTTL is how long a session stays valid after login.
const DefaultTTL = 12 * time.Hour

// Cookie returns the session cookie carrying token for ttl.
func Cookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// ClearCookie expires the session cookie in the browser.
func ClearCookie(secure bool) *http.Cookie {
	c := Cookie("", 0, secure)
	c.MaxAge = -1
	return c
}

// NewToken returns a random 48 hex character session token.
func NewToken() string {
	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Expiry returns the expiry time of a session started now.
func Expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return now.Add(ttl)
}

// TokenFromRequest reads the session token from the cookie.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
