// Package auth implements signed cookie sessions carrying a user id.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/invoice-desk/httpx"
)

type ctxKey string

const (
	sessionCookieName = "session"
	userIDCtxKey      = ctxKey("userID")
	sessionLifetime   = 14 * 24 * time.Hour
)

// UserVerifier is an optional callback to validate that a session's user still exists.
// Set it during app bootstrap via SetUserVerifier. If nil, no extra verification is performed.
type UserVerifier func(ctx context.Context, uid uint) bool

var (
	mu       sync.RWMutex
	verifier UserVerifier
	secret   = []byte("devsessionsecret")
)

// SetUserVerifier configures the verifier used by RequireAuth.
func SetUserVerifier(v UserVerifier) {
	mu.Lock()
	verifier = v
	mu.Unlock()
}

// SetSecret sets the HMAC key used to sign session cookies. Empty values are ignored.
func SetSecret(s string) {
	if s == "" {
		return
	}
	mu.Lock()
	secret = []byte(s)
	mu.Unlock()
}

func sign(value string) string {
	mu.RLock()
	mac := hmac.New(sha256.New, secret)
	mu.RUnlock()
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie with the user id.
func CreateSession(w http.ResponseWriter, userID uint) {
	uidStr := strconv.FormatUint(uint64(userID), 10)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    uidStr + "." + sign(uidStr),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionLifetime),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates cookie and returns user id.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	uidStr, sig, found := strings.Cut(c.Value, ".")
	if !found || strings.Contains(sig, ".") {
		return 0, false
	}
	if !hmac.Equal([]byte(sig), []byte(sign(uidStr))) {
		return 0, false
	}
	id64, err := strconv.ParseUint(uidStr, 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDCtxKey).(uint)
	return id, ok && id != 0
}

// Middleware attaches user id to request context if present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := ParseSession(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth redirects to /login if not authenticated (HTML) or returns 401 JSON.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			unauthorized(w, r)
			return
		}
		mu.RLock()
		v := verifier
		mu.RUnlock()
		if v != nil && !v(r.Context(), uid) {
			// Session refers to a user that no longer exists.
			ClearSession(w)
			unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
