package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(t *testing.T, uid uint) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	CreateSession(w, uid)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(sessionCookie(t, 42))

	uid, ok := ParseSession(r)
	assert.True(t, ok)
	assert.Equal(t, uint(42), uid)
}

func TestParseSession_RejectsTampering(t *testing.T) {
	c := sessionCookie(t, 42)
	for _, value := range []string{"", "42", "43." + c.Value[3:], c.Value + ".x", "abc.def"} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: value})
		_, ok := ParseSession(r)
		assert.False(t, ok, value)
	}
}

func TestRequireAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Middleware(RequireAuth(ok))

	t.Run("html redirects", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices", nil))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("json gets 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/invoices", nil)
		r.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
	})

	t.Run("valid session passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/invoices", nil)
		r.AddCookie(sessionCookie(t, 7))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("verifier rejects deleted user", func(t *testing.T) {
		SetUserVerifier(func(_ context.Context, uid uint) bool { return uid != 7 })
		defer SetUserVerifier(nil)

		r := httptest.NewRequest(http.MethodGet, "/invoices", nil)
		r.AddCookie(sessionCookie(t, 7))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})
}
