package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/invoice-desk/auth"
	"github.com/diewo77/invoice-desk/internal/models"
)

func sessionUserID(t *testing.T, rec *httptest.ResponseRecorder) (uint, bool) {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return auth.ParseSession(r)
}

func TestSignup_CreatesUserAndSession(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := NewAuthHandler(db, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Signup(rec, formReq("/signup", url.Values{
		"name":     {"Awa"},
		"email":    {" Awa@Example.com "},
		"password": {"secret123"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/invoices", rec.Header().Get("Location"))

	var u models.User
	require.NoError(t, db.Where("email = ?", "awa@example.com").First(&u).Error)
	assert.NotEqual(t, "secret123", u.Password)

	uid, ok := sessionUserID(t, rec)
	require.True(t, ok)
	assert.Equal(t, u.ID, uid)
}

func TestSignup_Rejections(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := NewAuthHandler(db, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Signup(rec, jsonReq(http.MethodPost, "/signup", `{"email":"a@b.co","password":"secret123"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Signup(rec, jsonReq(http.MethodPost, "/signup", `{"email":"A@B.co","password":"another123"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "signup.exists", decode(t, rec)["error"])

	rec = httptest.NewRecorder()
	h.Signup(rec, jsonReq(http.MethodPost, "/signup", `{"email":"not-an-email","password":"short"}`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	details := decode(t, rec)["details"].(map[string]any)
	assert.Equal(t, "invalid_email", details["email"])
	assert.Equal(t, "too_short", details["password"])

	rec = httptest.NewRecorder()
	h.Signup(rec, formReq("/signup", url.Values{"email": {"x@y.co"}}, inLang("en")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Some fields are invalid")
	assert.Contains(t, rec.Body.String(), "x@y.co")
}

func TestLogin(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := NewAuthHandler(db, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Signup(rec, jsonReq(http.MethodPost, "/signup", `{"email":"owner@example.com","password":"secret123"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
	}{
		{"valid", "owner@example.com", "secret123", http.StatusOK},
		{"email is case-insensitive", "OWNER@example.com", "secret123", http.StatusOK},
		{"wrong password", "owner@example.com", "secret124", http.StatusUnauthorized},
		{"unknown user", "nobody@example.com", "secret123", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, jsonReq(http.MethodPost, "/login",
				`{"email":"`+tt.email+`","password":"`+tt.password+`"}`))
			assert.Equal(t, tt.status, rec.Code)
			_, ok := sessionUserID(t, rec)
			assert.Equal(t, tt.status == http.StatusOK, ok)
		})
	}

	rec = httptest.NewRecorder()
	h.Login(rec, formReq("/login", url.Values{"email": {"owner@example.com"}, "password": {"nope"}}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email ou mot de passe invalide")
}

func TestLoginPages(t *testing.T) {
	h := NewAuthHandler(setupHandlerTestDB(t), zerolog.Nop())
	for _, run := range []func(http.ResponseWriter, *http.Request){h.Login, h.Signup} {
		rec := httptest.NewRecorder()
		run(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<form")
	}
}

func TestLogout(t *testing.T) {
	h := NewAuthHandler(setupHandlerTestDB(t), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)

	rec = httptest.NewRecorder()
	h.Logout(rec, jsonReq(http.MethodPost, "/logout", ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
