// Package middleware holds the HTTP middlewares shared by every route.
package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/diewo77/invoice-desk/i18n"
)

const (
	langCookie  = "lang"
	flashCookie = "flash"
)

// Prefs resolves the UI language (query > cookie > Accept-Language) and stores
// it in the request context. A language given in the query is remembered in a
// cookie for 30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie(langCookie); err == nil {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); ql != "" && i18n.Supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: langCookie, Value: lang, Path: "/", MaxAge: 86400 * 30, HttpOnly: true})
		}
		if !i18n.Supported(lang) {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

// LangFrom returns the language chosen by Prefs.
func LangFrom(r *http.Request) string {
	return i18n.LangFromContext(r.Context())
}

// Flash stores a translated one-shot message shown on the next page.
func Flash(w http.ResponseWriter, r *http.Request, code string) {
	msg := i18n.T(LangFrom(r), code)
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: url.QueryEscape(msg), Path: "/", HttpOnly: true})
}

// ConsumeFlash returns the pending flash message, if any, and clears it.
func ConsumeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	if dec, err := url.QueryUnescape(c.Value); err == nil {
		return dec
	}
	return c.Value
}
