// Package view renders the HTML pages. Templates are embedded in the binary;
// each page is parsed once together with layout.html and cloned per request
// so translation funcs see the request language.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diewo77/invoice-desk/auth"
	"github.com/diewo77/invoice-desk/i18n"
	"github.com/diewo77/invoice-desk/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutName = "layout.html"

var (
	once     sync.Once
	pages    map[string]*template.Template
	parseErr error
)

// Funcs returns the template helpers bound to lang.
func Funcs(lang string) template.FuncMap {
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"year": func() int { return time.Now().Year() },
		"money": func(d decimal.Decimal) string {
			return models.FormatAmount(d)
		},
		"statusLabel": func(s models.InvoiceStatus) string { return i18n.T(lang, s.LabelKey()) },
		"statuses":    models.Statuses,
		// date formats for <input type="date">; zero dates render empty.
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"add": func(a, b int) int { return a + b },
		// dict creates a map from key-value pairs for passing to sub-templates.
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

func parseAll() {
	pages = map[string]*template.Template{}
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		parseErr = err
		return
	}
	for _, path := range names {
		name := strings.TrimPrefix(path, "templates/")
		if name == layoutName {
			continue
		}
		t, err := template.New(layoutName).Funcs(Funcs(i18n.DefaultLang)).ParseFS(templateFS, "templates/"+layoutName, path)
		if err != nil {
			parseErr = fmt.Errorf("parse %s: %w", name, err)
			return
		}
		pages[name] = t
	}
}

// RenderStatus executes page name into a buffer and writes it with status.
// Nothing is written when execution fails.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	once.Do(parseAll)
	if parseErr != nil {
		return parseErr
	}
	page, ok := pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Errors"]; !exists {
		data["Errors"] = map[string]string{}
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}

	t, err := page.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(i18n.LangFromContext(r.Context())))

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
