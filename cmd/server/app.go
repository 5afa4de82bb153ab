package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-desk/auth"
	"github.com/diewo77/invoice-desk/httpx"
	"github.com/diewo77/invoice-desk/internal/config"
	"github.com/diewo77/invoice-desk/internal/db"
	"github.com/diewo77/invoice-desk/internal/export"
	"github.com/diewo77/invoice-desk/internal/handlers"
	"github.com/diewo77/invoice-desk/internal/identity"
	"github.com/diewo77/invoice-desk/internal/middleware"
	"github.com/diewo77/invoice-desk/internal/services"
	"github.com/diewo77/invoice-desk/internal/store"
)

const healthTimeout = 2 * time.Second

// App is the main application handler that sets up all routes.
type App struct {
	mux      *http.ServeMux
	db       *gorm.DB
	invoices *handlers.InvoiceHandler
	auth     *handlers.AuthHandler
}

// NewApp wires the store, identity, exporter and editor sessions behind the
// HTTP handlers. Session cookies are signed with cfg.App.SessionSecret.
func NewApp(conn *gorm.DB, cfg *config.Config, log zerolog.Logger) *App {
	ids := identity.NewSessionProvider(conn)
	auth.SetSecret(cfg.App.SessionSecret)
	auth.SetUserVerifier(ids.UserExists)

	st := store.NewInvoiceStore(conn, store.Defaults{
		VATActive: cfg.Invoice.DefaultVATActive,
		VATRate:   cfg.Invoice.DefaultVATRate,
		DueDays:   cfg.Invoice.DueDays,
	})
	svc := services.NewInvoiceService(st, ids, export.NewPDFExporter(cfg.Export.Dir),
		services.NewEditorSessions(cfg.App.EditorTTL), log)

	app := &App{
		mux:      http.NewServeMux(),
		db:       conn,
		invoices: handlers.NewInvoiceHandler(svc, log),
		auth:     handlers.NewAuthHandler(conn, log),
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Global middleware: session user + language preference
	handler := auth.Middleware(middleware.Prefs(a.mux))
	handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	// Public routes
	a.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/invoices", http.StatusSeeOther)
	})
	a.mux.HandleFunc("GET /healthz", a.health)

	ah := a.auth
	a.mux.HandleFunc("GET /login", ah.Login)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("GET /signup", ah.Signup)
	a.mux.HandleFunc("POST /signup", ah.Signup)
	a.mux.HandleFunc("POST /logout", ah.Logout)

	// Invoices, scoped to the signed-in owner
	ih := a.invoices
	a.protect("GET /invoices", ih.List)
	a.protect("POST /invoices", ih.Create)
	a.protect("GET /invoices/{id}", ih.Show)
	a.protect("POST /invoices/{id}/status", ih.SetStatus)
	a.protect("POST /invoices/{id}/vat", ih.SetVAT)
	a.protect("POST /invoices/{id}/info", ih.SetInfo)
	a.protect("POST /invoices/{id}/lines", ih.AddLine)
	a.protect("POST /invoices/{id}/lines/{index}", ih.UpdateLine)
	a.protect("POST /invoices/{id}/lines/{index}/delete", ih.RemoveLine)
	a.protect("POST /invoices/{id}/save", ih.Save)
	a.protect("POST /invoices/{id}/discard", ih.Discard)
	a.protect("POST /invoices/{id}/delete", ih.Delete)
	a.protect("GET /invoices/{id}/pdf", ih.PDF)
}

// protect registers a route that requires a signed-in user.
func (a *App) protect(pattern string, h http.HandlerFunc) {
	a.mux.Handle(pattern, auth.RequireAuth(h))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := db.Ping(ctx, a.db); err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
