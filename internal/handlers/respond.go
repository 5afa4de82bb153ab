package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoice-desk/httpx"
	"github.com/diewo77/invoice-desk/i18n"
	"github.com/diewo77/invoice-desk/internal/services"
	"github.com/diewo77/invoice-desk/view"
)

// errBadRequest marks a body or form that could not be read at all.
var errBadRequest = errors.New("bad request")

// classify maps a service error to an HTTP status and a message code.
// Message codes double as i18n keys.
func classify(err error) (int, string) {
	var (
		verr *services.ValidationError
		eerr *services.ExportError
		perr *services.PersistenceError
	)
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "error.bad_request"
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrEditorClosed):
		return http.StatusNotFound, "invoice.not_found"
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, services.ErrNotConfirmed):
		return http.StatusBadRequest, "invoice.confirm_delete"
	case errors.Is(err, services.ErrSaveInProgress):
		return http.StatusConflict, "invoice.save_in_progress"
	case errors.Is(err, services.ErrNothingToSave):
		return http.StatusConflict, "invoice.nothing_to_save"
	case errors.As(err, &eerr):
		return http.StatusInternalServerError, "invoice.export_failed"
	case errors.As(err, &perr):
		switch perr.Op {
		case "save":
			return http.StatusInternalServerError, "invoice.save_failed"
		case "delete":
			return http.StatusInternalServerError, "invoice.delete_failed"
		}
	}
	return http.StatusInternalServerError, "error.internal"
}

func violationsOf(err error) map[string]string {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Violations
	}
	return nil
}

// writeError answers a failed request in the format the client asked for.
// HTML clients are sent to /login, the not-found page or the error page;
// callers that can redisplay a form handle validation errors themselves.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	status, code := classify(err)
	if status >= 500 {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	if httpx.WantsJSON(r) {
		var details any
		if v := violationsOf(err); v != nil {
			details = v
		}
		httpx.JSONError(w, status, code, details)
		return
	}
	switch status {
	case http.StatusUnauthorized:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	case http.StatusNotFound:
		renderPage(w, r, log, status, "not_found.html", nil)
		return
	}
	renderPage(w, r, log, status, "error.html", map[string]any{
		"Error": i18n.T(i18n.LangFromContext(r.Context()), code),
		"Back":  r.Referer(),
	})
}

func renderPage(w http.ResponseWriter, r *http.Request, log zerolog.Logger, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
