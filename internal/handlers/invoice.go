package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoice-desk/httpx"
	"github.com/diewo77/invoice-desk/i18n"
	"github.com/diewo77/invoice-desk/internal/middleware"
	"github.com/diewo77/invoice-desk/internal/models"
	"github.com/diewo77/invoice-desk/internal/services"
)

// InvoiceHandler serves the invoice list and the per-invoice editor.
// Every route answers JSON when the client asks for it and HTML otherwise;
// HTML commands redirect back to the invoice page.
type InvoiceHandler struct {
	svc *services.InvoiceService
	log zerolog.Logger
}

func NewInvoiceHandler(svc *services.InvoiceService, log zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, log: log}
}

func invoicePath(id string) string { return "/invoices/" + id }

// List GET /invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"invoices": list})
		return
	}
	renderPage(w, r, h.log, http.StatusOK, "invoices.html", map[string]any{
		"Invoices": list,
		"Name":     "",
		"Flash":    middleware.ConsumeFlash(w, r),
	})
}

// Create POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := bind(r, &req, req.fromForm); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	inv, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		if v := violationsOf(err); v != nil && !httpx.WantsJSON(r) {
			list, lerr := h.svc.List(r.Context())
			if lerr != nil {
				h.log.Error().Err(lerr).Msg("list invoices for create form failed")
				list = []services.InvoiceSummary{}
			}
			renderPage(w, r, h.log, http.StatusUnprocessableEntity, "invoices.html", map[string]any{
				"Invoices": list,
				"Name":     req.Name,
				"Errors":   v,
			})
			return
		}
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"invoice": inv, "totals": models.ComputeTotals(inv)})
		return
	}
	http.Redirect(w, r, invoicePath(inv.ID), http.StatusSeeOther)
}

// Show GET /invoices/{id}
func (h *InvoiceHandler) Show(w http.ResponseWriter, r *http.Request) {
	ed, err := h.svc.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	st := ed.State()
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, st)
		return
	}
	renderPage(w, r, h.log, http.StatusOK, "invoice.html", map[string]any{
		"State": st,
		"Flash": middleware.ConsumeFlash(w, r),
	})
}

// edit opens the editor for the {id} in the path and applies cmd to it.
func (h *InvoiceHandler) edit(w http.ResponseWriter, r *http.Request, cmd func(*services.InvoiceEditor) (services.EditorState, error)) {
	ed, err := h.svc.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	st, err := cmd(ed)
	if err != nil {
		if v := violationsOf(err); v != nil && !httpx.WantsJSON(r) {
			renderPage(w, r, h.log, http.StatusUnprocessableEntity, "invoice.html", map[string]any{
				"State":  ed.State(),
				"Errors": v,
			})
			return
		}
		writeError(w, r, h.log, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, st)
		return
	}
	http.Redirect(w, r, invoicePath(st.Invoice.ID), http.StatusSeeOther)
}

// SetStatus POST /invoices/{id}/status
func (h *InvoiceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ed *services.InvoiceEditor) (services.EditorState, error) {
		var req statusRequest
		if err := bind(r, &req, req.fromForm); err != nil {
			return services.EditorState{}, err
		}
		s, err := models.ParseStatus(string(req.Status))
		if err != nil {
			return services.EditorState{}, &services.ValidationError{Violations: map[string]string{"status": "invalid"}}
		}
		return ed.SetStatus(s)
	})
}

// SetVAT POST /invoices/{id}/vat
func (h *InvoiceHandler) SetVAT(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ed *services.InvoiceEditor) (services.EditorState, error) {
		var req vatRequest
		if err := bind(r, &req, req.fromForm); err != nil {
			return services.EditorState{}, err
		}
		switch {
		case req.Active != nil && req.Rate != nil:
			return ed.SetVAT(*req.Active, *req.Rate)
		case req.Active != nil:
			return ed.SetVATActive(*req.Active)
		case req.Rate != nil:
			return ed.SetVATRate(*req.Rate)
		}
		return services.EditorState{}, errBadRequest
	})
}

// SetInfo POST /invoices/{id}/info
func (h *InvoiceHandler) SetInfo(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ed *services.InvoiceEditor) (services.EditorState, error) {
		var req infoRequest
		if err := bind(r, &req, req.fromForm); err != nil {
			return services.EditorState{}, err
		}
		in, err := req.input()
		if err != nil {
			return services.EditorState{}, err
		}
		return ed.SetInfo(in)
	})
}

// AddLine POST /invoices/{id}/lines
func (h *InvoiceHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ed *services.InvoiceEditor) (services.EditorState, error) {
		var req lineRequest
		if err := bind(r, &req, req.fromForm); err != nil {
			return services.EditorState{}, err
		}
		return ed.AddLine(req.input())
	})
}

// UpdateLine POST /invoices/{id}/lines/{index}
func (h *InvoiceHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ed *services.InvoiceEditor) (services.EditorState, error) {
		i, err := lineIndex(r)
		if err != nil {
			return services.EditorState{}, err
		}
		var req lineRequest
		if err := bind(r, &req, req.fromForm); err != nil {
			return services.EditorState{}, err
		}
		return ed.UpdateLine(i, req.input())
	})
}

// RemoveLine POST /invoices/{id}/lines/{index}/delete
func (h *InvoiceHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ed *services.InvoiceEditor) (services.EditorState, error) {
		i, err := lineIndex(r)
		if err != nil {
			return services.EditorState{}, err
		}
		return ed.RemoveLine(i)
	})
}

// Discard POST /invoices/{id}/discard
func (h *InvoiceHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ed *services.InvoiceEditor) (services.EditorState, error) {
		return ed.Discard()
	})
}

// Save POST /invoices/{id}/save
func (h *InvoiceHandler) Save(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st, err := h.svc.Save(r.Context(), id)
	if httpx.WantsJSON(r) {
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		httpx.JSON(w, http.StatusOK, st)
		return
	}
	switch {
	case err == nil:
		middleware.Flash(w, r, "invoice.saved")
	case errors.Is(err, services.ErrNothingToSave), errors.Is(err, services.ErrSaveInProgress):
		_, code := classify(err)
		middleware.Flash(w, r, code)
	default:
		writeError(w, r, h.log, err)
		return
	}
	http.Redirect(w, r, invoicePath(id), http.StatusSeeOther)
}

// Delete POST /invoices/{id}/delete
// Requires confirm=true; without it nothing is deleted.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req deleteRequest
	if err := bind(r, &req, req.fromForm); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	err := h.svc.Delete(r.Context(), id, req.Confirm)
	if httpx.WantsJSON(r) {
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
		return
	}
	switch {
	case err == nil:
		middleware.Flash(w, r, "invoice.deleted")
		http.Redirect(w, r, "/invoices", http.StatusSeeOther)
	case errors.Is(err, services.ErrNotConfirmed):
		middleware.Flash(w, r, "invoice.confirm_delete")
		http.Redirect(w, r, invoicePath(id), http.StatusSeeOther)
	default:
		writeError(w, r, h.log, err)
	}
}

// PDF GET /invoices/{id}/pdf
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	path, err := h.svc.Export(r.Context(), r.PathValue("id"), i18n.LangFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(path)}))
	http.ServeFile(w, r, path)
}
