// Package services holds the invoice use cases: listing, creation, the
// per-invoice editor with its save gate, deletion and export.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoice-desk/gate"
	"github.com/diewo77/invoice-desk/internal/export"
	"github.com/diewo77/invoice-desk/internal/models"
	"github.com/diewo77/invoice-desk/internal/policy"
	"github.com/diewo77/invoice-desk/validation"
)

// CreateInput is the payload for a new invoice.
type CreateInput struct {
	Name string `json:"name" validate:"required,max=60"`
}

// InvoiceSummary is one row of the invoice list.
type InvoiceSummary struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	ClientName  string               `json:"client_name"`
	Status      models.InvoiceStatus `json:"status"`
	InvoiceDate time.Time            `json:"invoice_date"`
	DueDate     time.Time            `json:"due_date"`
	Totals      models.Totals        `json:"totals"`
}

type InvoiceService struct {
	store    Store
	identity IdentityProvider
	exporter Exporter
	sessions *EditorSessions
	gate     *gate.Gate[string]
	log      zerolog.Logger
}

func NewInvoiceService(store Store, identity IdentityProvider, exporter Exporter, sessions *EditorSessions, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{
		store:    store,
		identity: identity,
		exporter: exporter,
		sessions: sessions,
		gate:     policy.NewInvoiceGate(),
		log:      log.With().Str("component", "invoices").Logger(),
	}
}

func (s *InvoiceService) currentEmail(ctx context.Context) (string, error) {
	email, ok := s.identity.CurrentUserEmail(ctx)
	if !ok || email == "" {
		return "", ErrUnauthenticated
	}
	return email, nil
}

// authorize hides foreign invoices behind ErrNotFound.
func (s *InvoiceService) authorize(ctx context.Context, email string, action gate.Action, inv *models.Invoice) error {
	var resource any
	if inv != nil {
		resource = inv
	}
	if err := s.gate.Authorize(ctx, email, action, policy.ResourceInvoice, resource); err != nil {
		if inv == nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrNotFound, inv.ID)
	}
	return nil
}

// List returns the signed-in user's invoices, newest first, with totals.
func (s *InvoiceService) List(ctx context.Context) ([]InvoiceSummary, error) {
	email, err := s.currentEmail(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, email, gate.ActionList, nil); err != nil {
		return nil, err
	}
	invs, err := s.store.ListByOwner(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Msg("list invoices failed")
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	out := make([]InvoiceSummary, 0, len(invs))
	for i := range invs {
		inv := &invs[i]
		out = append(out, InvoiceSummary{
			ID:          inv.ID,
			Name:        inv.Name,
			ClientName:  inv.ClientName,
			Status:      inv.Status,
			InvoiceDate: inv.InvoiceDate,
			DueDate:     inv.DueDate,
			Totals:      models.ComputeTotals(inv),
		})
	}
	return out, nil
}

// Create stores a new draft named name. The name is trimmed, then must be
// between 1 and 60 characters.
func (s *InvoiceService) Create(ctx context.Context, name string) (*models.Invoice, error) {
	email, err := s.currentEmail(ctx)
	if err != nil {
		return nil, err
	}
	in := CreateInput{Name: strings.TrimSpace(name)}
	if v := validation.Struct(in); !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	if err := s.authorize(ctx, email, gate.ActionCreate, nil); err != nil {
		return nil, err
	}
	inv, err := s.store.Create(ctx, email, in.Name)
	if err != nil {
		s.log.Error().Err(err).Msg("create invoice failed")
		return nil, &PersistenceError{Op: "create", Err: err}
	}
	s.log.Info().Str("invoice_id", inv.ID).Msg("invoice created")
	return inv, nil
}

// Open returns the signed-in user's editor for id, loading the invoice on
// first access. Unknown and foreign invoices both yield ErrNotFound.
func (s *InvoiceService) Open(ctx context.Context, id string) (*InvoiceEditor, error) {
	email, err := s.currentEmail(ctx)
	if err != nil {
		return nil, err
	}
	return s.sessions.Load(ctx, email, id, func(ctx context.Context) (*InvoiceEditor, error) {
		inv, err := s.store.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, err
			}
			s.log.Error().Err(err).Str("invoice_id", id).Msg("load invoice failed")
			return nil, &PersistenceError{Op: "load", Err: err}
		}
		if err := s.authorize(ctx, email, gate.ActionView, inv); err != nil {
			s.log.Warn().Str("invoice_id", id).Msg("access to foreign invoice refused")
			return nil, err
		}
		return NewInvoiceEditor(inv, s.store, s.log), nil
	})
}

// Save persists the open editor's unsaved changes.
func (s *InvoiceService) Save(ctx context.Context, id string) (EditorState, error) {
	ed, err := s.Open(ctx, id)
	if err != nil {
		return EditorState{}, err
	}
	return ed.Save(ctx)
}

// Delete removes the invoice once confirmed and forgets its editor.
func (s *InvoiceService) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	email, err := s.currentEmail(ctx)
	if err != nil {
		return err
	}
	ed, err := s.Open(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, email, gate.ActionDelete, ed.State().Invoice); err != nil {
		return err
	}
	err = ed.Delete(ctx, true)
	if err == nil || errors.Is(err, ErrNotFound) {
		s.sessions.Drop(email, id)
	}
	return err
}

// Export renders the editor's current state, unsaved edits included, to a PDF
// and returns the file path.
func (s *InvoiceService) Export(ctx context.Context, id, lang string) (string, error) {
	email, err := s.currentEmail(ctx)
	if err != nil {
		return "", err
	}
	ed, err := s.Open(ctx, id)
	if err != nil {
		return "", err
	}
	st := ed.State()
	if err := s.authorize(ctx, email, gate.ActionExport, st.Invoice); err != nil {
		return "", err
	}
	path, err := s.exporter.RenderToFile(export.NewDocument(st.Invoice, lang), st.Invoice, st.Totals)
	if err != nil {
		s.log.Error().Err(err).Str("invoice_id", id).Msg("export invoice failed")
		return "", &ExportError{Err: err}
	}
	s.log.Info().Str("invoice_id", id).Str("path", path).Msg("invoice exported")
	return path, nil
}
