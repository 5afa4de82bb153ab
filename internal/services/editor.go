package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/diewo77/invoice-desk/internal/models"
	"github.com/diewo77/invoice-desk/validation"
)

// InfoInput carries the editable header of an invoice.
type InfoInput struct {
	Name          string    `json:"name" validate:"required,max=60"`
	IssuerName    string    `json:"issuer_name" validate:"max=255"`
	IssuerAddress string    `json:"issuer_address" validate:"max=1000"`
	ClientName    string    `json:"client_name" validate:"max=255"`
	ClientAddress string    `json:"client_address" validate:"max=1000"`
	InvoiceDate   time.Time `json:"invoice_date"`
	DueDate       time.Time `json:"due_date"`
}

// LineInput is one line as entered by the user. Quantity and price are not
// range checked; totals accept whatever is given.
type LineInput struct {
	Description string  `json:"description" validate:"max=500"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// EditorState is a point-in-time copy of an editor, safe to render.
type EditorState struct {
	Invoice *models.Invoice `json:"invoice"`
	Totals  models.Totals   `json:"totals"`
	Dirty   bool            `json:"dirty"`
	Saving  bool            `json:"saving"`
	CanSave bool            `json:"can_save"`
}

// InvoiceEditor holds one loaded invoice, its last persisted snapshot and the
// busy flag that gates saving. All methods are safe for concurrent use.
type InvoiceEditor struct {
	store Store
	log   zerolog.Logger

	mu       sync.Mutex
	current  *models.Invoice
	snapshot *models.Invoice
	busy     bool
	closed   bool
	// revision counts edits so a save can tell whether the user kept typing.
	revision uint64
}

func NewInvoiceEditor(inv *models.Invoice, store Store, log zerolog.Logger) *InvoiceEditor {
	return &InvoiceEditor{
		store:    store,
		log:      log.With().Str("invoice_id", inv.ID).Logger(),
		current:  inv.Clone(),
		snapshot: inv.Clone(),
	}
}

// ID is the invoice identifier.
func (e *InvoiceEditor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.ID
}

// State returns a copy of the current invoice with freshly computed totals.
func (e *InvoiceEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *InvoiceEditor) stateLocked() EditorState {
	dirty := models.IsDirty(e.current, e.snapshot)
	return EditorState{
		Invoice: e.current.Clone(),
		Totals:  models.ComputeTotals(e.current),
		Dirty:   dirty,
		Saving:  e.busy,
		CanSave: dirty && !e.busy && !e.closed,
	}
}

// mutate applies fn to the current invoice under the lock.
func (e *InvoiceEditor) mutate(fn func(inv *models.Invoice)) (EditorState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return EditorState{}, ErrEditorClosed
	}
	fn(e.current)
	e.revision++
	return e.stateLocked(), nil
}

func (e *InvoiceEditor) SetStatus(s models.InvoiceStatus) (EditorState, error) {
	if !s.Valid() {
		return EditorState{}, invalid("status", "invalid")
	}
	return e.mutate(func(inv *models.Invoice) { inv.Status = s })
}

// SetVAT sets the toggle and the rate together.
func (e *InvoiceEditor) SetVAT(active bool, rate float64) (EditorState, error) {
	if err := checkRate(rate); err != nil {
		return EditorState{}, err
	}
	return e.mutate(func(inv *models.Invoice) {
		inv.VATActive = active
		inv.VATRate = rate
	})
}

func (e *InvoiceEditor) SetVATActive(active bool) (EditorState, error) {
	return e.mutate(func(inv *models.Invoice) { inv.VATActive = active })
}

func (e *InvoiceEditor) SetVATRate(rate float64) (EditorState, error) {
	if err := checkRate(rate); err != nil {
		return EditorState{}, err
	}
	return e.mutate(func(inv *models.Invoice) { inv.VATRate = rate })
}

func checkLine(in LineInput) error {
	v := validation.Struct(in)
	if v == nil {
		v = validation.Violations{}
	}
	validation.Finite("quantity", in.Quantity, v)
	validation.Finite("unit_price", in.UnitPrice, v)
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return nil
}

func checkRate(rate float64) error {
	v := validation.Violations{}
	validation.RangeFloat("vat_rate", rate, 0, 100, v)
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return nil
}

// SetInfo replaces the invoice header. The name rules are the same as at creation.
func (e *InvoiceEditor) SetInfo(in InfoInput) (EditorState, error) {
	in.Name = strings.TrimSpace(in.Name)
	if v := validation.Struct(in); !v.Empty() {
		return EditorState{}, &ValidationError{Violations: v}
	}
	if !in.InvoiceDate.IsZero() && !in.DueDate.IsZero() && in.DueDate.Before(in.InvoiceDate) {
		return EditorState{}, invalid("due_date", "out_of_range")
	}
	return e.mutate(func(inv *models.Invoice) {
		inv.Name = in.Name
		inv.IssuerName = in.IssuerName
		inv.IssuerAddress = in.IssuerAddress
		inv.ClientName = in.ClientName
		inv.ClientAddress = in.ClientAddress
		inv.InvoiceDate = in.InvoiceDate
		inv.DueDate = in.DueDate
	})
}

// AddLine appends a line at the end of the sequence.
func (e *InvoiceEditor) AddLine(in LineInput) (EditorState, error) {
	if err := checkLine(in); err != nil {
		return EditorState{}, err
	}
	return e.mutate(func(inv *models.Invoice) {
		inv.Lines = append(inv.Lines, models.InvoiceLine{
			InvoiceID:   inv.ID,
			Position:    len(inv.Lines),
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
		})
	})
}

// UpdateLine replaces the line at index, keeping its place in the sequence.
func (e *InvoiceEditor) UpdateLine(index int, in LineInput) (EditorState, error) {
	if err := checkLine(in); err != nil {
		return EditorState{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return EditorState{}, ErrEditorClosed
	}
	if index < 0 || index >= len(e.current.Lines) {
		return EditorState{}, invalid("index", "out_of_range")
	}
	l := &e.current.Lines[index]
	l.Description = in.Description
	l.Quantity = in.Quantity
	l.UnitPrice = in.UnitPrice
	e.revision++
	return e.stateLocked(), nil
}

// RemoveLine deletes the line at index; later lines move up.
func (e *InvoiceEditor) RemoveLine(index int) (EditorState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return EditorState{}, ErrEditorClosed
	}
	if index < 0 || index >= len(e.current.Lines) {
		return EditorState{}, invalid("index", "out_of_range")
	}
	lines := make([]models.InvoiceLine, 0, len(e.current.Lines)-1)
	lines = append(lines, e.current.Lines[:index]...)
	lines = append(lines, e.current.Lines[index+1:]...)
	for i := range lines {
		lines[i].Position = i
	}
	e.current.Lines = lines
	e.revision++
	return e.stateLocked(), nil
}

// Discard drops unsaved edits and returns to the last persisted snapshot.
func (e *InvoiceEditor) Discard() (EditorState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return EditorState{}, ErrEditorClosed
	}
	e.current = e.snapshot.Clone()
	e.revision++
	return e.stateLocked(), nil
}

// Save sends the current invoice to the store. Only one save runs at a time;
// a second caller gets ErrSaveInProgress instead of queueing. The store call
// is not cancelled when ctx is.
//
// On success the server copy becomes the snapshot, and also the current
// invoice unless it was edited while the save was in flight. On failure the
// editor is left exactly as it was.
func (e *InvoiceEditor) Save(ctx context.Context) (EditorState, error) {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return EditorState{}, ErrEditorClosed
	case e.busy:
		e.mu.Unlock()
		return EditorState{}, ErrSaveInProgress
	case !models.IsDirty(e.current, e.snapshot):
		st := e.stateLocked()
		e.mu.Unlock()
		return st, ErrNothingToSave
	}
	e.busy = true
	pending := e.current.Clone()
	rev := e.revision
	e.mu.Unlock()

	saved, err := e.store.Update(context.WithoutCancel(ctx), pending)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	if err != nil {
		e.log.Error().Err(err).Msg("save invoice failed")
		return e.stateLocked(), &PersistenceError{Op: "save", Err: err}
	}
	e.snapshot = saved.Clone()
	if e.revision == rev {
		e.current = saved.Clone()
	}
	e.log.Info().Int("lines", len(saved.Lines)).Msg("invoice saved")
	return e.stateLocked(), nil
}

// Delete removes the invoice from the store once the user has confirmed.
// Without confirmation the store is never called. A deleted editor is closed.
func (e *InvoiceEditor) Delete(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return ErrEditorClosed
	case e.busy:
		e.mu.Unlock()
		return ErrSaveInProgress
	}
	e.busy = true
	id := e.current.ID
	e.mu.Unlock()

	err := e.store.Delete(context.WithoutCancel(ctx), id)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	if err != nil {
		e.log.Error().Err(err).Msg("delete invoice failed")
		if errors.Is(err, ErrNotFound) {
			e.closed = true
			return err
		}
		return &PersistenceError{Op: "delete", Err: err}
	}
	e.closed = true
	e.log.Info().Msg("invoice deleted")
	return nil
}

// Closed reports whether the invoice was deleted through this editor.
func (e *InvoiceEditor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
