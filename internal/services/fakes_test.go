package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/invoice-desk/internal/export"
	"github.com/diewo77/invoice-desk/internal/models"
)

// fakeStore is an in-memory Store that counts calls. When block is set,
// Update signals entered and waits for block to be closed.
type fakeStore struct {
	mu       sync.Mutex
	invoices map[string]*models.Invoice
	seq      int

	updates int
	deletes int

	updateErr error
	deleteErr error
	getErr    error

	entered chan struct{}
	block   chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{invoices: map[string]*models.Invoice{}}
}

func (f *fakeStore) put(inv *models.Invoice) *models.Invoice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv.ID == "" {
		f.seq++
		inv.ID = fmt.Sprintf("inv-%d", f.seq)
	}
	f.invoices[inv.ID] = inv.Clone()
	return inv
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	inv, ok := f.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return inv.Clone(), nil
}

func (f *fakeStore) ListByOwner(_ context.Context, email string) ([]models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Invoice
	for _, inv := range f.invoices {
		if inv.OwnerEmail == email {
			out = append(out, *inv.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, email, name string) (*models.Invoice, error) {
	inv := f.put(&models.Invoice{OwnerEmail: email, Name: name, Status: models.InvoiceStatusDraft, VATRate: 18})
	return inv.Clone(), nil
}

func (f *fakeStore) Update(_ context.Context, inv *models.Invoice) (*models.Invoice, error) {
	f.mu.Lock()
	f.updates++
	entered, block, err := f.entered, f.block, f.updateErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}

	saved := inv.Clone()
	saved.Name = strings.TrimSpace(saved.Name)
	saved.UpdatedAt = time.Now()
	for i := range saved.Lines {
		saved.Lines[i].Position = i
		saved.Lines[i].ID = uint(i + 1)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invoices[inv.ID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, inv.ID)
	}
	f.invoices[inv.ID] = saved.Clone()
	return saved, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.invoices[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(f.invoices, id)
	return nil
}

func (f *fakeStore) counts() (updates, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates, f.deletes
}

type fakeExporter struct {
	err    error
	calls  int
	doc    export.Document
	totals models.Totals
}

func (f *fakeExporter) RenderToFile(doc export.Document, inv *models.Invoice, totals models.Totals) (string, error) {
	f.calls++
	f.doc, f.totals = doc, totals
	if f.err != nil {
		return "", f.err
	}
	return "/tmp/" + export.FileName(inv), nil
}

var errStoreDown = errors.New("connection refused")

func ownedInvoice(owner string) *models.Invoice {
	return &models.Invoice{
		OwnerEmail:  owner,
		Name:        "Site vitrine",
		ClientName:  "ClientCo",
		Status:      models.InvoiceStatusDraft,
		VATActive:   true,
		VATRate:     18,
		InvoiceDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Lines: []models.InvoiceLine{
			{Position: 0, Description: "Design", Quantity: 2, UnitPrice: 1000},
			{Position: 1, Description: "Hosting", Quantity: 1, UnitPrice: 500},
		},
	}
}
