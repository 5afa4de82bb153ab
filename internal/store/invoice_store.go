// Package store persists invoices with GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-desk/internal/models"
)

// ErrNotFound is returned when no invoice matches the requested id.
var ErrNotFound = errors.New("invoice not found")

// Defaults are applied to every invoice created through the store.
type Defaults struct {
	VATActive bool
	VATRate   float64
	DueDays   int
}

// InvoiceStore is the GORM-backed invoice repository.
type InvoiceStore struct {
	db       *gorm.DB
	defaults Defaults
	now      func() time.Time
}

func NewInvoiceStore(db *gorm.DB, defaults Defaults) *InvoiceStore {
	return &InvoiceStore{db: db, defaults: defaults, now: time.Now}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// GetByID loads an invoice with its lines in display order.
func (s *InvoiceStore) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Preload("Lines", orderedLines).First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", id, err)
	}
	return &inv, nil
}

// ListByOwner returns the owner's invoices, newest first.
func (s *InvoiceStore) ListByOwner(ctx context.Context, email string) ([]models.Invoice, error) {
	var invs []models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("owner_email = ?", normalizeEmail(email)).
		Order("created_at DESC").
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invs, nil
}

// Create stores an empty draft invoice for email with the configured defaults.
func (s *InvoiceStore) Create(ctx context.Context, email, name string) (*models.Invoice, error) {
	today := day(s.now())
	inv := models.Invoice{
		OwnerEmail:  normalizeEmail(email),
		Name:        strings.TrimSpace(name),
		Status:      models.InvoiceStatusDraft,
		VATActive:   s.defaults.VATActive,
		VATRate:     s.defaults.VATRate,
		InvoiceDate: today,
		DueDate:     today.AddDate(0, 0, s.defaults.DueDays),
	}
	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return s.GetByID(ctx, inv.ID)
}

// Update replaces the invoice fields and its whole line sequence in one
// transaction, then returns the reloaded copy. Text is trimmed, dates are
// reduced to the day and line positions are renumbered from zero.
func (s *InvoiceStore) Update(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	if inv == nil {
		return nil, fmt.Errorf("update invoice: nil invoice")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).Updates(map[string]any{
			"name":           strings.TrimSpace(inv.Name),
			"issuer_name":    strings.TrimSpace(inv.IssuerName),
			"issuer_address": strings.TrimSpace(inv.IssuerAddress),
			"client_name":    strings.TrimSpace(inv.ClientName),
			"client_address": strings.TrimSpace(inv.ClientAddress),
			"status":         inv.Status,
			"vat_active":     inv.VATActive,
			"vat_rate":       inv.VATRate,
			"invoice_date":   day(inv.InvoiceDate),
			"due_date":       day(inv.DueDate),
			"updated_at":     s.now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, inv.ID)
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceLine{}).Error; err != nil {
			return err
		}
		if len(inv.Lines) == 0 {
			return nil
		}
		lines := make([]models.InvoiceLine, len(inv.Lines))
		for i, l := range inv.Lines {
			lines[i] = models.InvoiceLine{
				InvoiceID:   inv.ID,
				Position:    i,
				Description: strings.TrimSpace(l.Description),
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
			}
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update invoice %s: %w", inv.ID, err)
	}
	return s.GetByID(ctx, inv.ID)
}

// Delete removes the invoice and its lines.
func (s *InvoiceStore) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceLine{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Invoice{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// day truncates t to midnight UTC of its calendar date.
func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
