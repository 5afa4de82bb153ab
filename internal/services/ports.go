package services

import (
	"context"

	"github.com/diewo77/invoice-desk/internal/export"
	"github.com/diewo77/invoice-desk/internal/models"
)

// Store persists invoices. store.InvoiceStore is the production implementation.
type Store interface {
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	ListByOwner(ctx context.Context, email string) ([]models.Invoice, error)
	Create(ctx context.Context, email, name string) (*models.Invoice, error)
	// Update returns the server copy after normalization.
	Update(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)
	Delete(ctx context.Context, id string) error
}

// IdentityProvider reports who is signed in for the request.
type IdentityProvider interface {
	CurrentUserEmail(ctx context.Context) (string, bool)
}

// Exporter writes a rendered invoice somewhere and returns its path.
type Exporter interface {
	RenderToFile(doc export.Document, inv *models.Invoice, totals models.Totals) (string, error)
}
