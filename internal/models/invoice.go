package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NameMaxLength is the longest invoice name accepted at creation, counted in characters.
const NameMaxLength = 60

// Invoice represents a billing invoice and its ordered lines.
// Implements the Ownable interface for ownership-based authorization.
type Invoice struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// OwnerEmail is the identity that created the invoice and may see it.
	OwnerEmail string `gorm:"index;size:255;not null" json:"owner_email"`

	Name string `gorm:"size:255;not null" json:"name"`

	// Parties
	IssuerName    string `gorm:"size:255" json:"issuer_name"`
	IssuerAddress string `gorm:"type:text" json:"issuer_address"`
	ClientName    string `gorm:"size:255" json:"client_name"`
	ClientAddress string `gorm:"type:text" json:"client_address"`

	Status InvoiceStatus `gorm:"not null" json:"status"`

	// VAT applies to the whole invoice; VATRate is a percentage (18 means 18%).
	VATActive bool    `gorm:"not null" json:"vat_active"`
	VATRate   float64 `gorm:"not null" json:"vat_rate"`

	InvoiceDate time.Time `json:"invoice_date"`
	DueDate     time.Time `json:"due_date"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines"`
}

// BeforeCreate assigns a random identifier to new invoices.
func (i *Invoice) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// GetOwnerEmail implements the Ownable interface for authorization.
func (i *Invoice) GetOwnerEmail() string {
	return i.OwnerEmail
}

// Clone returns a deep copy so callers can mutate lines without aliasing.
func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	c := *i
	if i.Lines != nil {
		c.Lines = make([]InvoiceLine, len(i.Lines))
		copy(c.Lines, i.Lines)
	}
	return &c
}

// InvoiceLine is a single billed item. Position keeps the user's ordering.
type InvoiceLine struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	InvoiceID string `gorm:"index;size:36;not null" json:"-"`
	Position  int    `gorm:"not null" json:"position"`

	Description string  `gorm:"size:500" json:"description"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
}
