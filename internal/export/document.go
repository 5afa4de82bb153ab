// Package export renders invoices to PDF files.
package export

import (
	"strings"
	"unicode"

	"github.com/diewo77/invoice-desk/i18n"
	"github.com/diewo77/invoice-desk/internal/models"
)

const dateLayout = "02/01/2006"

// Document is the printable view of an invoice: every string already
// formatted and translated. Totals are laid out separately at render time.
type Document struct {
	Lang          string
	Title         string
	Reference     string
	IssuerName    string
	IssuerAddress string
	ClientName    string
	ClientAddress string
	InvoiceDate   string
	DueDate       string
	Status        string
	Lines         []DocumentLine
}

// DocumentLine is one row of the lines table, numbered from 1.
type DocumentLine struct {
	Number      int
	Description string
	Quantity    string
	UnitPrice   string
	Total       string
}

// NewDocument builds the printable view of inv in lang.
// Unfilled quantities and prices print as 0, matching the totals.
func NewDocument(inv *models.Invoice, lang string) Document {
	if !i18n.Supported(lang) {
		lang = i18n.DefaultLang
	}
	doc := Document{
		Lang:          lang,
		Title:         i18n.T(lang, "invoice") + " " + inv.Name,
		Reference:     inv.ID,
		IssuerName:    inv.IssuerName,
		IssuerAddress: inv.IssuerAddress,
		ClientName:    inv.ClientName,
		ClientAddress: inv.ClientAddress,
		InvoiceDate:   formatDate(inv.InvoiceDate.IsZero(), inv.InvoiceDate.Format(dateLayout)),
		DueDate:       formatDate(inv.DueDate.IsZero(), inv.DueDate.Format(dateLayout)),
		Status:        i18n.T(lang, inv.Status.LabelKey()),
		Lines:         make([]DocumentLine, 0, len(inv.Lines)),
	}
	for i, l := range inv.Lines {
		doc.Lines = append(doc.Lines, DocumentLine{
			Number:      i + 1,
			Description: l.Description,
			Quantity:    models.DecimalOf(l.Quantity).String(),
			UnitPrice:   models.FormatAmount(models.DecimalOf(l.UnitPrice)),
			Total:       models.FormatAmount(l.Amount()),
		})
	}
	return doc
}

func formatDate(zero bool, s string) string {
	if zero {
		return ""
	}
	return s
}

// FileName is "facture-<name>.pdf" with anything outside letters, digits,
// '-' and '_' replaced by '-'. An empty name falls back to the invoice id.
func FileName(inv *models.Invoice) string {
	base := safeName(inv.Name)
	if base == "" {
		base = safeName(inv.ID)
	}
	return "facture-" + base + ".pdf"
}

// safeName keeps letters, digits, '-' and '_' and turns everything else into '-'.
func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.TrimSpace(s))
	return strings.Trim(s, "-")
}
