package export

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/invoice-desk/internal/models"
)

func testInvoice() *models.Invoice {
	return &models.Invoice{
		ID:            "3f2a",
		Name:          "Site vitrine",
		IssuerName:    "Studio Été",
		IssuerAddress: "1 rue du Port\nDakar",
		ClientName:    "ClientCo",
		ClientAddress: "2 avenue Nord",
		Status:        models.InvoiceStatusPending,
		VATActive:     true,
		VATRate:       18,
		InvoiceDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Lines: []models.InvoiceLine{
			{Description: "Design", Quantity: 2, UnitPrice: 1000},
			{Description: "Hébergement", Quantity: 1, UnitPrice: 500},
			{Description: "À chiffrer"},
		},
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(testInvoice(), "fr")

	assert.Equal(t, "Facture Site vitrine", doc.Title)
	assert.Equal(t, "01/03/2026", doc.InvoiceDate)
	assert.Equal(t, "31/03/2026", doc.DueDate)
	assert.Equal(t, "En attente", doc.Status)
	require.Len(t, doc.Lines, 3)
	assert.Equal(t, DocumentLine{Number: 1, Description: "Design", Quantity: "2", UnitPrice: "1000.00 F CFA", Total: "2000.00 F CFA"}, doc.Lines[0])
	assert.Equal(t, DocumentLine{Number: 3, Description: "À chiffrer", Quantity: "0", UnitPrice: "0.00 F CFA", Total: "0.00 F CFA"}, doc.Lines[2])
}

func TestNewDocument_UnknownLangFallsBack(t *testing.T) {
	inv := testInvoice()
	inv.InvoiceDate = time.Time{}
	doc := NewDocument(inv, "de")
	assert.Equal(t, "fr", doc.Lang)
	assert.Empty(t, doc.InvoiceDate)

	en := NewDocument(testInvoice(), "en")
	assert.Equal(t, "Invoice Site vitrine", en.Title)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		inv  models.Invoice
		want string
	}{
		{"plain", models.Invoice{Name: "mars"}, "facture-mars.pdf"},
		{"spaces and slashes", models.Invoice{Name: "Site / vitrine"}, "facture-Site---vitrine.pdf"},
		{"accents kept", models.Invoice{Name: "Été"}, "facture-Été.pdf"},
		{"empty uses id", models.Invoice{ID: "abc", Name: "  "}, "facture-abc.pdf"},
		{"no traversal", models.Invoice{Name: "../../etc"}, "facture-etc.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(&tt.inv))
		})
	}
}

func TestRenderToFile_WritesPDF(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	e := NewPDFExporter(dir)
	inv := testInvoice()

	path, err := e.RenderToFile(NewDocument(inv, "fr"), inv, models.ComputeTotals(inv))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "3f2a", "facture-Site-vitrine.pdf"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(b[:5]))

	entries, err := os.ReadDir(filepath.Join(dir, "3f2a"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not remain")
}

func TestRenderToFile_WithoutVAT(t *testing.T) {
	e := NewPDFExporter(t.TempDir())
	inv := testInvoice()
	inv.VATActive = false
	inv.Lines = nil

	path, err := e.RenderToFile(NewDocument(inv, "en"), inv, models.ComputeTotals(inv))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestRenderToFile_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	e := NewPDFExporter(dir)
	e.render = func(w io.Writer, _ Document, _ *models.Invoice, _ models.Totals) error {
		_, _ = w.Write([]byte("%PDF-partial"))
		return errors.New("boom")
	}
	inv := testInvoice()

	_, err := e.RenderToFile(NewDocument(inv, "fr"), inv, models.ComputeTotals(inv))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderToFile_SameNameDifferentInvoices(t *testing.T) {
	e := NewPDFExporter(t.TempDir())
	a := testInvoice()
	a.ID, a.OwnerEmail, a.ClientName = "inv-a", "alice@example.com", "Client Alice"
	b := testInvoice()
	b.ID, b.OwnerEmail, b.ClientName = "inv-b", "bob@example.com", "Client Bob"

	pathA, err := e.RenderToFile(NewDocument(a, "fr"), a, models.ComputeTotals(a))
	require.NoError(t, err)
	before, err := os.ReadFile(pathA)
	require.NoError(t, err)

	pathB, err := e.RenderToFile(NewDocument(b, "fr"), b, models.ComputeTotals(b))
	require.NoError(t, err)

	assert.NotEqual(t, pathA, pathB)
	assert.Equal(t, filepath.Base(pathA), filepath.Base(pathB), "download name stays facture-<name>.pdf")
	after, err := os.ReadFile(pathA)
	require.NoError(t, err)
	assert.Equal(t, before, after, "exporting b must not touch a's file")
}

func TestRenderToFile_ReplacesSameInvoiceExport(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "3f2a", "facture-Site-vitrine.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(final), 0o755))
	require.NoError(t, os.WriteFile(final, []byte("old"), 0o644))

	e := NewPDFExporter(dir)
	inv := testInvoice()
	path, err := e.RenderToFile(NewDocument(inv, "fr"), inv, models.ComputeTotals(inv))
	require.NoError(t, err)
	assert.Equal(t, final, path)

	b, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(b))
}

func TestRenderToFile_RequiresID(t *testing.T) {
	e := NewPDFExporter(t.TempDir())
	inv := testInvoice()
	inv.ID = "../"
	_, err := e.RenderToFile(NewDocument(inv, "fr"), inv, models.ComputeTotals(inv))
	assert.Error(t, err)
}

func TestNewDocument_NonFiniteNumbersPrintAsZero(t *testing.T) {
	inv := testInvoice()
	inv.Lines = []models.InvoiceLine{{Description: "x", Quantity: math.NaN(), UnitPrice: math.Inf(1)}}
	var doc Document
	require.NotPanics(t, func() { doc = NewDocument(inv, "fr") })
	assert.Equal(t, DocumentLine{Number: 1, Description: "x", Quantity: "0", UnitPrice: "0.00 F CFA", Total: "0.00 F CFA"}, doc.Lines[0])
}
