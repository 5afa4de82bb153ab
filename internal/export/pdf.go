package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/diewo77/invoice-desk/i18n"
	"github.com/diewo77/invoice-desk/internal/models"
)

// renderFunc writes a finished PDF to w.
type renderFunc func(w io.Writer, doc Document, inv *models.Invoice, totals models.Totals) error

// PDFExporter writes invoice PDFs into a directory.
type PDFExporter struct {
	dir    string
	render renderFunc
}

func NewPDFExporter(dir string) *PDFExporter {
	return &PDFExporter{dir: dir, render: renderPDF}
}

// RenderToFile lays out doc with the invoice totals and writes it to
// <dir>/<invoice id>/facture-<name>.pdf, replacing that invoice's previous
// export. Invoices never share a directory. The file only appears once fully
// written; on failure nothing is left behind.
func (e *PDFExporter) RenderToFile(doc Document, inv *models.Invoice, totals models.Totals) (string, error) {
	id := safeName(inv.ID)
	if id == "" {
		return "", errors.New("export: invoice has no id")
	}
	dir := filepath.Join(e.dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".facture-*.pdf.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
		_ = os.Remove(dir) // only succeeds when empty
	}

	if err := e.render(tmp, doc, inv, totals); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("render pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close pdf: %w", err)
	}
	final := filepath.Join(dir, FileName(inv))
	if err := os.Rename(tmpPath, final); err != nil {
		cleanup()
		return "", fmt.Errorf("move pdf into place: %w", err)
	}
	return final, nil
}

// Column widths in mm; they add up to the printable width of A4 with 10mm margins.
var colWidths = [5]float64{10, 80, 20, 38, 42}

func renderPDF(w io.Writer, doc Document, inv *models.Invoice, totals models.Totals) error {
	t := func(code string) string { return i18n.T(doc.Lang, code) }

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(doc.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, tr(doc.Reference), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s: %s    %s: %s    %s", t("date"), doc.InvoiceDate, t("due_date"), doc.DueDate, doc.Status)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Parties side by side.
	y := pdf.GetY()
	party := func(x float64, label, name, address string) {
		pdf.SetXY(x, y)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(90, 6, tr(label), "", 2, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(90, 5, tr(name), "", 2, "L", false, 0, "")
		pdf.MultiCell(90, 5, tr(address), "", "L", false)
	}
	party(10, t("issuer"), doc.IssuerName, doc.IssuerAddress)
	leftBottom := pdf.GetY()
	party(110, t("client"), doc.ClientName, doc.ClientAddress)
	if pdf.GetY() < leftBottom {
		pdf.SetY(leftBottom)
	}
	pdf.Ln(8)

	// Lines table.
	headers := []string{"#", t("description"), t("quantity"), t("unit_price"), t("total")}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, l := range doc.Lines {
		pdf.CellFormat(colWidths[0], 7, fmt.Sprint(l.Number), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[1], 7, tr(l.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[2], 7, l.Quantity, "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 7, l.UnitPrice, "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[4], 7, l.Total, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	// Totals block, VAT row only when VAT applies.
	row := func(label string, amount decimal.Decimal, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 11)
		pdf.CellFormat(125, 7, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, models.FormatAmount(amount), "", 1, "R", false, 0, "")
	}
	row(t("total_ht"), totals.HT, false)
	if inv.VATActive {
		row(fmt.Sprintf("%s (%s %%)", t("vat"), models.DecimalOf(inv.VATRate).String()), totals.VAT, false)
	}
	row(t("total_ttc"), totals.TTC, true)

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
