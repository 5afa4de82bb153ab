package models

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

// CurrencySuffix is appended to formatted amounts.
const CurrencySuffix = "F CFA"

var hundred = decimal.NewFromInt(100)

// Totals are derived from an invoice and never stored.
type Totals struct {
	HT  decimal.Decimal
	VAT decimal.Decimal
	TTC decimal.Decimal
}

// ComputeTotals derives HT, VAT and TTC from the invoice lines and VAT settings.
// Quantities and prices that were never filled in are zero; negative values are
// accepted as given. VAT is charged only when VATActive is set. NaN and ±Inf
// count as zero so the result is always defined.
func ComputeTotals(inv *Invoice) Totals {
	if inv == nil {
		return Totals{}
	}
	ht := decimal.Zero
	for _, l := range inv.Lines {
		ht = ht.Add(l.Amount())
	}
	vat := decimal.Zero
	if inv.VATActive {
		vat = ht.Mul(DecimalOf(inv.VATRate)).Div(hundred)
	}
	return Totals{HT: ht, VAT: vat, TTC: ht.Add(vat)}
}

// Amount is quantity × unit price for the line.
func (l InvoiceLine) Amount() decimal.Decimal {
	return DecimalOf(l.Quantity).Mul(DecimalOf(l.UnitPrice))
}

// DecimalOf converts f exactly; NaN and ±Inf, which decimal cannot hold, become 0.
func DecimalOf(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// FormatAmount renders an amount with two decimals and the currency suffix.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + CurrencySuffix
}

// MarshalJSON exposes totals as plain numbers rounded to the cent.
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalHT  float64 `json:"total_ht"`
		TotalVAT float64 `json:"total_vat"`
		TotalTTC float64 `json:"total_ttc"`
	}{
		TotalHT:  t.HT.Round(2).InexactFloat64(),
		TotalVAT: t.VAT.Round(2).InexactFloat64(),
		TotalTTC: t.TTC.Round(2).InexactFloat64(),
	})
}
