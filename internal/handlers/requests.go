package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/invoice-desk/httpx"
	"github.com/diewo77/invoice-desk/internal/services"
	"github.com/diewo77/invoice-desk/validation"
)

// bind fills dst from a JSON body, or from the posted form through fromForm.
func bind(r *http.Request, dst any, fromForm func(url.Values) error) error {
	if httpx.IsJSONBody(r) {
		if err := httpx.DecodeJSON(r, dst); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return fromForm(r.Form)
}

func asValidationError(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &services.ValidationError{Violations: v}
}

// parseNumber reads a form number. Empty means 0; a decimal comma is accepted.
// NaN and Inf parse but are rejected.
func parseNumber(field, raw string, v validation.Violations) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		v.Add(field, "invalid")
		return 0
	}
	return f
}

func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// parseDate accepts 2006-01-02 (HTML date inputs) or RFC 3339. Empty is the zero time.
func parseDate(field, raw string, v validation.Violations) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	v.Add(field, "invalid")
	return time.Time{}
}

type createRequest struct {
	Name string `json:"name"`
}

func (c *createRequest) fromForm(f url.Values) error {
	c.Name = f.Get("name")
	return nil
}

// statusValue accepts a status as JSON number (3) or string ("paid").
type statusValue string

func (s *statusValue) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = statusValue(str)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = statusValue(strconv.Itoa(n))
	return nil
}

type statusRequest struct {
	Status statusValue `json:"status"`
}

func (s *statusRequest) fromForm(f url.Values) error {
	s.Status = statusValue(f.Get("status"))
	return nil
}

type vatRequest struct {
	Active *bool    `json:"vat_active"`
	Rate   *float64 `json:"vat_rate"`
}

// fromForm treats a missing checkbox as "VAT off".
func (vr *vatRequest) fromForm(f url.Values) error {
	active := truthy(f.Get("vat_active"))
	vr.Active = &active
	if _, ok := f["vat_rate"]; ok {
		v := validation.Violations{}
		rate := parseNumber("vat_rate", f.Get("vat_rate"), v)
		if err := asValidationError(v); err != nil {
			return err
		}
		vr.Rate = &rate
	}
	return nil
}

type infoRequest struct {
	Name          string `json:"name"`
	IssuerName    string `json:"issuer_name"`
	IssuerAddress string `json:"issuer_address"`
	ClientName    string `json:"client_name"`
	ClientAddress string `json:"client_address"`
	InvoiceDate   string `json:"invoice_date"`
	DueDate       string `json:"due_date"`
}

func (i *infoRequest) fromForm(f url.Values) error {
	i.Name = f.Get("name")
	i.IssuerName = f.Get("issuer_name")
	i.IssuerAddress = f.Get("issuer_address")
	i.ClientName = f.Get("client_name")
	i.ClientAddress = f.Get("client_address")
	i.InvoiceDate = f.Get("invoice_date")
	i.DueDate = f.Get("due_date")
	return nil
}

func (i infoRequest) input() (services.InfoInput, error) {
	v := validation.Violations{}
	in := services.InfoInput{
		Name:          i.Name,
		IssuerName:    strings.TrimSpace(i.IssuerName),
		IssuerAddress: strings.TrimSpace(i.IssuerAddress),
		ClientName:    strings.TrimSpace(i.ClientName),
		ClientAddress: strings.TrimSpace(i.ClientAddress),
		InvoiceDate:   parseDate("invoice_date", i.InvoiceDate, v),
		DueDate:       parseDate("due_date", i.DueDate, v),
	}
	return in, asValidationError(v)
}

type lineRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

func (l *lineRequest) fromForm(f url.Values) error {
	v := validation.Violations{}
	l.Description = strings.TrimSpace(f.Get("description"))
	l.Quantity = parseNumber("quantity", f.Get("quantity"), v)
	l.UnitPrice = parseNumber("unit_price", f.Get("unit_price"), v)
	return asValidationError(v)
}

func (l lineRequest) input() services.LineInput {
	return services.LineInput{Description: l.Description, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
}

type deleteRequest struct {
	Confirm bool `json:"confirm"`
}

func (d *deleteRequest) fromForm(f url.Values) error {
	d.Confirm = truthy(f.Get("confirm"))
	return nil
}

func lineIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, &services.ValidationError{Violations: validation.Violations{"index": "invalid"}}
	}
	return i, nil
}
