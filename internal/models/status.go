package models

import (
	"fmt"
	"strconv"
	"strings"
)

// InvoiceStatus represents the status of an invoice.
// There is no workflow ordering: any status can be selected from any other.
type InvoiceStatus int

const (
	InvoiceStatusDraft InvoiceStatus = iota + 1
	InvoiceStatusPending
	InvoiceStatusPaid
	InvoiceStatusCancelled
	InvoiceStatusUnpaid
)

var statusCodes = map[InvoiceStatus]string{
	InvoiceStatusDraft:     "draft",
	InvoiceStatusPending:   "pending",
	InvoiceStatusPaid:      "paid",
	InvoiceStatusCancelled: "cancelled",
	InvoiceStatusUnpaid:    "unpaid",
}

// Statuses lists every selectable status in display order.
func Statuses() []InvoiceStatus {
	return []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusPending,
		InvoiceStatusPaid,
		InvoiceStatusCancelled,
		InvoiceStatusUnpaid,
	}
}

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	_, ok := statusCodes[s]
	return ok
}

// String returns the stable code used in URLs, JSON details and translation keys.
func (s InvoiceStatus) String() string {
	if c, ok := statusCodes[s]; ok {
		return c
	}
	return "undefined"
}

// LabelKey is the i18n key for the status label.
func (s InvoiceStatus) LabelKey() string {
	return "status." + s.String()
}

// ParseStatus accepts either the numeric value ("3") or the code ("paid").
func ParseStatus(raw string) (InvoiceStatus, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if n, err := strconv.Atoi(raw); err == nil {
		s := InvoiceStatus(n)
		if !s.Valid() {
			return 0, fmt.Errorf("unknown invoice status %d", n)
		}
		return s, nil
	}
	for s, code := range statusCodes {
		if code == raw {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown invoice status %q", raw)
}
