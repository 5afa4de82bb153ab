package policy

import (
	"context"
	"strings"

	"github.com/diewo77/invoice-desk/gate"
)

// ResourceInvoice is the gate resource type for invoices.
const ResourceInvoice = "invoice"

// Ownable is implemented by resources that belong to a single email identity.
type Ownable interface {
	GetOwnerEmail() string
}

// OwnershipPolicy allows a subject to act only on resources it owns.
// Emails are compared case-insensitively.
type OwnershipPolicy struct{}

// NewOwnershipPolicy creates a new ownership policy.
func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can reports whether email owns resource.
// List and create carry no resource and are allowed for any signed-in subject;
// resources that do not implement Ownable are denied.
func (p *OwnershipPolicy) Can(_ context.Context, email string, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	owner := ownable.GetOwnerEmail()
	return owner != "" && strings.EqualFold(owner, email)
}

// NewInvoiceGate returns a gate with the ownership policy registered for invoices.
func NewInvoiceGate() *gate.Gate[string] {
	g := gate.NewGate[string]()
	g.Register(ResourceInvoice, NewOwnershipPolicy())
	return g
}
