package models

// IsDirty reports whether current differs from the last persisted snapshot.
// Comparison is by value over every editable field; line order is significant.
// Storage metadata (ids, positions, timestamps) does not count as a change.
func IsDirty(current, snapshot *Invoice) bool {
	if current == nil || snapshot == nil {
		return current != snapshot
	}
	return !sameContent(current, snapshot)
}

func sameContent(a, b *Invoice) bool {
	if a.ID != b.ID ||
		a.OwnerEmail != b.OwnerEmail ||
		a.Name != b.Name ||
		a.IssuerName != b.IssuerName ||
		a.IssuerAddress != b.IssuerAddress ||
		a.ClientName != b.ClientName ||
		a.ClientAddress != b.ClientAddress ||
		a.Status != b.Status ||
		a.VATActive != b.VATActive ||
		a.VATRate != b.VATRate {
		return false
	}
	if !a.InvoiceDate.Equal(b.InvoiceDate) || !a.DueDate.Equal(b.DueDate) {
		return false
	}
	if len(a.Lines) != len(b.Lines) {
		return false
	}
	for i := range a.Lines {
		la, lb := a.Lines[i], b.Lines[i]
		if la.Description != lb.Description || la.Quantity != lb.Quantity || la.UnitPrice != lb.UnitPrice {
			return false
		}
	}
	return true
}
