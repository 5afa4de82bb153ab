package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/diewo77/invoice-desk/internal/store"
	"github.com/diewo77/invoice-desk/validation"
)

var (
	// ErrNotFound covers both missing invoices and invoices owned by someone else.
	ErrNotFound = store.ErrNotFound

	ErrUnauthenticated = errors.New("no signed-in user")
	ErrSaveInProgress  = errors.New("a save is already in progress")
	ErrNothingToSave   = errors.New("no unsaved changes")
	ErrNotConfirmed    = errors.New("deletion not confirmed")
	ErrEditorClosed    = errors.New("invoice editor is closed")
)

// ValidationError rejects a command before anything is mutated or stored.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, code := range e.Violations {
		fields = append(fields, f+"="+code)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func invalid(field, code string) *ValidationError {
	return &ValidationError{Violations: validation.Violations{field: code}}
}

// PersistenceError wraps a store failure. The editor state is unchanged when
// one is returned, so the operation can be retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s invoice: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// ExportError wraps a PDF rendering or file write failure.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string { return "export invoice: " + e.Err.Error() }
func (e *ExportError) Unwrap() error { return e.Err }
