package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/invoice-desk/internal/export"
	"github.com/diewo77/invoice-desk/internal/identity"
	"github.com/diewo77/invoice-desk/internal/models"
)

const owner = "owner@example.com"

type serviceFixture struct {
	svc      *InvoiceService
	store    *fakeStore
	exporter *fakeExporter
	sessions *EditorSessions
	logs     *bytes.Buffer
}

func newServiceFixture(t *testing.T, who identity.Static) serviceFixture {
	t.Helper()
	f := serviceFixture{
		store:    newFakeStore(),
		exporter: &fakeExporter{},
		sessions: NewEditorSessions(time.Minute),
		logs:     &bytes.Buffer{},
	}
	f.svc = NewInvoiceService(f.store, who, f.exporter, f.sessions, zerolog.New(f.logs))
	return f
}

func TestService_RequiresIdentity(t *testing.T) {
	f := newServiceFixture(t, "")
	ctx := context.Background()

	_, err := f.svc.List(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.svc.Create(ctx, "x")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.svc.Open(ctx, "inv-1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.svc.Export(ctx, "inv-1", "fr")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestService_CreateNameLength(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"60 characters accepted", strings.Repeat("a", 60), ""},
		{"60 accented characters accepted", strings.Repeat("é", 60), ""},
		{"61 characters rejected", strings.Repeat("a", 61), "too_long"},
		{"blank rejected", "   ", "required"},
		{"surrounding spaces trimmed", "  " + strings.Repeat("b", 60) + "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, owner)
			inv, err := f.svc.Create(context.Background(), tt.input)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, strings.TrimSpace(tt.input), inv.Name)
				assert.Equal(t, owner, inv.OwnerEmail)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.wantErr, verr.Violations["name"])
			assert.Empty(t, f.store.invoices, "nothing stored")
		})
	}
}

func TestService_ListOnlyOwnInvoicesWithTotals(t *testing.T) {
	f := newServiceFixture(t, owner)
	mine := f.store.put(ownedInvoice(owner))
	f.store.put(ownedInvoice("other@example.com"))

	list, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	assert.Equal(t, "2950", list[0].Totals.TTC.String())
}

func TestService_OpenForeignInvoiceIsNotFound(t *testing.T) {
	f := newServiceFixture(t, "intruder@example.com")
	inv := f.store.put(ownedInvoice(owner))

	_, err := f.svc.Open(context.Background(), inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.sessions.Len())
}

func TestService_OpenOwnerMatchIgnoresCase(t *testing.T) {
	f := newServiceFixture(t, "Owner@Example.COM")
	inv := f.store.put(ownedInvoice(owner))

	ed, err := f.svc.Open(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, ed.ID())
}

func TestService_OpenKeepsUnsavedEdits(t *testing.T) {
	f := newServiceFixture(t, owner)
	inv := f.store.put(ownedInvoice(owner))
	ctx := context.Background()

	ed, err := f.svc.Open(ctx, inv.ID)
	require.NoError(t, err)
	_, err = ed.SetStatus(models.InvoiceStatusPaid)
	require.NoError(t, err)

	again, err := f.svc.Open(ctx, inv.ID)
	require.NoError(t, err)
	assert.Same(t, ed, again)
	assert.True(t, again.State().Dirty)

	st, err := f.svc.Save(ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, st.Dirty)
}

func TestService_OpenStoreFailure(t *testing.T) {
	f := newServiceFixture(t, owner)
	f.store.getErr = errStoreDown

	_, err := f.svc.Open(context.Background(), "inv-1")
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "load", perr.Op)
	assert.Contains(t, f.logs.String(), "load invoice failed")
}

func TestService_Delete(t *testing.T) {
	f := newServiceFixture(t, owner)
	inv := f.store.put(ownedInvoice(owner))
	ctx := context.Background()

	err := f.svc.Delete(ctx, inv.ID, false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	_, deletes := f.store.counts()
	assert.Zero(t, deletes)

	require.NoError(t, f.svc.Delete(ctx, inv.ID, true))
	_, deletes = f.store.counts()
	assert.Equal(t, 1, deletes)
	assert.Zero(t, f.sessions.Len())

	_, err = f.svc.Open(ctx, inv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DeleteForeignInvoice(t *testing.T) {
	f := newServiceFixture(t, "intruder@example.com")
	inv := f.store.put(ownedInvoice(owner))

	err := f.svc.Delete(context.Background(), inv.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)
	_, deletes := f.store.counts()
	assert.Zero(t, deletes)
}

func TestService_ExportUsesCurrentState(t *testing.T) {
	f := newServiceFixture(t, owner)
	inv := f.store.put(ownedInvoice(owner))
	ctx := context.Background()

	ed, err := f.svc.Open(ctx, inv.ID)
	require.NoError(t, err)
	_, err = ed.SetVATActive(false)
	require.NoError(t, err)

	path, err := f.svc.Export(ctx, inv.ID, "en")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/facture-Site-vitrine.pdf", path)
	assert.Equal(t, "Invoice Site vitrine", f.exporter.doc.Title)
	assert.Equal(t, "2500", f.exporter.totals.TTC.String())
}

func TestService_ExportFailure(t *testing.T) {
	f := newServiceFixture(t, owner)
	inv := f.store.put(ownedInvoice(owner))
	f.exporter.err = errors.New("disk full")

	_, err := f.svc.Export(context.Background(), inv.ID, "fr")
	var eerr *ExportError
	require.True(t, errors.As(err, &eerr))
	assert.Contains(t, f.logs.String(), "export invoice failed")
	assert.Contains(t, f.logs.String(), "disk full")
}

func TestService_ExportWritesPDF(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	inv := store.put(ownedInvoice(owner))
	svc := NewInvoiceService(store, identity.Static(owner), export.NewPDFExporter(dir), NewEditorSessions(time.Minute), zerolog.Nop())

	path, err := svc.Export(context.Background(), inv.ID, "fr")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, inv.ID, "facture-Site-vitrine.pdf"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Violations: map[string]string{"name": "too_long", "index": "out_of_range"}}
	assert.Equal(t, "validation failed: index=out_of_range, name=too_long", err.Error())
}
