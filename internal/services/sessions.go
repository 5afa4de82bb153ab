package services

import (
	"context"
	"strings"
	"time"

	"github.com/diewo77/invoice-desk/gate"
)

type sessionKey struct {
	owner string
	id    string
}

// EditorSessions keeps one editor per (owner, invoice) so unsaved edits
// survive between requests. Idle editors expire after the TTL and their
// unsaved edits are lost.
type EditorSessions struct {
	cache *gate.Cache[sessionKey, *InvoiceEditor]
}

func NewEditorSessions(ttl time.Duration) *EditorSessions {
	return &EditorSessions{cache: gate.NewCache[sessionKey, *InvoiceEditor](ttl)}
}

func key(owner, id string) sessionKey {
	return sessionKey{owner: strings.ToLower(owner), id: id}
}

// Load returns the live editor for owner and id, calling load on a miss.
// Closed editors are never handed out.
func (s *EditorSessions) Load(ctx context.Context, owner, id string, load func(context.Context) (*InvoiceEditor, error)) (*InvoiceEditor, error) {
	k := key(owner, id)
	if ed, ok := s.cache.Get(k); ok {
		if !ed.Closed() {
			return ed, nil
		}
		s.cache.Invalidate(k)
	}
	s.cache.Purge()
	return s.cache.GetOrLoad(ctx, k, load)
}

// Drop forgets the editor, discarding any unsaved edits.
func (s *EditorSessions) Drop(owner, id string) {
	s.cache.Invalidate(key(owner, id))
}

// Len reports how many editors are held.
func (s *EditorSessions) Len() int {
	return s.cache.Len()
}
