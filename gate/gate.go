// Package gate is a small policy-based authorization checkpoint.
// A Gate maps resource type names to policies; each Policy decides whether a
// subject may perform an action on a resource. It knows nothing about the
// invoice domain so policies can live next to the models they protect.
//
// The subject type is generic: the invoice app uses Gate[string] keyed by the
// signed-in email.
package gate

import (
	"context"
	"fmt"
	"sync"
)

// Gate is the central authorization checkpoint.
// U is the subject type; its zero value means "nobody signed in".
type Gate[U comparable] struct {
	mu       sync.RWMutex
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a resource type (e.g. "invoice"), replacing any previous one.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.mu.Lock()
	g.policies[resourceType] = p
	g.mu.Unlock()
}

// Authorize returns nil when subject may perform action on resource.
// A zero subject or a denial wraps ErrUnauthorized; an unknown resource type
// returns ErrNoPolicyDefined.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, resourceType string, resource any) error {
	var zero U
	if subject == zero {
		return fmt.Errorf("%w: no subject for %s %s", ErrUnauthorized, action, resourceType)
	}
	g.mu.RLock()
	p, ok := g.policies[resourceType]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPolicyDefined, resourceType)
	}
	if !p.Can(ctx, subject, action, resource) {
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, action, resourceType)
	}
	return nil
}
