package gate

import "context"

// Policy defines authorization rules for a resource type.
// For list/create the resource may be nil.
type Policy[U any] interface {
	Can(ctx context.Context, subject U, action Action, resource any) bool
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc[U any] func(ctx context.Context, subject U, action Action, resource any) bool

// Can calls f.
func (f PolicyFunc[U]) Can(ctx context.Context, subject U, action Action, resource any) bool {
	return f(ctx, subject, action, resource)
}
