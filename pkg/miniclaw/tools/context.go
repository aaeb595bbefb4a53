package tools

import "context"

// Invocation identifies the conversation a tool call belongs to. Tools
// that reply or store per-chat state read it from the context.
type Invocation struct {
	Channel string
	ChatID  string
}

type invocationKey struct{}

// WithInvocation attaches the invocation to a context.
func WithInvocation(ctx context.Context, inv Invocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFrom extracts the invocation, ok=false when the call did not
// originate from a conversation (e.g. tests).
func InvocationFrom(ctx context.Context) (Invocation, bool) {
	inv, ok := ctx.Value(invocationKey{}).(Invocation)
	return inv, ok
}
