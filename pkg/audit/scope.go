package audit

import (
	"context"
	"maps"
	"sync"
)

type scopeKey struct{}

// Scope collects metadata for the audit entry of an in-flight request.
// The gRPC audit interceptor opens a scope; handlers deeper in the call
// chain annotate it instead of writing entries of their own.
type Scope struct {
	mu       sync.Mutex
	action   Action
	metadata map[string]any
}

// WithScope returns a context carrying a new Scope.
func WithScope(ctx context.Context) (context.Context, *Scope) {
	s := &Scope{metadata: make(map[string]any)}
	return context.WithValue(ctx, scopeKey{}, s), s
}

// ScopeFromContext returns the Scope carried by ctx, or nil.
func ScopeFromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// SetAction overrides the action derived from the method name.
func (s *Scope) SetAction(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.action = a
}

// Annotate adds metadata entries.
func (s *Scope) Annotate(meta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.metadata, meta)
}

// Action returns the action set by SetAction, or "".
func (s *Scope) Action() Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.action
}

// Metadata returns a copy of the collected metadata.
func (s *Scope) Metadata() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.metadata)
}

// Record attaches action and meta to the request scope in ctx. Without a
// scope it builds a standalone entry from b and logs it through the global
// logger.
func Record(ctx context.Context, b *Builder, action Action, meta map[string]any) error {
	if s := ScopeFromContext(ctx); s != nil {
		s.SetAction(action)
		s.Annotate(meta)
		return nil
	}

	b.Action(action)
	for k, v := range meta {
		b.Meta(k, v)
	}
	return Log(ctx, b.Build())
}
