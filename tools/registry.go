package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Registry holds the available tools keyed by name and dispatches execution.
// Registration order is preserved so the model always sees a stable tool
// list.
//
// Source state accumulated by registered tools is scoped to one query; it is
// not keyed per caller, so concurrent queries must use separate Registry and
// tool instances.
type Registry struct {
	byName map[string]Tool
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register stores tool under its declared name. Re-registering a name
// replaces the tool but keeps its original position in Definitions.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = t
}

// Definitions returns the model-facing definitions of all registered tools
// in registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name]
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

// Execute dispatches to the named tool. An unknown name yields descriptive
// result text rather than an error, so the model can recover by picking a
// different tool. Errors from the tool itself propagate to the caller.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := r.byName[name]
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name), nil
	}
	return t.Execute(ctx, input)
}

// LastSources concatenates the sources recorded by all registered tools, in
// registration order.
func (r *Registry) LastSources() []Source {
	var out []Source
	for _, name := range r.order {
		if st, ok := r.byName[name].(SourceTracker); ok {
			out = append(out, st.LastSources()...)
		}
	}
	return out
}

// ResetSources clears recorded sources on every registered tool. Must be
// called after consuming LastSources so stale attribution never leaks into
// the next query.
func (r *Registry) ResetSources() {
	for _, name := range r.order {
		if st, ok := r.byName[name].(SourceTracker); ok {
			st.ResetSources()
		}
	}
}
