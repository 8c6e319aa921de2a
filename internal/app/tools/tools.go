package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// ToolContext brings metadata of the call to the tool
type ToolContext struct {
	UserID    string
	SessionID string
	RequestID string
}

// Handler executes a tool with the raw JSON arguments produced by the model.
// The returned value is JSON-encoded and fed back to the model.
type Handler func(ctx context.Context, tctx ToolContext, args json.RawMessage) (any, error)

// Tool is a capability the model can invoke: a name, a JSON schema for its
// arguments, and the handler that runs it.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Spec returns the model-facing description of t.
func (t Tool) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Registry is an immutable set of tools keyed by name.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry. Duplicate or unnamed tools are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.Name == "" || t.Handler == nil {
			return nil, fmt.Errorf("tools: tool %q needs a name and a handler", t.Name)
		}
		if _, dup := r.tools[t.Name]; dup {
			return nil, fmt.Errorf("tools: duplicate tool %q", t.Name)
		}
		r.tools[t.Name] = t
	}
	return r, nil
}

// Specs lists tool specs sorted by name.
func (r *Registry) Specs() []domain.ToolSpec {
	if r == nil {
		return nil
	}
	out := make([]domain.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Spec())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tools)
}

// Call dispatches a model tool call to its handler.
func (r *Registry) Call(ctx context.Context, tctx ToolContext, call domain.ToolCall) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("tools: unknown tool %q", call.Name)
	}
	t, ok := r.tools[call.Name]
	if !ok {
		return nil, fmt.Errorf("tools: unknown tool %q", call.Name)
	}
	return t.Handler(ctx, tctx, call.Arguments)
}
