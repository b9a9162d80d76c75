package agent

import (
	"context"

	"github.com/BaSui01/fluxgraph/types"
)

// Func adapts a plain function to the types.Agent interface.
type Func func(ctx context.Context, inputs map[string]any) (map[string]any, error)

// Execute calls the function itself.
func (f Func) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return f(ctx, inputs)
}

type namedFunc struct {
	name string
	fn   Func
}

// NamedFunc wraps a function as an agent that also knows its own name,
// satisfying types.Named. Workflow definitions exported from graphs
// built with named agents keep their agent references intact.
func NamedFunc(name string, fn Func) types.Agent {
	return &namedFunc{name: name, fn: fn}
}

func (a *namedFunc) Name() string { return a.name }

func (a *namedFunc) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return a.fn(ctx, inputs)
}
