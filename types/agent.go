package types

import "context"

// =============================================================================
// Minimal Agent Execution Interfaces
// =============================================================================
// These interfaces define the smallest common contract shared by everything
// a workflow node can invoke (registered agents, inline functions, tool
// adapters). The types package is the lowest-level package with no internal
// dependencies, so placing them here avoids circular imports.
// =============================================================================

// Agent is the minimal unit-of-work contract. Implementations are typically
// backed by a call to a language model or a deterministic function.
//
// Execute receives resolved inputs keyed by formal input name and returns
// outputs keyed by output name. Implementations own their timeouts; the
// context carries cancellation from the caller.
type Agent interface {
	Execute(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// Named is an optional interface for agents that have a display name.
// Use a type assertion to check if an Agent also implements Named:
//
//	if named, ok := a.(types.Named); ok {
//	    fmt.Println(named.Name())
//	}
type Named interface {
	// Name returns the agent's human-readable display name.
	Name() string
}
