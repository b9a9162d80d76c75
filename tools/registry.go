package tools

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/fluxgraph/types"
)

// Func is the signature every tool implements. Tools share the
// workflow's data model: string-keyed argument and result maps.
type Func func(ctx context.Context, args map[string]any) (map[string]any, error)

// Tool bundles a callable with its name, description and parameter
// schema. The schema is checked on every invocation before the
// function runs.
type Tool struct {
	Name        string
	Description string
	Params      Schema
	Fn          Func
}

// Registry is a name-keyed lookup of tools with the same registration
// contract as the agent registry: names are unique, duplicates fail
// with ALREADY_REGISTERED, unknown lookups with NOT_REGISTERED.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *zap.Logger
}

// NewRegistry creates an empty tool registry. A nil logger disables
// logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger.With(zap.String("component", "tool_registry")),
	}
}

// Register adds a tool.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return types.NewError(types.ErrInvalidConfiguration, "tool name must not be empty")
	}
	if t.Fn == nil {
		return types.Errorf(types.ErrInvalidConfiguration, "tool %q has no function", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return types.Errorf(types.ErrAlreadyRegistered, "tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.logger.Info("tool registered", zap.String("name", t.Name))
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return Tool{}, types.Errorf(types.ErrNotRegistered, "tool %q not registered", name)
	}
	return t, nil
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Unregister removes a tool and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; !ok {
		return false
	}
	delete(r.tools, name)
	r.logger.Info("tool unregistered", zap.String("name", name))
	return true
}

// Clear removes every registered tool.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]Tool)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke looks a tool up, validates the arguments against its schema
// and runs it.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if err := t.Params.Validate(args); err != nil {
		return nil, types.Errorf(types.ErrInvalidConfiguration, "invalid arguments for tool %q", name).WithCause(err)
	}
	return t.Fn(ctx, args)
}
