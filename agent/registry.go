package agent

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/fluxgraph/types"
)

// Registry is a name-keyed lookup of agents. Registration is explicit
// and duplicate-free: a name maps to exactly one agent until it is
// unregistered.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]types.Agent
	logger *zap.Logger
}

// NewRegistry creates an empty agent registry. A nil logger disables
// logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		agents: make(map[string]types.Agent),
		logger: logger.With(zap.String("component", "agent_registry")),
	}
}

// Register adds an agent under the given name. It fails with
// ALREADY_REGISTERED when the name is taken.
func (r *Registry) Register(name string, a types.Agent) error {
	if name == "" {
		return types.NewError(types.ErrInvalidConfiguration, "agent name must not be empty")
	}
	if a == nil {
		return types.Errorf(types.ErrInvalidConfiguration, "agent %q must not be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[name]; exists {
		return types.Errorf(types.ErrAlreadyRegistered, "agent %q already registered", name)
	}
	r.agents[name] = a
	r.logger.Info("agent registered", zap.String("name", name))
	return nil
}

// RegisterFunc adds a plain function as an agent.
func (r *Registry) RegisterFunc(name string, fn Func) error {
	return r.Register(name, fn)
}

// MustRegister is Register for wiring code where a failure is a
// programming error. It panics instead of returning an error.
func (r *Registry) MustRegister(name string, a types.Agent) {
	if err := r.Register(name, a); err != nil {
		panic(err)
	}
}

// Get returns the agent registered under the given name. It fails with
// NOT_REGISTERED for unknown names.
func (r *Registry) Get(name string) (types.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[name]
	if !ok {
		return nil, types.Errorf(types.ErrNotRegistered, "agent %q not registered", name)
	}
	return a, nil
}

// Has reports whether a name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[name]
	return ok
}

// Unregister removes an agent and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[name]; !ok {
		return false
	}
	delete(r.agents, name)
	r.logger.Info("agent unregistered", zap.String("name", name))
	return true
}

// Clear removes every registered agent. Tests use it to tear a shared
// registry down between cases.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[string]types.Agent)
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the sorted names within one dot-separated group. An
// empty group returns every name.
func (r *Registry) List(group string) []string {
	if group == "" {
		return r.Names()
	}
	prefix := group + "."

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// GroupTree buckets registered names by the segment before the first
// dot. Names without a dot land under the empty group.
func (r *Registry) GroupTree() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tree := make(map[string][]string)
	for name := range r.agents {
		group, _, found := strings.Cut(name, ".")
		if !found {
			group = ""
		}
		tree[group] = append(tree[group], name)
	}
	for group := range tree {
		sort.Strings(tree[group])
	}
	return tree
}
