package workflow

import (
	"context"
	"maps"
	"sort"
	"time"

	"github.com/BaSui01/fluxgraph/call"
	"github.com/BaSui01/fluxgraph/types"
)

// Binding declares where one input of a node gets its value: either a
// fixed literal or an output key produced by an upstream node.
type Binding struct {
	value any
	node  string
	key   string
	isRef bool
}

// Literal binds an input to a fixed value.
func Literal(v any) Binding {
	return Binding{value: v}
}

// FromOutput binds an input to the output key of another node. The
// referenced node becomes an implicit dependency of the binding's owner.
func FromOutput(node, key string) Binding {
	return Binding{node: node, key: key, isRef: true}
}

// IsRef reports whether the binding references an upstream output.
func (b Binding) IsRef() bool { return b.isRef }

// Source returns the referenced node and output key. Both are empty for
// literal bindings.
func (b Binding) Source() (node, key string) { return b.node, b.key }

// Value returns the literal value. It is nil for reference bindings.
func (b Binding) Value() any { return b.value }

// Node wraps a single agent for use inside a Graph. It carries the
// agent's input bindings, explicit ordering dependencies and an optional
// per-node retry policy. A node holds the output of its latest execution;
// the output is written exactly once per run by the graph and is
// read-only for everyone else.
type Node struct {
	name         string
	agent        types.Agent
	agentName    string
	bindings     map[string]Binding
	extraDeps    []string
	wrapper      *call.Wrapper
	fallback     call.Func
	fallbackName string

	output      map[string]any
	outputReady bool
}

type nodeConfig struct {
	bindings     map[string]Binding
	extraDeps    []string
	retry        *retryPolicy
	fallback     call.Func
	agentName    string
	fallbackName string
}

type retryPolicy struct {
	maxRetries int
	backoff    time.Duration
}

// NodeOption customizes a node at construction time.
type NodeOption func(*nodeConfig)

// WithBinding binds one input of the node.
func WithBinding(input string, b Binding) NodeOption {
	return func(c *nodeConfig) {
		if c.bindings == nil {
			c.bindings = make(map[string]Binding)
		}
		c.bindings[input] = b
	}
}

// WithBindings binds several inputs at once.
func WithBindings(bindings map[string]Binding) NodeOption {
	return func(c *nodeConfig) {
		if c.bindings == nil {
			c.bindings = make(map[string]Binding, len(bindings))
		}
		for input, b := range bindings {
			c.bindings[input] = b
		}
	}
}

// WithDependencies declares ordering-only dependencies on other nodes.
// They complement the implicit dependencies derived from bindings.
func WithDependencies(names ...string) NodeOption {
	return func(c *nodeConfig) {
		c.extraDeps = append(c.extraDeps, names...)
	}
}

// WithRetry sets a per-node retry policy overriding the graph default.
// maxRetries is the number of retries after the first attempt; backoff
// is the fixed delay between attempts.
func WithRetry(maxRetries int, backoff time.Duration) NodeOption {
	return func(c *nodeConfig) {
		c.retry = &retryPolicy{maxRetries: maxRetries, backoff: backoff}
	}
}

// WithFallback sets a fallback invoked with the node's resolved inputs
// after all attempts are exhausted.
func WithFallback(fn call.Func) NodeOption {
	return func(c *nodeConfig) {
		c.fallback = fn
	}
}

// WithAgentFallback uses another agent as the node's fallback.
func WithAgentFallback(a types.Agent) NodeOption {
	return func(c *nodeConfig) {
		if a != nil {
			c.fallback = a.Execute
		}
	}
}

func withAgentName(name string) NodeOption {
	return func(c *nodeConfig) {
		c.agentName = name
	}
}

func withFallbackName(name string) NodeOption {
	return func(c *nodeConfig) {
		c.fallbackName = name
	}
}

// NewNode creates a workflow node for the given agent. Configuration
// errors (empty name, nil agent, malformed bindings, negative retry
// parameters) surface immediately rather than at execution time.
func NewNode(name string, agent types.Agent, opts ...NodeOption) (*Node, error) {
	if name == "" {
		return nil, types.NewError(types.ErrInvalidConfiguration, "node name must not be empty")
	}
	if agent == nil {
		return nil, types.Errorf(types.ErrInvalidConfiguration, "node %q requires a non-nil agent", name)
	}

	cfg := &nodeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	for input, b := range cfg.bindings {
		if input == "" {
			return nil, types.Errorf(types.ErrInvalidConfiguration, "node %q has a binding with an empty input name", name)
		}
		if b.isRef && (b.node == "" || b.key == "") {
			return nil, types.Errorf(types.ErrInvalidConfiguration,
				"input %q of node %q references an output but node or key is empty", input, name)
		}
	}
	for _, dep := range cfg.extraDeps {
		if dep == "" {
			return nil, types.Errorf(types.ErrInvalidConfiguration, "node %q declares an empty dependency name", name)
		}
	}

	n := &Node{
		name:         name,
		agent:        agent,
		agentName:    cfg.agentName,
		bindings:     cfg.bindings,
		extraDeps:    cfg.extraDeps,
		fallback:     cfg.fallback,
		fallbackName: cfg.fallbackName,
	}
	if cfg.retry != nil {
		w, err := call.New(cfg.retry.maxRetries, cfg.retry.backoff)
		if err != nil {
			return nil, types.Errorf(types.ErrInvalidConfiguration, "invalid retry policy for node %q", name).WithCause(err)
		}
		n.wrapper = w
	}
	return n, nil
}

// Name returns the node's unique name within its graph.
func (n *Node) Name() string { return n.name }

// Agent returns the wrapped agent.
func (n *Node) Agent() types.Agent { return n.agent }

// Bindings returns a copy of the node's input bindings.
func (n *Node) Bindings() map[string]Binding {
	return maps.Clone(n.bindings)
}

// Wrapper returns the node's own call wrapper, or nil when the node
// relies on the graph default.
func (n *Node) Wrapper() *call.Wrapper { return n.wrapper }

// Fallback returns the node's fallback function, if any.
func (n *Node) Fallback() call.Func { return n.fallback }

// Dependencies returns the deduplicated union of nodes referenced by
// bindings and nodes declared via WithDependencies, sorted by name. It
// inspects only the node's own declaration and never touches the graph.
func (n *Node) Dependencies() []string {
	seen := make(map[string]struct{}, len(n.bindings)+len(n.extraDeps))
	for _, b := range n.bindings {
		if b.isRef {
			seen[b.node] = struct{}{}
		}
	}
	for _, dep := range n.extraDeps {
		seen[dep] = struct{}{}
	}
	deps := make([]string, 0, len(seen))
	for dep := range seen {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// Run executes the wrapped agent exactly once with the given resolved
// inputs. Retries and fallbacks are the caller's concern, not the
// node's.
func (n *Node) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return n.agent.Execute(ctx, inputs)
}

// Output returns a copy of the node's output from the latest run. It
// fails with OUTPUT_NOT_READY until the graph has recorded a successful
// execution.
func (n *Node) Output() (map[string]any, error) {
	if !n.outputReady {
		return nil, types.Errorf(types.ErrOutputNotReady, "output of node %q is not available yet", n.name).WithNode(n.name)
	}
	return maps.Clone(n.output), nil
}

// setOutput records the node's output for the current run. The graph
// calls it at most once per run, after a successful execution.
func (n *Node) setOutput(out map[string]any) {
	n.output = maps.Clone(out)
	n.outputReady = true
}

// resetOutput clears any output left over from a previous run.
func (n *Node) resetOutput() {
	n.output = nil
	n.outputReady = false
}
