package workflow

import (
	"sync"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/fluxgraph/call"
	"github.com/BaSui01/fluxgraph/types"
)

// MetricsCollector receives run and node outcomes during execution.
// The collector in internal/metrics satisfies it with Prometheus
// instruments; tests substitute their own implementations.
type MetricsCollector interface {
	RecordRun(workflow, status string, duration time.Duration)
	RecordNode(workflow, node, status string, duration time.Duration)
	RecordCallRetries(workflow, node string, retries int)
}

// Graph is a directed acyclic workflow over named nodes. Nodes are
// registered with AddNode, edges come from each node's declared
// dependencies, and Execute runs the whole graph in a deterministic
// topological order. A graph can be executed repeatedly; every run gets
// its own tracker and report.
type Graph struct {
	name      string
	nodes     map[string]*Node
	order     []string
	validated bool

	logger      *zap.Logger
	wrapper     *call.Wrapper
	collector   MetricsCollector
	tracer      oteltrace.Tracer
	store       *RunStore
	trackerMu   sync.RWMutex
	lastTracker *Tracker
}

type graphConfig struct {
	logger    *zap.Logger
	wrapper   *call.Wrapper
	retry     *retryPolicy
	collector MetricsCollector
	tracer    oteltrace.Tracer
	store     *RunStore
}

// GraphOption customizes a graph at construction time.
type GraphOption func(*graphConfig)

// WithLogger sets the logger used for execution events.
func WithLogger(logger *zap.Logger) GraphOption {
	return func(c *graphConfig) {
		c.logger = logger
	}
}

// WithCallWrapper sets the default call wrapper applied to nodes that
// carry no retry policy of their own.
func WithCallWrapper(w *call.Wrapper) GraphOption {
	return func(c *graphConfig) {
		c.wrapper = w
	}
}

// WithDefaultRetry is shorthand for WithCallWrapper with a wrapper built
// from the given parameters. It overrides WithCallWrapper.
func WithDefaultRetry(maxRetries int, backoff time.Duration) GraphOption {
	return func(c *graphConfig) {
		c.retry = &retryPolicy{maxRetries: maxRetries, backoff: backoff}
	}
}

// WithMetrics records run and node outcomes on the given collector.
func WithMetrics(collector MetricsCollector) GraphOption {
	return func(c *graphConfig) {
		c.collector = collector
	}
}

// WithTracer emits one span per run and per node on the given tracer.
func WithTracer(tracer oteltrace.Tracer) GraphOption {
	return func(c *graphConfig) {
		c.tracer = tracer
	}
}

// WithRunStore archives finished runs in the given store.
func WithRunStore(store *RunStore) GraphOption {
	return func(c *graphConfig) {
		c.store = store
	}
}

// NewGraph creates an empty workflow graph. Without WithCallWrapper or
// WithDefaultRetry, nodes run with a single attempt and no backoff.
func NewGraph(name string, opts ...GraphOption) (*Graph, error) {
	if name == "" {
		return nil, types.NewError(types.ErrInvalidConfiguration, "workflow name must not be empty")
	}

	cfg := &graphConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	wrapper := cfg.wrapper
	if cfg.retry != nil {
		w, err := call.New(cfg.retry.maxRetries, cfg.retry.backoff, call.WithLogger(logger))
		if err != nil {
			return nil, types.Errorf(types.ErrInvalidConfiguration, "invalid default retry policy for workflow %q", name).WithCause(err)
		}
		wrapper = w
	}
	if wrapper == nil {
		wrapper, _ = call.New(0, 0, call.WithLogger(logger))
	}

	return &Graph{
		name:      name,
		nodes:     make(map[string]*Node),
		logger:    logger.With(zap.String("component", "workflow"), zap.String("workflow", name)),
		wrapper:   wrapper,
		collector: cfg.collector,
		tracer:    cfg.tracer,
		store:     cfg.store,
	}, nil
}

// Name returns the workflow name.
func (g *Graph) Name() string { return g.name }

// Len returns the number of registered nodes.
func (g *Graph) Len() int { return len(g.order) }

// Nodes returns the node names in insertion order.
func (g *Graph) Nodes() []string {
	names := make([]string, len(g.order))
	copy(names, g.order)
	return names
}

// Node looks up a registered node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// AddNode registers a node. Names are unique per graph; registering a
// second node under an existing name fails with DUPLICATE_NODE and
// leaves the graph unchanged.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return types.Errorf(types.ErrInvalidConfiguration, "workflow %q cannot register a nil node", g.name)
	}
	if _, exists := g.nodes[n.name]; exists {
		return types.Errorf(types.ErrDuplicateNode, "node %q already exists in workflow %q", n.name, g.name).WithNode(n.name)
	}
	g.nodes[n.name] = n
	g.order = append(g.order, n.name)
	g.validated = false
	return nil
}

// Add builds a node from the given agent and options and registers it.
func (g *Graph) Add(name string, agent types.Agent, opts ...NodeOption) error {
	n, err := NewNode(name, agent, opts...)
	if err != nil {
		return err
	}
	return g.AddNode(n)
}

// Validate checks that every declared dependency names a registered
// node (MISSING_DEPENDENCY) and that the dependency graph contains no
// cycle (CYCLIC_DEPENDENCY). Execute validates implicitly, so calling
// Validate first is optional. The result is cached until the node set
// changes.
func (g *Graph) Validate() error {
	if g.validated {
		return nil
	}

	for _, name := range g.order {
		for _, dep := range g.nodes[name].Dependencies() {
			if _, ok := g.nodes[dep]; !ok {
				return types.Errorf(types.ErrMissingDependency,
					"node %q depends on unknown node %q", name, dep).WithNode(name)
			}
		}
	}

	visited := make(map[string]bool, len(g.order))
	inStack := make(map[string]bool, len(g.order))
	var visit func(name string) error
	visit = func(name string) error {
		visited[name] = true
		inStack[name] = true
		for _, dep := range g.nodes[name].Dependencies() {
			if inStack[dep] {
				return types.Errorf(types.ErrCyclicDependency,
					"dependency cycle detected involving node %q", dep).WithNode(dep)
			}
			if !visited[dep] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		inStack[name] = false
		return nil
	}
	for _, name := range g.order {
		if !visited[name] {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	g.validated = true
	return nil
}

// ExecutionOrder returns the order Execute would run the nodes in: a
// topological order where, at every step, the earliest-inserted ready
// node goes first. The order is fully determined by the node set, the
// edges and the insertion sequence.
func (g *Graph) ExecutionOrder() ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g.topoOrder(), nil
}

// topoOrder assumes a validated graph: every dependency resolves and no
// cycle exists, so each pass over the insertion order finds a ready
// node.
func (g *Graph) topoOrder() []string {
	order := make([]string, 0, len(g.order))
	done := make(map[string]bool, len(g.order))
	for len(order) < len(g.order) {
		for _, name := range g.order {
			if done[name] {
				continue
			}
			ready := true
			for _, dep := range g.nodes[name].Dependencies() {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				done[name] = true
				order = append(order, name)
				break
			}
		}
	}
	return order
}

// Tracker returns the tracker of the most recent Execute call, or nil
// before the first run. The tracker is safe to poll while a run is in
// flight.
func (g *Graph) Tracker() *Tracker {
	g.trackerMu.RLock()
	defer g.trackerMu.RUnlock()
	return g.lastTracker
}

func (g *Graph) setTracker(t *Tracker) {
	g.trackerMu.Lock()
	defer g.trackerMu.Unlock()
	g.lastTracker = t
}
