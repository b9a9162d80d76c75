package workflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/fluxgraph/agent"
	"github.com/BaSui01/fluxgraph/types"
)

// Definition is the declarative form of a workflow, suitable for YAML
// or JSON files. BuildGraph turns a definition plus an agent registry
// into an executable Graph; Graph.Definition goes the other way.
type Definition struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Nodes       []NodeSpec `yaml:"nodes" json:"nodes"`
}

// NodeSpec declares one node of a workflow definition. Input values
// that consist entirely of a "${Node.key}" placeholder become output
// bindings; every other value is taken literally.
type NodeSpec struct {
	Name      string         `yaml:"name" json:"name"`
	Agent     string         `yaml:"agent" json:"agent"`
	Inputs    map[string]any `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	DependsOn []string       `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Retry     *RetrySpec     `yaml:"retry,omitempty" json:"retry,omitempty"`
	Fallback  string         `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// RetrySpec is a per-node retry policy in definition form. Backoff is
// given in milliseconds to keep the wire format free of duration
// strings.
type RetrySpec struct {
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
	BackoffMs  int `yaml:"backoff_ms,omitempty" json:"backoff_ms,omitempty"`
}

// refPattern matches input values that reference an upstream output,
// e.g. "${Fetch.value}".
var refPattern = regexp.MustCompile(`^\$\{\s*([^}]+?)\s*\}$`)

// parseRef splits a "${Node.key}" placeholder into its node and output
// key. It reports false for anything that is not a complete placeholder.
func parseRef(s string) (node, key string, ok bool) {
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	node, key, found := strings.Cut(m[1], ".")
	if !found || node == "" || key == "" {
		return "", "", false
	}
	return node, key, true
}

// FromYAML parses a workflow definition from YAML and validates it.
func FromYAML(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "failed to parse workflow definition YAML").WithCause(err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// FromJSON parses a workflow definition from JSON and validates it.
func FromJSON(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "failed to parse workflow definition JSON").WithCause(err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadFile reads a definition file, picking the format by extension:
// .json is parsed as JSON, everything else as YAML.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Errorf(types.ErrInvalidConfiguration, "failed to read workflow definition %q", path).WithCause(err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FromJSON(data)
	}
	return FromYAML(data)
}

// ToYAML renders the definition as YAML.
func (d *Definition) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "failed to marshal workflow definition to YAML").WithCause(err)
	}
	return data, nil
}

// ToJSON renders the definition as indented JSON.
func (d *Definition) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "failed to marshal workflow definition to JSON").WithCause(err)
	}
	return data, nil
}

// SaveFile writes the definition to a file, picking the format by
// extension the same way LoadFile does.
func (d *Definition) SaveFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = d.ToJSON()
	} else {
		data, err = d.ToYAML()
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the definition's static shape: a workflow name, at
// least one node, unique node names, an agent per node, known
// depends_on targets and non-negative retry parameters. Cycles and
// placeholder targets are checked later by the graph itself.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return types.NewError(types.ErrInvalidConfiguration, "workflow definition requires a name")
	}
	if len(d.Nodes) == 0 {
		return types.Errorf(types.ErrInvalidConfiguration, "workflow definition %q has no nodes", d.Name)
	}

	seen := make(map[string]struct{}, len(d.Nodes))
	for i := range d.Nodes {
		spec := &d.Nodes[i]
		if spec.Name == "" {
			return types.Errorf(types.ErrInvalidConfiguration, "workflow definition %q has a node without a name", d.Name)
		}
		if _, dup := seen[spec.Name]; dup {
			return types.Errorf(types.ErrDuplicateNode, "node %q appears twice in workflow definition %q", spec.Name, d.Name).WithNode(spec.Name)
		}
		seen[spec.Name] = struct{}{}
		if spec.Agent == "" {
			return types.Errorf(types.ErrInvalidConfiguration, "node %q in workflow definition %q names no agent", spec.Name, d.Name).WithNode(spec.Name)
		}
		if spec.Retry != nil && (spec.Retry.MaxRetries < 0 || spec.Retry.BackoffMs < 0) {
			return types.Errorf(types.ErrInvalidConfiguration, "node %q in workflow definition %q has negative retry parameters", spec.Name, d.Name).WithNode(spec.Name)
		}
	}
	for i := range d.Nodes {
		spec := &d.Nodes[i]
		for _, dep := range spec.DependsOn {
			if _, ok := seen[dep]; !ok {
				return types.Errorf(types.ErrMissingDependency, "node %q depends on unknown node %q in workflow definition %q", spec.Name, dep, d.Name).WithNode(spec.Name)
			}
		}
	}
	return nil
}

// BuildGraph turns a definition into an executable graph, resolving
// agent and fallback names through the registry and "${Node.key}"
// placeholders into output bindings. The graph is validated before it
// is returned.
func BuildGraph(def *Definition, agents *agent.Registry, opts ...GraphOption) (*Graph, error) {
	if def == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "workflow definition must not be nil")
	}
	if agents == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "agent registry must not be nil")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	g, err := NewGraph(def.Name, opts...)
	if err != nil {
		return nil, err
	}
	for i := range def.Nodes {
		spec := &def.Nodes[i]
		impl, err := agents.Get(spec.Agent)
		if err != nil {
			return nil, err
		}

		nodeOpts := []NodeOption{withAgentName(spec.Agent)}
		for input, value := range spec.Inputs {
			if s, isString := value.(string); isString {
				if node, key, ok := parseRef(s); ok {
					nodeOpts = append(nodeOpts, WithBinding(input, FromOutput(node, key)))
					continue
				}
			}
			nodeOpts = append(nodeOpts, WithBinding(input, Literal(value)))
		}
		if len(spec.DependsOn) > 0 {
			nodeOpts = append(nodeOpts, WithDependencies(spec.DependsOn...))
		}
		if spec.Retry != nil {
			nodeOpts = append(nodeOpts, WithRetry(spec.Retry.MaxRetries, time.Duration(spec.Retry.BackoffMs)*time.Millisecond))
		}
		if spec.Fallback != "" {
			fb, err := agents.Get(spec.Fallback)
			if err != nil {
				return nil, err
			}
			nodeOpts = append(nodeOpts, WithAgentFallback(fb), withFallbackName(spec.Fallback))
		}

		if err := g.Add(spec.Name, impl, nodeOpts...); err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Definition exports the graph back into declarative form. Agent names
// are taken from the definition the graph was built from, falling back
// to the agent's own Name method when it has one. Fallbacks installed
// as plain functions cannot be named and are omitted.
func (g *Graph) Definition() *Definition {
	def := &Definition{
		Name:  g.name,
		Nodes: make([]NodeSpec, 0, len(g.order)),
	}
	for _, name := range g.order {
		node := g.nodes[name]
		spec := NodeSpec{
			Name:     name,
			Agent:    node.agentName,
			Fallback: node.fallbackName,
		}
		if spec.Agent == "" {
			if named, ok := node.agent.(types.Named); ok {
				spec.Agent = named.Name()
			}
		}
		if len(node.bindings) > 0 {
			spec.Inputs = make(map[string]any, len(node.bindings))
			for input, b := range node.bindings {
				if b.isRef {
					spec.Inputs[input] = "${" + b.node + "." + b.key + "}"
				} else {
					spec.Inputs[input] = b.value
				}
			}
		}
		if len(node.extraDeps) > 0 {
			spec.DependsOn = append(spec.DependsOn, node.extraDeps...)
		}
		if node.wrapper != nil {
			spec.Retry = &RetrySpec{
				MaxRetries: node.wrapper.MaxRetries(),
				BackoffMs:  int(node.wrapper.Backoff().Milliseconds()),
			}
		}
		def.Nodes = append(def.Nodes, spec)
	}
	return def
}
