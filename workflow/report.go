package workflow

import (
	"maps"
	"sort"
	"time"
)

// NodeResult is the outcome of one node within an execution run.
type NodeResult struct {
	// Node is the node's name.
	Node string
	// Status is succeeded, failed or skipped. Running and pending never
	// appear in a finished report.
	Status NodeStatus
	// Output holds the node's outputs when Status is succeeded.
	Output map[string]any
	// Err is the terminal error when Status is failed.
	Err error
	// SkippedBy names the direct dependency whose failure or skip caused
	// this node to be skipped.
	SkippedBy string
	// Attempts counts how often the node's agent was invoked, including
	// retries. Zero when the agent never ran.
	Attempts  int
	StartedAt time.Time
	EndedAt   time.Time
}

// Duration returns how long the node executed.
func (r *NodeResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Report maps every node of a run to its result. Execute always returns
// a complete report covering all nodes, whether they succeeded, failed
// or were skipped.
type Report map[string]*NodeResult

// Output returns the output map of a succeeded node.
func (r Report) Output(node string) (map[string]any, bool) {
	res, ok := r[node]
	if !ok || res.Status != NodeStatusSucceeded {
		return nil, false
	}
	return maps.Clone(res.Output), true
}

// Succeeded returns the names of all succeeded nodes, sorted.
func (r Report) Succeeded() []string { return r.withStatus(NodeStatusSucceeded) }

// Failed returns the names of all failed nodes, sorted.
func (r Report) Failed() []string { return r.withStatus(NodeStatusFailed) }

// Skipped returns the names of all skipped nodes, sorted.
func (r Report) Skipped() []string { return r.withStatus(NodeStatusSkipped) }

// OK reports whether every node succeeded.
func (r Report) OK() bool {
	for _, res := range r {
		if res.Status != NodeStatusSucceeded {
			return false
		}
	}
	return true
}

// FirstError returns the error of the first failed node in sorted name
// order, or nil when no node failed.
func (r Report) FirstError() error {
	for _, name := range r.Failed() {
		if res := r[name]; res.Err != nil {
			return res.Err
		}
	}
	return nil
}

func (r Report) withStatus(status NodeStatus) []string {
	names := make([]string, 0, len(r))
	for name, res := range r {
		if res.Status == status {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
