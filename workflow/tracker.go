package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/fluxgraph/types"
)

// NodeStatus is the lifecycle state of a node within one execution run.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusSucceeded NodeStatus = "succeeded"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// Terminal reports whether the status admits no further transitions.
func (s NodeStatus) Terminal() bool {
	switch s {
	case NodeStatusSucceeded, NodeStatusFailed, NodeStatusSkipped:
		return true
	}
	return false
}

// NodeRecord is the tracked state of one node: its status plus start and
// end timestamps and, for failed nodes, the causing error. Skipped nodes
// carry an end timestamp but no start timestamp.
type NodeRecord struct {
	Status    NodeStatus
	StartedAt time.Time
	EndedAt   time.Time
	Err       error
}

// Progress summarizes a run: how many nodes reached a terminal state out
// of the total, and how long the run has been going.
type Progress struct {
	Total      int
	Completed  int
	Percentage float64
	Elapsed    time.Duration
}

// Tracker follows the per-node state machine of a single execution run:
//
//	pending -> running -> succeeded | failed
//	pending -> skipped
//
// Every other transition is rejected with INVALID_TRANSITION; in
// particular terminal states can never be left. The graph is the only
// writer during execution; external observers read concurrent-safe
// snapshots.
type Tracker struct {
	mu        sync.RWMutex
	runID     string
	workflow  string
	startedAt time.Time
	endedAt   time.Time
	records   map[string]*NodeRecord
}

// NewTracker creates a tracker for one run over the given nodes, all of
// them pending. Each tracker gets a fresh run ID.
func NewTracker(workflow string, nodes []string) *Tracker {
	records := make(map[string]*NodeRecord, len(nodes))
	for _, name := range nodes {
		records[name] = &NodeRecord{Status: NodeStatusPending}
	}
	return &Tracker{
		runID:     uuid.NewString(),
		workflow:  workflow,
		startedAt: time.Now(),
		records:   records,
	}
}

// RunID returns the unique identifier of this run.
func (t *Tracker) RunID() string { return t.runID }

// Workflow returns the name of the workflow being tracked.
func (t *Tracker) Workflow() string { return t.workflow }

// StartedAt returns the time the tracker was created.
func (t *Tracker) StartedAt() time.Time { return t.startedAt }

// MarkStarted moves a pending node to running.
func (t *Tracker) MarkStarted(name string) error {
	return t.transition(name, NodeStatusPending, NodeStatusRunning, nil)
}

// MarkSucceeded moves a running node to succeeded.
func (t *Tracker) MarkSucceeded(name string) error {
	return t.transition(name, NodeStatusRunning, NodeStatusSucceeded, nil)
}

// MarkFailed moves a running node to failed, recording the cause.
func (t *Tracker) MarkFailed(name string, cause error) error {
	return t.transition(name, NodeStatusRunning, NodeStatusFailed, cause)
}

// MarkSkipped moves a pending node directly to skipped.
func (t *Tracker) MarkSkipped(name string) error {
	return t.transition(name, NodeStatusPending, NodeStatusSkipped, nil)
}

func (t *Tracker) transition(name string, from, to NodeStatus, cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[name]
	if !ok {
		return types.Errorf(types.ErrInvalidTransition, "unknown node %q in run %s", name, t.runID).WithNode(name)
	}
	if rec.Status != from {
		return types.Errorf(types.ErrInvalidTransition,
			"node %q cannot move from %s to %s", name, rec.Status, to).WithNode(name)
	}

	now := time.Now()
	rec.Status = to
	switch to {
	case NodeStatusRunning:
		rec.StartedAt = now
	case NodeStatusSucceeded, NodeStatusFailed, NodeStatusSkipped:
		rec.EndedAt = now
	}
	rec.Err = cause
	return nil
}

// Status returns the current status of one node.
func (t *Tracker) Status(name string) (NodeStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[name]
	if !ok {
		return "", false
	}
	return rec.Status, true
}

// Snapshot returns a detached copy of all node records. Later
// transitions never show through an already-taken snapshot.
func (t *Tracker) Snapshot() map[string]NodeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := make(map[string]NodeRecord, len(t.records))
	for name, rec := range t.records {
		snap[name] = *rec
	}
	return snap
}

// Progress reports how far the run has come.
func (t *Tracker) Progress() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	completed := 0
	for _, rec := range t.records {
		if rec.Status.Terminal() {
			completed++
		}
	}
	p := Progress{Total: len(t.records), Completed: completed}
	if p.Total > 0 {
		p.Percentage = float64(completed) / float64(p.Total) * 100
	}
	end := t.endedAt
	if end.IsZero() {
		end = time.Now()
	}
	p.Elapsed = end.Sub(t.startedAt)
	return p
}

// Done reports whether every node reached a terminal state.
func (t *Tracker) Done() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, rec := range t.records {
		if !rec.Status.Terminal() {
			return false
		}
	}
	return true
}

// finish stamps the end of the run. Progress reported afterwards stops
// accruing elapsed time.
func (t *Tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endedAt = time.Now()
}

// EndedAt returns the time the run finished, or the zero time while it
// is still going.
func (t *Tracker) EndedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.endedAt
}
