package workflow

import (
	"sync"
	"time"
)

// RunStatus is the overall outcome of one execution run.
type RunStatus string

const (
	// RunSucceeded means every node succeeded.
	RunSucceeded RunStatus = "succeeded"
	// RunFailed means at least one node failed or was skipped.
	RunFailed RunStatus = "failed"
)

// RunRecord is the archived summary of one finished run.
type RunRecord struct {
	RunID     string
	Workflow  string
	Status    RunStatus
	StartedAt time.Time
	EndedAt   time.Time
	Nodes     map[string]NodeRecord
	Succeeded int
	Failed    int
	Skipped   int
}

// Duration returns the wall-clock time of the run.
func (r *RunRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// RunStore keeps finished runs in memory, newest last. When a capacity
// limit is set, the oldest runs are evicted once the limit is exceeded.
// The store is process-local; nothing is persisted anywhere.
type RunStore struct {
	mu    sync.RWMutex
	limit int
	runs  map[string]*RunRecord
	order []string
}

// NewRunStore creates a store keeping at most limit runs. A limit of
// zero or less means unbounded.
func NewRunStore(limit int) *RunStore {
	return &RunStore{
		limit: limit,
		runs:  make(map[string]*RunRecord),
	}
}

// Save archives one run record, evicting the oldest record when the
// capacity limit is exceeded.
func (s *RunStore) Save(rec RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[rec.RunID]; !exists {
		s.order = append(s.order, rec.RunID)
	}
	s.runs[rec.RunID] = &rec

	for s.limit > 0 && len(s.order) > s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
}

// Get returns the record of one run by its ID.
func (s *RunStore) Get(runID string) (RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return RunRecord{}, false
	}
	return *rec, true
}

// ListByWorkflow returns all stored runs of one workflow, oldest first.
func (s *RunStore) ListByWorkflow(workflow string) []RunRecord {
	return s.list(func(r *RunRecord) bool { return r.Workflow == workflow })
}

// ListByStatus returns all stored runs with the given status, oldest
// first.
func (s *RunStore) ListByStatus(status RunStatus) []RunRecord {
	return s.list(func(r *RunRecord) bool { return r.Status == status })
}

// List returns every stored run, oldest first.
func (s *RunStore) List() []RunRecord {
	return s.list(func(*RunRecord) bool { return true })
}

func (s *RunStore) list(keep func(*RunRecord) bool) []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunRecord, 0, len(s.order))
	for _, id := range s.order {
		if rec := s.runs[id]; keep(rec) {
			out = append(out, *rec)
		}
	}
	return out
}

// Len returns the number of stored runs.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
