package workflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun(id, workflow string, status RunStatus) RunRecord {
	started := time.Now().Add(-time.Second)
	return RunRecord{
		RunID:     id,
		Workflow:  workflow,
		Status:    status,
		StartedAt: started,
		EndedAt:   started.Add(time.Second),
		Nodes: map[string]NodeRecord{
			"n": {Status: NodeStatusSucceeded},
		},
		Succeeded: 1,
	}
}

func TestRunStore_SaveAndGet(t *testing.T) {
	store := NewRunStore(0)
	store.Save(sampleRun("run-1", "alpha", RunSucceeded))
	store.Save(sampleRun("run-2", "alpha", RunFailed))
	store.Save(sampleRun("run-3", "beta", RunSucceeded))

	assert.Equal(t, 3, store.Len())

	rec, ok := store.Get("run-2")
	require.True(t, ok)
	assert.Equal(t, "alpha", rec.Workflow)
	assert.Equal(t, RunFailed, rec.Status)
	assert.Equal(t, time.Second, rec.Duration())

	_, ok = store.Get("run-99")
	assert.False(t, ok)
}

func TestRunStore_Lists(t *testing.T) {
	store := NewRunStore(0)
	store.Save(sampleRun("run-1", "alpha", RunSucceeded))
	store.Save(sampleRun("run-2", "alpha", RunFailed))
	store.Save(sampleRun("run-3", "beta", RunSucceeded))

	ids := func(recs []RunRecord) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.RunID
		}
		return out
	}

	assert.Equal(t, []string{"run-1", "run-2", "run-3"}, ids(store.List()), "oldest first")
	assert.Equal(t, []string{"run-1", "run-2"}, ids(store.ListByWorkflow("alpha")))
	assert.Equal(t, []string{"run-3"}, ids(store.ListByWorkflow("beta")))
	assert.Empty(t, store.ListByWorkflow("gamma"))
	assert.Equal(t, []string{"run-2"}, ids(store.ListByStatus(RunFailed)))
}

func TestRunStore_EvictsOldestBeyondLimit(t *testing.T) {
	store := NewRunStore(2)
	for i := 1; i <= 4; i++ {
		store.Save(sampleRun(fmt.Sprintf("run-%d", i), "alpha", RunSucceeded))
	}

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get("run-1")
	assert.False(t, ok)
	_, ok = store.Get("run-2")
	assert.False(t, ok)
	_, ok = store.Get("run-3")
	assert.True(t, ok)
	_, ok = store.Get("run-4")
	assert.True(t, ok)
}

func TestRunStore_SaveSameIDUpdatesInPlace(t *testing.T) {
	store := NewRunStore(0)
	store.Save(sampleRun("run-1", "alpha", RunSucceeded))
	store.Save(sampleRun("run-1", "alpha", RunFailed))

	assert.Equal(t, 1, store.Len())
	rec, ok := store.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, RunFailed, rec.Status)
}

func TestRunStore_GetReturnsCopy(t *testing.T) {
	store := NewRunStore(0)
	store.Save(sampleRun("run-1", "alpha", RunSucceeded))

	rec, ok := store.Get("run-1")
	require.True(t, ok)
	rec.Workflow = "tampered"

	again, ok := store.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, "alpha", again.Workflow)
}
