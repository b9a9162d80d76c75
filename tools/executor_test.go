package tools

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/fluxgraph/types"
)

func batchRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Tool{
		Name: "ok",
		Fn: func(_ context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"echo": args["msg"]}, nil
		},
	}))
	require.NoError(t, reg.Register(Tool{
		Name: "boom",
		Fn: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, errors.New("boom")
		},
	}))
	return reg
}

func TestExecutor_BatchKeepsCallOrder(t *testing.T) {
	exec := NewExecutor(batchRegistry(t), 4, nil)

	results := exec.ExecuteBatch(context.Background(), []Call{
		{Tool: "ok", Args: map[string]any{"msg": "first"}},
		{Tool: "boom"},
		{Tool: "ok", Args: map[string]any{"msg": "third"}},
		{Tool: "missing"},
	})

	require.Len(t, results, 4)
	assert.Equal(t, map[string]any{"echo": "first"}, results[0].Output)
	assert.NoError(t, results[0].Err)

	assert.EqualError(t, results[1].Err, "boom")
	assert.Nil(t, results[1].Output)

	assert.Equal(t, map[string]any{"echo": "third"}, results[2].Output)

	assert.Equal(t, types.ErrNotRegistered, types.GetErrorCode(results[3].Err))
}

func TestExecutor_FailuresDoNotCancelSiblings(t *testing.T) {
	reg := NewRegistry(nil)
	var succeeded atomic.Int32
	require.NoError(t, reg.Register(Tool{
		Name: "slow-ok",
		Fn: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
			select {
			case <-time.After(10 * time.Millisecond):
				succeeded.Add(1)
				return map[string]any{}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}))
	require.NoError(t, reg.Register(Tool{
		Name: "fast-fail",
		Fn: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, errors.New("instant failure")
		},
	}))

	exec := NewExecutor(reg, 8, nil)
	results := exec.ExecuteBatch(context.Background(), []Call{
		{Tool: "fast-fail"},
		{Tool: "slow-ok"},
		{Tool: "slow-ok"},
	})

	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, int32(2), succeeded.Load())
}

func TestExecutor_ConcurrencyLimit(t *testing.T) {
	reg := NewRegistry(nil)
	var mu sync.Mutex
	current, peak := 0, 0
	require.NoError(t, reg.Register(Tool{
		Name: "count",
		Fn: func(context.Context, map[string]any) (map[string]any, error) {
			mu.Lock()
			current++
			if current > peak {
				peak = current
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			current--
			mu.Unlock()
			return map[string]any{}, nil
		},
	}))

	exec := NewExecutor(reg, 2, nil)
	calls := make([]Call, 8)
	for i := range calls {
		calls[i] = Call{Tool: "count"}
	}
	results := exec.ExecuteBatch(context.Background(), calls)

	for _, res := range results {
		assert.NoError(t, res.Err)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2, "no more than maxConcurrency calls may run at once")
	assert.Greater(t, peak, 0)
}

func TestExecutor_EmptyBatch(t *testing.T) {
	exec := NewExecutor(batchRegistry(t), 4, nil)
	assert.Empty(t, exec.ExecuteBatch(context.Background(), nil))
}

func TestExecutor_ExecuteOne(t *testing.T) {
	exec := NewExecutor(batchRegistry(t), 4, nil)

	res := exec.ExecuteOne(context.Background(), Call{Tool: "ok", Args: map[string]any{"msg": "solo"}})
	require.NoError(t, res.Err)
	assert.Equal(t, "ok", res.Tool)
	assert.Equal(t, map[string]any{"echo": "solo"}, res.Output)
	assert.GreaterOrEqual(t, res.Duration, time.Duration(0))
}

func TestExecutor_CanceledContext(t *testing.T) {
	exec := NewExecutor(batchRegistry(t), 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := exec.ExecuteBatch(ctx, []Call{{Tool: "ok"}, {Tool: "ok"}})
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}
