package tools

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Call names a tool and the arguments to invoke it with.
type Call struct {
	Tool string
	Args map[string]any
}

// Result is the outcome of one call in a batch. Results keep the index
// of their call, so a batch's output lines up with its input.
type Result struct {
	Tool     string
	Output   map[string]any
	Err      error
	Duration time.Duration
}

// Executor runs batches of tool calls concurrently with a concurrency
// cap. Failures are collected per call; one failing tool never cancels
// its siblings.
type Executor struct {
	registry *Registry
	limit    int
	logger   *zap.Logger
}

// NewExecutor creates a batch executor over the given registry.
// maxConcurrency caps simultaneous calls; zero or less means at most
// eight at a time.
func NewExecutor(registry *Registry, maxConcurrency int, logger *zap.Logger) *Executor {
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		registry: registry,
		limit:    maxConcurrency,
		logger:   logger.With(zap.String("component", "tool_executor")),
	}
}

// ExecuteBatch runs every call and returns one result per call, in
// call order. The context cancels calls that have not started yet and
// is passed through to the tools themselves.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))
	if len(calls) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			start := time.Now()
			var out map[string]any
			err := gctx.Err()
			if err == nil {
				out, err = e.registry.Invoke(gctx, call.Tool, call.Args)
			}
			results[i] = Result{
				Tool:     call.Tool,
				Output:   out,
				Err:      err,
				Duration: time.Since(start),
			}
			if err != nil {
				e.logger.Warn("tool call failed",
					zap.String("tool", call.Tool),
					zap.Error(err),
				)
			}
			// Collect every result; a failed call must not tear the
			// whole batch down.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ExecuteOne runs a single call.
func (e *Executor) ExecuteOne(ctx context.Context, call Call) Result {
	return e.ExecuteBatch(ctx, []Call{call})[0]
}
