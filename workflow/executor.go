package workflow

import (
	"context"
	"maps"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/fluxgraph/internal/ctxkeys"
	"github.com/BaSui01/fluxgraph/types"
)

// Execute runs the graph once. It validates implicitly, computes the
// execution order and runs every node in turn, resolving each node's
// inputs from the graph inputs and its bindings before invoking the
// agent through the node's call wrapper.
//
// Graph inputs address nodes in two ways: a bare key ("value") is
// offered to every node, a scoped key ("Fetch.value") only to the named
// node. Scoped entries override bare ones, bindings override both.
//
// A node failure does not abort the run: the failed node is recorded,
// every transitive dependent is skipped, and all unaffected branches
// still execute. The returned report covers every node. The error
// result is reserved for validation failures; execution outcomes live
// in the report.
//
// Each agent's context carries the run ID, workflow name and invoking
// node name, readable through the internal ctxkeys package.
func (g *Graph) Execute(ctx context.Context, inputs map[string]any) (Report, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	order := g.topoOrder()
	tracker := NewTracker(g.name, g.order)
	g.setTracker(tracker)

	for _, name := range g.order {
		g.nodes[name].resetOutput()
	}

	logger := g.logger.With(zap.String("run_id", tracker.RunID()))
	logger.Info("starting workflow execution", zap.Int("nodes", len(order)))

	ctx = ctxkeys.WithWorkflow(ctx, g.name)
	ctx = ctxkeys.WithRunID(ctx, tracker.RunID())

	if g.tracer != nil {
		var runSpan oteltrace.Span
		ctx, runSpan = g.tracer.Start(ctx, "workflow.execute")
		runSpan.SetAttributes(
			attribute.String("workflow.name", g.name),
			attribute.String("workflow.run_id", tracker.RunID()),
			attribute.Int("workflow.nodes", len(order)),
		)
		defer runSpan.End()
	}

	report := make(Report, len(order))
	for _, name := range order {
		report[name] = g.executeNode(ctx, logger, tracker, name, inputs)
	}

	tracker.finish()
	duration := tracker.EndedAt().Sub(tracker.StartedAt())

	status := RunSucceeded
	if !report.OK() {
		status = RunFailed
	}
	logger.Info("workflow execution finished",
		zap.String("status", string(status)),
		zap.Int("succeeded", len(report.Succeeded())),
		zap.Int("failed", len(report.Failed())),
		zap.Int("skipped", len(report.Skipped())),
		zap.Duration("duration", duration),
	)

	if g.collector != nil {
		g.collector.RecordRun(g.name, string(status), duration)
	}
	if g.store != nil {
		g.store.Save(RunRecord{
			RunID:     tracker.RunID(),
			Workflow:  g.name,
			Status:    status,
			StartedAt: tracker.StartedAt(),
			EndedAt:   tracker.EndedAt(),
			Nodes:     tracker.Snapshot(),
			Succeeded: len(report.Succeeded()),
			Failed:    len(report.Failed()),
			Skipped:   len(report.Skipped()),
		})
	}
	return report, nil
}

// executeNode runs a single node, or skips it when an upstream node
// already failed or was skipped.
func (g *Graph) executeNode(ctx context.Context, logger *zap.Logger, tracker *Tracker, name string, inputs map[string]any) *NodeResult {
	node := g.nodes[name]

	if blocked, ok := g.blockedBy(tracker, node); ok {
		g.mark(logger, tracker.MarkSkipped(name))
		logger.Warn("skipping node due to upstream failure",
			zap.String("node", name),
			zap.String("dependency", blocked),
		)
		if g.collector != nil {
			g.collector.RecordNode(g.name, name, string(NodeStatusSkipped), 0)
		}
		return &NodeResult{
			Node:      name,
			Status:    NodeStatusSkipped,
			SkippedBy: blocked,
			EndedAt:   time.Now(),
		}
	}

	nodeCtx := ctx
	var span oteltrace.Span
	if g.tracer != nil {
		nodeCtx, span = g.tracer.Start(ctx, "workflow.node")
		span.SetAttributes(
			attribute.String("workflow.name", g.name),
			attribute.String("node.name", name),
		)
	}

	result := g.runNode(nodeCtx, logger, tracker, node, inputs)

	if span != nil {
		span.SetAttributes(
			attribute.String("node.status", string(result.Status)),
			attribute.Int("node.attempts", result.Attempts),
		)
		if result.Err != nil {
			span.SetAttributes(attribute.String("error", result.Err.Error()))
		}
		span.End()
	}
	if g.collector != nil {
		g.collector.RecordNode(g.name, name, string(result.Status), result.Duration())
		if retries := result.Attempts - 1; retries > 0 {
			g.collector.RecordCallRetries(g.name, name, retries)
		}
	}
	return result
}

func (g *Graph) runNode(ctx context.Context, logger *zap.Logger, tracker *Tracker, node *Node, inputs map[string]any) *NodeResult {
	name := node.Name()
	result := &NodeResult{Node: name, StartedAt: time.Now()}
	g.mark(logger, tracker.MarkStarted(name))
	logger.Debug("executing node", zap.String("node", name))

	resolved, err := g.resolveInputs(node, inputs)
	if err != nil {
		result.Status = NodeStatusFailed
		result.Err = err
		result.EndedAt = time.Now()
		g.mark(logger, tracker.MarkFailed(name, err))
		logger.Error("node input resolution failed", zap.String("node", name), zap.Error(err))
		return result
	}

	ctx = ctxkeys.WithNode(ctx, name)

	wrapper := node.wrapper
	if wrapper == nil {
		wrapper = g.wrapper
	}
	attempts := 0
	target := func(ctx context.Context, in map[string]any) (map[string]any, error) {
		attempts++
		return node.Run(ctx, in)
	}

	out, err := wrapper.CallWithFallback(ctx, target, node.fallback, resolved)
	result.Attempts = attempts
	result.EndedAt = time.Now()

	if err != nil {
		result.Status = NodeStatusFailed
		result.Err = err
		g.mark(logger, tracker.MarkFailed(name, err))
		logger.Error("node execution failed",
			zap.String("node", name),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return result
	}

	node.setOutput(out)
	result.Status = NodeStatusSucceeded
	result.Output = maps.Clone(out)
	g.mark(logger, tracker.MarkSucceeded(name))
	logger.Debug("node execution succeeded",
		zap.String("node", name),
		zap.Int("attempts", attempts),
		zap.Duration("duration", result.Duration()),
	)
	return result
}

// blockedBy returns the first dependency, in sorted name order, that
// failed or was skipped in the current run.
func (g *Graph) blockedBy(tracker *Tracker, node *Node) (string, bool) {
	for _, dep := range node.Dependencies() {
		status, ok := tracker.Status(dep)
		if !ok {
			continue
		}
		if status == NodeStatusFailed || status == NodeStatusSkipped {
			return dep, true
		}
	}
	return "", false
}

// resolveInputs assembles the input map one node actually receives:
// bare graph inputs first, then graph inputs scoped to this node, then
// the node's bindings. Later layers override earlier ones key by key.
func (g *Graph) resolveInputs(node *Node, inputs map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(inputs)+len(node.bindings))
	for key, value := range inputs {
		if !strings.Contains(key, ".") {
			resolved[key] = value
		}
	}
	for key, value := range inputs {
		scope, input, ok := strings.Cut(key, ".")
		if ok && scope == node.name && input != "" {
			resolved[input] = value
		}
	}
	for input, binding := range node.bindings {
		if !binding.isRef {
			resolved[input] = binding.value
			continue
		}
		depOut, err := g.nodes[binding.node].Output()
		if err != nil {
			return nil, err
		}
		value, ok := depOut[binding.key]
		if !ok {
			return nil, types.Errorf(types.ErrBindingUnresolved,
				"input %q of node %q references missing output key %q of node %q",
				input, node.name, binding.key, binding.node).WithNode(node.name)
		}
		resolved[input] = value
	}
	return resolved, nil
}

// mark logs tracker transitions the executor expected to succeed.
func (g *Graph) mark(logger *zap.Logger, err error) {
	if err != nil {
		logger.Error("progress tracker rejected transition", zap.Error(err))
	}
}
