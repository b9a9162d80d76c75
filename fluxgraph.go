// Package fluxgraph provides a top-level convenience entry point for
// loading and running workflows with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/fluxgraph"
//
//	reg := fluxgraph.NewRegistry(logger)
//	reg.RegisterFunc("fetch", fetchFunc)
//	report, err := fluxgraph.RunFile(ctx, "pipeline.yaml", reg, nil)
//
// This is a thin wrapper around [workflow.LoadFile] and
// [workflow.BuildGraph]; both produce identical results. Use this
// package when you prefer the shorter import path.
package fluxgraph

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/fluxgraph/agent"
	"github.com/BaSui01/fluxgraph/workflow"
)

// Core types re-exported so simple callers import a single package.
type (
	Definition = workflow.Definition
	NodeSpec   = workflow.NodeSpec
	RetrySpec  = workflow.RetrySpec
	Graph      = workflow.Graph
	Report     = workflow.Report
	NodeResult = workflow.NodeResult
	Registry   = agent.Registry
	Func       = agent.Func
)

// GraphOption configures graphs built by [Build] and [RunFile].
type GraphOption = workflow.GraphOption

// NewRegistry creates an empty agent registry. A nil logger falls back
// to a no-op logger.
func NewRegistry(logger *zap.Logger) *Registry {
	return agent.NewRegistry(logger)
}

// Load reads a workflow definition from a YAML file.
func Load(path string) (*Definition, error) {
	return workflow.LoadFile(path)
}

// Build compiles a definition into an executable graph using agents
// from the given registry.
func Build(def *Definition, agents *Registry, opts ...GraphOption) (*Graph, error) {
	return workflow.BuildGraph(def, agents, opts...)
}

// RunFile loads a definition, builds the graph and executes it once
// with the given inputs.
func RunFile(ctx context.Context, path string, agents *Registry, inputs map[string]any, opts ...GraphOption) (Report, error) {
	def, err := workflow.LoadFile(path)
	if err != nil {
		return nil, err
	}
	graph, err := workflow.BuildGraph(def, agents, opts...)
	if err != nil {
		return nil, err
	}
	return graph.Execute(ctx, inputs)
}
