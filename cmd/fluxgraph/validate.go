package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/fluxgraph/agent"
	"github.com/BaSui01/fluxgraph/workflow"
)

// =============================================================================
// ✅ validate 命令
// =============================================================================

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	file := fs.String("f", "", "Workflow definition file (YAML or JSON)")
	fs.Parse(args)

	if *file == "" {
		fatalf("validate: workflow definition file required (-f)")
	}

	graph, err := loadForInspection(*file)
	if err != nil {
		fatalf("Invalid workflow: %v", err)
	}

	fmt.Printf("OK: workflow %q is valid (%d nodes)\n", graph.Name(), graph.Len())
	order, err := graph.ExecutionOrder()
	if err == nil {
		fmt.Printf("execution order: %v\n", order)
	}
}

// =============================================================================
// 🎨 viz 命令
// =============================================================================

func runViz(args []string) {
	fs := flag.NewFlagSet("viz", flag.ExitOnError)
	file := fs.String("f", "", "Workflow definition file (YAML or JSON)")
	out := fs.String("out", "", "Write DOT to this file instead of stdout")
	fs.Parse(args)

	if *file == "" {
		fatalf("viz: workflow definition file required (-f)")
	}

	graph, err := loadForInspection(*file)
	if err != nil {
		fatalf("Invalid workflow: %v", err)
	}

	dot := graph.DOT()
	if *out == "" {
		fmt.Print(dot)
		return
	}
	if err := os.WriteFile(*out, []byte(dot), 0o644); err != nil {
		fatalf("Failed to write %s: %v", *out, err)
	}
	fmt.Printf("wrote %s\n", *out)
}

// loadForInspection 构建用于校验和可视化的图。
// Agent 名称以 no-op 占位实现注册，不需要真实 Agent 存在。
func loadForInspection(path string) (*workflow.Graph, error) {
	def, err := workflow.LoadFile(path)
	if err != nil {
		return nil, err
	}

	reg := agent.NewRegistry(zap.NewNop())
	noop := func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		return map[string]any{}, nil
	}
	for _, spec := range def.Nodes {
		if !reg.Has(spec.Agent) {
			if err := reg.RegisterFunc(spec.Agent, noop); err != nil {
				return nil, err
			}
		}
		if spec.Fallback != "" && !reg.Has(spec.Fallback) {
			if err := reg.RegisterFunc(spec.Fallback, noop); err != nil {
				return nil, err
			}
		}
	}

	return workflow.BuildGraph(def, reg)
}
