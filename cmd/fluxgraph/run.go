package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/fluxgraph/agent"
	"github.com/BaSui01/fluxgraph/config"
	"github.com/BaSui01/fluxgraph/internal/metrics"
	"github.com/BaSui01/fluxgraph/internal/server"
	"github.com/BaSui01/fluxgraph/internal/telemetry"
	"github.com/BaSui01/fluxgraph/workflow"
)

// =============================================================================
// 🚀 run 命令
// =============================================================================

func runRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	file := fs.String("f", "", "Workflow definition file (YAML or JSON)")
	configPath := fs.String("config", "", "Path to config file")
	metricsAddr := fs.String("metrics-addr", "", "Serve /metrics on this address during the run")
	var inputFlags repeatedFlag
	fs.Var(&inputFlags, "input", "Initial input key=value, repeatable")
	fs.Parse(args)

	if *file == "" {
		fatalf("run: workflow definition file required (-f)")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting FluxGraph",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Initialize OpenTelemetry
	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProviders.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown error", zap.Error(err))
		}
	}()

	inputs, err := parseInputs(inputFlags)
	if err != nil {
		fatalf("Invalid --input: %v", err)
	}

	// 指标收集器与可选的 /metrics 端点
	addr := *metricsAddr
	if addr == "" && cfg.Metrics.Enabled {
		addr = cfg.Metrics.Addr
	}
	var collector *metrics.Collector
	if addr != "" || cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, logger)
	}
	if addr != "" {
		manager, merr := startMetricsServer(addr, logger)
		if merr != nil {
			fatalf("Failed to start metrics server: %v", merr)
		}
		defer manager.Shutdown(context.Background())
	}

	graph, err := buildGraphFromFile(*file, cfg, logger, collector, nil, otelProviders)
	if err != nil {
		fatalf("Failed to build workflow: %v", err)
	}

	report, err := graph.Execute(context.Background(), inputs)
	if err != nil {
		fatalf("Workflow validation failed: %v", err)
	}

	printReport(graph, report)

	if !report.OK() {
		logger.Warn("workflow finished with failures", zap.String("workflow", graph.Name()))
		fatalf("workflow %q finished with failures", graph.Name())
	}
	logger.Info("workflow finished", zap.String("workflow", graph.Name()))
}

// buildGraphFromFile 从定义文件构建可执行工作流图，注册内置 Agent
func buildGraphFromFile(path string, cfg *config.Config, logger *zap.Logger, collector *metrics.Collector, store *workflow.RunStore, providers *telemetry.Providers) (*workflow.Graph, error) {
	def, err := workflow.LoadFile(path)
	if err != nil {
		return nil, err
	}

	reg := agent.NewRegistry(logger)
	if err := RegisterBuiltins(reg); err != nil {
		return nil, err
	}

	opts := []workflow.GraphOption{workflow.WithLogger(logger)}
	if cfg.Workflow.DefaultMaxRetries > 0 {
		opts = append(opts, workflow.WithDefaultRetry(cfg.Workflow.DefaultMaxRetries, cfg.Workflow.DefaultBackoff()))
	}
	if collector != nil {
		opts = append(opts, workflow.WithMetrics(collector))
	}
	if store != nil {
		opts = append(opts, workflow.WithRunStore(store))
	}
	if providers != nil {
		opts = append(opts, workflow.WithTracer(providers.Tracer("fluxgraph/workflow")))
	}

	return workflow.BuildGraph(def, reg, opts...)
}

// startMetricsServer 在独立端口暴露 /metrics 和 /healthz
func startMetricsServer(addr string, logger *zap.Logger) (*server.Manager, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	serverConfig := server.DefaultConfig()
	serverConfig.Addr = addr

	manager := server.NewManager(mux, serverConfig, logger)
	if err := manager.Start(); err != nil {
		return nil, err
	}

	logger.Info("metrics server started", zap.String("addr", manager.ListenAddr()))
	return manager, nil
}

// =============================================================================
// 📝 报告输出
// =============================================================================

// printReport 按执行顺序打印每个节点的结果
func printReport(g *workflow.Graph, report workflow.Report) {
	order, err := g.ExecutionOrder()
	if err != nil {
		// 已执行过的图不应再出现校验错误
		order = g.Nodes()
	}

	fmt.Printf("workflow %q: %d succeeded, %d failed, %d skipped\n",
		g.Name(), len(report.Succeeded()), len(report.Failed()), len(report.Skipped()))

	for _, name := range order {
		result, ok := report[name]
		if !ok {
			continue
		}
		switch result.Status {
		case workflow.NodeStatusSucceeded:
			fmt.Printf("  %-20s %-10s %12s  %s\n",
				name, result.Status, result.Duration().Round(time.Millisecond), compactJSON(result.Output))
		case workflow.NodeStatusFailed:
			fmt.Printf("  %-20s %-10s %12s  error: %v\n",
				name, result.Status, result.Duration().Round(time.Millisecond), result.Err)
		case workflow.NodeStatusSkipped:
			fmt.Printf("  %-20s %-10s %12s  blocked by %s\n",
				name, result.Status, "-", result.SkippedBy)
		}
	}
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// =============================================================================
// 🔧 输入解析
// =============================================================================

// repeatedFlag 可重复的命令行参数
type repeatedFlag []string

func (f *repeatedFlag) String() string { return strings.Join(*f, ",") }

func (f *repeatedFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

// parseInputs 解析 --input key=value 参数。
// 值按 YAML 标量解析，数字和布尔保持原生类型，键支持 "node.input" 作用域。
func parseInputs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	inputs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		inputs[key] = value
	}
	return inputs, nil
}
