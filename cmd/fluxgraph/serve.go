package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/fluxgraph/config"
	"github.com/BaSui01/fluxgraph/internal/metrics"
	"github.com/BaSui01/fluxgraph/internal/server"
	"github.com/BaSui01/fluxgraph/internal/telemetry"
	"github.com/BaSui01/fluxgraph/types"
	"github.com/BaSui01/fluxgraph/workflow"
)

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	addr := fs.String("addr", "", "Listen address (overrides metrics.addr)")
	var files repeatedFlag
	fs.Var(&files, "f", "Workflow definition file, repeatable")
	fs.Parse(args)

	if len(files) == 0 {
		fatalf("serve: at least one workflow definition file required (-f)")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting FluxGraph server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Initialize OpenTelemetry
	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	srv, err := NewServer(cfg, files, logger, otelProviders)
	if err != nil {
		fatalf("Failed to build server: %v", err)
	}

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = cfg.Metrics.Addr
	}

	if err := srv.Start(listenAddr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	srv.WaitForShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := otelProviders.Shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown error", zap.Error(err))
	}

	logger.Info("FluxGraph server stopped")
}

// =============================================================================
// 🌐 工作流服务器
// =============================================================================

// Server 托管已加载的工作流、运行历史与指标端点。
// 引擎按单线程语义执行，POST 触发的运行全局串行。
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	graphs    map[string]*workflow.Graph
	order     []string
	store     *workflow.RunStore
	collector *metrics.Collector
	manager   *server.Manager

	runMu sync.Mutex
}

// NewServer 加载所有定义文件并构建服务器
func NewServer(cfg *config.Config, files []string, logger *zap.Logger, providers *telemetry.Providers) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		graphs:    make(map[string]*workflow.Graph, len(files)),
		store:     workflow.NewRunStore(cfg.Workflow.HistoryLimit),
		collector: metrics.NewCollector(cfg.Metrics.Namespace, logger),
	}

	for _, file := range files {
		graph, err := buildGraphFromFile(file, cfg, logger, s.collector, s.store, providers)
		if err != nil {
			return nil, fmt.Errorf("load workflow %s: %w", file, err)
		}
		name := graph.Name()
		if _, exists := s.graphs[name]; exists {
			return nil, fmt.Errorf("duplicate workflow name %q (file %s)", name, file)
		}
		s.graphs[name] = graph
		s.order = append(s.order, name)
		logger.Info("workflow loaded",
			zap.String("workflow", name),
			zap.String("file", file),
			zap.Int("nodes", graph.Len()),
		)
	}

	return s, nil
}

// Start 构建路由并启动 HTTP 服务器（非阻塞）
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /workflows", s.handleListWorkflows)
	mux.HandleFunc("GET /workflows/{name}", s.handleGetWorkflow)
	mux.HandleFunc("GET /workflows/{name}/dot", s.handleWorkflowDOT)
	mux.HandleFunc("POST /workflows/{name}/run", s.handleRunWorkflow)

	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)

	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		RequestLogger(s.logger),
	)

	serverConfig := server.DefaultConfig()
	serverConfig.Addr = addr

	s.manager = server.NewManager(handler, serverConfig, s.logger)
	if err := s.manager.Start(); err != nil {
		return err
	}

	s.logger.Info("workflow server started",
		zap.String("addr", s.manager.ListenAddr()),
		zap.Int("workflows", len(s.graphs)),
	)
	return nil
}

// WaitForShutdown 阻塞直到收到退出信号并完成优雅关闭
func (s *Server) WaitForShutdown() {
	s.manager.WaitForShutdown()
}

// Shutdown 立即触发优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.manager.Shutdown(ctx)
}

// =============================================================================
// 🎯 Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	type workflowSummary struct {
		Name  string   `json:"name"`
		Nodes []string `json:"nodes"`
	}

	summaries := make([]workflowSummary, 0, len(s.order))
	for _, name := range s.order {
		summaries = append(summaries, workflowSummary{
			Name:  name,
			Nodes: s.graphs[name].Nodes(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": summaries})
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	graph, ok := s.graphs[r.PathValue("name")]
	if !ok {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, graph.Definition())
}

func (s *Server) handleWorkflowDOT(w http.ResponseWriter, r *http.Request) {
	graph, ok := s.graphs[r.PathValue("name")]
	if !ok {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	fmt.Fprint(w, graph.DOT())
}

func (s *Server) handleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	graph, ok := s.graphs[r.PathValue("name")]
	if !ok {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}

	var body struct {
		Inputs map[string]any `json:"inputs"`
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	// 引擎单线程执行，运行全局串行
	s.runMu.Lock()
	report, err := graph.Execute(r.Context(), body.Inputs)
	runID := ""
	if tracker := graph.Tracker(); tracker != nil {
		runID = tracker.RunID()
	}
	s.runMu.Unlock()

	if err != nil {
		var structured *types.Error
		if errors.As(err, &structured) {
			writeError(w, http.StatusUnprocessableEntity, structured.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, runResponse(graph.Name(), runID, report))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	var records []workflow.RunRecord
	if name := r.URL.Query().Get("workflow"); name != "" {
		records = s.store.ListByWorkflow(name)
	} else {
		records = s.store.List()
	}

	summaries := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, runSummary(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": summaries})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	detail := runSummary(rec)
	nodes := make(map[string]map[string]any, len(rec.Nodes))
	for name, node := range rec.Nodes {
		entry := map[string]any{
			"status": string(node.Status),
		}
		if !node.StartedAt.IsZero() {
			entry["started_at"] = node.StartedAt
		}
		if !node.EndedAt.IsZero() {
			entry["ended_at"] = node.EndedAt
		}
		if node.Err != nil {
			entry["error"] = node.Err.Error()
		}
		nodes[name] = entry
	}
	detail["nodes"] = nodes
	writeJSON(w, http.StatusOK, detail)
}

// =============================================================================
// 🔧 响应辅助函数
// =============================================================================

func runSummary(rec workflow.RunRecord) map[string]any {
	return map[string]any{
		"run_id":      rec.RunID,
		"workflow":    rec.Workflow,
		"status":      string(rec.Status),
		"started_at":  rec.StartedAt,
		"ended_at":    rec.EndedAt,
		"duration_ms": rec.Duration().Milliseconds(),
		"succeeded":   rec.Succeeded,
		"failed":      rec.Failed,
		"skipped":     rec.Skipped,
	}
}

func runResponse(name, runID string, report workflow.Report) map[string]any {
	status := "succeeded"
	if !report.OK() {
		status = "failed"
	}

	nodes := make(map[string]map[string]any, len(report))
	for nodeName, result := range report {
		entry := map[string]any{
			"status":      string(result.Status),
			"attempts":    result.Attempts,
			"duration_ms": result.Duration().Milliseconds(),
		}
		if result.Output != nil {
			entry["output"] = result.Output
		}
		if result.Err != nil {
			entry["error"] = result.Err.Error()
		}
		if result.SkippedBy != "" {
			entry["skipped_by"] = result.SkippedBy
		}
		nodes[nodeName] = entry
	}

	return map[string]any{
		"workflow":  name,
		"run_id":    runID,
		"status":    status,
		"succeeded": len(report.Succeeded()),
		"failed":    len(report.Failed()),
		"skipped":   len(report.Skipped()),
		"nodes":     nodes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
