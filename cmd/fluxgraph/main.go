// =============================================================================
// FluxGraph 主入口
// =============================================================================
// 工作流引擎命令行入口，包含执行、校验、可视化与常驻服务
//
// 使用方法:
//
//	fluxgraph run -f workflow.yaml            # 执行工作流
//	fluxgraph run -f wf.yaml --input k=v      # 带初始输入执行
//	fluxgraph serve -f wf.yaml                # 启动常驻 HTTP 服务
//	fluxgraph validate -f workflow.yaml       # 校验工作流定义
//	fluxgraph viz -f workflow.yaml            # 输出 Graphviz DOT
//	fluxgraph version                         # 显示版本信息
// =============================================================================

package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/fluxgraph/config"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runRun(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "viz":
		runViz(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("FluxGraph %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`FluxGraph - Agent Workflow Engine

Usage:
  fluxgraph <command> [options]

Commands:
  run       Execute a workflow definition
  serve     Start the resident workflow HTTP service
  validate  Validate a workflow definition
  viz       Render a workflow as Graphviz DOT
  version   Show version information
  help      Show this help message

Options for 'run':
  -f <path>             Workflow definition file (YAML or JSON)
  --config <path>       Path to configuration file (YAML)
  --input <key=value>   Initial input, repeatable; value parsed as YAML scalar
  --metrics-addr <addr> Serve /metrics on this address during the run

Options for 'serve':
  -f <path>             Workflow definition file, repeatable
  --config <path>       Path to configuration file (YAML)
  --addr <addr>         Listen address (overrides metrics.addr)

Options for 'validate' and 'viz':
  -f <path>             Workflow definition file (YAML or JSON)

Examples:
  fluxgraph run -f pipeline.yaml --input value=5
  fluxgraph run -f pipeline.yaml --config /etc/fluxgraph/config.yaml
  fluxgraph serve -f pipeline.yaml -f nightly.yaml --addr :9091
  fluxgraph validate -f pipeline.yaml
  fluxgraph viz -f pipeline.yaml | dot -Tsvg -o pipeline.svg
  fluxgraph version`)
}

// =============================================================================
// 🔧 配置与日志初始化
// =============================================================================

// loadConfig 加载配置文件并应用内置校验规则
func loadConfig(configPath string) (*config.Config, error) {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	// 构建配置
	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	// 构建 logger
	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
