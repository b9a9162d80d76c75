// =============================================================================
// 📦 FluxGraph 配置加载器
// =============================================================================
// 支持从 YAML 文件和环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是 FluxGraph 的顶层配置。
type Config struct {
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
	Metrics   MetricsConfig   `yaml:"metrics" env:"METRICS"`
	Workflow  WorkflowConfig  `yaml:"workflow" env:"WORKFLOW"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	Addr      string `yaml:"addr" env:"ADDR"`
}

// WorkflowConfig 工作流执行配置。
// 时间间隔以毫秒整数表示，避免 YAML 对时长字符串的解析差异。
type WorkflowConfig struct {
	DefaultMaxRetries int `yaml:"default_max_retries" env:"DEFAULT_MAX_RETRIES"`
	DefaultBackoffMs  int `yaml:"default_backoff_ms" env:"DEFAULT_BACKOFF_MS"`
	HistoryLimit      int `yaml:"history_limit" env:"HISTORY_LIMIT"`
	ToolConcurrency   int `yaml:"tool_concurrency" env:"TOOL_CONCURRENCY"`
}

// DefaultBackoff 返回重试间隔对应的 time.Duration。
func (w WorkflowConfig) DefaultBackoff() time.Duration {
	return time.Duration(w.DefaultBackoffMs) * time.Millisecond
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	var errs []string

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level 无效: %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format 无效: %q", c.Log.Format))
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("telemetry.sample_rate 必须在 [0, 1] 区间: %v", c.Telemetry.SampleRate))
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry.otlp_endpoint 不能为空")
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		errs = append(errs, "metrics.namespace 不能为空")
	}

	if c.Workflow.DefaultMaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("workflow.default_max_retries 不能为负数: %d", c.Workflow.DefaultMaxRetries))
	}
	if c.Workflow.DefaultBackoffMs < 0 {
		errs = append(errs, fmt.Sprintf("workflow.default_backoff_ms 不能为负数: %d", c.Workflow.DefaultBackoffMs))
	}
	if c.Workflow.ToolConcurrency < 0 {
		errs = append(errs, fmt.Sprintf("workflow.tool_concurrency 不能为负数: %d", c.Workflow.ToolConcurrency))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证失败: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Loader 配置加载器
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "FLUXGRAPH",
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加自定义验证器
func (l *Loader) WithValidator(validator func(*Config) error) *Loader {
	l.validators = append(l.validators, validator)
	return l
}

// Load 加载配置
//
// 加载顺序：
//  1. 默认值
//  2. 配置文件（如果指定且存在）
//  3. 环境变量
//  4. 自定义验证器
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	l.loadFromEnv(cfg)

	for _, validate := range l.validators {
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("配置验证失败: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在时使用默认值
			return nil
		}
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) {
	setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段的环境变量值
func setFieldsFromEnv(v reflect.Value, prefix string) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			setFieldsFromEnv(field, envKey)
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		setFieldValue(field, envValue)
	}
}

// setFieldValue 根据字段类型设置值
func setFieldValue(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// time.Duration 支持 "30s" 这样的时长字符串
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(value); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(n)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			field.SetUint(n)
		}

	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			field.SetFloat(f)
		}

	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
}

// MustLoad 加载配置，失败时 panic
func MustLoad(configPath string) *Config {
	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	if err != nil {
		panic(fmt.Sprintf("配置加载失败: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从默认值和环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}
