// =============================================================================
// contextbench 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("contextbench.yaml").
//	    WithEnvPrefix("CONTEXTBENCH").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
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

	"github.com/BaSui01/contextbench/internal/cache"
)

// DefaultEnvPrefix 环境变量默认前缀
const DefaultEnvPrefix = "CONTEXTBENCH"

// Agent kinds.
const (
	AgentReplay = "replay"
	AgentLLM    = "llm"
)

// Judge kinds.
const (
	JudgeNumeric = "numeric"
	JudgeLLM     = "llm"
	JudgeNone    = "none"
)

// =============================================================================
// 核心配置结构
// =============================================================================

// Config 是 contextbench 的完整配置结构
type Config struct {
	// Run 评测批次配置
	Run RunConfig `yaml:"run" env:"RUN"`

	// Agent 被评测的 agent
	Agent AgentConfig `yaml:"agent" env:"AGENT"`

	// LLM 模型服务（llm agent 与 llm judge 共用）
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Judge 一致性评审
	Judge JudgeConfig `yaml:"judge" env:"JUDGE"`

	// Cache 评审结果缓存的 Redis 层
	Cache cache.Config `yaml:"cache" env:"CACHE"`

	// Metrics Prometheus 指标
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Remote 远程评测报告上传（--langsmith）
	Remote RemoteConfig `yaml:"remote" env:"REMOTE"`
}

// RunConfig 评测批次配置
type RunConfig struct {
	// 数据集名称
	Dataset string `yaml:"dataset" env:"DATASET"`
	// 覆盖任务的工具面（例如 shipping_noisy），为空时使用任务自带的
	Scenario string `yaml:"scenario" env:"SCENARIO"`
	// 每次运行的轮次预算
	MaxTurns int `yaml:"max_turns" env:"MAX_TURNS"`
	// 单次运行超时，0 表示不限
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 并发运行的样例数
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
	// Mock 存储的随机种子
	Seed int64 `yaml:"seed" env:"SEED"`
	// 子问题集合，例如 "5,7-9"
	Questions string `yaml:"questions" env:"QUESTIONS"`
	// 报告 JSON 输出路径，为空时不写文件
	Output string `yaml:"output" env:"OUTPUT"`
}

// AgentConfig 被评测 agent 的配置
type AgentConfig struct {
	// 类型: replay, llm
	Kind string `yaml:"kind" env:"KIND"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 系统提示词
	SystemPrompt string `yaml:"system_prompt" env:"SYSTEM_PROMPT"`
	// 最大 Token 数
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// 温度参数
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// auto, none 或工具名
	ToolChoice string `yaml:"tool_choice" env:"TOOL_CHOICE"`
	// replay agent 每轮发出的工具调用数
	CallsPerTurn int `yaml:"calls_per_turn" env:"CALLS_PER_TURN"`
	// 是否启用答案提交中间件
	CommitMiddleware bool `yaml:"commit_middleware" env:"COMMIT_MIDDLEWARE"`
	// 多 agent：一轮内待处理委派的上限
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`
	// 多 agent：两次委派之间允许的 think_tool 次数
	ThinksPerDelegation int `yaml:"thinks_per_delegation" env:"THINKS_PER_DELEGATION"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// Provider 名称（日志与指标用）
	Provider string `yaml:"provider" env:"PROVIDER"`
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 兼容 OpenAI 的基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
}

// Configured reports whether a remote model can be reached.
func (c LLMConfig) Configured() bool {
	return c.BaseURL != "" || c.APIKey != ""
}

// JudgeConfig 一致性评审配置
type JudgeConfig struct {
	// 类型: numeric, llm, none
	Kind string `yaml:"kind" env:"KIND"`
	// 评审模型
	Model string `yaml:"model" env:"MODEL"`
	// 最大 Token 数
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// 每秒请求数，0 表示不限速
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	// 突发请求数
	Burst int `yaml:"burst" env:"BURST"`
	// 单次评审超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 进程内 LRU 大小，0 表示不缓存
	CacheSize int `yaml:"cache_size" env:"CACHE_SIZE"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// 是否暴露 /metrics
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 监听地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// RemoteConfig 远程评测服务配置
type RemoteConfig struct {
	// 上传端点
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 项目名称
	Project string `yaml:"project" env:"PROJECT"`
	// 上传超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// Configured reports whether reports can be uploaded.
func (c RemoteConfig) Configured() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

// =============================================================================
// 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  DefaultEnvPrefix,
		validators: make([]func(*Config) error, 0),
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

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// time.Duration 按 "30s" 这种格式解析
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置，返回全部错误而不是第一个
func (c *Config) Validate() error {
	var errs []string

	if c.Run.MaxTurns <= 0 {
		errs = append(errs, "run.max_turns must be positive")
	}
	if c.Run.Concurrency <= 0 {
		errs = append(errs, "run.concurrency must be positive")
	}
	if c.Run.Timeout < 0 {
		errs = append(errs, "run.timeout must not be negative")
	}

	switch c.Agent.Kind {
	case AgentReplay, AgentLLM:
	default:
		errs = append(errs, fmt.Sprintf("agent.kind %q is not one of replay, llm", c.Agent.Kind))
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		errs = append(errs, "agent.temperature must be between 0 and 2")
	}
	if c.Agent.CallsPerTurn < 0 {
		errs = append(errs, "agent.calls_per_turn must not be negative")
	}

	switch c.Judge.Kind {
	case JudgeNumeric, JudgeLLM, JudgeNone:
	default:
		errs = append(errs, fmt.Sprintf("judge.kind %q is not one of numeric, llm, none", c.Judge.Kind))
	}
	if c.Judge.RequestsPerSecond < 0 {
		errs = append(errs, "judge.requests_per_second must not be negative")
	}
	if c.Judge.CacheSize < 0 {
		errs = append(errs, "judge.cache_size must not be negative")
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr is required when metrics are enabled")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not one of json, console", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
