// =============================================================================
// contextbench 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import (
	"time"

	"github.com/BaSui01/contextbench/internal/cache"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Run:       DefaultRunConfig(),
		Agent:     DefaultAgentConfig(),
		LLM:       DefaultLLMConfig(),
		Judge:     DefaultJudgeConfig(),
		Cache:     cache.DefaultConfig(),
		Metrics:   DefaultMetricsConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Remote:    DefaultRemoteConfig(),
	}
}

// DefaultRunConfig 返回默认批次配置
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Dataset:     "research-distraction",
		MaxTurns:    150,
		Timeout:     10 * time.Minute,
		Concurrency: 4,
		Seed:        42,
	}
}

// DefaultAgentConfig 返回默认 Agent 配置
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Kind:                AgentReplay,
		Model:               "gpt-4o",
		MaxTokens:           4096,
		Temperature:         0,
		ToolChoice:          "auto",
		CallsPerTurn:        1,
		CommitMiddleware:    true,
		QueueSize:           8,
		ThinksPerDelegation: 1,
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:   "openai",
		Timeout:    2 * time.Minute,
		MaxRetries: 3,
	}
}

// DefaultJudgeConfig 返回默认评审配置
func DefaultJudgeConfig() JudgeConfig {
	return JudgeConfig{
		Kind:              JudgeNumeric,
		Model:             "gpt-4o-mini",
		MaxTokens:         1024,
		RequestsPerSecond: 2,
		Burst:             1,
		Timeout:           time.Minute,
		CacheSize:         512,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Addr:      ":9091",
		Namespace: "contextbench",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "contextbench",
		SampleRate:   1,
	}
}

// DefaultRemoteConfig 返回默认远程上传配置
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		Project: "contextbench",
		Timeout: 30 * time.Second,
	}
}
