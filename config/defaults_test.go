package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, RunConfig{}, cfg.Run)
	assert.NotEqual(t, AgentConfig{}, cfg.Agent)
	assert.NotEqual(t, LLMConfig{}, cfg.LLM)
	assert.NotEqual(t, JudgeConfig{}, cfg.Judge)
	assert.NotEmpty(t, cfg.Cache.Addr)
	assert.NotEqual(t, MetricsConfig{}, cfg.Metrics)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
	assert.NotEqual(t, RemoteConfig{}, cfg.Remote)
	assert.NoError(t, cfg.Validate())
}

// --- Individual Default*Config functions ---

func TestDefaultRunConfig(t *testing.T) {
	cfg := DefaultRunConfig()
	assert.Equal(t, "research-distraction", cfg.Dataset)
	assert.Equal(t, 150, cfg.MaxTurns)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.Empty(t, cfg.Questions)
}

func TestDefaultAgentConfig(t *testing.T) {
	cfg := DefaultAgentConfig()
	assert.Equal(t, AgentReplay, cfg.Kind)
	assert.Equal(t, "auto", cfg.ToolChoice)
	assert.Equal(t, 1, cfg.CallsPerTurn)
	assert.True(t, cfg.CommitMiddleware)
	assert.Equal(t, 8, cfg.QueueSize)
	assert.Equal(t, 1, cfg.ThinksPerDelegation)
}

func TestDefaultJudgeConfig(t *testing.T) {
	cfg := DefaultJudgeConfig()
	assert.Equal(t, JudgeNumeric, cfg.Kind)
	assert.Equal(t, 2.0, cfg.RequestsPerSecond)
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, 512, cfg.CacheSize)
}

func TestDefaultLLMConfig(t *testing.T) {
	cfg := DefaultLLMConfig()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.False(t, cfg.Configured())
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "contextbench", cfg.ServiceName)
}

func TestDefaultRemoteConfig(t *testing.T) {
	cfg := DefaultRemoteConfig()
	assert.False(t, cfg.Configured())
	cfg.Endpoint = "https://api.example.com"
	assert.False(t, cfg.Configured(), "an api key is also required")
	cfg.APIKey = "k"
	assert.True(t, cfg.Configured())
}
