package server

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/contextbench/internal/metrics"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestEndpoint_ServesCollectorMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("bench", reg, nil)
	collector.RecordScore("recall_accuracy", 0.75)
	collector.RecordJudgeRequest("ok")

	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	e := NewEndpoint(reg, cfg, zaptest.NewLogger(t))
	require.NoError(t, e.Start())
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })

	status, body := get(t, "http://"+e.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "bench_evaluator_score")
	assert.Contains(t, body, `key="recall_accuracy"`)

	status, body = get(t, "http://"+e.Addr()+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestEndpoint_Lifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	e := NewEndpoint(prometheus.NewRegistry(), cfg, nil)
	assert.Equal(t, "127.0.0.1:0", e.Addr())

	require.NoError(t, e.Start())
	assert.Error(t, e.Start(), "double start")
	assert.NotEqual(t, "127.0.0.1:0", e.Addr())

	require.NoError(t, e.Shutdown(context.Background()))
	require.NoError(t, e.Shutdown(context.Background()))
	assert.Error(t, e.Start(), "start after shutdown")
}

func TestEndpoint_ListenFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	first := NewEndpoint(prometheus.NewRegistry(), cfg, nil)
	require.NoError(t, first.Start())
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	cfg.Addr = first.Addr()
	second := NewEndpoint(prometheus.NewRegistry(), cfg, nil)
	assert.Error(t, second.Start())
}
