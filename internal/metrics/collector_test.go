package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func newTestCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector("test", prometheus.NewRegistry(), zap.NewNop())
}

func TestNewCollector(t *testing.T) {
	c := newTestCollector(t)
	require.NotNil(t, c)
	assert.NotNil(t, c.runsTotal)
	assert.NotNil(t, c.toolCallsTotal)
	assert.NotNil(t, c.middlewareRewrites)
	assert.NotNil(t, c.evaluatorScore)
}

func TestNewCollector_SeparateRegistries(t *testing.T) {
	// Same namespace twice must not panic with duplicate registration.
	assert.NotPanics(t, func() {
		NewCollector("dup", prometheus.NewRegistry(), nil)
		NewCollector("dup", prometheus.NewRegistry(), nil)
	})
}

func TestCollector_RecordRun(t *testing.T) {
	c := newTestCollector(t)
	c.RecordRun("research", "ok", 7, 120*time.Millisecond)
	c.RecordRun("research", "ok", 3, 80*time.Millisecond)
	c.RecordRun("research", "budget_exceeded", 50, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("research", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("research", "budget_exceeded")))
}

func TestCollector_RecordToolCall(t *testing.T) {
	c := newTestCollector(t)
	c.RecordToolCall("get_order", "ok", time.Millisecond)
	c.RecordToolCall("get_stock_price", "not_found", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.toolCallsTotal.WithLabelValues("get_stock_price", "not_found")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.toolCallsTotal))
}

func TestCollector_RecordRewrite(t *testing.T) {
	c := newTestCollector(t)
	c.RecordRewrite(8, 400)
	c.RecordRewrite(0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.middlewareRewrites))
	assert.Equal(t, 8.0, testutil.ToFloat64(c.middlewareRemovedMsgs))
	assert.Equal(t, 400.0, testutil.ToFloat64(c.middlewareTokensSaved))
}

func TestCollector_EvaluationAndCache(t *testing.T) {
	c := newTestCollector(t)
	c.RecordScore("recall_accuracy", 0.75)
	c.RecordJudgeRequest("ok")
	c.RecordCacheHit("verdict")
	c.RecordCacheMiss("verdict")
	c.RecordCacheMiss("verdict")

	assert.Equal(t, 1, testutil.CollectAndCount(c.evaluatorScore))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.judgeRequests.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheMisses.WithLabelValues("verdict")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordRun("s", "ok", 1, time.Second)
		c.RecordToolCall("t", "ok", time.Second)
		c.RecordRewrite(1, 1)
		c.RecordScore("k", 1)
		c.RecordJudgeRequest("ok")
		c.RecordCacheHit("x")
		c.RecordCacheMiss("x")
	})
}
