// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器. A nil *Collector is valid and records nothing, so
// components can treat metrics as optional.
type Collector struct {
	// 运行指标
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	runTurns    *prometheus.HistogramVec

	// 工具指标
	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec

	// 中间件指标
	middlewareRewrites    prometheus.Counter
	middlewareRemovedMsgs prometheus.Counter
	middlewareTokensSaved prometheus.Counter

	// 评估指标
	evaluatorScore *prometheus.HistogramVec
	judgeRequests  *prometheus.CounterVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器. Metrics are registered on reg; nil means the
// default Prometheus registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 运行指标
	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of agent runs",
		},
		[]string{"scenario", "status"},
	)

	c.runDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Agent run duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"scenario"},
	)

	c.runTurns = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_turns",
			Help:      "Assistant turns per run",
			Buckets:   prometheus.LinearBuckets(1, 5, 10),
		},
		[]string{"scenario"},
	)

	// 工具指标
	c.toolCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls",
		},
		[]string{"tool", "outcome"}, // outcome: ok or the err kind
	)

	c.toolCallDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 10, 6),
		},
		[]string{"tool"},
	)

	// 中间件指标
	c.middlewareRewrites = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "middleware_rewrites_total",
		Help:      "Total number of answer-commit history rewrites",
	})

	c.middlewareRemovedMsgs = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "middleware_removed_messages_total",
		Help:      "Messages removed from agent-visible history by rewrites",
	})

	c.middlewareTokensSaved = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "middleware_tokens_saved_total",
		Help:      "Estimated tokens removed from agent-visible history",
	})

	// 评估指标
	c.evaluatorScore = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluator_score",
			Help:      "Evaluator scores in [0,1]",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"key"},
	)

	c.judgeRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_requests_total",
			Help:      "Consistency judge requests",
		},
		[]string{"status"},
	)

	// 缓存指标
	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎭 运行指标记录
// =============================================================================

// RecordRun 记录一次运行
func (c *Collector) RecordRun(scenario, status string, turns int, duration time.Duration) {
	if c == nil {
		return
	}
	c.runsTotal.WithLabelValues(scenario, status).Inc()
	c.runTurns.WithLabelValues(scenario).Observe(float64(turns))
	c.runDuration.WithLabelValues(scenario).Observe(duration.Seconds())
}

// =============================================================================
// 🔧 工具指标记录
// =============================================================================

// RecordToolCall 记录工具调用
func (c *Collector) RecordToolCall(tool, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.toolCallsTotal.WithLabelValues(tool, outcome).Inc()
	c.toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// =============================================================================
// ✂️ 中间件指标记录
// =============================================================================

// RecordRewrite 记录一次历史重写
func (c *Collector) RecordRewrite(removedMessages, tokensSaved int) {
	if c == nil {
		return
	}
	c.middlewareRewrites.Inc()
	c.middlewareRemovedMsgs.Add(float64(removedMessages))
	if tokensSaved > 0 {
		c.middlewareTokensSaved.Add(float64(tokensSaved))
	}
}

// =============================================================================
// 📐 评估指标记录
// =============================================================================

// RecordScore 记录评估分数
func (c *Collector) RecordScore(key string, score float64) {
	if c == nil {
		return
	}
	c.evaluatorScore.WithLabelValues(key).Observe(score)
}

// RecordJudgeRequest 记录 judge 请求
func (c *Collector) RecordJudgeRequest(status string) {
	if c == nil {
		return
	}
	c.judgeRequests.WithLabelValues(status).Inc()
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}
