package main

import (
	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/agent/evaluation"
	"github.com/BaSui01/contextbench/config"
	"github.com/BaSui01/contextbench/internal/cache"
	"github.com/BaSui01/contextbench/internal/metrics"
)

// buildJudge returns the consistency judge the config asks for, nil for
// "none", and a cleanup func that releases the Redis tier.
func buildJudge(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (evaluation.Judge, func(), error) {
	noop := func() {}

	var (
		inner     evaluation.Judge
		namespace string
	)
	switch cfg.Judge.Kind {
	case config.JudgeNone:
		return nil, noop, nil
	case config.JudgeLLM:
		provider, err := newProvider(cfg.LLM, cfg.Judge.Model, "--judge llm", logger)
		if err != nil {
			return nil, noop, err
		}
		jc := evaluation.DefaultLLMJudgeConfig()
		jc.Model = cfg.Judge.Model
		jc.MaxTokens = cfg.Judge.MaxTokens
		jc.Timeout = cfg.Judge.Timeout
		jc.RequestsPerSecond = cfg.Judge.RequestsPerSecond
		jc.Burst = cfg.Judge.Burst
		inner = evaluation.NewLLMJudge(provider, jc, logger, evaluation.WithJudgeMetrics(collector))
		namespace = "llm:" + cfg.Judge.Model
	default:
		inner = evaluation.NewNumericJudge()
		namespace = config.JudgeNumeric
	}

	if cfg.Judge.CacheSize <= 0 {
		return inner, noop, nil
	}

	opts := []cache.TieredOption{cache.WithTTL(cfg.Cache.DefaultTTL), cache.WithMetrics(collector)}
	cleanup := noop
	if cfg.Cache.Enabled {
		remote, err := cache.NewManager(cfg.Cache, logger)
		if err != nil {
			logger.Warn("redis verdict cache unavailable, using the in-process tier only",
				zap.String("addr", cfg.Cache.Addr), zap.Error(err))
		} else {
			opts = append(opts, cache.WithRemote(remote))
			cleanup = func() {
				if err := remote.Close(); err != nil {
					logger.Warn("close redis verdict cache", zap.Error(err))
				}
			}
		}
	}
	tiered, err := cache.NewTiered(cfg.Judge.CacheSize, logger, opts...)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return evaluation.NewCachedJudge(inner, tiered, namespace, logger), cleanup, nil
}
