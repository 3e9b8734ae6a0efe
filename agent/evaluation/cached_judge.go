package evaluation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/internal/cache"
)

// CachedJudge memoizes verdicts by request content. Errors are not cached.
type CachedJudge struct {
	inner     Judge
	cache     *cache.Tiered
	namespace string
	logger    *zap.Logger
}

// NewCachedJudge wraps inner. namespace separates verdicts of different
// judges sharing one cache, e.g. "numeric" and "llm:<model>".
func NewCachedJudge(inner Judge, c *cache.Tiered, namespace string, logger *zap.Logger) *CachedJudge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedJudge{
		inner:     inner,
		cache:     c,
		namespace: namespace,
		logger:    logger.With(zap.String("component", "cached_judge")),
	}
}

func (j *CachedJudge) Judge(ctx context.Context, req ConsistencyRequest) (*Verdict, error) {
	key, err := j.key(req)
	if err != nil {
		return j.inner.Judge(ctx, req)
	}

	var cached Verdict
	found, err := j.cache.Get(ctx, key, &cached)
	if err != nil {
		j.logger.Warn("discarding unreadable cached verdict", zap.String("key", key), zap.Error(err))
	}
	if found && err == nil {
		return &cached, nil
	}

	v, err := j.inner.Judge(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := j.cache.Set(ctx, key, v); err != nil {
		j.logger.Warn("cache verdict", zap.Error(err))
	}
	return v, nil
}

func (j *CachedJudge) key(req ConsistencyRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "verdict:" + j.namespace + ":" + hex.EncodeToString(sum[:]), nil
}
