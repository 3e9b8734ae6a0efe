package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/internal/metrics"
)

const (
	tierMemory = "memory"
	tierRedis  = "redis"
)

// Tiered is a JSON cache with an in-process LRU in front of an optional
// Redis Manager. Redis failures degrade to memory-only and are never
// returned to the caller.
type Tiered struct {
	local   *lru.Cache[string, []byte]
	remote  *Manager
	ttl     time.Duration
	metrics *metrics.Collector
	logger  *zap.Logger
}

// TieredOption configures a Tiered cache.
type TieredOption func(*Tiered)

// WithRemote adds the Redis tier.
func WithRemote(m *Manager) TieredOption {
	return func(t *Tiered) { t.remote = m }
}

// WithTTL sets the Redis expiry of new entries.
func WithTTL(ttl time.Duration) TieredOption {
	return func(t *Tiered) { t.ttl = ttl }
}

// WithMetrics records hits and misses per tier.
func WithMetrics(c *metrics.Collector) TieredOption {
	return func(t *Tiered) { t.metrics = c }
}

// NewTiered creates a cache holding at most size entries in memory.
func NewTiered(size int, logger *zap.Logger, opts ...TieredOption) (*Tiered, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	local, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	t := &Tiered{
		local:  local,
		logger: logger.With(zap.String("component", "tiered_cache")),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Get decodes the entry under key into dest and reports whether it was
// found. A Redis hit is promoted into memory.
func (t *Tiered) Get(ctx context.Context, key string, dest any) (bool, error) {
	if data, ok := t.local.Get(key); ok {
		t.metrics.RecordCacheHit(tierMemory)
		return true, decode(data, dest)
	}
	t.metrics.RecordCacheMiss(tierMemory)
	if t.remote == nil {
		return false, nil
	}

	val, err := t.remote.Get(ctx, key)
	switch {
	case IsCacheMiss(err):
		t.metrics.RecordCacheMiss(tierRedis)
		return false, nil
	case err != nil:
		t.logger.Warn("redis tier unavailable", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	t.metrics.RecordCacheHit(tierRedis)
	data := []byte(val)
	t.local.Add(key, data)
	return true, decode(data, dest)
}

// Set stores value under key in every tier.
func (t *Tiered) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	t.local.Add(key, data)
	if t.remote != nil {
		if err := t.remote.Set(ctx, key, string(data), t.ttl); err != nil {
			t.logger.Warn("redis tier write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// Len returns the number of in-memory entries.
func (t *Tiered) Len() int { return t.local.Len() }

// Purge empties the memory tier.
func (t *Tiered) Purge() { t.local.Purge() }

func decode(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}
