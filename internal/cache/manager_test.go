package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Manager 测试
// =============================================================================

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr := miniredis.RunT(t)

	config := DefaultConfig()
	config.Enabled = true
	config.Addr = mr.Addr()
	config.DefaultTTL = time.Minute

	manager, err := NewManager(config, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return mr, manager
}

func TestManager_SetAndGet(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "verdict", "ok", 0))
	value, err := manager.Get(ctx, "verdict")
	require.NoError(t, err)
	assert.Equal(t, "ok", value)

	// 键带前缀
	assert.True(t, mr.Exists("contextbench:verdict"))
	assert.Equal(t, time.Minute, mr.TTL("contextbench:verdict"))
}

func TestManager_Miss(t *testing.T) {
	_, manager := setupTestRedis(t)
	_, err := manager.Get(context.Background(), "absent")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_JSONRoundTrip(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	type verdict struct {
		Consistent bool    `json:"consistent"`
		Score      float64 `json:"score"`
	}
	require.NoError(t, manager.SetJSON(ctx, "v", verdict{Consistent: true, Score: 0.5}, time.Minute))
	var got verdict
	require.NoError(t, manager.GetJSON(ctx, "v", &got))
	assert.Equal(t, verdict{Consistent: true, Score: 0.5}, got)

	require.NoError(t, manager.Set(ctx, "broken", "{not json", time.Minute))
	assert.Error(t, manager.GetJSON(ctx, "broken", &got))
}

func TestManager_DeleteAndExpiry(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "a", "1", time.Second))
	require.NoError(t, manager.Set(ctx, "b", "2", time.Minute))
	require.NoError(t, manager.Delete(ctx, "b"))
	_, err := manager.Get(ctx, "b")
	assert.True(t, IsCacheMiss(err))

	mr.FastForward(2 * time.Second)
	_, err = manager.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_Closed(t *testing.T) {
	_, manager := setupTestRedis(t)
	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	_, err := manager.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, manager.Set(context.Background(), "x", "1", 0), ErrClosed)
}

func TestNewManager_Unreachable(t *testing.T) {
	config := DefaultConfig()
	config.Addr = "127.0.0.1:1"
	config.DialTimeout = 200 * time.Millisecond
	_, err := NewManager(config, nil)
	assert.Error(t, err)
}

func TestManager_ConcurrentOperations(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			assert.NoError(t, manager.Set(ctx, key, key, time.Minute))
			v, err := manager.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, key, v)
		}(i)
	}
	wg.Wait()
}
