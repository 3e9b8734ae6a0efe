package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider 按顺序返回预设错误，用完后成功。
type scriptedProvider struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return nil, err
	}
	return &ChatResponse{Model: req.Model}, nil
}

var (
	transient = &Error{Code: ErrUpstreamError, Message: "502", Retryable: true}
	fatal     = &Error{Code: ErrUnauthorized, Message: "bad key"}
)

func newTestResilient(p Provider, opts ...ResilientOption) (*ResilientProvider, *[]time.Duration) {
	rp := NewResilientProvider(p, nil, opts...)
	var slept []time.Duration
	rp.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return rp, &slept
}

func TestResilientProvider_RetriesTransientErrors(t *testing.T) {
	p := &scriptedProvider{errs: []error{transient, transient}}
	rp, slept := newTestResilient(p, WithRetryPolicy(RetryPolicy{
		MaxRetries: 3, InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, Multiplier: 4,
	}))

	resp, err := rp.Completion(context.Background(), &ChatRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "m", resp.Model)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, *slept)
	assert.Equal(t, "scripted", rp.Name())
}

func TestResilientProvider_DoesNotRetryFatalErrors(t *testing.T) {
	p := &scriptedProvider{errs: []error{fatal}}
	rp, _ := newTestResilient(p)

	_, err := rp.Completion(context.Background(), &ChatRequest{})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, p.calls)
}

func TestResilientProvider_GivesUpAfterMaxRetries(t *testing.T) {
	p := &scriptedProvider{errs: []error{transient, transient, transient}}
	rp, _ := newTestResilient(p, WithRetryPolicy(RetryPolicy{MaxRetries: 1, Multiplier: 2}))

	_, err := rp.Completion(context.Background(), &ChatRequest{})
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 2, p.calls)
}

func TestResilientProvider_CircuitBreaker(t *testing.T) {
	p := &scriptedProvider{errs: []error{fatal, fatal}}
	rp, _ := newTestResilient(p, WithCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2, SuccessThreshold: 1, Cooldown: time.Minute,
	}))
	now := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	rp.breaker.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_, err := rp.Completion(context.Background(), &ChatRequest{})
		assert.ErrorIs(t, err, fatal)
	}
	assert.Equal(t, CircuitOpen, rp.State())

	_, err := rp.Completion(context.Background(), &ChatRequest{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, p.calls, "open breaker does not reach the provider")

	now = now.Add(2 * time.Minute)
	_, err = rp.Completion(context.Background(), &ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, rp.State())
}

func TestResilientProvider_SleepHonoursContext(t *testing.T) {
	p := &scriptedProvider{errs: []error{transient}}
	rp := NewResilientProvider(p, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rp.Completion(ctx, &ChatRequest{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(transient))
	assert.False(t, IsRetryable(fatal))
	assert.False(t, IsRetryable(errors.New("plain")))
}
