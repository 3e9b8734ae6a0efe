package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy 定义重试行为。
type RetryPolicy struct {
	MaxRetries     int           `json:"max_retries" yaml:"max_retries"`
	InitialBackoff time.Duration `json:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `json:"max_backoff" yaml:"max_backoff"`
	Multiplier     float64       `json:"multiplier" yaml:"multiplier"`
}

// DefaultRetryPolicy 返回默认重试策略。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// CircuitState 断路器状态。
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig 配置断路器。
type CircuitBreakerConfig struct {
	// FailureThreshold 连续失败多少次后打开
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`
	// SuccessThreshold 半开状态下连续成功多少次后关闭
	SuccessThreshold int `json:"success_threshold" yaml:"success_threshold"`
	// Cooldown 打开后多久进入半开
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`
}

// DefaultCircuitBreakerConfig 返回默认断路器配置。
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Cooldown:         30 * time.Second,
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Retryable
	}
	return false
}

type circuitBreaker struct {
	cfg       CircuitBreakerConfig
	mu        sync.Mutex
	state     CircuitState
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time
	logger    *zap.Logger
}

// allow 检查并在冷却结束后转入半开。
func (cb *circuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen {
		if cb.now().Sub(cb.openedAt) < cb.cfg.Cooldown {
			return false
		}
		cb.state = CircuitHalfOpen
		cb.successes = 0
	}
	return true
}

func (cb *circuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err == nil {
		if cb.state == CircuitHalfOpen {
			cb.successes++
			if cb.successes < cb.cfg.SuccessThreshold {
				return
			}
			cb.logger.Info("circuit breaker closed")
		}
		cb.state = CircuitClosed
		cb.failures = 0
		return
	}
	cb.failures++
	if cb.state == CircuitHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		if cb.state != CircuitOpen {
			cb.logger.Warn("circuit breaker opened", zap.Int("failures", cb.failures))
		}
		cb.state = CircuitOpen
		cb.openedAt = cb.now()
	}
}

func (cb *circuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// ResilientProvider 用重试和断路器包裹一个 Provider。
// Responses are never cached: an agent under evaluation must see every call.
type ResilientProvider struct {
	provider Provider
	policy   RetryPolicy
	breaker  *circuitBreaker
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *zap.Logger
}

// ResilientOption configures a ResilientProvider.
type ResilientOption func(*ResilientProvider)

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p RetryPolicy) ResilientOption {
	return func(rp *ResilientProvider) { rp.policy = p }
}

// WithCircuitBreaker sets the breaker configuration.
func WithCircuitBreaker(cfg CircuitBreakerConfig) ResilientOption {
	return func(rp *ResilientProvider) { rp.breaker.cfg = cfg }
}

// NewResilientProvider wraps provider.
func NewResilientProvider(provider Provider, logger *zap.Logger, opts ...ResilientOption) *ResilientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "resilient_provider"), zap.String("provider", provider.Name()))
	rp := &ResilientProvider{
		provider: provider,
		policy:   DefaultRetryPolicy(),
		breaker: &circuitBreaker{
			cfg:    DefaultCircuitBreakerConfig(),
			now:    time.Now,
			logger: logger,
		},
		sleep:  sleepCtx,
		logger: logger,
	}
	for _, opt := range opts {
		opt(rp)
	}
	return rp
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Name implements Provider.
func (rp *ResilientProvider) Name() string { return rp.provider.Name() }

// State returns the breaker state.
func (rp *ResilientProvider) State() CircuitState { return rp.breaker.State() }

// Completion retries retryable failures with exponential backoff. Each
// attempt counts against the breaker.
func (rp *ResilientProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	backoff := rp.policy.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= rp.policy.MaxRetries; attempt++ {
		if !rp.breaker.allow() {
			if lastErr != nil {
				return nil, errors.Join(ErrCircuitOpen, lastErr)
			}
			return nil, ErrCircuitOpen
		}
		resp, err := rp.provider.Completion(ctx, req)
		rp.breaker.record(err)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == rp.policy.MaxRetries {
			break
		}
		rp.logger.Debug("retrying completion", zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff), zap.Error(err))
		if err := rp.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff = time.Duration(float64(backoff) * rp.policy.Multiplier)
		if rp.policy.MaxBackoff > 0 && backoff > rp.policy.MaxBackoff {
			backoff = rp.policy.MaxBackoff
		}
	}
	return nil, lastErr
}
