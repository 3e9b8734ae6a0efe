package tools

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/internal/metrics"
	"github.com/BaSui01/contextbench/types"
)

const tracerName = "github.com/BaSui01/contextbench/tools"

// Executor runs tool calls for one run against its Env.
type Executor struct {
	registry *Registry
	env      *Env
	logger   *zap.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMetrics records tool calls on c.
func WithMetrics(c *metrics.Collector) ExecutorOption {
	return func(e *Executor) { e.metrics = c }
}

// WithTracer overrides the tracer.
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = t }
}

// NewExecutor 创建工具执行器。
func NewExecutor(registry *Registry, env *Env, logger *zap.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		registry: registry,
		env:      env,
		logger:   logger.With(zap.String("component", "tool_executor")),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Env returns the run environment.
func (e *Executor) Env() *Env { return e.env }

// Registry returns the tool registry.
func (e *Executor) Registry() *Registry { return e.registry }

// Execute runs calls sequentially in emission order; later calls observe
// state changes made by earlier ones.
func (e *Executor) Execute(ctx context.Context, calls []types.ToolCall) []types.ToolResult {
	results := make([]types.ToolResult, len(calls))
	for i, call := range calls {
		results[i] = e.ExecuteOne(ctx, call)
	}
	return results
}

// ExecuteOne runs a single call. It never returns a Go error: unknown tools,
// malformed arguments, timeouts and panics all become err outcomes.
func (e *Executor) ExecuteOne(ctx context.Context, call types.ToolCall) types.ToolResult {
	start := time.Now()
	result := types.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
	}

	ctx, span := e.tracer.Start(ctx, "tool."+call.Name, trace.WithAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	))
	defer span.End()

	finish := func(outcome types.ToolOutcome) types.ToolResult {
		result.Outcome = outcome
		result.Duration = time.Since(start)
		label := "ok"
		if outcome.Err != nil {
			label = string(outcome.Err.Kind)
			span.SetAttributes(attribute.String("tool.error_kind", label))
		}
		e.metrics.RecordToolCall(call.Name, label, result.Duration)
		return result
	}

	// 1. 获取工具函数和元数据
	fn, meta, err := e.registry.Get(call.Name)
	if err != nil {
		e.logger.Debug("unknown tool", zap.String("name", call.Name))
		return finish(types.Fail(types.ErrNotFound, "unknown tool %q", call.Name))
	}

	// 2. 参数修复
	args, repaired, err := RepairArguments(call.Arguments)
	if err != nil {
		e.logger.Debug("unrepairable tool arguments", zap.String("name", call.Name), zap.Error(err))
		return finish(types.Fail(types.ErrInvalid, "malformed arguments: %v", err))
	}
	if repaired {
		e.logger.Debug("repaired tool arguments", zap.String("name", call.Name))
	}

	// 3. 执行工具（带超时控制）
	execCtx, cancel := context.WithTimeout(ctx, meta.Timeout)
	defer cancel()

	// 使用带缓冲的 channel 防止 goroutine 泄漏
	done := make(chan types.ToolOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- types.Fail(types.ErrInternal, "tool panicked: %v", r)
			}
		}()
		done <- fn(execCtx, e.env, args)
	}()

	select {
	case outcome := <-done:
		if outcome.Err != nil {
			// Tool errors are expected; the agent receives them and may recover.
			e.logger.Debug("tool returned error",
				zap.String("name", call.Name),
				zap.String("kind", string(outcome.Err.Kind)),
				zap.String("message", outcome.Err.Message))
		}
		return finish(outcome)
	case <-execCtx.Done():
		e.logger.Warn("tool execution timeout",
			zap.String("name", call.Name),
			zap.Duration("timeout", meta.Timeout))
		return finish(types.Fail(types.ErrInternal, "execution timeout after %s", meta.Timeout))
	}
}
