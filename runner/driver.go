package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	agentctx "github.com/BaSui01/contextbench/agent/context"
	"github.com/BaSui01/contextbench/internal/metrics"
	"github.com/BaSui01/contextbench/trajectory"
	"github.com/BaSui01/contextbench/types"
)

const tracerName = "github.com/BaSui01/contextbench/runner"

// DefaultMaxTurns caps assistant messages per run when Config.MaxTurns is 0.
const DefaultMaxTurns = 60

// Config configures a Driver.
type Config struct {
	// MaxTurns is the turn budget: the maximum number of assistant messages
	// a run may emit across all nodes.
	MaxTurns int `yaml:"max_turns" json:"max_turns"`
	// Timeout bounds a whole run; zero means no limit.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Status is how a run ended.
type Status string

const (
	StatusCompleted      Status = "completed"
	StatusBudgetExceeded Status = "budget_exceeded"
	StatusProtocol       Status = "protocol_error"
	StatusCancelled      Status = "cancelled"
	StatusFailed         Status = "failed"
)

// Result is everything one run produced. Evaluators work on it even when the
// run ended early.
type Result struct {
	RunID  string `json:"run_id"`
	Status Status `json:"status"`
	// Messages is the ordered trace of every message observed on the stream.
	Messages []types.Message `json:"messages"`
	// Trajectory is the tool calls carried by the streamed assistant
	// messages, in emission order.
	Trajectory []types.ToolCall `json:"trajectory"`
	// AllToolCalls is the all_tool_calls side channel: every tool call
	// emitted by any node, as recorded by the agent. History rewrites never
	// shrink it.
	AllToolCalls []types.ToolCall `json:"all_tool_calls"`
	// FinalResponse is the content of the last assistant message with
	// non-empty content.
	FinalResponse string `json:"final_response"`
	Turns         int    `json:"turns"`
	// Context accumulates the history rewrites reported by the agent.
	Context agentctx.RewriteStats `json:"context"`
	// Diagnostic explains a non-completed status.
	Diagnostic *types.Error   `json:"diagnostic,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Calls returns the side channel in canonical form. Calls whose arguments
// are not valid JSON keep their name with empty arguments.
func (r *Result) Calls() trajectory.Trajectory {
	return trajectory.FromToolCalls(r.AllToolCalls)
}

// RunOption configures one run.
type RunOption func(*runOptions)

type runOptions struct {
	scenario string
	taskID   string
}

// WithScenario labels the run's metrics and spans.
func WithScenario(s string) RunOption {
	return func(o *runOptions) { o.scenario = s }
}

// WithTaskID tags the run with a task id.
func WithTaskID(id string) RunOption {
	return func(o *runOptions) { o.taskID = id }
}

// Driver runs agents under a turn budget.
type Driver struct {
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithMetrics records run metrics on c.
func WithMetrics(c *metrics.Collector) DriverOption {
	return func(d *Driver) { d.metrics = c }
}

// NewDriver creates a driver.
func NewDriver(cfg Config, logger *zap.Logger, opts ...DriverOption) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	d := &Driver{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "run_driver")),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the effective configuration.
func (d *Driver) Config() Config { return d.cfg }

// InitialMessages builds the opening messages of a run: an optional system
// prompt followed by the user query.
func InitialMessages(system, query string) []types.Message {
	var out []types.Message
	if system != "" {
		out = append(out, types.NewSystemMessage(system))
	}
	return append(out, types.NewUserMessage(query))
}

// Run streams agent from initial until it finishes, the turn budget is spent
// or ctx is cancelled. Budget, protocol and cancellation endings are reported
// in Result.Status with a nil error; a non-nil error means the agent or its
// stream failed, and the partial result is still returned.
func (d *Driver) Run(ctx context.Context, agent Agent, initial []types.Message, opts ...RunOption) (*Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	res := &Result{RunID: uuid.NewString()}
	start := time.Now()

	ctx = types.WithRunID(ctx, res.RunID)
	if o.taskID != "" {
		ctx = types.WithTaskID(ctx, o.taskID)
	}
	logger := d.logger.With(zap.String("run_id", res.RunID), zap.String("task_id", o.taskID))

	ctx, span := d.tracer.Start(ctx, "runner.run", trace.WithAttributes(
		attribute.String("run.id", res.RunID),
		attribute.String("run.scenario", o.scenario),
		attribute.String("run.task_id", o.taskID),
		attribute.Int("run.max_turns", d.cfg.MaxTurns),
	))
	defer span.End()

	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	events, err := agent.Stream(runCtx, types.CloneMessages(initial))
	if err != nil {
		res.Status = StatusFailed
		res.Diagnostic = types.NewError(types.ErrInternal, "agent failed to start").WithCause(err)
		d.finish(span, logger, res, o, start)
		return res, fmt.Errorf("start agent: %w", err)
	}

	res.Messages = types.CloneMessages(initial)
	var streamErr error

loop:
	for {
		var ev Event
		var ok bool
		select {
		case ev, ok = <-events:
			if !ok {
				break loop
			}
		case <-ctx.Done():
			break loop
		}

		if ev.Err != nil {
			streamErr = ev.Err
			break loop
		}
		if exceeded := d.consume(res, ev.Update); exceeded {
			res.Status = StatusBudgetExceeded
			res.Diagnostic = types.Errorf(types.ErrBudgetExceeded, "turn budget of %d assistant messages exhausted", d.cfg.MaxTurns)
			logger.Warn("turn budget exceeded", zap.Int("max_turns", d.cfg.MaxTurns))
			break loop
		}
	}
	stop()
	drain(events)

	switch {
	case res.Status != "":
	case streamErr != nil && types.IsErrorCode(streamErr, types.ErrProtocol):
		res.Status = StatusProtocol
		res.Diagnostic, _ = types.AsError(streamErr)
		logger.Warn("agent protocol violation", zap.Error(streamErr))
		streamErr = nil
	case ctx.Err() != nil:
		res.Status = StatusCancelled
		res.Diagnostic = types.NewError(types.ErrCancelled, "run cancelled").WithCause(ctx.Err())
		streamErr = nil
	case streamErr != nil && errors.Is(streamErr, context.Canceled):
		res.Status = StatusCancelled
		res.Diagnostic = types.NewError(types.ErrCancelled, "run cancelled").WithCause(streamErr)
		streamErr = nil
	case streamErr != nil:
		res.Status = StatusFailed
		res.Diagnostic = types.NewError(types.ErrInternal, "agent stream failed").WithCause(streamErr)
	default:
		res.Status = StatusCompleted
	}

	d.finish(span, logger, res, o, start)
	if streamErr != nil {
		return res, fmt.Errorf("run %s: %w", res.RunID, streamErr)
	}
	return res, nil
}

// consume folds one update into res. It reports whether the update carried
// an assistant message beyond the turn budget; that message is not recorded.
func (d *Driver) consume(res *Result, u Update) bool {
	for _, node := range u.Nodes() {
		delta := u[node]
		if delta.Context != nil {
			res.Context.Add(*delta.Context)
		}
		for _, m := range delta.Messages {
			if m.Role == types.RoleAssistant {
				if res.Turns >= d.cfg.MaxTurns {
					return true
				}
				res.Turns++
				res.Trajectory = append(res.Trajectory, m.ToolCalls...)
				if delta.Calls == nil {
					res.AllToolCalls = append(res.AllToolCalls, m.ToolCalls...)
				}
				if m.Content != "" {
					res.FinalResponse = m.Content
				}
			}
			res.Messages = append(res.Messages, m.Clone())
		}
		res.AllToolCalls = append(res.AllToolCalls, delta.Calls...)
	}
	return false
}

func (d *Driver) finish(span trace.Span, logger *zap.Logger, res *Result, o runOptions, start time.Time) {
	res.Duration = time.Since(start)
	span.SetAttributes(
		attribute.String("run.status", string(res.Status)),
		attribute.Int("run.turns", res.Turns),
		attribute.Int("run.tool_calls", len(res.AllToolCalls)),
	)
	if res.Status != StatusCompleted {
		span.SetStatus(codes.Error, string(res.Status))
	}
	d.metrics.RecordRun(o.scenario, string(res.Status), res.Turns, res.Duration)
	logger.Info("run finished",
		zap.String("status", string(res.Status)),
		zap.Int("turns", res.Turns),
		zap.Int("tool_calls", len(res.AllToolCalls)),
		zap.Int("messages_removed", res.Context.MessagesRemoved),
		zap.Duration("duration", res.Duration),
	)
}

// drain discards the rest of a stream so the agent goroutine can exit.
func drain(events <-chan Event) {
	for range events {
	}
}
