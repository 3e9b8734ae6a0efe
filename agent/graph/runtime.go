package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	agentctx "github.com/BaSui01/contextbench/agent/context"
	"github.com/BaSui01/contextbench/llm"
	"github.com/BaSui01/contextbench/runner"
	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/types"
)

// Config configures the model node.
type Config struct {
	Model       string  `yaml:"model" json:"model"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Temperature float32 `yaml:"temperature" json:"temperature"`
	// ToolChoice is passed through to the provider: auto, none or a tool name.
	ToolChoice string `yaml:"tool_choice" json:"tool_choice"`
}

// Hooks let a caller supervise tool execution. BeforeTool may veto a call by
// returning the outcome the agent sees instead. AfterTool observes every
// result; it can end the run normally (stop) or with an error.
type Hooks interface {
	BeforeTool(call types.ToolCall) (types.ToolOutcome, bool)
	AfterTool(call types.ToolCall, result types.ToolResult) (stop bool, err error)
}

// Runtime is a single-graph ReAct agent: the model node proposes tool calls,
// the tools node executes them and the middleware node rewrites history.
// A Runtime holds no per-run state and can stream many runs, but each run
// needs its own Executor because the executor carries the run's Env.
type Runtime struct {
	provider   llm.Provider
	executor   *tools.Executor
	middleware *agentctx.CommitMiddleware
	hooks      Hooks
	cfg        Config
	logger     *zap.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithMiddleware installs the answer-commit middleware between turns.
func WithMiddleware(m *agentctx.CommitMiddleware) Option {
	return func(r *Runtime) { r.middleware = m }
}

// WithHooks installs tool hooks.
func WithHooks(h Hooks) Option {
	return func(r *Runtime) { r.hooks = h }
}

// WithConfig sets the model configuration.
func WithConfig(cfg Config) Option {
	return func(r *Runtime) { r.cfg = cfg }
}

// New creates a runtime.
func New(provider llm.Provider, executor *tools.Executor, logger *zap.Logger, opts ...Option) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runtime{
		provider: provider,
		executor: executor,
		cfg:      Config{ToolChoice: "auto"},
		logger:   logger.With(zap.String("component", "graph_runtime")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ runner.Agent = (*Runtime)(nil)

// Stream implements runner.Agent.
func (r *Runtime) Stream(ctx context.Context, initial []types.Message) (<-chan runner.Event, error) {
	if r.provider == nil {
		return nil, fmt.Errorf("graph runtime: no model provider")
	}
	if r.executor == nil {
		return nil, fmt.Errorf("graph runtime: no tool executor")
	}
	out := make(chan runner.Event)
	go func() {
		defer close(out)
		r.loop(ctx, agentctx.NewSession(initial...), out)
	}()
	return out, nil
}

func (r *Runtime) loop(ctx context.Context, session *agentctx.Session, out chan<- runner.Event) {
	schemas := r.executor.Registry().List()
	traceID, _ := types.RunID(ctx)

	for turn := 1; ; turn++ {
		// 取消只在回合边界生效
		if ctx.Err() != nil {
			return
		}

		resp, err := r.provider.Completion(ctx, &llm.ChatRequest{
			TraceID:     traceID,
			Model:       r.cfg.Model,
			Messages:    session.Messages(),
			Tools:       schemas,
			ToolChoice:  r.cfg.ToolChoice,
			MaxTokens:   r.cfg.MaxTokens,
			Temperature: r.cfg.Temperature,
		})
		if err != nil {
			if ctx.Err() == nil {
				runner.Emit(ctx, out, runner.Event{Err: fmt.Errorf("model call at turn %d: %w", turn, err)})
			}
			return
		}
		msg, ok := resp.FirstMessage()
		if !ok {
			runner.Emit(ctx, out, runner.Event{Err: fmt.Errorf("model returned no choices at turn %d", turn)})
			return
		}
		msg.Role = types.RoleAssistant

		mark := session.Mark()
		stored := session.Append(msg)
		delta := runner.Delta{Messages: stored, Calls: session.CallsSince(mark)}
		if !runner.Emit(ctx, out, runner.Event{Update: runner.Update{runner.NodeModel: delta}}) {
			return
		}
		if !stored[0].HasToolCalls() {
			r.logger.Debug("final response", zap.Int("turn", turn))
			return
		}

		stop, err := r.runTools(ctx, session, stored[0].ToolCalls, out)
		if err != nil {
			runner.Emit(ctx, out, runner.Event{Err: err})
			return
		}

		if r.middleware != nil {
			if stats := r.middleware.Apply(session); stats.Rewritten {
				if !runner.Emit(ctx, out, runner.Event{Update: runner.Update{runner.NodeMiddleware: {Context: &stats}}}) {
					return
				}
			}
		}
		if stop {
			return
		}
	}
}

// runTools executes one turn's calls in order and emits their results as one
// tools update.
func (r *Runtime) runTools(ctx context.Context, session *agentctx.Session, calls []types.ToolCall, out chan<- runner.Event) (bool, error) {
	results := make([]types.Message, 0, len(calls))
	var stop bool
	var hookErr error
	for _, call := range calls {
		var res types.ToolResult
		if r.hooks != nil {
			if veto, blocked := r.hooks.BeforeTool(call); blocked {
				res = types.ToolResult{ToolCallID: call.ID, Name: call.Name, Outcome: veto}
				results = append(results, res.ToMessage())
				continue
			}
		}
		res = r.executor.ExecuteOne(ctx, call)
		results = append(results, res.ToMessage())
		if r.hooks != nil && hookErr == nil {
			s, err := r.hooks.AfterTool(call, res)
			stop = stop || s
			hookErr = err
		}
	}
	stored := session.Append(results...)
	if !runner.Emit(ctx, out, runner.Event{Update: runner.Update{runner.NodeTools: {Messages: stored}}}) {
		return true, nil
	}
	return stop, hookErr
}
