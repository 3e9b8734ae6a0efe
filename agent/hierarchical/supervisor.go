package hierarchical

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	agentctx "github.com/BaSui01/contextbench/agent/context"
	"github.com/BaSui01/contextbench/agent/graph"
	"github.com/BaSui01/contextbench/llm"
	"github.com/BaSui01/contextbench/runner"
	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/types"
)

// ResearcherFactory returns the model that researches key. key is empty for
// general_research.
type ResearcherFactory func(key string) (llm.Provider, error)

// Config configures a Supervisor.
type Config struct {
	// QueueSize bounds the delegations pending in one supervisor turn.
	QueueSize int `yaml:"queue_size" json:"queue_size"`
	// ThinksPerDelegation caps think_tool calls between two delegations.
	ThinksPerDelegation int `yaml:"thinks_per_delegation" json:"thinks_per_delegation"`

	Supervisor graph.Config `yaml:"supervisor" json:"supervisor"`
	Researcher graph.Config `yaml:"researcher" json:"researcher"`
}

// DefaultConfig returns the default supervisor configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:           8,
		ThinksPerDelegation: 1,
		Supervisor:          graph.Config{ToolChoice: "auto"},
		Researcher:          graph.Config{ToolChoice: "auto"},
	}
}

// Supervisor is the multi-agent runtime: a supervisor model that delegates
// deliverables to researcher subgraphs. Like graph.Runtime it needs a fresh
// Env per run.
type Supervisor struct {
	provider    llm.Provider
	researchers ResearcherFactory
	env         *tools.Env
	registry    *tools.Registry
	answerKeys  map[string]string
	middleware  *agentctx.CommitMiddleware
	execOpts    []tools.ExecutorOption
	cfg         Config
	logger      *zap.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithConfig sets the configuration. Zero limits keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Supervisor) {
		if cfg.QueueSize <= 0 {
			cfg.QueueSize = s.cfg.QueueSize
		}
		if cfg.ThinksPerDelegation <= 0 {
			cfg.ThinksPerDelegation = s.cfg.ThinksPerDelegation
		}
		s.cfg = cfg
	}
}

// WithMiddleware installs the answer-commit middleware in every researcher.
func WithMiddleware(m *agentctx.CommitMiddleware) Option {
	return func(s *Supervisor) { s.middleware = m }
}

// WithAnswerKeys maps deliverable keys to the answer keys of the final
// answers block. Unmapped deliverables are reported under their own key.
func WithAnswerKeys(m map[string]string) Option {
	return func(s *Supervisor) { s.answerKeys = m }
}

// WithExecutorOptions passes options to every researcher's tool executor.
func WithExecutorOptions(opts ...tools.ExecutorOption) Option {
	return func(s *Supervisor) { s.execOpts = append(s.execOpts, opts...) }
}

// New creates a supervisor. env.State must declare the deliverable keys.
func New(provider llm.Provider, researchers ResearcherFactory, env *tools.Env, logger *zap.Logger, opts ...Option) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Supervisor{
		provider:    provider,
		researchers: researchers,
		env:         env,
		registry:    tools.MustScenarioRegistry(tools.ScenarioResearchMultiAgent, logger),
		cfg:         DefaultConfig(),
		logger:      logger.With(zap.String("component", "supervisor")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ runner.Agent = (*Supervisor)(nil)

// Stream implements runner.Agent.
func (s *Supervisor) Stream(ctx context.Context, initial []types.Message) (<-chan runner.Event, error) {
	switch {
	case s.provider == nil:
		return nil, fmt.Errorf("supervisor: no model provider")
	case s.researchers == nil:
		return nil, fmt.Errorf("supervisor: no researcher factory")
	case s.env == nil || s.env.State == nil:
		return nil, fmt.Errorf("supervisor: no research state")
	}
	out := make(chan runner.Event)
	go func() {
		defer close(out)
		s.loop(ctx, agentctx.NewSession(initial...), out)
	}()
	return out, nil
}

// runState is the per-run bookkeeping of the supervisor FSM.
type runState struct {
	thinks    int
	delegated map[string]bool
	summaries map[string]string
	queue     chan job
}

func (s *Supervisor) loop(ctx context.Context, session *agentctx.Session, out chan<- runner.Event) {
	rs := &runState{
		delegated: make(map[string]bool),
		summaries: make(map[string]string),
		queue:     make(chan job, s.cfg.QueueSize),
	}
	schemas := supervisorTools()
	traceID, _ := types.RunID(ctx)

	emit := func(msgs []types.Message) bool {
		return runner.Emit(ctx, out, runner.Event{Update: runner.Update{runner.NodeSupervisor: {Messages: msgs}}})
	}

	for turn := 1; ; turn++ {
		if ctx.Err() != nil {
			return
		}
		resp, err := s.provider.Completion(ctx, &llm.ChatRequest{
			TraceID:     traceID,
			Model:       s.cfg.Supervisor.Model,
			Messages:    session.Messages(),
			Tools:       schemas,
			ToolChoice:  s.cfg.Supervisor.ToolChoice,
			MaxTokens:   s.cfg.Supervisor.MaxTokens,
			Temperature: s.cfg.Supervisor.Temperature,
		})
		if err != nil {
			if ctx.Err() == nil {
				runner.Emit(ctx, out, runner.Event{Err: fmt.Errorf("supervisor model call at turn %d: %w", turn, err)})
			}
			return
		}
		msg, ok := resp.FirstMessage()
		if !ok {
			runner.Emit(ctx, out, runner.Event{Err: fmt.Errorf("supervisor model returned no choices at turn %d", turn)})
			return
		}
		msg.Role = types.RoleAssistant
		mark := session.Mark()
		stored := session.Append(msg)
		if !runner.Emit(ctx, out, runner.Event{Update: runner.Update{runner.NodeSupervisor: {Messages: stored, Calls: session.CallsSince(mark)}}}) {
			return
		}
		if !stored[0].HasToolCalls() {
			return
		}

		results, complete, err := s.dispatch(ctx, rs, stored[0].ToolCalls, out)
		if err != nil {
			if ctx.Err() == nil {
				runner.Emit(ctx, out, runner.Event{Err: err})
			}
			return
		}
		if !emit(session.Append(results...)) {
			return
		}
		if complete {
			s.logger.Info("research complete", zap.Int("turns", turn), zap.Int("deliverables", len(s.env.State.Deliverables())))
			emit(session.Append(types.NewAssistantMessage(s.report(rs.summaries))))
			return
		}
	}
}

// dispatch handles one supervisor turn: it answers think_tool and
// research_complete inline, queues delegations and then drains the queue
// in order. A think_tool overrun is returned as a protocol error.
func (s *Supervisor) dispatch(ctx context.Context, rs *runState, calls []types.ToolCall, out chan<- runner.Event) ([]types.Message, bool, error) {
	outcomes := make([]types.ToolOutcome, len(calls))
	var complete bool

	for i, call := range calls {
		switch call.Name {
		case toolThink:
			if rs.thinks >= s.cfg.ThinksPerDelegation {
				return nil, false, types.Errorf(types.ErrProtocol,
					"think_tool called %d times without a delegation (limit %d)", rs.thinks+1, s.cfg.ThinksPerDelegation)
			}
			var a thinkArgs
			if err := tools.DecodeArgs(call.Arguments, &a); err != nil {
				outcomes[i] = types.Fail(types.ErrInvalid, "%s", err.Error())
				continue
			}
			rs.thinks++
			s.env.State.AddNote("supervisor", a.Reflection)
			outcomes[i] = types.OK(map[string]any{"status": "recorded"})

		case toolDeepResearch:
			var a deepResearchArgs
			if err := tools.DecodeArgs(call.Arguments, &a); err != nil {
				outcomes[i] = types.Fail(types.ErrInvalid, "%s", err.Error())
				continue
			}
			if outcome, ok := s.checkDelegation(rs, a.Key); !ok {
				outcomes[i] = outcome
				continue
			}
			outcomes[i] = s.enqueue(rs, job{index: i, call: call, key: a.Key, instructions: a.Instructions})
			if !outcomes[i].IsError() {
				rs.delegated[a.Key] = true
			}

		case toolGeneralResearch:
			var a generalResearchArgs
			if err := tools.DecodeArgs(call.Arguments, &a); err != nil {
				outcomes[i] = types.Fail(types.ErrInvalid, "%s", err.Error())
				continue
			}
			outcomes[i] = s.enqueue(rs, job{index: i, call: call, instructions: a.Question})

		case toolResearchComplete:
			var a researchCompleteArgs
			if err := tools.DecodeArgs(call.Arguments, &a); err != nil {
				outcomes[i] = types.Fail(types.ErrInvalid, "%s", err.Error())
				continue
			}
			if err := s.env.State.Complete(a.Summary); err != nil {
				outcomes[i] = types.Fail(types.GetErrorCode(err), "%s", err.Error())
				continue
			}
			complete = true
			outcomes[i] = types.OK(map[string]any{"status": "complete", "deliverables": len(s.env.State.Deliverables())})

		default:
			outcomes[i] = types.Fail(types.ErrNotFound, "unknown supervisor tool %q", call.Name)
		}
	}

	// 队列按入队顺序串行执行
	for len(rs.queue) > 0 {
		j := <-rs.queue
		outcome, summary, err := s.research(ctx, j, out)
		if err != nil {
			return nil, false, err
		}
		if j.key != "" && outcome.IsError() {
			// the deliverable may be delegated again
			delete(rs.delegated, j.key)
		}
		if summary != "" && j.key != "" {
			rs.summaries[j.key] = summary
		}
		outcomes[j.index] = outcome
	}

	msgs := make([]types.Message, len(calls))
	for i, call := range calls {
		msgs[i] = types.ToolResult{ToolCallID: call.ID, Name: call.Name, Outcome: outcomes[i]}.ToMessage()
	}
	return msgs, complete, nil
}

func (s *Supervisor) checkDelegation(rs *runState, key string) (types.ToolOutcome, bool) {
	if !s.env.State.IsDeclared(key) {
		return types.Fail(types.ErrInvalid, "deliverable key %q is not declared", key), false
	}
	if rs.delegated[key] {
		return types.Fail(types.ErrInvalid, "deliverable %q is already delegated", key), false
	}
	if _, stored := s.env.State.Deliverable(key); stored {
		return types.Fail(types.ErrInvalid, "deliverable %q is already stored", key), false
	}
	return types.ToolOutcome{}, true
}

func (s *Supervisor) enqueue(rs *runState, j job) types.ToolOutcome {
	select {
	case rs.queue <- j:
		rs.thinks = 0
		return types.OK(map[string]any{"status": "queued"})
	default:
		return types.Fail(types.ErrInvalid, "research queue is full (%d pending); delegate again next turn", cap(rs.queue))
	}
}
