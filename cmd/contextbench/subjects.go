package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	agentctx "github.com/BaSui01/contextbench/agent/context"
	"github.com/BaSui01/contextbench/agent/evaluation"
	"github.com/BaSui01/contextbench/agent/graph"
	"github.com/BaSui01/contextbench/agent/hierarchical"
	"github.com/BaSui01/contextbench/agent/replay"
	"github.com/BaSui01/contextbench/config"
	"github.com/BaSui01/contextbench/internal/metrics"
	"github.com/BaSui01/contextbench/llm"
	"github.com/BaSui01/contextbench/llm/openaicompat"
	"github.com/BaSui01/contextbench/runner"
	"github.com/BaSui01/contextbench/store"
	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/tools"
)

// subjectBuilder prepares a fresh agent for every record of a plan.
type subjectBuilder struct {
	agent config.AgentConfig
	seed  int64
	// provider drives every model node; nil selects the replay agent.
	provider   llm.Provider
	middleware *agentctx.CommitMiddleware
	collector  *metrics.Collector
	logger     *zap.Logger
}

func newSubjectBuilder(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (*subjectBuilder, error) {
	b := &subjectBuilder{
		agent:     cfg.Agent,
		seed:      cfg.Run.Seed,
		collector: collector,
		logger:    logger,
	}
	if cfg.Agent.CommitMiddleware {
		b.middleware = agentctx.NewCommitMiddleware(logger, agentctx.WithMetrics(collector))
	}
	if cfg.Agent.Kind == config.AgentLLM {
		p, err := newProvider(cfg.LLM, cfg.Agent.Model, "agent.kind llm", logger)
		if err != nil {
			return nil, err
		}
		b.provider = p
	}
	return b, nil
}

// newProvider builds the OpenAI-compatible provider behind retries and a
// circuit breaker.
func newProvider(cfg config.LLMConfig, model, user string, logger *zap.Logger) (llm.Provider, error) {
	if !cfg.Configured() {
		return nil, missingf("%s needs an LLM provider: set llm.base_url or llm.api_key (CONTEXTBENCH_LLM_BASE_URL, CONTEXTBENCH_LLM_API_KEY)", user)
	}
	base := openaicompat.New(openaicompat.Config{
		Name:    cfg.Provider,
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   model,
		Timeout: cfg.Timeout,
	}, logger)
	policy := llm.DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries
	return llm.NewResilientProvider(base, logger, llm.WithRetryPolicy(policy)), nil
}

func (b *subjectBuilder) factory(p *plan) evaluation.SubjectFactory {
	return func(_ context.Context, rec *tasks.Record) (*evaluation.Subject, error) {
		task, ok := p.task(rec.Metadata.TaskID)
		if !ok {
			return nil, fmt.Errorf("task %d is not part of this run", rec.Metadata.TaskID)
		}
		env := &tools.Env{Stores: store.New(b.seed), State: task.NewState()}

		var (
			agent  runner.Agent
			system = b.agent.SystemPrompt
			err    error
		)
		if task.Scenario == tools.ScenarioResearchMultiAgent {
			agent, err = b.supervisor(task, env)
			if system == "" {
				system = hierarchical.SupervisorPrompt(task.DeliverableKeys())
			}
		} else {
			agent, err = b.flat(task, env)
		}
		if err != nil {
			return nil, err
		}
		return &evaluation.Subject{
			Agent:    agent,
			Initial:  runner.InitialMessages(system, rec.Inputs.Query),
			State:    env.State,
			Scenario: string(task.Scenario),
		}, nil
	}
}

func (b *subjectBuilder) graphConfig() graph.Config {
	return graph.Config{
		Model:       b.agent.Model,
		MaxTokens:   b.agent.MaxTokens,
		Temperature: float32(b.agent.Temperature),
		ToolChoice:  b.agent.ToolChoice,
	}
}

func (b *subjectBuilder) replayOptions() []replay.Option {
	return []replay.Option{
		replay.WithCallsPerTurn(b.agent.CallsPerTurn),
		replay.WithLogger(b.logger),
	}
}

// flat is a single ReAct graph over the task's tool surface.
func (b *subjectBuilder) flat(task *tasks.Task, env *tools.Env) (runner.Agent, error) {
	registry, err := tools.NewScenarioRegistry(task.Scenario, b.logger)
	if err != nil {
		return nil, err
	}
	provider := b.provider
	if provider == nil {
		model, err := replay.New(task, b.replayOptions()...)
		if err != nil {
			return nil, fmt.Errorf("replay task %d: %w", task.ID, err)
		}
		provider = model
	}

	exec := tools.NewExecutor(registry, env, b.logger, tools.WithMetrics(b.collector))
	opts := []graph.Option{graph.WithConfig(b.graphConfig())}
	if b.middleware != nil {
		opts = append(opts, graph.WithMiddleware(b.middleware))
	}
	return graph.New(provider, exec, b.logger, opts...), nil
}

// supervisor is the delegating multi-agent graph.
func (b *subjectBuilder) supervisor(task *tasks.Task, env *tools.Env) (runner.Agent, error) {
	cfg := hierarchical.DefaultConfig()
	cfg.QueueSize = b.agent.QueueSize
	cfg.ThinksPerDelegation = b.agent.ThinksPerDelegation
	cfg.Supervisor = b.graphConfig()
	cfg.Researcher = b.graphConfig()

	provider := b.provider
	researchers := func(string) (llm.Provider, error) { return b.provider, nil }
	if provider == nil {
		sup, err := replay.NewSupervisor(task)
		if err != nil {
			return nil, fmt.Errorf("replay supervisor for task %d: %w", task.ID, err)
		}
		provider = sup
		researchers = func(key string) (llm.Provider, error) {
			return replay.NewResearcher(task, key, b.replayOptions()...)
		}
	}

	opts := []hierarchical.Option{
		hierarchical.WithConfig(cfg),
		hierarchical.WithAnswerKeys(task.DeliverableAnswers()),
		hierarchical.WithExecutorOptions(tools.WithMetrics(b.collector)),
	}
	if b.middleware != nil {
		opts = append(opts, hierarchical.WithMiddleware(b.middleware))
	}
	return hierarchical.New(provider, researchers, env, b.logger, opts...), nil
}
