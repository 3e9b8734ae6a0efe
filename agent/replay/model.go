package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/llm"
	"github.com/BaSui01/contextbench/oracle"
	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/trajectory"
	"github.com/BaSui01/contextbench/types"
)

// ProviderName is the name every replay model reports.
const ProviderName = "replay"

type phase int

const (
	phaseReplay phase = iota
	phaseCommit
	phaseFinal
	phaseDone
)

// Model is a deterministic llm.Provider that plays a task's reference
// trajectory back against the tool surface, one turn at a time, then commits
// and reports answers computed from the payloads it observed. A Model holds
// the state of exactly one run.
type Model struct {
	mu sync.Mutex

	task      *tasks.Task
	questions []tasks.Question
	// key is the researcher's assigned deliverable key; empty for a flat agent.
	key string

	plan    []trajectory.Call
	next    int
	perTurn int
	phase   phase
	commits []types.ToolCall

	issued   map[string]trajectory.Call
	payloads map[string]any
	lastOK   map[string]any
	results  []observed
	cancelOK bool

	gen    *trajectory.Generator
	logger *zap.Logger
}

type observed struct {
	call    trajectory.Call
	payload any
}

// Option configures a Model.
type Option func(*Model)

// WithCallsPerTurn batches n reference calls into each assistant turn.
func WithCallsPerTurn(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.perTurn = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func newModel(task *tasks.Task, opts ...Option) *Model {
	m := &Model{
		task:     task,
		perTurn:  1,
		issued:   make(map[string]trajectory.Call),
		payloads: make(map[string]any),
		lastOK:   make(map[string]any),
		gen:      trajectory.NewGenerator(nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("component", "replay_model"), zap.Int("task_id", task.ID))
	return m
}

// New creates the reference model of a flat (single-graph) task.
func New(task *tasks.Task, opts ...Option) (*Model, error) {
	if task == nil {
		return nil, fmt.Errorf("replay: nil task")
	}
	m := newModel(task, opts...)
	m.questions = task.Questions
	m.plan = append(trajectory.Trajectory(nil), task.ExpectedTrajectory...)
	return m, nil
}

// NewResearcher creates the reference model of the researcher assigned key.
// It plays the reference calls of that deliverable's question, stores the
// deliverable and finishes.
func NewResearcher(task *tasks.Task, key string, opts ...Option) (*Model, error) {
	if task == nil {
		return nil, fmt.Errorf("replay: nil task")
	}
	q, ok := task.QuestionForDeliverable(key)
	if !ok {
		return nil, fmt.Errorf("replay: task %d has no deliverable %q", task.ID, key)
	}
	m := newModel(task, opts...)
	m.key = key
	m.questions = []tasks.Question{q}
	if q.Query != nil {
		plan, err := m.gen.Generate([]oracle.Query{*q.Query})
		if err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
		m.plan = plan
	}
	return m, nil
}

// Name implements llm.Provider.
func (m *Model) Name() string { return ProviderName }

// Completion implements llm.Provider.
func (m *Model) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observe(req.Messages)
	surface := make(map[string]bool, len(req.Tools))
	for _, s := range req.Tools {
		surface[s.Name] = true
	}

	msg := m.turn(surface)
	resp := &llm.ChatResponse{
		ID:        uuid.NewString(),
		Provider:  ProviderName,
		Model:     req.Model,
		Choices:   []llm.ChatChoice{{Message: msg, FinishReason: "stop"}},
		CreatedAt: time.Now(),
	}
	if msg.HasToolCalls() {
		resp.Choices[0].FinishReason = "tool_calls"
	}
	return resp, nil
}

// observe records the outcomes of calls this model issued.
func (m *Model) observe(msgs []types.Message) {
	for _, msg := range msgs {
		if msg.Role != types.RoleTool {
			continue
		}
		call, ok := m.issued[msg.ToolCallID]
		if !ok {
			continue
		}
		delete(m.issued, msg.ToolCallID)

		outcome := types.DecodeOutcome(msg.Content)
		if outcome.IsError() {
			m.logger.Debug("reference call failed",
				zap.String("tool", call.Name),
				zap.String("kind", string(outcome.Err.Kind)),
				zap.String("message", outcome.Err.Message))
			m.recover(call, outcome.Err)
			continue
		}
		m.payloads[call.Key()] = outcome.OK
		m.lastOK[call.Name] = outcome.OK
		m.results = append(m.results, observed{call: call, payload: outcome.OK})
	}
}

// recover schedules the cancellation of the poisoned goal after a not_found
// about the poisoned identifier, unless the plan already cancels a goal.
func (m *Model) recover(call trajectory.Call, err *types.ToolError) {
	p := m.task.Poison
	if p == nil || err.Kind != types.ErrNotFound || !call.Mentions(p.Identifier) {
		return
	}
	if m.cancelOK {
		return
	}
	for _, c := range m.plan[m.next:] {
		if isCancel(c) {
			return
		}
	}
	idx := -1
	for i, g := range m.task.InitialGoals {
		if strings.Contains(g, p.GoalText) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	cancel := trajectory.New("update_research_goal", map[string]any{"goal_index": idx, "status": "cancelled"})
	m.plan = append(m.plan[:m.next], append(trajectory.Trajectory{cancel}, m.plan[m.next:]...)...)
	m.cancelOK = true
}

func isCancel(c trajectory.Call) bool {
	if c.Name != "update_research_goal" {
		return false
	}
	s, _ := c.Args["status"].(string)
	return s == "cancelled"
}

// turn produces the next assistant message.
func (m *Model) turn(surface map[string]bool) types.Message {
	for {
		switch m.phase {
		case phaseReplay:
			var calls []types.ToolCall
			for m.next < len(m.plan) && len(calls) < m.perTurn {
				c := m.plan[m.next]
				m.next++
				if !surface[c.Name] {
					continue
				}
				calls = append(calls, m.issue(c))
			}
			if len(calls) > 0 {
				return types.NewAssistantMessage("").WithToolCalls(calls)
			}
			m.phase = phaseCommit
			m.commits = m.commitCalls(surface)

		case phaseCommit:
			if len(m.commits) == 0 {
				m.phase = phaseFinal
				continue
			}
			tc := m.commits[0]
			m.commits = m.commits[1:]
			c, err := trajectory.Canonicalize(tc.Name, tc.Arguments)
			if err == nil {
				m.issued[tc.ID] = c
			}
			return types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{tc})

		case phaseFinal:
			m.phase = phaseDone
			return types.NewAssistantMessage(m.finalResponse())

		default:
			return types.NewAssistantMessage(m.finalResponse())
		}
	}
}

func (m *Model) issue(c trajectory.Call) types.ToolCall {
	id := "call_" + uuid.NewString()
	m.issued[id] = c
	return types.ToolCall{ID: id, Name: c.Name, Arguments: mustArgs(c.Args)}
}

// commitCalls builds the commit turns: store_answer per answered question
// for flat agents, store_deliverable then finish for researchers.
func (m *Model) commitCalls(surface map[string]bool) []types.ToolCall {
	answers := m.Answers()
	var out []types.ToolCall
	switch {
	case m.key != "" && surface["store_deliverable"]:
		v, ok := answers[m.questions[0].Key()]
		if !ok {
			return nil
		}
		out = append(out, m.commitCall("store_deliverable", map[string]any{"key": m.key, "value": v}))
		if surface["finish"] {
			out = append(out, m.commitCall("finish", map[string]any{"summary": m.summary(v)}))
		}
	case m.key == "" && surface["store_answer"]:
		for _, q := range m.questions {
			if v, ok := answers[q.Key()]; ok {
				out = append(out, m.commitCall("store_answer", map[string]any{"key": q.Key(), "value": v}))
			}
		}
	}
	return out
}

func (m *Model) commitCall(name string, args map[string]any) types.ToolCall {
	return types.ToolCall{ID: "call_" + uuid.NewString(), Name: name, Arguments: mustArgs(args)}
}

func (m *Model) summary(v any) string {
	q := m.questions[0]
	return fmt.Sprintf("%s %v", strings.TrimSuffix(q.Text, "?")+":", v)
}

// Answers returns the answers computed from the payloads observed so far,
// keyed "1".."N". Questions whose inputs were never observed are absent.
func (m *Model) Answers() map[string]any {
	out := make(map[string]any, len(m.questions))
	for _, q := range m.questions {
		if v, ok := m.answer(q); ok {
			out[q.Key()] = v
		}
	}
	return out
}

func (m *Model) finalResponse() string {
	if len(m.questions) == 0 {
		return m.digest()
	}
	answers := m.Answers()
	var b strings.Builder
	if m.key != "" {
		fmt.Fprintf(&b, "Deliverable %s is stored.\n\n", m.key)
	} else {
		b.WriteString("All figures below come from the research tools.\n\n")
	}
	data, err := json.MarshalIndent(map[string]any{"answers": answers}, "", "  ")
	if err != nil {
		data = []byte(`{"answers": {}}`)
	}
	b.WriteString("```json\n")
	b.Write(data)
	b.WriteString("\n```")
	return b.String()
}

// digest renders every observed payload for free-form tasks.
func (m *Model) digest() string {
	if len(m.results) == 0 {
		return "I could not find any information for this request."
	}
	var b strings.Builder
	b.WriteString("Here is what I found.\n")
	for _, r := range m.results {
		data, err := json.Marshal(r.payload)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", r.call.Name, data)
	}
	return b.String()
}

func mustArgs(args map[string]any) json.RawMessage {
	if args == nil {
		return json.RawMessage(`{}`)
	}
	data, err := json.Marshal(args)
	if err != nil {
		panic(fmt.Sprintf("replay: marshal arguments: %v", err))
	}
	return data
}
