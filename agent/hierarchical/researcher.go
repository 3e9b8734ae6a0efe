package hierarchical

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/agent/graph"
	"github.com/BaSui01/contextbench/runner"
	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/types"
)

// ResearcherState is the lifecycle position of one researcher.
type ResearcherState string

const (
	ResearcherInit   ResearcherState = "init"
	ResearcherAct    ResearcherState = "act"
	ResearcherCommit ResearcherState = "commit"
	ResearcherDone   ResearcherState = "done"
)

// generalNode labels researchers that answer a general_research question.
const generalNode = "general"

// researcherFSM enforces init → act → commit → done on a researcher's tool
// calls. It implements graph.Hooks.
type researcherFSM struct {
	key     string
	state   ResearcherState
	summary string
}

func newResearcherFSM(key string) *researcherFSM {
	return &researcherFSM{key: key, state: ResearcherInit}
}

var _ graph.Hooks = (*researcherFSM)(nil)

func (f *researcherFSM) BeforeTool(call types.ToolCall) (types.ToolOutcome, bool) {
	switch f.state {
	case ResearcherDone:
		return types.Fail(types.ErrInvalid, "assignment is finished; no further tool calls are accepted"), true
	case ResearcherCommit:
		if call.Name != "finish" {
			return types.Fail(types.ErrInvalid, "deliverable %q is stored; call finish", f.key), true
		}
	}
	if f.key == "" && call.Name == "store_deliverable" {
		return types.Fail(types.ErrInvalid, "general research does not store deliverables; answer in your final message"), true
	}
	if f.state == ResearcherInit {
		f.state = ResearcherAct
	}
	return types.ToolOutcome{}, false
}

func (f *researcherFSM) AfterTool(call types.ToolCall, result types.ToolResult) (bool, error) {
	switch call.Name {
	case "store_deliverable":
		if !result.IsError() {
			f.state = ResearcherCommit
		}
	case "finish":
		if result.IsError() {
			return false, types.Errorf(types.ErrProtocol, "researcher %q called finish before store_deliverable", f.key)
		}
		var args struct {
			Summary string `json:"summary"`
		}
		if err := tools.DecodeArgs(call.Arguments, &args); err == nil {
			f.summary = args.Summary
		}
		f.state = ResearcherDone
		return true, nil
	}
	return false, nil
}

// job is one queued delegation.
type job struct {
	index        int // position of the delegating call within its turn
	call         types.ToolCall
	key          string
	instructions string
}

// research runs one researcher to completion and reports its outcome as the
// result of the delegating call. Only provider or stream failures that are
// not protocol violations are returned as errors; they end the whole run.
func (s *Supervisor) research(ctx context.Context, j job, out chan<- runner.Event) (types.ToolOutcome, string, error) {
	provider, err := s.researchers(j.key)
	if err != nil {
		return types.ToolOutcome{}, "", fmt.Errorf("create researcher %q: %w", j.key, err)
	}
	env := &tools.Env{Stores: s.env.Stores, State: s.env.State, AssignedKey: j.key}
	fsm := newResearcherFSM(j.key)

	opts := []graph.Option{graph.WithHooks(fsm), graph.WithConfig(s.cfg.Researcher)}
	if s.middleware != nil {
		opts = append(opts, graph.WithMiddleware(s.middleware))
	}
	rt := graph.New(provider, tools.NewExecutor(s.registry, env, s.logger, s.execOpts...), s.logger, opts...)

	events, err := rt.Stream(ctx, researcherMessages(j.key, j.instructions))
	if err != nil {
		return types.ToolOutcome{}, "", fmt.Errorf("start researcher %q: %w", j.key, err)
	}

	node := runner.ResearcherNode(j.key)
	if j.key == "" {
		node = runner.ResearcherNode(generalNode)
	}
	var final string
	var streamErr error
	for ev := range events {
		if ev.Err != nil {
			streamErr = ev.Err
			continue
		}
		for _, n := range ev.Update.Nodes() {
			delta := ev.Update[n]
			for _, m := range delta.Messages {
				if m.Role == types.RoleAssistant && m.Content != "" {
					final = m.Content
				}
			}
			runner.Emit(ctx, out, runner.Event{Update: runner.Update{node: delta}})
		}
	}
	if err := ctx.Err(); err != nil {
		return types.ToolOutcome{}, "", err
	}

	logger := s.logger.With(zap.String("researcher", node), zap.String("state", string(fsm.state)))
	if streamErr != nil {
		if !types.IsErrorCode(streamErr, types.ErrProtocol) {
			return types.ToolOutcome{}, "", fmt.Errorf("researcher %q: %w", j.key, streamErr)
		}
		logger.Warn("researcher protocol violation", zap.Error(streamErr))
		return types.Fail(types.ErrInvalid, "%s", streamErr.Error()), "", nil
	}

	summary := fsm.summary
	if summary == "" {
		summary = final
	}
	if j.key == "" {
		logger.Debug("general research answered")
		return types.OK(map[string]any{"status": "answered", "question": j.instructions, "summary": summary}), summary, nil
	}
	value, ok := s.env.State.Deliverable(j.key)
	if !ok {
		logger.Warn("researcher ended without storing its deliverable")
		return types.Fail(types.ErrInvalid, "researcher for %q ended without calling store_deliverable", j.key), "", nil
	}
	logger.Debug("deliverable stored")
	return types.OK(map[string]any{"key": j.key, "status": "stored", "value": value, "summary": summary}), summary, nil
}
