package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/contextbench/llm"
	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/types"
)

// Supervisor is the reference supervisor model of a multi-agent task: it
// reflects once before each delegation, delegates every deliverable with
// deep_research and then calls research_complete.
type Supervisor struct {
	mu    sync.Mutex
	turns []types.ToolCall
}

// NewSupervisor creates the reference supervisor model of task.
func NewSupervisor(task *tasks.Task) (*Supervisor, error) {
	if task == nil {
		return nil, fmt.Errorf("replay: nil task")
	}
	if task.Scenario != tools.ScenarioResearchMultiAgent {
		return nil, fmt.Errorf("replay: task %d is not a multi-agent task", task.ID)
	}
	keys := task.DeliverableKeys()
	s := &Supervisor{}
	for _, key := range keys {
		q, _ := task.QuestionForDeliverable(key)
		s.turns = append(s.turns,
			supervisorCall("think_tool", map[string]any{
				"reflection": fmt.Sprintf("Deliverable %s is still open; a researcher should answer %q.", key, q.Text),
			}),
			supervisorCall("deep_research", map[string]any{
				"key":          key,
				"instructions": q.Text,
			}),
		)
	}
	s.turns = append(s.turns, supervisorCall("research_complete", map[string]any{
		"summary": fmt.Sprintf("All %d deliverables are stored.", len(keys)),
	}))
	return s, nil
}

func supervisorCall(name string, args map[string]any) types.ToolCall {
	return types.ToolCall{ID: "call_" + uuid.NewString(), Name: name, Arguments: mustArgs(args)}
}

// Name implements llm.Provider.
func (s *Supervisor) Name() string { return ProviderName }

// Completion implements llm.Provider.
func (s *Supervisor) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := types.NewAssistantMessage("Research is complete.")
	reason := "stop"
	if len(s.turns) > 0 {
		msg = types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{s.turns[0]})
		s.turns = s.turns[1:]
		reason = "tool_calls"
	}
	return &llm.ChatResponse{
		ID:        uuid.NewString(),
		Provider:  ProviderName,
		Model:     req.Model,
		Choices:   []llm.ChatChoice{{Message: msg, FinishReason: reason}},
		CreatedAt: time.Now(),
	}, nil
}
