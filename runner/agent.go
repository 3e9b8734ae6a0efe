package runner

import (
	"context"
	"sort"

	agentctx "github.com/BaSui01/contextbench/agent/context"
	"github.com/BaSui01/contextbench/types"
)

// Node names emitted by the bundled runtimes.
const (
	NodeModel      = "model"
	NodeTools      = "tools"
	NodeMiddleware = "middleware"
	NodeSupervisor = "supervisor"
)

// ResearcherNode is the node name of the researcher working on key.
func ResearcherNode(key string) string {
	return "researcher:" + key
}

// Delta is the partial state one node produced in one step.
type Delta struct {
	// Messages are the messages the node appended, in emission order.
	Messages []types.Message `json:"messages,omitempty"`
	// Calls are the tool calls the node recorded in its all_tool_calls side
	// channel during the step. When nil the driver takes the calls carried
	// by the delta's assistant messages.
	Calls []types.ToolCall `json:"calls,omitempty"`
	// Context reports a history rewrite the node performed.
	Context *agentctx.RewriteStats `json:"context,omitempty"`
}

// Update maps node name to the delta it produced. Runtimes normally emit one
// node per update; when several are present they are consumed in name order.
type Update map[string]Delta

// Nodes returns the node names of u in consumption order.
func (u Update) Nodes() []string {
	names := make([]string, 0, len(u))
	for name := range u {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Event is one element of an agent stream: an update or a terminal error.
type Event struct {
	Update Update
	Err    error
}

// Agent is anything the driver can run. Stream starts the agent on the
// initial messages and returns a channel of events that is closed when the
// agent finishes. Implementations must stop and close the channel promptly
// once ctx is cancelled; the driver cancels at turn boundaries.
type Agent interface {
	Stream(ctx context.Context, initial []types.Message) (<-chan Event, error)
}

// AgentFunc adapts a function to Agent.
type AgentFunc func(ctx context.Context, initial []types.Message) (<-chan Event, error)

// Stream implements Agent.
func (f AgentFunc) Stream(ctx context.Context, initial []types.Message) (<-chan Event, error) {
	return f(ctx, initial)
}

// Emit sends ev unless ctx is done. It reports whether the event was sent.
func Emit(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
