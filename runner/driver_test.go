package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	agentctx "github.com/BaSui01/contextbench/agent/context"
	"github.com/BaSui01/contextbench/internal/metrics"
	"github.com/BaSui01/contextbench/types"
)

// scripted streams the given updates, then err if non-nil. It honors ctx.
func scripted(updates []Update, err error) Agent {
	return AgentFunc(func(ctx context.Context, _ []types.Message) (<-chan Event, error) {
		ch := make(chan Event)
		go func() {
			defer close(ch)
			for _, u := range updates {
				if ctx.Err() != nil {
					return
				}
				if !Emit(ctx, ch, Event{Update: u}) {
					return
				}
			}
			if err != nil {
				Emit(ctx, ch, Event{Err: err})
			}
		}()
		return ch, nil
	})
}

func toolTurn(id, name string) Update {
	return Update{NodeModel: {Messages: []types.Message{
		types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{{ID: id, Name: name, Arguments: json.RawMessage(`{}`)}}),
	}}}
}

func toolResult(id, name string) Update {
	return Update{NodeTools: {Messages: []types.Message{types.NewToolMessage(id, name, `{"ok":{}}`)}}}
}

func final(content string) Update {
	return Update{NodeModel: {Messages: []types.Message{types.NewAssistantMessage(content)}}}
}

func TestDriver_CompletedRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := NewDriver(Config{MaxTurns: 10}, nil, WithMetrics(metrics.NewCollector("test", reg, nil)))
	agent := scripted([]Update{
		toolTurn("c1", "get_order"),
		toolResult("c1", "get_order"),
		{NodeMiddleware: {Context: &agentctx.RewriteStats{Rewritten: true, MessagesRemoved: 2}}},
		final("first draft"),
		final(""),
	}, nil)

	res, err := d.Run(context.Background(), agent, InitialMessages("sys", "query"), WithScenario("shipping"), WithTaskID("101"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Turns)
	assert.Equal(t, "first draft", res.FinalResponse, "empty trailing content does not replace the final response")
	require.Len(t, res.Trajectory, 1)
	assert.Equal(t, "get_order", res.Trajectory[0].Name)
	assert.Len(t, res.Messages, 2+4)
	assert.Equal(t, 2, res.Context.MessagesRemoved)
	assert.Nil(t, res.Diagnostic)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "test_runs_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDriver_ReportedCallsSurviveRewrite(t *testing.T) {
	calc := types.ToolCall{ID: "c1", Name: "calculate_sum", Arguments: json.RawMessage(`{"values":[1,2]}`)}
	commit := types.ToolCall{ID: "c2", Name: "store_answer", Arguments: json.RawMessage(`{"key":"1","value":3}`)}
	agent := scripted([]Update{
		{NodeModel: {Messages: []types.Message{types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{calc})}, Calls: []types.ToolCall{calc}}},
		toolResult("c1", "calculate_sum"),
		{NodeModel: {Messages: []types.Message{types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{commit})}, Calls: []types.ToolCall{commit}}},
		toolResult("c2", "store_answer"),
		{NodeMiddleware: {Context: &agentctx.RewriteStats{Rewritten: true, MessagesRemoved: 2, CallsRemoved: 1}}},
		final("3"),
	}, nil)

	res, err := NewDriver(Config{}, nil).Run(context.Background(), agent, InitialMessages("", "q"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Context.CallsRemoved)
	require.Len(t, res.AllToolCalls, 2)
	assert.Equal(t, "calculate_sum", res.AllToolCalls[0].Name)
	assert.Equal(t, []string{"calculate_sum", "store_answer"}, res.Calls().Names())
	assert.Equal(t, res.Trajectory, res.AllToolCalls)
}

func TestDriver_SideChannelFallsBackToMessages(t *testing.T) {
	res, err := NewDriver(Config{}, nil).Run(context.Background(),
		scripted([]Update{toolTurn("c1", "get_order"), toolResult("c1", "get_order"), final("ok")}, nil),
		InitialMessages("", "q"))
	require.NoError(t, err)
	require.Len(t, res.AllToolCalls, 1)
	assert.Equal(t, "get_order", res.AllToolCalls[0].Name)
}

func TestDriver_TurnBudget(t *testing.T) {
	var updates []Update
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("c%d", i)
		updates = append(updates, toolTurn(id, "calculate_sum"), toolResult(id, "calculate_sum"))
	}
	d := NewDriver(Config{MaxTurns: 3}, nil)
	res, err := d.Run(context.Background(), scripted(updates, nil), InitialMessages("", "q"))
	require.NoError(t, err)
	assert.Equal(t, StatusBudgetExceeded, res.Status)
	assert.Equal(t, 3, res.Turns)
	assert.Len(t, res.Trajectory, 3)
	require.NotNil(t, res.Diagnostic)
	assert.Equal(t, types.ErrBudgetExceeded, res.Diagnostic.Code)
}

func TestDriver_ProtocolError(t *testing.T) {
	d := NewDriver(Config{}, nil)
	agent := scripted([]Update{toolTurn("c1", "finish")}, types.NewError(types.ErrProtocol, "finish before store_deliverable"))
	res, err := d.Run(context.Background(), agent, InitialMessages("", "q"))
	require.NoError(t, err)
	assert.Equal(t, StatusProtocol, res.Status)
	assert.Equal(t, types.ErrProtocol, res.Diagnostic.Code)
	assert.Len(t, res.Trajectory, 1)
}

func TestDriver_StreamFailure(t *testing.T) {
	d := NewDriver(Config{}, nil)
	boom := errors.New("upstream 502")
	res, err := d.Run(context.Background(), scripted([]Update{final("partial")}, boom), InitialMessages("", "q"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "partial", res.FinalResponse)
}

func TestDriver_StartFailure(t *testing.T) {
	d := NewDriver(Config{}, nil)
	agent := AgentFunc(func(context.Context, []types.Message) (<-chan Event, error) {
		return nil, errors.New("no provider")
	})
	res, err := d.Run(context.Background(), agent, InitialMessages("", "q"))
	require.Error(t, err)
	assert.Equal(t, StatusFailed, res.Status)
}

func TestDriver_CancelledAtTurnBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	agent := AgentFunc(func(ctx context.Context, _ []types.Message) (<-chan Event, error) {
		ch := make(chan Event)
		go func() {
			defer close(ch)
			Emit(ctx, ch, Event{Update: toolTurn("c1", "get_statistics")})
			cancel()
			<-ctx.Done()
		}()
		return ch, nil
	})
	res, err := NewDriver(Config{}, nil).Run(ctx, agent, InitialMessages("", "q"))
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Len(t, res.Trajectory, 1)
}

func TestDriver_Timeout(t *testing.T) {
	agent := AgentFunc(func(ctx context.Context, _ []types.Message) (<-chan Event, error) {
		ch := make(chan Event)
		go func() {
			defer close(ch)
			<-ctx.Done()
		}()
		return ch, nil
	})
	res, err := NewDriver(Config{Timeout: 20 * time.Millisecond}, nil).Run(context.Background(), agent, InitialMessages("", "q"))
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Status)
}

func TestDriver_FlattensSubagents(t *testing.T) {
	agent := scripted([]Update{
		{NodeSupervisor: {Messages: []types.Message{types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{{ID: "s1", Name: "deep_research"}})}}},
		{ResearcherNode("a"): {Messages: []types.Message{types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{{ID: "r1", Name: "get_statistics"}})}}},
		{ResearcherNode("b"): {Messages: []types.Message{types.NewAssistantMessage("").WithToolCalls([]types.ToolCall{{ID: "r1", Name: "get_statistics"}})}}},
	}, nil)
	res, err := NewDriver(Config{}, nil).Run(context.Background(), agent, InitialMessages("", "q"))
	require.NoError(t, err)
	require.Len(t, res.Trajectory, 3)
	assert.Equal(t, []string{"deep_research", "get_statistics", "get_statistics"},
		[]string{res.Trajectory[0].Name, res.Trajectory[1].Name, res.Trajectory[2].Name})
}

// The trajectory keeps every emitted call in order, so it is never shorter
// than the set of distinct calls.
func TestProperty_TrajectoryPreservesEmissionOrder(t *testing.T) {
	names := []string{"get_statistics", "calculate_sum", "store_answer", "get_order"}
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 15).Draw(rt, "turns")
		var updates []Update
		want := []string{}
		for i := 0; i < n; i++ {
			name := rapid.SampledFrom(names).Draw(rt, "name")
			id := fmt.Sprintf("id%d", rapid.IntRange(0, 3).Draw(rt, "id"))
			updates = append(updates, toolTurn(id, name))
			want = append(want, name)
		}
		res, err := NewDriver(Config{MaxTurns: 100}, nil).Run(context.Background(), scripted(updates, nil), InitialMessages("", "q"))
		if err != nil {
			rt.Fatal(err)
		}
		got := make([]string, len(res.Trajectory))
		unique := make(map[string]bool)
		for i, tc := range res.Trajectory {
			got[i] = tc.Name
			unique[tc.ID+"/"+tc.Name] = true
		}
		if len(res.Trajectory) < len(unique) {
			rt.Fatalf("trajectory shorter than unique calls")
		}
		if !assert.Equal(rt, want, got) {
			rt.Fatalf("emission order lost")
		}
	})
}
