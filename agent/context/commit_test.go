package context

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/contextbench/internal/metrics"
	"github.com/BaSui01/contextbench/types"
)

// --- helpers ---

func call(id, name, args string) types.ToolCall {
	return types.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func assistant(calls ...types.ToolCall) types.Message {
	return types.Message{Role: types.RoleAssistant, ToolCalls: calls}
}

func result(id, name string) types.Message {
	return types.Message{Role: types.RoleTool, ToolCallID: id, Name: name, Content: `{"ok":{"result":1}}`}
}

func newMiddleware(opts ...Option) *CommitMiddleware {
	return NewCommitMiddleware(nil, append([]Option{WithTokenizer(types.NewEstimateTokenizer())}, opts...)...)
}

// fourCalculationsThenCommit is the log of an agent that runs four
// calculations and then stores answer 1 = 42.
func fourCalculationsThenCommit() []types.Message {
	msgs := []types.Message{
		{Role: types.RoleSystem, Content: "system"},
		{Role: types.RoleUser, Content: "question"},
		assistant(call("s1", "get_statistics", `{"topic":"renewable_energy"}`)),
		result("s1", "get_statistics"),
	}
	for i, name := range []string{"calculate_compound_growth", "calculate_ratio", "calculate_sum", "calculate_power"} {
		id := fmt.Sprintf("c%d", i+1)
		msgs = append(msgs, assistant(call(id, name, `{}`)), result(id, name))
	}
	msgs = append(msgs,
		assistant(call("a1", "store_answer", `{"key":1,"value":42}`)),
		result("a1", "store_answer"),
	)
	return msgs
}

func TestRewrite_PurgesCalculationsOnCommit(t *testing.T) {
	m := newMiddleware()
	in := fourCalculationsThenCommit()
	out, stats := m.Rewrite(in)

	require.True(t, stats.Rewritten)
	assert.Equal(t, 4, stats.CallsRemoved)
	assert.Equal(t, 8, stats.MessagesRemoved)
	assert.Equal(t, 4, stats.ToolResultsRemoved)
	assert.Greater(t, stats.TokensSaved(), 0)
	require.Len(t, out, len(in)-8)

	for _, msg := range out {
		for _, tc := range msg.ToolCalls {
			assert.NotContains(t, tc.Name, "calculate_")
		}
		if msg.Role == types.RoleTool {
			assert.Contains(t, []string{"s1", "a1"}, msg.ToolCallID)
		}
	}
	assert.Equal(t, "store_answer", out[len(out)-2].ToolCalls[0].Name)
	assert.Len(t, in, 14, "input untouched")
}

func TestRewrite_NoCommitIsNoop(t *testing.T) {
	m := newMiddleware()
	in := fourCalculationsThenCommit()
	in = in[:len(in)-2]
	out, stats := m.Rewrite(in)
	assert.False(t, stats.Rewritten)
	assert.Equal(t, in, out)
}

func TestRewrite_MixedTurnKeepsOtherCalls(t *testing.T) {
	m := newMiddleware()
	in := []types.Message{
		{Role: types.RoleUser, Content: "q"},
		{Role: types.RoleAssistant, Content: "thinking", ToolCalls: []types.ToolCall{
			call("x1", "get_statistics", `{"topic":"cybersecurity"}`),
			call("x2", "calculate_compound_growth", `{"initial_value":220,"growth_rate":0.121,"years":10}`),
		}},
		result("x1", "get_statistics"),
		result("x2", "calculate_compound_growth"),
		assistant(call("a1", "store_answer", `{"key":"1","value":3}`), call("x3", "calculate_sum", `{"values":[1,2]}`)),
		result("a1", "store_answer"),
		result("x3", "calculate_sum"),
		assistant(call("x4", "calculate_ratio", `{"numerator":1,"denominator":2}`)),
	}
	out, stats := m.Rewrite(in)
	require.True(t, stats.Rewritten)
	assert.Equal(t, 1, stats.CallsRemoved)
	assert.Equal(t, 1, stats.ToolResultsRemoved)

	require.Len(t, out, len(in)-1)
	mixed := out[1]
	assert.Equal(t, "thinking", mixed.Content)
	require.Len(t, mixed.ToolCalls, 1)
	assert.Equal(t, "get_statistics", mixed.ToolCalls[0].Name)
	assert.Equal(t, in[4:], out[3:], "commit turn and everything after it verbatim")
	assert.Len(t, in[1].ToolCalls, 2, "input untouched")
}

func TestApply_SideChannelKeepsEverything(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("test", reg, nil)
	m := newMiddleware(WithMetrics(collector))

	s := NewSession(fourCalculationsThenCommit()...)
	before := s.AllToolCalls()
	require.Len(t, before, 6)

	stats := m.Apply(s)
	require.True(t, stats.Rewritten)
	assert.Equal(t, before, s.AllToolCalls())
	assert.Len(t, s.Messages(), 6)

	var names []string
	for _, tc := range s.AllToolCalls() {
		if tc.Name != "get_statistics" {
			names = append(names, tc.Name)
		}
	}
	assert.Len(t, names, 5, "four calculations and the commit")

	again := m.Apply(s)
	assert.False(t, again.Rewritten)
	assert.Equal(t, stats, s.Stats())
	assert.Equal(t, 1.0, counterValue(t, reg, "test_middleware_rewrites_total"))
	assert.Equal(t, 8.0, counterValue(t, reg, "test_middleware_removed_messages_total"))
}

func counterValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			require.Len(t, f.GetMetric(), 1)
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestSession_AssignsMissingIDs(t *testing.T) {
	s := NewSession(assistant(types.ToolCall{Name: "get_order", Arguments: json.RawMessage(`{"order_id":"1"}`)}))
	s.Append(assistant(call("", "get_order", `{"order_id":"2"}`), call("k", "get_order", `{}`)))

	calls := s.AllToolCalls()
	require.Len(t, calls, 3)
	assert.True(t, strings.HasPrefix(calls[0].ID, "call_"))
	assert.True(t, strings.HasPrefix(calls[1].ID, "call_"))
	assert.NotEqual(t, calls[0].ID, calls[1].ID)
	assert.Equal(t, "k", calls[2].ID)

	msgs := s.Messages()
	assert.Equal(t, calls[1].ID, msgs[1].ToolCalls[0].ID, "the log carries the assigned id")
	assert.Equal(t, 2, s.Len())
}

func TestSession_KeepsCallsWithReusedIDs(t *testing.T) {
	s := NewSession()
	for _, order := range []string{"1", "2", "3"} {
		s.Append(assistant(call("call_0", "get_order", `{"order_id":"`+order+`"}`)), result("call_0", "get_order"))
	}

	calls := s.AllToolCalls()
	require.Len(t, calls, 3)
	for i, order := range []string{"1", "2", "3"} {
		assert.JSONEq(t, `{"order_id":"`+order+`"}`, string(calls[i].Arguments))
	}
	latest, ok := s.ToolCall("call_0")
	require.True(t, ok)
	assert.JSONEq(t, `{"order_id":"3"}`, string(latest.Arguments))
}

func TestSession_AssignedIDNeverShadowsExplicitOne(t *testing.T) {
	s := NewSession(assistant(call("call_2", "get_order", `{"order_id":"1"}`)))
	s.Append(assistant(call("", "get_order", `{"order_id":"2"}`)))

	calls := s.AllToolCalls()
	require.Len(t, calls, 2)
	assert.NotEqual(t, "call_2", calls[1].ID)

	first, ok := s.ToolCall("call_2")
	require.True(t, ok)
	assert.JSONEq(t, `{"order_id":"1"}`, string(first.Arguments))
}

func TestSession_CallsSince(t *testing.T) {
	s := NewSession(assistant(call("a", "get_order", `{}`)))
	mark := s.Mark()
	assert.Nil(t, s.CallsSince(mark))

	s.Append(assistant(call("b", "get_order", `{}`), call("c", "calculate_sum", `{}`)))
	since := s.CallsSince(mark)
	require.Len(t, since, 2)
	assert.Equal(t, "b", since[0].ID)
	assert.Equal(t, "c", since[1].ID)
}

func TestRewrite_ReusedIDsOnlyDropPurgedTurnResults(t *testing.T) {
	m := newMiddleware()
	in := []types.Message{
		{Role: types.RoleUser, Content: "q"},
		assistant(call("call_0", "get_statistics", `{"topic":"gdp"}`)),
		result("call_0", "get_statistics"),
		assistant(call("call_0", "calculate_ratio", `{"numerator":1,"denominator":2}`)),
		result("call_0", "calculate_ratio"),
		assistant(call("call_0", "store_answer", `{"key":"1","value":0.5}`)),
		result("call_0", "store_answer"),
	}
	s := NewSession(in...)
	stats := m.Apply(s)

	require.True(t, stats.Rewritten)
	assert.Equal(t, 1, stats.CallsRemoved)
	assert.Equal(t, 1, stats.ToolResultsRemoved)
	out := s.Messages()
	require.Len(t, out, 5)
	assert.Equal(t, "get_statistics", out[2].Name, "result of the kept turn survives")
	assert.Len(t, s.AllToolCalls(), 3)
}

func TestSession_ConcurrentApply(t *testing.T) {
	m := newMiddleware()
	s := NewSession(fourCalculationsThenCommit()...)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Apply(s)
			_ = s.Messages()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Messages(), 6)
	assert.Len(t, s.AllToolCalls(), 6)
}

func TestTiktokenTokenizer_FallsBackConsistently(t *testing.T) {
	tok := NewTiktokenTokenizer("no_such_encoding")
	assert.False(t, tok.Exact())
	est := types.NewEstimateTokenizer()
	msgs := fourCalculationsThenCommit()
	assert.Equal(t, est.CountMessagesTokens(msgs), tok.CountMessagesTokens(msgs))
	assert.Equal(t, est.CountTokens("hello world"), tok.CountTokens("hello world"))
}

// --- properties ---

var toolNames = []string{
	"get_statistics", "get_order", "calculate_compound_growth", "calculate_ratio",
	"analyze_correlation", "store_answer", "store_deliverable",
}

func genLog(rt *rapid.T) []types.Message {
	turns := rapid.IntRange(0, 8).Draw(rt, "turns")
	msgs := []types.Message{{Role: types.RoleUser, Content: "q"}}
	id := 0
	for i := 0; i < turns; i++ {
		n := rapid.IntRange(0, 3).Draw(rt, "calls")
		if n == 0 {
			msgs = append(msgs, types.Message{Role: types.RoleAssistant, Content: "prose"})
			continue
		}
		var calls []types.ToolCall
		for j := 0; j < n; j++ {
			id++
			calls = append(calls, call(fmt.Sprintf("id%d", id), rapid.SampledFrom(toolNames).Draw(rt, "name"), `{}`))
		}
		msgs = append(msgs, assistant(calls...))
		for _, c := range calls {
			msgs = append(msgs, result(c.ID, c.Name))
		}
	}
	return msgs
}

func TestProperty_Rewrite_Idempotent(t *testing.T) {
	m := newMiddleware()
	rapid.Check(t, func(rt *rapid.T) {
		once, _ := m.Rewrite(genLog(rt))
		twice, stats := m.Rewrite(once)
		if stats.Rewritten {
			rt.Fatalf("second rewrite changed the log: %+v", stats)
		}
		if len(once) != len(twice) {
			rt.Fatalf("lengths differ: %d vs %d", len(once), len(twice))
		}
	})
}

func TestProperty_Rewrite_PreservesNonCalculationTurns(t *testing.T) {
	m := newMiddleware()
	rapid.Check(t, func(rt *rapid.T) {
		in := genLog(rt)
		out, _ := m.Rewrite(in)
		commit := m.lastCommit(in)

		kept := make(map[string]bool)
		for _, msg := range out {
			for _, tc := range msg.ToolCalls {
				kept[tc.ID] = true
			}
		}
		for i, msg := range in {
			for _, tc := range msg.ToolCalls {
				calc := m.isCalculation(tc.Name)
				switch {
				case !calc && !kept[tc.ID]:
					rt.Fatalf("non-calculation call %s lost", tc.ID)
				case calc && i < commit && kept[tc.ID]:
					rt.Fatalf("calculation call %s survived before the commit", tc.ID)
				case commit < 0 && !kept[tc.ID]:
					rt.Fatalf("call %s removed without a commit", tc.ID)
				}
			}
		}

		s := NewSession(in...)
		m.Apply(s)
		if len(s.AllToolCalls()) < len(kept) {
			rt.Fatalf("side channel shrank")
		}
	})
}
