package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/contextbench/types"
)

func TestGoalTransitions(t *testing.T) {
	tests := []struct {
		from, to GoalStatus
		ok       bool
	}{
		{GoalActive, GoalCompleted, true},
		{GoalActive, GoalCancelled, true},
		{GoalActive, GoalActive, false},
		{GoalCompleted, GoalCancelled, false},
		{GoalCancelled, GoalActive, false},
		{GoalCancelled, GoalCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
		})
	}
}

func TestResearch_UpdateGoal(t *testing.T) {
	r := New(WithGoals("Analyze Quantum Dynamics (ticker: QDYN)", "Review energy storage"))

	g, err := r.UpdateGoal(0, GoalCancelled)
	require.NoError(t, err)
	assert.Equal(t, GoalCancelled, g.Status)

	_, err = r.UpdateGoal(0, GoalCompleted)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalid), "cancelled is terminal")

	_, err = r.UpdateGoal(5, GoalCompleted)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))

	goals := r.Goals()
	require.Len(t, goals, 2)
	assert.Equal(t, GoalActive, goals[1].Status)
	assert.Equal(t, 1, goals[1].Index)
}

func TestParseGoalStatus(t *testing.T) {
	s, err := ParseGoalStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, GoalCancelled, s)
	_, err = ParseGoalStatus("paused")
	assert.Error(t, err)
}

func TestResearch_Track(t *testing.T) {
	r := New()
	assert.True(t, r.Track("nvtx"))
	assert.False(t, r.Track("NVTX "))
	assert.True(t, r.Track("SOLR"))
	assert.Equal(t, []string{"NVTX", "SOLR"}, r.Tracked())
}

func TestResearch_Deliverables(t *testing.T) {
	r := New(WithDeliverableKeys("renewable_energy", "artificial_intelligence"))

	err := r.StoreDeliverable("biotech", 1)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalid))

	require.NoError(t, r.StoreDeliverable("artificial_intelligence", map[string]any{"npv": 62.4}))
	require.NoError(t, r.StoreDeliverable("renewable_energy", 3001.14))

	err = r.StoreDeliverable("renewable_energy", 1.0)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalid), "commit is terminal per key")

	ds := r.Deliverables()
	require.Len(t, ds, 2)
	assert.Equal(t, "artificial_intelligence", ds[0].Key, "insertion order is kept")
	v, ok := r.Deliverable("renewable_energy")
	require.True(t, ok)
	assert.Equal(t, 3001.14, v)
}

func TestResearch_Complete(t *testing.T) {
	r := New()
	require.NoError(t, r.Complete("done"))
	assert.True(t, r.Completed())
	assert.Error(t, r.Complete("again"))
	assert.Equal(t, "done", r.Snapshot().FinalSummary)
}

func TestResearch_CloneIsIndependent(t *testing.T) {
	template := New(WithGoals("goal"), WithTracked("NVTX"), WithDeliverableKeys("1"))
	template.AddNote("energy", "solar margins improving")

	run := template.Clone()
	_, err := run.UpdateGoal(0, GoalCompleted)
	require.NoError(t, err)
	run.AddNote("energy", "second note")
	require.NoError(t, run.StoreDeliverable("1", 42))

	assert.Equal(t, GoalActive, template.Goals()[0].Status)
	assert.Len(t, template.Snapshot().Notes["energy"], 1)
	assert.Empty(t, template.Deliverables())
	assert.True(t, run.IsDeclared("1"))
}

func TestResearch_ConcurrentUse(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AddGoal("goal", "high")
			r.AddNote("topic", "note")
			r.AddSummary("summary")
			_ = r.Snapshot()
		}()
	}
	wg.Wait()
	assert.Len(t, r.Goals(), 20)
	assert.Len(t, r.Snapshot().Notes["topic"], 20)
}

func TestProperty_GoalStatus_TerminalStatesStick(t *testing.T) {
	statuses := []GoalStatus{GoalActive, GoalCompleted, GoalCancelled}
	rapid.Check(t, func(rt *rapid.T) {
		r := New(WithGoals("g"))
		steps := rapid.SliceOfN(rapid.SampledFrom(statuses), 1, 10).Draw(rt, "steps")
		current := GoalActive
		for _, next := range steps {
			_, err := r.UpdateGoal(0, next)
			if current == GoalActive && next != GoalActive {
				require.NoError(rt, err)
				current = next
			} else {
				require.Error(rt, err)
			}
			assert.Equal(rt, current, r.Goals()[0].Status)
		}
	})
}
