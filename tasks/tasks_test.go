package tasks

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/contextbench/oracle"
	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/trajectory"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotEmpty(t, c.Tasks())
	for _, task := range c.Tasks() {
		assert.NoError(t, Validate(task), "task %d", task.ID)
		assert.NotEmpty(t, task.Query(), "task %d", task.ID)
	}
	assert.Equal(t, []string{
		DatasetFinancePoisoning,
		DatasetResearchDistraction,
		DatasetResearchMultiAgent,
		DatasetShippingSupport,
	}, c.DatasetNames())

	for _, name := range c.DatasetNames() {
		ds, err := c.Dataset(name)
		require.NoError(t, err)
		assert.NotEmpty(t, ds.Tasks, name)
	}
	_, err := c.Dataset("nope")
	assert.Error(t, err)
}

func TestResearchTask_FirstTask(t *testing.T) {
	task, ok := Default().Task(1)
	require.True(t, ok)
	assert.Equal(t, 11, task.N())
	assert.Equal(t, oracle.RenewableEnergy, task.PrimaryDomain)
	assert.Equal(t, oracle.ArtificialIntelligence, task.SecondaryDomain)

	answers, err := task.ExpectedAnswers()
	require.NoError(t, err)
	require.Len(t, answers, 11)
	assert.Equal(t, 0.096, answers["1"])
	assert.Equal(t, float64(950), answers["2"])
	assert.InEpsilon(t, 3007.32, answers["3"], 0.01)
	assert.Equal(t, "electric_vehicles, artificial_intelligence, biotechnology, renewable_energy", answers["8"])

	q := task.Query()
	assert.True(t, strings.HasPrefix(q, "You are preparing"))
	assert.Contains(t, q, "1. What is the annual growth rate of Renewable Energy")
	assert.Contains(t, q, "11. Rank")
	assert.Contains(t, q, "```json")

	assert.Equal(t, 4, task.Counts.Stats)
	assert.Equal(t, 1, task.Counts.Expert)
	assert.Equal(t, 1, task.Counts.Case)
	assert.Equal(t, 1, task.Counts.Year)
	assert.Equal(t, 4, task.Counts.Compare)
	assert.Equal(t, len(task.ExpectedTrajectory), task.ExpectedTrajectory.Unique())
	assert.True(t, task.ExpectedTrajectory.Contains(
		trajectory.MustCanonicalize("get_expert_opinion", `{"topic": "renewable_energy", "expert_id": "expert_2"}`), trajectory.MatchExact))
}

func TestResearchTask_DistractionHistoryLeadsQuery(t *testing.T) {
	task, ok := Default().Task(4)
	require.True(t, ok)
	require.NotEmpty(t, task.History)
	q := task.Query()
	assert.True(t, strings.HasPrefix(q, task.History[0]))
	assert.Less(t, strings.Index(q, "Background on"), strings.Index(q, task.Preamble))
}

func TestTask_Subset(t *testing.T) {
	task, _ := Default().Task(1)
	sub, err := task.Subset([]int{3, 1})
	require.NoError(t, err)
	require.Equal(t, 2, sub.N())
	assert.Equal(t, 1, sub.Questions[0].Number)
	assert.Equal(t, 3, sub.Questions[1].Number)
	assert.Contains(t, sub.Query(), "3. Using its current market size")
	assert.NotContains(t, sub.Query(), "2. What is the current market size")
	assert.Len(t, sub.ExpectedTrajectory, 2, "stats + compound growth")
	assert.Equal(t, 11, task.N(), "original untouched")

	_, err = task.Subset([]int{12})
	assert.Error(t, err)
}

func TestParseQuestionSet(t *testing.T) {
	got, err := ParseQuestionSet("5, 7-9,5")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 7, 8, 9}, got)

	for _, bad := range []string{"", "0", "a", "9-7", "3-x"} {
		_, err := ParseQuestionSet(bad)
		assert.Error(t, err, bad)
	}
}

func TestMultiAgentTask_Deliverables(t *testing.T) {
	task, ok := Default().Task(11)
	require.True(t, ok)
	assert.Equal(t, []string{"renewable_energy", "artificial_intelligence", "cybersecurity"}, task.DeliverableKeys())

	st := task.NewState()
	assert.True(t, st.IsDeclared("cybersecurity"))
	assert.False(t, st.IsDeclared("1"))

	q, ok := task.QuestionForDeliverable("artificial_intelligence")
	require.True(t, ok)
	assert.Equal(t, 2, q.Number)
}

func TestShippingTasks(t *testing.T) {
	c := Default()
	ds, err := c.Dataset(DatasetShippingSupport)
	require.NoError(t, err)
	for _, task := range ds.Tasks {
		assert.Equal(t, tools.ScenarioShipping, task.Scenario)
		require.NotNil(t, task.Criteria, "task %d", task.ID)
		assert.Empty(t, task.Questions)
		assert.NotContains(t, task.Query(), "```json")
	}

	tracking, _ := c.Task(104)
	assert.Equal(t, trajectory.MatchName, tracking.TrajectoryMode)
}

func TestTask_ForScenario(t *testing.T) {
	c := Default()
	cancel, _ := c.Task(105)

	consolidated, err := cancel.ForScenario(tools.ScenarioShippingConsolidated)
	require.NoError(t, err)
	assert.Equal(t, []string{"get_order", "manage_order"}, consolidated.ExpectedTrajectory.Names())
	assert.Equal(t, trajectory.MatchName, consolidated.TrajectoryMode)
	assert.NoError(t, Validate(consolidated))
	assert.Equal(t, tools.ScenarioShipping, cancel.Scenario, "original untouched")

	noisy, err := cancel.ForScenario(tools.ScenarioShippingNoisy)
	require.NoError(t, err)
	assert.Equal(t, trajectory.MatchSubset, noisy.TrajectoryMode)

	research, _ := c.Task(1)
	atomic, err := research.ForScenario(tools.ScenarioResearchAtomic)
	require.NoError(t, err)
	assert.NoError(t, Validate(atomic))
	assert.NotContains(t, atomic.ExpectedTrajectory.Names(), "analyze_correlation")

	_, err = cancel.ForScenario(tools.ScenarioFinance)
	assert.Error(t, err)
}

func TestFinanceTasks(t *testing.T) {
	task, ok := Default().Task(201)
	require.True(t, ok)
	require.NotNil(t, task.Poison)
	assert.Equal(t, "QDYN", task.Poison.Identifier)

	answers, err := task.ExpectedAnswers()
	require.NoError(t, err)
	assert.Equal(t, 168.42, answers["1"])
	assert.Equal(t, "cancelled", answers["3"])

	st := task.NewState()
	goals := st.Goals()
	require.Len(t, goals, 3)
	assert.Contains(t, goals[1].Description, task.Poison.GoalText)
}

func TestDataset_RoundTrip(t *testing.T) {
	ds, err := Default().Dataset(DatasetResearchDistraction)
	require.NoError(t, err)
	records, err := ds.Records()
	require.NoError(t, err)
	require.Len(t, records, len(ds.Tasks))

	for _, format := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		require.NoError(t, EncodeRecords(&buf, records, format))
		back, err := DecodeRecords(&buf, format)
		require.NoError(t, err, format)
		require.Len(t, back, len(records))
		assert.Equal(t, records[0].Inputs.Query, back[0].Inputs.Query)
		assert.Equal(t, records[0].ReferenceOutputs.ExpectedTrajectoryCount, back[0].ReferenceOutputs.ExpectedTrajectoryCount)
		assert.Equal(t, records[0].Metadata, back[0].Metadata)
	}

	assert.Equal(t, FormatYAML, FormatFromPath("out/data.YML"))
	assert.Equal(t, FormatJSON, FormatFromPath("data.jsonl"))
}

func TestWriteReadDataset(t *testing.T) {
	ds, err := Default().Dataset(DatasetShippingSupport)
	require.NoError(t, err)
	path := t.TempDir() + "/shipping.yaml"
	require.NoError(t, WriteDataset(path, ds))
	records, err := ReadDataset(path)
	require.NoError(t, err)
	require.Len(t, records, len(ds.Tasks))
	assert.Equal(t, DatasetShippingSupport, records[0].Metadata.Dataset)
	assert.NotNil(t, records[0].ReferenceOutputs.Criteria)
}

func TestNewCatalog_RejectsInvalid(t *testing.T) {
	dup := researchTasks()[0]
	_, err := NewCatalog(dup, researchTasks()[0])
	assert.Error(t, err)

	bad := shippingTasks()[0]
	bad.ExpectedTrajectory = trajectory.Trajectory{trajectory.MustCanonicalize("get_statistics", `{"topic": "x"}`)}
	_, err = NewCatalog(bad)
	assert.Error(t, err, "tool outside the scenario surface")
}

func TestProperty_Subset_ReferenceCoversQuestions(t *testing.T) {
	task, _ := Default().Task(2)
	rapid.Check(t, func(rt *rapid.T) {
		numbers := rapid.SliceOfNDistinct(rapid.IntRange(1, task.N()), 1, task.N(), rapid.ID[int]).Draw(rt, "numbers")
		sub, err := task.Subset(numbers)
		if err != nil {
			rt.Fatal(err)
		}
		if sub.N() != len(numbers) {
			rt.Fatalf("got %d questions, want %d", sub.N(), len(numbers))
		}
		full := task.ExpectedTrajectory
		for _, call := range sub.ExpectedTrajectory {
			if !full.Contains(call, trajectory.MatchExact) {
				rt.Fatalf("subset reference call %v missing from the full reference", call)
			}
		}
		answers, err := sub.ExpectedAnswers()
		if err != nil {
			rt.Fatal(err)
		}
		if len(answers) != len(numbers) {
			rt.Fatalf("answers %v for questions %v", answers, numbers)
		}
	})
}
