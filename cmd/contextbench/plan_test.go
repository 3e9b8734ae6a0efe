package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/tools"
)

func TestBuildPlan(t *testing.T) {
	catalog := tasks.Default()

	t.Run("dataset", func(t *testing.T) {
		p, err := buildPlan(catalog, selection{dataset: tasks.DatasetShippingSupport})
		require.NoError(t, err)
		ds, err := catalog.Dataset(tasks.DatasetShippingSupport)
		require.NoError(t, err)
		assert.Len(t, p.records, len(ds.Tasks))
		assert.Equal(t, tasks.DatasetShippingSupport, p.dataset)
		for _, rec := range p.records {
			_, ok := p.task(rec.Metadata.TaskID)
			assert.True(t, ok)
		}
	})

	t.Run("single task names its dataset", func(t *testing.T) {
		p, err := buildPlan(catalog, selection{dataset: tasks.DatasetResearchDistraction, taskID: 201})
		require.NoError(t, err)
		assert.Equal(t, tasks.DatasetFinancePoisoning, p.dataset)
		require.Len(t, p.records, 1)
		assert.Equal(t, tasks.DatasetFinancePoisoning, p.records[0].Metadata.Dataset)
	})

	t.Run("question subset keeps numbering", func(t *testing.T) {
		p, err := buildPlan(catalog, selection{taskID: 1, questions: "2,4"})
		require.NoError(t, err)
		answers := p.records[0].ReferenceOutputs.ExpectedAnswers
		assert.Len(t, answers, 2)
		assert.Contains(t, answers, "2")
		assert.Contains(t, answers, "4")
	})

	t.Run("questions skip tasks without questions in a dataset", func(t *testing.T) {
		p, err := buildPlan(catalog, selection{dataset: tasks.DatasetShippingSupport, questions: "1"})
		require.NoError(t, err)
		assert.NotEmpty(t, p.records)
	})

	t.Run("scenario override", func(t *testing.T) {
		p, err := buildPlan(catalog, selection{dataset: tasks.DatasetShippingSupport, scenario: string(tools.ScenarioShippingConsolidated)})
		require.NoError(t, err)
		for _, rec := range p.records {
			assert.Equal(t, string(tools.ScenarioShippingConsolidated), rec.Metadata.Scenario)
			task, ok := p.task(rec.Metadata.TaskID)
			require.True(t, ok)
			assert.Equal(t, tools.ScenarioShippingConsolidated, task.Scenario)
		}
	})

	t.Run("unknown dataset is missing", func(t *testing.T) {
		_, err := buildPlan(catalog, selection{dataset: "nope"})
		assert.Equal(t, exitMissing, exitCode(err))
	})

	t.Run("task outside the chosen dataset is missing", func(t *testing.T) {
		_, err := buildPlan(catalog, selection{dataset: tasks.DatasetShippingSupport, datasetSet: true, taskID: 1})
		assert.Equal(t, exitMissing, exitCode(err))
	})
}

func TestDatasetOf(t *testing.T) {
	catalog := tasks.Default()
	assert.Equal(t, tasks.DatasetResearchMultiAgent, datasetOf(catalog, 11))
	assert.Equal(t, tasks.DatasetShippingSupport, datasetOf(catalog, 104))
	assert.Empty(t, datasetOf(catalog, 999))
}
