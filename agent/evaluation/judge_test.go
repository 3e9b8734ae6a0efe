package evaluation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/contextbench/agent/evaluation"
	"github.com/BaSui01/contextbench/internal/cache"
	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/testutil/fixtures"
	"github.com/BaSui01/contextbench/testutil/mocks"
	"github.com/BaSui01/contextbench/types"
)

const report = `# Research report

## gdp_growth

Global GDP grew at an annual rate of 3.1%, reaching $105.4 trillion.

### Sources

World Bank.

## Inflation

Headline inflation averaged 4.2 percent.

` + "```json\n{\"answers\": {\"1\": 3.1, \"2\": 4.2}}\n```\n"

func TestExtractSection(t *testing.T) {
	gdp, ok := evaluation.ExtractSection(report, "gdp_growth")
	require.True(t, ok)
	assert.Contains(t, gdp, "$105.4 trillion")
	assert.Contains(t, gdp, "World Bank", "subheadings belong to the section")
	assert.NotContains(t, gdp, "inflation")

	infl, ok := evaluation.ExtractSection(report, "inflation")
	require.True(t, ok)
	assert.Equal(t, "Headline inflation averaged 4.2 percent.", infl, "fenced blocks are not prose")

	_, ok = evaluation.ExtractSection(report, "unemployment")
	assert.False(t, ok)
}

func TestExtractNumbers(t *testing.T) {
	qs := evaluation.ExtractNumbers("Revenue was $1,234.5 million, up 12% on 2.5bn units and 40k staff.")
	require.Len(t, qs, 4)
	assert.Equal(t, 1234.5, qs[0].Raw)
	assert.Equal(t, "million", qs[0].Scale)
	assert.Equal(t, "%", qs[1].Scale)
	assert.Equal(t, "bn", qs[2].Scale)
	assert.Equal(t, 40.0, qs[3].Raw)
	assert.Contains(t, qs[3].Readings(), 40000.0)
	assert.Contains(t, qs[0].Readings(), 1234.5e6)
}

func TestExtractNumbers_SignsAndRanges(t *testing.T) {
	qs := evaluation.ExtractNumbers("Margins fell -12.3% over 10-12 months ending 2025-12-20, COVID-19 aside.")
	raws := make([]float64, len(qs))
	for i, q := range qs {
		raws[i] = q.Raw
	}
	assert.Equal(t, []float64{-12.3, 10, 12, 2025, 12, 20, 19}, raws)
	assert.Equal(t, "-12.3%", qs[0].Text)
	assert.Equal(t, "12", qs[2].Text)
}

func TestNumericJudge(t *testing.T) {
	j := evaluation.NewNumericJudge()
	ctx := context.Background()

	tests := []struct {
		name       string
		prose      string
		value      any
		consistent bool
		score      float64
	}{
		{name: "trillions as billions", prose: "GDP reached $105.4 trillion.", value: 105400.0, consistent: true, score: 1},
		{name: "raw amount", prose: "GDP reached $105.4 trillion.", value: 1.054e14, consistent: true, score: 1},
		{name: "percent as ratio", prose: "Growth was 3.1%.", value: 0.031, consistent: true, score: 1},
		{name: "rounding within tolerance", prose: "About 1,000 units.", value: 1004.0, consistent: true, score: 1},
		{name: "mismatch", prose: "Growth was 3.1%.", value: 5.0, consistent: false, score: 0},
		{name: "sign mismatch", prose: "Growth was -12.3%.", value: 12.3, consistent: false, score: 0},
		{name: "negative agrees", prose: "Growth was -12.3%.", value: -12.3, consistent: true, score: 1},
		{name: "upper end of range", prose: "Expect 10-12 weeks.", value: 12.0, consistent: true, score: 1},
		{name: "string leaf", prose: "The outlook is Positive.", value: "positive", consistent: true, score: 1},
		{name: "nested value", prose: "Price $950.25 with P/E 28.", value: map[string]any{"price": 950.25, "pe": 31.0}, consistent: false, score: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := j.Judge(ctx, evaluation.ConsistencyRequest{Domain: "d", Prose: tt.prose, Value: tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.consistent, v.IsConsistent, v.Reasoning)
			assert.InDelta(t, tt.score, v.ConsistencyScore, 1e-9)
		})
	}
}

func consistencyRecord() *tasks.Record {
	return &tasks.Record{ReferenceOutputs: tasks.ReferenceOutputs{
		Deliverables: map[string]string{"gdp_growth": "1", "inflation": "2"},
	}}
}

func TestConsistency_NumericJudgeOnReport(t *testing.T) {
	c := evaluation.NewConsistency(evaluation.NewNumericJudge(), nil)
	s := c.Evaluate(context.Background(), consistencyRecord(), outputs(report))
	assert.Equal(t, evaluation.KeyConsistency, s.Key)
	assert.Equal(t, 1.0, s.Score, s.Comment)
}

func TestConsistency_JudgeErrorScoresDomainZero(t *testing.T) {
	judge := mocks.NewMockJudge().WithError("gdp_growth", errors.New("judge down"))
	s := evaluation.NewConsistency(judge, nil).Evaluate(context.Background(), consistencyRecord(), outputs(report))
	assert.Equal(t, 0.5, s.Score)
	assert.Contains(t, s.Comment, "gdp_growth=0.00 (judge_error: judge down)")
	assert.Equal(t, 2, judge.CallCount(), "the other domain is still judged")
}

func TestConsistency_MissingSectionOrAnswer(t *testing.T) {
	judge := mocks.NewMockJudge()
	final := fixtures.Report([]fixtures.Section{{Heading: "GDP growth", Body: "3.1%"}}, map[string]any{"1": 3.1})
	s := evaluation.NewConsistency(judge, nil).Evaluate(context.Background(), consistencyRecord(), outputs(final))
	assert.Equal(t, 0.5, s.Score)
	assert.Contains(t, s.Comment, "inflation=0.00 (no section)")

	calls := judge.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "3.1%", calls[0].Prose)
	assert.Equal(t, 3.1, calls[0].Value)
}

func TestParseVerdict(t *testing.T) {
	v, err := evaluation.ParseVerdict("Here you go:\n{\"is_consistent\": false, \"consistency_score\": 1.7, \"inconsistencies\": [\"gdp\"], \"reasoning\": \"x\"}")
	require.NoError(t, err)
	assert.False(t, v.IsConsistent)
	assert.Equal(t, 1.0, v.ConsistencyScore)
	assert.Equal(t, []string{"gdp"}, v.Inconsistencies)
	assert.NotNil(t, v.SpecificExamples)

	v, err = evaluation.ParseVerdict(`{"is_consistent": true, "consistency_score": 0.9, "reasoning": 'ok',}`)
	require.NoError(t, err)
	assert.True(t, v.IsConsistent)

	_, err = evaluation.ParseVerdict("no verdict here")
	assert.True(t, types.IsErrorCode(err, types.ErrJudge))
}

func TestLLMJudge(t *testing.T) {
	provider := mocks.NewSuccessProvider(`{"is_consistent": true, "consistency_score": 0.95, "inconsistencies": [], "specific_examples": ["3.1%"], "reasoning": "matches"}`)
	cfg := evaluation.DefaultLLMJudgeConfig()
	cfg.Model = "judge-model"
	cfg.RequestsPerSecond = 0
	j := evaluation.NewLLMJudge(provider, cfg, nil)

	v, err := j.Judge(context.Background(), evaluation.ConsistencyRequest{Domain: "gdp", Prose: "3.1%", Value: 3.1})
	require.NoError(t, err)
	assert.True(t, v.IsConsistent)
	assert.InDelta(t, 0.95, v.ConsistencyScore, 1e-9)

	last := provider.GetLastCall()
	require.NotNil(t, last)
	req := last.Request
	assert.Equal(t, "judge-model", req.Model)
	assert.Equal(t, "json_object", req.ResponseFormat)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, types.RoleSystem, req.Messages[0].Role)
	assert.JSONEq(t, `{"domain": "gdp", "prose": "3.1%", "json_value": 3.1}`, req.Messages[1].Content)
}

func TestLLMJudge_ProviderFailureIsJudgeError(t *testing.T) {
	j := evaluation.NewLLMJudge(mocks.NewErrorProvider(errors.New("503")), evaluation.DefaultLLMJudgeConfig(), nil)
	_, err := j.Judge(context.Background(), evaluation.ConsistencyRequest{Domain: "gdp"})
	assert.True(t, types.IsErrorCode(err, types.ErrJudge))
}

func TestLLMJudge_RateLimitHonoursContext(t *testing.T) {
	cfg := evaluation.DefaultLLMJudgeConfig()
	cfg.RequestsPerSecond = 0.001
	j := evaluation.NewLLMJudge(mocks.NewSuccessProvider(`{"is_consistent": true, "consistency_score": 1}`), cfg, nil)

	_, err := j.Judge(context.Background(), evaluation.ConsistencyRequest{Domain: "a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = j.Judge(ctx, evaluation.ConsistencyRequest{Domain: "b"})
	assert.True(t, types.IsErrorCode(err, types.ErrJudge))
}

func TestCachedJudge(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := cache.DefaultConfig()
	cfg.Enabled = true
	cfg.Addr = mr.Addr()
	remote, err := cache.NewManager(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = remote.Close() })

	tiered, err := cache.NewTiered(16, nil, cache.WithRemote(remote))
	require.NoError(t, err)

	inner := mocks.NewMockJudge().WithScore("gdp", 0.5)
	j := evaluation.NewCachedJudge(inner, tiered, "mock", nil)
	req := evaluation.ConsistencyRequest{Domain: "gdp", Prose: "3.1%", Value: 3.1}

	for i := 0; i < 3; i++ {
		v, err := j.Judge(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 0.5, v.ConsistencyScore)
	}
	assert.Equal(t, 1, inner.CallCount())

	// a fresh process sees the verdict through redis
	tiered.Purge()
	_, err = j.Judge(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.CallCount())

	other := req
	other.Value = 3.2
	_, err = j.Judge(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.CallCount())
}

func TestCachedJudge_ErrorsAreNotCached(t *testing.T) {
	tiered, err := cache.NewTiered(4, nil)
	require.NoError(t, err)
	inner := mocks.NewMockJudge().WithError("gdp", errors.New("boom"))
	j := evaluation.NewCachedJudge(inner, tiered, "mock", nil)

	for i := 0; i < 2; i++ {
		_, err := j.Judge(context.Background(), evaluation.ConsistencyRequest{Domain: "gdp"})
		require.Error(t, err)
	}
	assert.Equal(t, 2, inner.CallCount())
	assert.Equal(t, 0, tiered.Len())
}
