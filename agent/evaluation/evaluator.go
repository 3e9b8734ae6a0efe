package evaluation

import (
	"context"
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/agent/state"
	"github.com/BaSui01/contextbench/runner"
	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/trajectory"
	"github.com/BaSui01/contextbench/types"
)

// Score keys.
const (
	KeyRecall           = "recall_accuracy"
	KeyCompleteness     = "trajectory_completeness"
	KeyEfficiency       = "trajectory_efficiency"
	KeyPoisoning        = "poisoning_references"
	KeyGoalCancellation = "goal_cancellation"
	KeyResponseCriteria = "response_criteria"
	KeyConsistency      = "consistency"
)

// Score is one evaluator's verdict on one run.
type Score struct {
	Key     string  `json:"key"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment,omitempty"`
}

// Outputs is what a run produced.
type Outputs struct {
	FinalResponse string `json:"final_response"`
	// Trajectory is the run's all_tool_calls side channel in canonical form:
	// every tool call in emission order, subagents included, unaffected by
	// history rewrites.
	Trajectory trajectory.Trajectory `json:"trajectory"`
	Messages   []types.Message       `json:"-"`
	Status     runner.Status         `json:"status"`
	// State is the research state at the end of the run, when there is one.
	State *state.Snapshot `json:"state,omitempty"`
}

// OutputsFrom collects the outputs of a driver result. st may be nil.
func OutputsFrom(res *runner.Result, st *state.Research) *Outputs {
	out := &Outputs{
		FinalResponse: res.FinalResponse,
		Trajectory:    res.Calls(),
		Messages:      res.Messages,
		Status:        res.Status,
	}
	if st != nil {
		snap := st.Snapshot()
		out.State = &snap
	}
	return out
}

// Evaluator scores one run. Evaluators never fail: problems with the
// output degrade the score and are explained in the comment.
type Evaluator interface {
	Key() string
	Evaluate(ctx context.Context, rec *tasks.Record, out *Outputs) Score
}

// Defaults returns the evaluators that apply to rec. judge may be nil, in
// which case consistency is not scored.
func Defaults(rec *tasks.Record, judge Judge, logger *zap.Logger) []Evaluator {
	ref := rec.ReferenceOutputs
	evals := []Evaluator{NewCompleteness(false), Efficiency{}}
	if len(ref.ExpectedAnswers) > 0 {
		evals = append(evals, Recall{})
	}
	if ref.Criteria != nil {
		evals = append(evals, ResponseCriteria{})
	}
	if ref.Poison != nil {
		evals = append(evals, NewPoisoning(0), GoalCancellation{})
	}
	if len(ref.Deliverables) > 0 && judge != nil {
		evals = append(evals, NewConsistency(judge, logger))
	}
	return evals
}

// AnswersAgree compares an extracted answer with the expected one: numbers
// agree within 1% relative to max(|expected|, 1), anything else compares as
// trimmed, case-folded text.
func AnswersAgree(expected, actual any) bool {
	if e, ok := toNumber(expected); ok {
		a, ok := toNumber(actual)
		if !ok {
			return false
		}
		return math.Abs(a-e)/math.Max(math.Abs(e), 1) < 0.01
	}
	return normalizeText(toText(expected)) == normalizeText(toText(actual))
}

// sortedKeys orders answer keys numerically when they are numbers.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
