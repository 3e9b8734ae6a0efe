package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/trajectory"
)

// Completeness scores how many reference calls the run made.
type Completeness struct {
	// StrictOrder requires the reference calls to appear as a subsequence
	// of the actual trajectory.
	StrictOrder bool
	// Mode overrides the record's match mode when set.
	Mode trajectory.MatchMode
	// Normalize maps arguments of both trajectories to the form the tools
	// resolve them to before matching. Nil compares raw values.
	Normalize trajectory.ArgNormalizer
}

// NewCompleteness creates a completeness evaluator that matches arguments
// the way the tools resolve them.
func NewCompleteness(strictOrder bool) Completeness {
	return Completeness{StrictOrder: strictOrder, Normalize: tools.NormalizeArg}
}

func (Completeness) Key() string { return KeyCompleteness }

func (c Completeness) Evaluate(_ context.Context, rec *tasks.Record, out *Outputs) Score {
	ref := rec.ReferenceOutputs.ExpectedTrajectory
	if len(ref) == 0 {
		return Score{Key: KeyCompleteness, Score: 1, Comment: "no reference trajectory"}
	}
	mode := c.Mode
	if mode == "" {
		mode = rec.ReferenceOutputs.TrajectoryMode
	}
	if mode == "" {
		mode = trajectory.MatchSubset
	}

	actual := out.Trajectory.Normalize(c.Normalize)
	var missing []int
	from := 0
	for i, want := range ref {
		want = want.Normalize(c.Normalize)
		if !c.StrictOrder {
			if !actual.Contains(want, mode) {
				missing = append(missing, i)
			}
			continue
		}
		idx := actual.Index(want, mode, from)
		if idx < 0 {
			missing = append(missing, i)
			continue
		}
		from = idx + 1
	}

	matched := len(ref) - len(missing)
	comment := fmt.Sprintf("%d/%d reference calls matched (%s)", matched, len(ref), mode)
	if len(missing) > 0 {
		parts := make([]string, len(missing))
		for i, idx := range missing {
			parts[i] = fmt.Sprintf("[%d] %s", idx, ref[idx])
		}
		comment += "; missing " + strings.Join(parts, ", ")
	}
	return Score{Key: KeyCompleteness, Score: float64(matched) / float64(len(ref)), Comment: comment}
}

// Efficiency compares the minimal call count with the actual one. Scores
// above 1 mean the run used fewer calls than the reference.
type Efficiency struct{}

func (Efficiency) Key() string { return KeyEfficiency }

func (Efficiency) Evaluate(_ context.Context, rec *tasks.Record, out *Outputs) Score {
	expected := rec.ReferenceOutputs.ExpectedTrajectoryCount
	if expected == 0 {
		expected = len(rec.ReferenceOutputs.ExpectedTrajectory)
	}
	actual := len(out.Trajectory)
	if expected == 0 && actual == 0 {
		return Score{Key: KeyEfficiency, Score: 1, Comment: "no calls expected, none made"}
	}
	return Score{
		Key:     KeyEfficiency,
		Score:   float64(expected) / float64(max(actual, 1)),
		Comment: fmt.Sprintf("expected %d calls, made %d (%d unique)", expected, actual, out.Trajectory.Unique()),
	}
}
