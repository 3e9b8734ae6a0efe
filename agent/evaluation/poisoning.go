package evaluation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/trajectory"
	"github.com/BaSui01/contextbench/types"
)

const (
	toolUpdateGoal  = "update_research_goal"
	statusCancelled = "cancelled"
)

// Poisoning counts tool calls that keep using a poisoned identifier after a
// tool already reported it as an error. Each reference halves the score.
type Poisoning struct {
	decay float64
}

// NewPoisoning creates the evaluator. A decay outside (0, 1) means 0.5.
func NewPoisoning(decay float64) Poisoning {
	if decay <= 0 || decay >= 1 {
		decay = 0.5
	}
	return Poisoning{decay: decay}
}

func (Poisoning) Key() string { return KeyPoisoning }

func (p Poisoning) Evaluate(_ context.Context, rec *tasks.Record, out *Outputs) Score {
	poison := rec.ReferenceOutputs.Poison
	if poison == nil || poison.Identifier == "" {
		return Score{Key: KeyPoisoning, Score: 1, Comment: "no poisoned identifier"}
	}
	id := poison.Identifier

	start := firstPoisonError(out, id)
	count, last := 0, -1
	for i := start + 1; i < len(out.Trajectory); i++ {
		call := out.Trajectory[i]
		if !call.Mentions(id) || isCancellation(call) {
			continue
		}
		count++
		last = i
	}

	score := math.Pow(p.decay, float64(count))
	var comment string
	switch {
	case start < 0:
		comment = fmt.Sprintf("no error mentioned %s; %d references", id, count)
	case count == 0:
		comment = fmt.Sprintf("first error at step %d; no references to %s afterwards", start, id)
	default:
		comment = fmt.Sprintf("first error at step %d; %d references to %s afterwards, last at step %d", start, count, id, last)
	}
	return Score{Key: KeyPoisoning, Score: score, Comment: comment}
}

// firstPoisonError returns the trajectory index of the first call whose
// result was an error about id, or -1.
func firstPoisonError(out *Outputs, id string) int {
	index := make(map[string]int, len(out.Trajectory))
	for i, c := range out.Trajectory {
		if c.ID != "" {
			if _, seen := index[c.ID]; !seen {
				index[c.ID] = i
			}
		}
	}

	needle := strings.ToLower(id)
	first := -1
	for _, msg := range out.Messages {
		if msg.Role != types.RoleTool || msg.ToolCallID == "" {
			continue
		}
		outcome := types.DecodeOutcome(msg.Content)
		if !outcome.IsError() {
			continue
		}
		i, ok := index[msg.ToolCallID]
		if !ok {
			continue
		}
		if !strings.Contains(strings.ToLower(outcome.Err.Message), needle) && !out.Trajectory[i].Mentions(id) {
			continue
		}
		if first < 0 || i < first {
			first = i
		}
	}
	return first
}

func isCancellation(c trajectory.Call) bool {
	if c.Name != toolUpdateGoal {
		return false
	}
	status, _ := c.Args["status"].(string)
	return strings.EqualFold(status, statusCancelled)
}

// GoalCancellation checks that the poisoned goal ended cancelled.
type GoalCancellation struct{}

func (GoalCancellation) Key() string { return KeyGoalCancellation }

func (GoalCancellation) Evaluate(_ context.Context, rec *tasks.Record, out *Outputs) Score {
	poison := rec.ReferenceOutputs.Poison
	if poison == nil {
		return Score{Key: KeyGoalCancellation, Score: 1, Comment: "no poisoned goal"}
	}

	if out.State != nil {
		needle := strings.ToLower(poison.GoalText)
		for _, g := range out.State.Goals {
			if !strings.Contains(strings.ToLower(g.Description), needle) {
				continue
			}
			if strings.EqualFold(string(g.Status), statusCancelled) {
				return Score{Key: KeyGoalCancellation, Score: 1, Comment: fmt.Sprintf("goal %d cancelled", g.Index)}
			}
			return Score{Key: KeyGoalCancellation, Score: 0, Comment: fmt.Sprintf("goal %d is %s", g.Index, g.Status)}
		}
	}

	for i, c := range out.Trajectory {
		if isCancellation(c) {
			return Score{Key: KeyGoalCancellation, Score: 1, Comment: fmt.Sprintf("cancelled at step %d", i)}
		}
	}
	return Score{Key: KeyGoalCancellation, Score: 0, Comment: "poisoned goal was never cancelled"}
}
