package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/contextbench/answer"
	"github.com/BaSui01/contextbench/tasks"
)

// Recall scores the answers block of the final response against the
// expected answers. Missing keys count as wrong.
type Recall struct{}

func (Recall) Key() string { return KeyRecall }

func (Recall) Evaluate(_ context.Context, rec *tasks.Record, out *Outputs) Score {
	expected := rec.ReferenceOutputs.ExpectedAnswers
	if len(expected) == 0 {
		return Score{Key: KeyRecall, Score: 1, Comment: "no expected answers"}
	}
	parsed := answer.Parse(out.FinalResponse)
	if !parsed.OK() {
		return Score{Key: KeyRecall, Score: 0, Comment: fmt.Sprintf("%s: %s", parsed.Err.Code, parsed.Err.Message)}
	}

	var correct int
	var wrong []string
	for _, k := range sortedKeys(expected) {
		want := expected[k]
		got, ok := parsed.Answers[k]
		switch {
		case !ok:
			wrong = append(wrong, fmt.Sprintf("Q%s: missing", k))
		case AnswersAgree(want, got):
			correct++
		default:
			wrong = append(wrong, fmt.Sprintf("Q%s: expected %v, got %v", k, want, got))
		}
	}

	comment := fmt.Sprintf("%d/%d correct", correct, len(expected))
	if len(wrong) > 0 {
		comment += "; " + strings.Join(wrong, "; ")
	}
	if parsed.Repaired {
		comment += " (answers block was repaired)"
	}
	return Score{Key: KeyRecall, Score: float64(correct) / float64(len(expected)), Comment: comment}
}
