package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/contextbench/tasks"
)

// ResponseCriteria checks required phrases in the final response: every
// must_include entry, plus at least one entry of each any_of group.
// Matching ignores case and treats underscores as spaces.
type ResponseCriteria struct{}

func (ResponseCriteria) Key() string { return KeyResponseCriteria }

func (ResponseCriteria) Evaluate(_ context.Context, rec *tasks.Record, out *Outputs) Score {
	crit := rec.ReferenceOutputs.Criteria
	if crit == nil || len(crit.MustInclude)+len(crit.AnyOf) == 0 {
		return Score{Key: KeyResponseCriteria, Score: 1, Comment: "no response criteria"}
	}
	text := normalizeText(out.FinalResponse)

	total := len(crit.MustInclude) + len(crit.AnyOf)
	var met int
	var missing []string
	for _, phrase := range crit.MustInclude {
		if strings.Contains(text, normalizeText(phrase)) {
			met++
		} else {
			missing = append(missing, fmt.Sprintf("%q", phrase))
		}
	}
	for _, group := range crit.AnyOf {
		if containsAny(text, group) {
			met++
		} else {
			missing = append(missing, "one of ["+strings.Join(group, " | ")+"]")
		}
	}

	comment := fmt.Sprintf("%d/%d criteria met", met, total)
	if len(missing) > 0 {
		comment += "; missing " + strings.Join(missing, ", ")
	}
	return Score{Key: KeyResponseCriteria, Score: float64(met) / float64(total), Comment: comment}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, normalizeText(p)) {
			return true
		}
	}
	return false
}
