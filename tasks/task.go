package tasks

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/BaSui01/contextbench/agent/state"
	"github.com/BaSui01/contextbench/oracle"
	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/trajectory"
)

// Question is one numbered sub-question of a task. Research questions carry
// an oracle Query; other questions carry a literal Expected value.
type Question struct {
	Number   int           `json:"number" yaml:"number" validate:"gte=1"`
	Text     string        `json:"text" yaml:"text" validate:"required"`
	Query    *oracle.Query `json:"query,omitempty" yaml:"query,omitempty"`
	Expected any           `json:"expected,omitempty" yaml:"expected,omitempty"`
	// Deliverable is the deliverable key a researcher stores this answer
	// under in the multi-agent variant.
	Deliverable string `json:"deliverable,omitempty" yaml:"deliverable,omitempty"`
	// Source names where a literal answer can be read from a tool payload.
	Source *AnswerSource `json:"source,omitempty" yaml:"source,omitempty"`
}

// AnswerSource points at a field of the last successful payload of Tool.
type AnswerSource struct {
	Tool  string `json:"tool" yaml:"tool" validate:"required"`
	Field string `json:"field" yaml:"field" validate:"required"`
}

// Key returns the answer key of the question, "1".."N".
func (q Question) Key() string {
	return strconv.Itoa(q.Number)
}

// Counts size the reference trajectory by tool family.
type Counts struct {
	Stats   int `json:"stats_count" yaml:"stats_count"`
	Expert  int `json:"expert_count" yaml:"expert_count"`
	Case    int `json:"case_count" yaml:"case_count"`
	Year    int `json:"year_count" yaml:"year_count"`
	Compare int `json:"compare_count" yaml:"compare_count"`
}

// ResponseCriteria are substring checks on a final response: every
// MustInclude entry and at least one entry of each AnyOf group.
type ResponseCriteria struct {
	MustInclude []string   `json:"must_include,omitempty" yaml:"must_include,omitempty"`
	AnyOf       [][]string `json:"any_of,omitempty" yaml:"any_of,omitempty"`
}

// Poison describes a false fact planted in a task's initial state.
type Poison struct {
	// Identifier is the non-existent id, e.g. a ticker.
	Identifier string `json:"identifier" yaml:"identifier" validate:"required"`
	// GoalText is a substring of the poisoned goal's description.
	GoalText string `json:"goal_text" yaml:"goal_text" validate:"required"`
}

// Task is one evaluation example.
type Task struct {
	ID       int            `json:"id" yaml:"id" validate:"gte=1"`
	Name     string         `json:"name" yaml:"name" validate:"required"`
	Scenario tools.Scenario `json:"scenario" yaml:"scenario" validate:"required"`
	// Preamble precedes the numbered questions in the user query.
	Preamble  string     `json:"preamble,omitempty" yaml:"preamble,omitempty"`
	Questions []Question `json:"questions" yaml:"questions" validate:"dive"`

	PrimaryDomain   oracle.Domain   `json:"primary_domain,omitempty" yaml:"primary_domain,omitempty"`
	SecondaryDomain oracle.Domain   `json:"secondary_domain,omitempty" yaml:"secondary_domain,omitempty"`
	Domains         []oracle.Domain `json:"domains,omitempty" yaml:"domains,omitempty"`
	Counts          Counts          `json:"counts" yaml:"counts"`

	ExpectedTrajectory trajectory.Trajectory `json:"expected_trajectory" yaml:"expected_trajectory"`
	TrajectoryMode     trajectory.MatchMode  `json:"trajectory_mode" yaml:"trajectory_mode" validate:"required,oneof=exact subset name"`

	Criteria *ResponseCriteria `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Poison   *Poison           `json:"poison,omitempty" yaml:"poison,omitempty"`

	InitialGoals   []string `json:"initial_goals,omitempty" yaml:"initial_goals,omitempty"`
	InitialTracked []string `json:"initial_tracked,omitempty" yaml:"initial_tracked,omitempty"`
	// History is prior conversation text replayed before the query; it makes
	// distraction tasks long.
	History []string `json:"history,omitempty" yaml:"history,omitempty"`

	// literalQuery overrides the rendered query for free-form tasks.
	literalQuery string
}

// Query renders the user query.
func (t *Task) Query() string {
	if t.literalQuery != "" {
		return t.literalQuery
	}
	return renderQuery(t)
}

// N returns the number of questions.
func (t *Task) N() int {
	return len(t.Questions)
}

// ExpectedAnswers returns the expected answer of every question, keyed "1".."N".
func (t *Task) ExpectedAnswers() (map[string]any, error) {
	o := oracle.New()
	out := make(map[string]any, len(t.Questions))
	for _, q := range t.Questions {
		if q.Query == nil {
			if q.Expected != nil {
				out[q.Key()] = q.Expected
			}
			continue
		}
		v, err := o.Answer(*q.Query)
		if err != nil {
			return nil, fmt.Errorf("task %d question %d: %w", t.ID, q.Number, err)
		}
		out[q.Key()] = v
	}
	return out, nil
}

// RecallQuestions returns the question texts in order.
func (t *Task) RecallQuestions() []string {
	out := make([]string, len(t.Questions))
	for i, q := range t.Questions {
		out[i] = q.Text
	}
	return out
}

// DeliverableKeys returns the keys a commit tool may store under: question
// numbers for flat tasks, per-question deliverable keys for multi-agent tasks.
func (t *Task) DeliverableKeys() []string {
	keys := make([]string, 0, len(t.Questions))
	seen := make(map[string]bool, len(t.Questions))
	for _, q := range t.Questions {
		k := q.Key()
		if t.Scenario == tools.ScenarioResearchMultiAgent && q.Deliverable != "" {
			k = q.Deliverable
		}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// QuestionForDeliverable returns the question bound to a deliverable key.
func (t *Task) QuestionForDeliverable(key string) (Question, bool) {
	for _, q := range t.Questions {
		if q.Deliverable == key || (q.Deliverable == "" && q.Key() == key) {
			return q, true
		}
	}
	return Question{}, false
}

// DeliverableAnswers maps each deliverable key to its answer key. It is nil
// for tasks without deliverables.
func (t *Task) DeliverableAnswers() map[string]string {
	var out map[string]string
	for _, q := range t.Questions {
		if q.Deliverable == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[q.Deliverable] = q.Key()
	}
	return out
}

// NewState builds the fresh research state a run of t starts from.
func (t *Task) NewState() *state.Research {
	return state.New(
		state.WithGoals(t.InitialGoals...),
		state.WithTracked(t.InitialTracked...),
		state.WithDeliverableKeys(t.DeliverableKeys()...),
	)
}

// Queries returns the oracle queries of the research questions in order.
func (t *Task) Queries() []oracle.Query {
	var out []oracle.Query
	for _, q := range t.Questions {
		if q.Query != nil {
			out = append(out, *q.Query)
		}
	}
	return out
}

// deriveReference regenerates the expected trajectory and counts from the
// research questions. Tasks without research questions keep their declared
// trajectory.
func (t *Task) deriveReference(g *trajectory.Generator) error {
	queries := t.Queries()
	if len(queries) == 0 {
		return nil
	}
	tr, err := g.Generate(queries)
	if err != nil {
		return fmt.Errorf("task %d: %w", t.ID, err)
	}
	t.ExpectedTrajectory = tr
	t.Counts = countsOf(tr, t.Domains)
	return nil
}

func countsOf(tr trajectory.Trajectory, domains []oracle.Domain) Counts {
	var c Counts
	for _, call := range tr {
		switch call.Name {
		case "get_statistics":
			c.Stats++
		case "get_expert_opinion":
			c.Expert++
		case "get_case_study":
			c.Case++
		case "get_year_data":
			c.Year++
		}
	}
	c.Compare = len(domains)
	return c
}

// Subset returns a copy of t restricted to the given question numbers. The
// original numbering is kept and the reference is regenerated.
func (t *Task) Subset(numbers []int) (*Task, error) {
	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > t.N() {
			return nil, fmt.Errorf("task %d has no question %d (1-%d)", t.ID, n, t.N())
		}
		want[n] = true
	}
	cp := *t
	cp.Questions = nil
	for _, q := range t.Questions {
		if want[q.Number] {
			cp.Questions = append(cp.Questions, q)
		}
	}
	sort.Slice(cp.Questions, func(i, j int) bool { return cp.Questions[i].Number < cp.Questions[j].Number })
	if err := cp.deriveReference(trajectory.NewGenerator(nil)); err != nil {
		return nil, err
	}
	return &cp, nil
}
