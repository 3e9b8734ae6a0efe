package state

import (
	"sort"
	"strings"
	"sync"

	"github.com/BaSui01/contextbench/types"
)

// Deliverable is a committed value under a pre-declared key.
type Deliverable struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Snapshot is an immutable, serializable view of a research state.
type Snapshot struct {
	Goals          []Goal              `json:"goals"`
	TrackedTickers []string            `json:"tracked_tickers"`
	Notes          map[string][]string `json:"notes"`
	Summaries      []string            `json:"summaries,omitempty"`
	Deliverables   []Deliverable       `json:"deliverables,omitempty"`
	Completed      bool                `json:"completed"`
	FinalSummary   string              `json:"final_summary,omitempty"`
}

// Research is the per-run mutable research state. Tools mutate it only
// through the typed operations below. It is safe for concurrent use so that
// researcher subagents can share one instance.
type Research struct {
	mu sync.RWMutex

	goals        []Goal
	tracked      []string
	notes        map[string][]string
	summaries    []string
	declared     []string
	deliverables []Deliverable
	delivered    map[string]int
	completed    bool
	finalSummary string
}

// Option configures a new Research.
type Option func(*Research)

// WithGoals prepopulates active goals.
func WithGoals(descriptions ...string) Option {
	return func(r *Research) {
		for _, d := range descriptions {
			r.addGoalLocked(d, "")
		}
	}
}

// WithTracked prepopulates tracked tickers.
func WithTracked(tickers ...string) Option {
	return func(r *Research) {
		for _, t := range tickers {
			r.trackLocked(t)
		}
	}
}

// WithDeliverableKeys declares the keys a commit may store under.
func WithDeliverableKeys(keys ...string) Option {
	return func(r *Research) {
		r.declared = append(r.declared, keys...)
	}
}

// New creates an empty research state.
func New(opts ...Option) *Research {
	r := &Research{
		notes:     make(map[string][]string),
		delivered: make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddGoal appends an active goal and returns it.
func (r *Research) AddGoal(description, priority string) Goal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addGoalLocked(description, priority)
}

func (r *Research) addGoalLocked(description, priority string) Goal {
	g := Goal{
		Index:       len(r.goals),
		Description: strings.TrimSpace(description),
		Status:      GoalActive,
		Priority:    priority,
	}
	r.goals = append(r.goals, g)
	return g
}

// UpdateGoal moves a goal to a new status. Unknown indices are not_found and
// illegal transitions are invalid.
func (r *Research) UpdateGoal(index int, status GoalStatus) (Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.goals) {
		return Goal{}, types.Errorf(types.ErrNotFound, "goal index %d does not exist (have %d goals)", index, len(r.goals))
	}
	g := r.goals[index]
	if !CanTransition(g.Status, status) {
		return Goal{}, types.NewError(types.ErrInvalid, ErrInvalidTransition{Index: index, From: g.Status, To: status}.Error())
	}
	g.Status = status
	r.goals[index] = g
	return g, nil
}

// Goals returns a copy of the goals in order.
func (r *Research) Goals() []Goal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Goal(nil), r.goals...)
}

// Track adds a ticker to the tracked set. It reports false when the ticker
// was already tracked.
func (r *Research) Track(ticker string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trackLocked(ticker)
}

func (r *Research) trackLocked(ticker string) bool {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	for _, existing := range r.tracked {
		if existing == t {
			return false
		}
	}
	r.tracked = append(r.tracked, t)
	return true
}

// Tracked returns the tracked tickers in insertion order.
func (r *Research) Tracked() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.tracked...)
}

// AddNote appends a note under a topic.
func (r *Research) AddNote(topic, note string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[topic] = append(r.notes[topic], note)
}

// AddSummary records an interim research summary.
func (r *Research) AddSummary(text string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, text)
	return len(r.summaries)
}

// DeclaredKeys returns the pre-declared deliverable keys.
func (r *Research) DeclaredKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.declared...)
}

// IsDeclared reports whether key is a pre-declared deliverable key.
func (r *Research) IsDeclared(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isDeclaredLocked(key)
}

func (r *Research) isDeclaredLocked(key string) bool {
	for _, k := range r.declared {
		if k == key {
			return true
		}
	}
	return false
}

// StoreDeliverable commits value under key. The key must be declared and
// not yet committed.
func (r *Research) StoreDeliverable(key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDeclaredLocked(key) {
		declared := append([]string(nil), r.declared...)
		sort.Strings(declared)
		return types.Errorf(types.ErrInvalid, "deliverable key %q is not declared (declared: %s)", key, strings.Join(declared, ", "))
	}
	if _, done := r.delivered[key]; done {
		return types.Errorf(types.ErrInvalid, "deliverable %q was already committed", key)
	}
	r.delivered[key] = len(r.deliverables)
	r.deliverables = append(r.deliverables, Deliverable{Key: key, Value: value})
	return nil
}

// Deliverable returns the committed value of key.
func (r *Research) Deliverable(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.delivered[key]
	if !ok {
		return nil, false
	}
	return r.deliverables[i].Value, true
}

// Deliverables returns the committed deliverables in insertion order.
func (r *Research) Deliverables() []Deliverable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Deliverable(nil), r.deliverables...)
}

// Complete marks the research complete. Completing twice is invalid.
func (r *Research) Complete(summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed {
		return types.NewError(types.ErrInvalid, "research is already complete")
	}
	r.completed = true
	r.finalSummary = summary
	return nil
}

// Completed reports whether Complete was called.
func (r *Research) Completed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.completed
}

// Snapshot returns a deep copy of the current state.
func (r *Research) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	notes := make(map[string][]string, len(r.notes))
	for k, v := range r.notes {
		notes[k] = append([]string(nil), v...)
	}
	return Snapshot{
		Goals:          append([]Goal(nil), r.goals...),
		TrackedTickers: append([]string(nil), r.tracked...),
		Notes:          notes,
		Summaries:      append([]string(nil), r.summaries...),
		Deliverables:   append([]Deliverable(nil), r.deliverables...),
		Completed:      r.completed,
		FinalSummary:   r.finalSummary,
	}
}

// Clone returns an independent copy, used to give every run a fresh state
// from a prepopulated template.
func (r *Research) Clone() *Research {
	snap := r.Snapshot()
	c := New(WithDeliverableKeys(r.DeclaredKeys()...))
	c.goals = snap.Goals
	c.tracked = snap.TrackedTickers
	c.notes = snap.Notes
	c.summaries = snap.Summaries
	c.deliverables = snap.Deliverables
	for i, d := range c.deliverables {
		c.delivered[d.Key] = i
	}
	c.completed = snap.Completed
	c.finalSummary = snap.FinalSummary
	return c
}
