package trajectory

import (
	"fmt"
	"strings"

	"github.com/BaSui01/contextbench/types"
)

// MatchMode decides when an actual call satisfies a reference call.
type MatchMode string

const (
	// MatchExact requires equal names and equal arguments.
	MatchExact MatchMode = "exact"
	// MatchSubset requires equal names and agreement on every argument the
	// reference specifies; extra actual arguments are ignored.
	MatchSubset MatchMode = "subset"
	// MatchName compares names only.
	MatchName MatchMode = "name"
)

// ParseMatchMode validates a match mode. Empty means MatchSubset.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return MatchSubset, nil
	case MatchExact:
		return MatchExact, nil
	case MatchSubset:
		return MatchSubset, nil
	case MatchName:
		return MatchName, nil
	default:
		return "", fmt.Errorf("unknown trajectory match mode %q", s)
	}
}

// Matches reports whether actual satisfies ref under mode.
func Matches(ref, actual Call, mode MatchMode) bool {
	if ref.Name != actual.Name {
		return false
	}
	switch mode {
	case MatchName:
		return true
	case MatchExact:
		return valuesEqual(ref.Args, actual.Args)
	default:
		for k, want := range ref.Args {
			got, ok := actual.Args[k]
			if !ok || !valuesEqual(want, got) {
				return false
			}
		}
		return true
	}
}

// ArgNormalizer maps one argument value of a tool to the form the tool
// resolves it to. It returns v when the argument has no such form.
type ArgNormalizer func(tool, key string, v any) any

// Normalize returns a copy of c with every argument passed through f. Key
// order and id are kept.
func (c Call) Normalize(f ArgNormalizer) Call {
	if f == nil {
		return c
	}
	out := c
	out.Args = make(map[string]any, len(c.Args))
	for k, v := range c.Args {
		out.Args[k] = f(c.Name, k, v)
	}
	return out
}

// Trajectory is an ordered list of canonical calls.
type Trajectory []Call

// FromToolCalls canonicalizes tool calls in order. Calls whose arguments do
// not parse keep their name with empty arguments so they still count.
func FromToolCalls(calls []types.ToolCall) Trajectory {
	out := make(Trajectory, 0, len(calls))
	for _, tc := range calls {
		c, err := Canonicalize(tc.Name, tc.Arguments)
		if err != nil {
			c = Call{Name: tc.Name, Args: map[string]any{}}
		}
		c.ID = tc.ID
		out = append(out, c)
	}
	return out
}

// Normalize applies f to the arguments of every call.
func (t Trajectory) Normalize(f ArgNormalizer) Trajectory {
	if f == nil {
		return t
	}
	out := make(Trajectory, len(t))
	for i, c := range t {
		out[i] = c.Normalize(f)
	}
	return out
}

// Dedup removes later duplicates by canonical key, keeping first-seen order.
func (t Trajectory) Dedup() Trajectory {
	seen := make(map[string]bool, len(t))
	out := make(Trajectory, 0, len(t))
	for _, c := range t {
		k := c.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// Unique returns the number of distinct canonical calls.
func (t Trajectory) Unique() int {
	return len(t.Dedup())
}

// Names returns the call names in order.
func (t Trajectory) Names() []string {
	out := make([]string, len(t))
	for i, c := range t {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the first call at or after from that
// satisfies ref, or -1.
func (t Trajectory) Index(ref Call, mode MatchMode, from int) int {
	for i := from; i < len(t); i++ {
		if Matches(ref, t[i], mode) {
			return i
		}
	}
	return -1
}

// Contains reports whether any call satisfies ref.
func (t Trajectory) Contains(ref Call, mode MatchMode) bool {
	return t.Index(ref, mode, 0) >= 0
}
