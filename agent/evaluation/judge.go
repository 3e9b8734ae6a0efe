package evaluation

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ConsistencyRequest asks whether a prose section agrees with the value the
// answers block reports for the same domain.
type ConsistencyRequest struct {
	Domain string `json:"domain"`
	Prose  string `json:"prose"`
	Value  any    `json:"json_value"`
}

// Verdict is a judge's answer.
type Verdict struct {
	IsConsistent     bool     `json:"is_consistent"`
	ConsistencyScore float64  `json:"consistency_score"`
	Inconsistencies  []string `json:"inconsistencies"`
	SpecificExamples []string `json:"specific_examples"`
	Reasoning        string   `json:"reasoning"`
}

// Judge decides whether prose and a structured value agree.
type Judge interface {
	Judge(ctx context.Context, req ConsistencyRequest) (*Verdict, error)
}

// =============================================================================
// Numeric judge
// =============================================================================

// NumericJudge is a local, deterministic judge. It pulls every number out
// of the prose and accepts a numeric leaf of the value when any reading of
// any number lies within 1% of it. String leaves must appear in the prose.
type NumericJudge struct{}

// NewNumericJudge creates a NumericJudge.
func NewNumericJudge() NumericJudge { return NumericJudge{} }

func (NumericJudge) Judge(ctx context.Context, req ConsistencyRequest) (*Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	leaves := flatten("", req.Value)
	if len(leaves) == 0 {
		return &Verdict{Reasoning: "answers block has no value for " + req.Domain}, nil
	}

	quantities := ExtractNumbers(req.Prose)
	prose := normalizeText(req.Prose)
	v := &Verdict{Inconsistencies: []string{}, SpecificExamples: []string{}}
	var agreed int
	for _, leaf := range leaves {
		if n, ok := leaf.value.(float64); ok {
			if q, ok := closest(quantities, n); ok {
				agreed++
				v.SpecificExamples = append(v.SpecificExamples, fmt.Sprintf("%s: %q matches %v", leaf.label(), q.Text, n))
				continue
			}
			v.Inconsistencies = append(v.Inconsistencies, fmt.Sprintf("%s: %v not stated in prose", leaf.label(), n))
			continue
		}
		s := normalizeText(toText(leaf.value))
		if s != "" && strings.Contains(prose, s) {
			agreed++
			continue
		}
		v.Inconsistencies = append(v.Inconsistencies, fmt.Sprintf("%s: %q not stated in prose", leaf.label(), leaf.value))
	}

	v.ConsistencyScore = float64(agreed) / float64(len(leaves))
	v.IsConsistent = agreed == len(leaves)
	v.Reasoning = fmt.Sprintf("%d of %d values found in %d numbers of prose", agreed, len(leaves), len(quantities))
	return v, nil
}

type leaf struct {
	path  string
	value any
}

func (l leaf) label() string {
	if l.path == "" {
		return "value"
	}
	return l.path
}

// flatten lists the scalar leaves of v. Numbers, including numeric strings,
// become float64.
func flatten(path string, v any) []leaf {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any:
		var out []leaf
		for _, k := range sortedKeys(x) {
			out = append(out, flatten(joinPath(path, k), x[k])...)
		}
		return out
	case []any:
		var out []leaf
		for i, e := range x {
			out = append(out, flatten(joinPath(path, strconv.Itoa(i)), e)...)
		}
		return out
	case bool:
		return []leaf{{path: path, value: strconv.FormatBool(x)}}
	}
	if n, ok := toNumber(v); ok {
		return []leaf{{path: path, value: n}}
	}
	return []leaf{{path: path, value: toText(v)}}
}

func joinPath(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + "." + k
}

// Quantity is a number written in prose.
type Quantity struct {
	Text  string
	Raw   float64
	Scale string
}

var numberPattern = regexp.MustCompile(`(?i)(-)?(\$?\d[\d,]*(?:\.\d+)?)\s?(%|percent\b|trillion\b|billion\b|million\b|thousand\b|tn\b|bn\b|mn\b|k\b|m\b|b\b)?`)

// ExtractNumbers finds the numbers in text. Currency signs and thousands
// separators are dropped and scale words are kept as Scale. A hyphen
// directly after a digit or letter joins a range or a date ("10-12",
// "2025-12-20") and is not a minus sign.
func ExtractNumbers(text string) []Quantity {
	var out []Quantity
	for _, m := range numberPattern.FindAllStringSubmatchIndex(text, -1) {
		digits := strings.NewReplacer("$", "", ",", "").Replace(text[m[4]:m[5]])
		raw, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			continue
		}
		start := m[0]
		if m[2] >= 0 {
			if joinsRange(text, m[2]) {
				start = m[4]
			} else {
				raw = -raw
			}
		}
		var scale string
		if m[6] >= 0 {
			scale = strings.ToLower(text[m[6]:m[7]])
		}
		out = append(out, Quantity{
			Text:  strings.TrimSpace(text[start:m[1]]),
			Raw:   raw,
			Scale: scale,
		})
	}
	return out
}

// joinsRange reports whether the hyphen at i follows a digit or letter.
func joinsRange(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsDigit(r) || unicode.IsLetter(r)
}

// Readings returns the values q may stand for. "2.5 trillion" may be a raw
// amount, an amount in billions or the bare figure.
func (q Quantity) Readings() []float64 {
	r := q.Raw
	switch q.Scale {
	case "%", "percent":
		return []float64{r, r / 100}
	case "k", "thousand":
		return []float64{r, r * 1e3}
	case "m", "mn", "million":
		return []float64{r, r * 1e6, r / 1e3}
	case "b", "bn", "billion":
		return []float64{r, r * 1e9}
	case "tn", "trillion":
		return []float64{r, r * 1e12, r * 1e3}
	}
	return []float64{r}
}

func closest(qs []Quantity, want float64) (Quantity, bool) {
	for _, q := range qs {
		for _, r := range q.Readings() {
			if math.Abs(r-want)/math.Max(math.Abs(want), 1) < 0.01 {
				return q, true
			}
		}
	}
	return Quantity{}, false
}
