package answer

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/BaSui01/contextbench/types"
)

// Source tells where an answers block was found.
type Source string

const (
	SourceFenced Source = "fenced"
	SourceObject Source = "object"
	SourceNone   Source = "none"
)

// Result is the outcome of parsing a final response.
type Result struct {
	// Answers is never nil; it is empty when nothing parsed.
	Answers  map[string]any
	Source   Source
	Repaired bool
	// Err is a parse error when no answers block was found.
	Err *types.Error
}

// OK reports whether an answers block was found.
func (r Result) OK() bool {
	return r.Err == nil
}

var fencedJSON = regexp.MustCompile("(?s)```json[ \t]*\\r?\\n?(.*?)```")

// Extract returns the answers mapping of a final response, or an empty map.
func Extract(response string) map[string]any {
	return Parse(response).Answers
}

// Parse looks for a fenced json block first and then for the first balanced
// JSON object whose top-level "answers" key is present. Malformed JSON is
// repaired before giving up on a candidate.
func Parse(response string) Result {
	for _, m := range fencedJSON.FindAllStringSubmatch(response, -1) {
		if answers, repaired, ok := decodeAnswers(m[1]); ok {
			return Result{Answers: answers, Source: SourceFenced, Repaired: repaired}
		}
	}
	for _, candidate := range balancedObjects(response) {
		if !strings.Contains(candidate, `"answers"`) {
			continue
		}
		if answers, repaired, ok := decodeAnswers(candidate); ok {
			return Result{Answers: answers, Source: SourceObject, Repaired: repaired}
		}
	}
	msg := "no answers block in final response"
	if strings.Contains(response, `"answers"`) {
		msg = "answers block is malformed"
	}
	return Result{Answers: map[string]any{}, Source: SourceNone, Err: types.NewError(types.ErrParse, msg)}
}

func decodeAnswers(text string) (map[string]any, bool, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false, false
	}
	obj, err := decodeObject(text)
	repaired := false
	if err != nil {
		fixed, rerr := jsonrepair.JSONRepair(text)
		if rerr != nil {
			return nil, false, false
		}
		if obj, err = decodeObject(fixed); err != nil {
			return nil, false, false
		}
		repaired = true
	}
	raw, ok := obj["answers"]
	if !ok {
		return nil, false, false
	}
	switch a := raw.(type) {
	case map[string]any:
		out := make(map[string]any, len(a))
		for k, v := range a {
			out[strings.TrimSpace(k)] = normalize(v)
		}
		return out, repaired, true
	case []any:
		// A positional list answers questions 1..N in order.
		out := make(map[string]any, len(a))
		for i, v := range a {
			out[strconv.Itoa(i+1)] = normalize(v)
		}
		return out, repaired, true
	default:
		return nil, false, false
	}
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNullObject
	}
	return obj, nil
}

var errNullObject = errors.New("answers block is null")

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	default:
		return v
	}
}

// balancedObjects returns the brace-balanced spans of s in order, skipping
// braces inside JSON strings.
func balancedObjects(s string) []string {
	var out []string
	b := []byte(s)
	for start := bytes.IndexByte(b, '{'); start >= 0; {
		resume := start + 1
		if end := matchBrace(b, start); end < 0 {
			// Unterminated: keep the tail for repair and look further in.
			out = append(out, s[start:])
		} else {
			out = append(out, s[start:end+1])
			resume = end + 1
		}
		next := bytes.IndexByte(b[resume:], '{')
		if next < 0 {
			break
		}
		start = resume + next
	}
	return out
}

func matchBrace(b []byte, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(b); i++ {
		c := b[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
