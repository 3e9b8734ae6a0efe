package trajectory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Call is a canonical tool-call record: null-valued keys are dropped at every
// depth, integral JSON numbers are int64 and all other numbers float64.
type Call struct {
	Name string         `json:"name" yaml:"name"`
	Args map[string]any `json:"args" yaml:"args"`
	// ID is the originating tool-call id, when known. It does not take part
	// in equality.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	order []string
}

// New builds a canonical call from Go values.
func New(name string, args map[string]any) Call {
	c := Call{Name: name, Args: make(map[string]any, len(args))}
	for k, v := range args {
		if n, ok := normalize(v); ok {
			c.Args[k] = n
		}
	}
	return c
}

// Canonicalize parses raw tool arguments. Empty input and JSON null mean no
// arguments.
func Canonicalize(name string, raw json.RawMessage) (Call, error) {
	c := Call{Name: name, Args: map[string]any{}}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return c, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return c, fmt.Errorf("canonicalize %s: %w", name, err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return c, fmt.Errorf("canonicalize %s: arguments are not an object", name)
	}
	for k, v := range obj {
		if n, ok := normalize(v); ok {
			c.Args[k] = n
		}
	}
	c.order = keyOrder(trimmed, c.Args)
	return c, nil
}

// MustCanonicalize is Canonicalize for literals.
func MustCanonicalize(name, raw string) Call {
	c, err := Canonicalize(name, json.RawMessage(raw))
	if err != nil {
		panic(err)
	}
	return c
}

// normalize canonicalizes one value and reports false for null.
func normalize(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i, true
			}
		}
		f, err := x.Float64()
		if err != nil {
			return s, true
		}
		return f, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if n, ok := normalize(e); ok {
				out[k] = n
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(x))
		for _, e := range x {
			// Nulls inside arrays are positional and survive.
			n, ok := normalize(e)
			if !ok {
				n = nil
			}
			out = append(out, n)
		}
		return out, true
	case []float64:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i], _ = normalize(e)
		}
		return out, true
	default:
		return v, true
	}
}

// keyOrder returns the top-level keys in the order they appear in raw.
func keyOrder(raw []byte, kept map[string]any) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := tok.(string)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil
		}
		if _, ok := kept[key]; ok {
			order = append(order, key)
		}
	}
	return order
}

// Key returns the hash key of c. Keys are sorted and numbers are rendered by
// value, so 10 and 10.0 share a key.
func (c Call) Key() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('|')
	writeValue(&b, c.Args)
	return b.String()
}

func writeValue(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			writeValue(b, x[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, e)
		}
		b.WriteByte(']')
	case int64:
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 64))
	case float64:
		if x == 0 {
			x = 0 // -0
		}
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case string:
		b.WriteString(strconv.Quote(x))
	case bool:
		b.WriteString(strconv.FormatBool(x))
	default:
		fmt.Fprintf(b, "%v", x)
	}
}

// Equal reports whether a and b have the same name and arguments. Numbers
// compare by value with no tolerance.
func Equal(a, b Call) bool {
	return a.Name == b.Name && valuesEqual(a.Args, b.Args)
}

func valuesEqual(a, b any) bool {
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		return ok && fa == fb
	}
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !valuesEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	default:
		return 0, false
	}
}

// String renders c as name(k=v, ...) in the original key order when known.
func (c Call) String() string {
	keys := c.order
	if len(keys) != len(c.Args) {
		keys = make([]string, 0, len(c.Args))
		for k := range c.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var b strings.Builder
		writeValue(&b, c.Args[k])
		parts = append(parts, k+"="+b.String())
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Mentions reports whether any string argument of c contains s,
// case-insensitively, at any depth.
func (c Call) Mentions(s string) bool {
	if s == "" {
		return false
	}
	return mentions(c.Args, strings.ToLower(s))
}

func mentions(v any, needle string) bool {
	switch x := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(x), needle)
	case map[string]any:
		for _, e := range x {
			if mentions(e, needle) {
				return true
			}
		}
	case []any:
		for _, e := range x {
			if mentions(e, needle) {
				return true
			}
		}
	}
	return false
}
