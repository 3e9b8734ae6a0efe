package trajectory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// rawObject renders keys/values as a JSON object in the given key order,
// inserting a null-valued key after every key in nulls.
func rawObject(keys []string, values map[string]int, nulls map[string]bool) string {
	parts := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%q: %d", k, values[k]))
		if nulls[k] {
			parts = append(parts, fmt.Sprintf("%q: null", k+"_null"))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func TestProperty_CanonicalizeIgnoresNullsAndKeyOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("null keys and key order do not change the canonical call", prop.ForAll(
		func(values map[string]int, nullMask []bool) bool {
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			nulls := make(map[string]bool)
			for i, k := range keys {
				if i < len(nullMask) && nullMask[i] {
					nulls[k] = true
				}
			}
			reversed := make([]string, len(keys))
			for i, k := range keys {
				reversed[len(keys)-1-i] = k
			}

			plain, err := Canonicalize("tool", json.RawMessage(rawObject(keys, values, nil)))
			if err != nil {
				t.Logf("canonicalize plain: %v", err)
				return false
			}
			noisy, err := Canonicalize("tool", json.RawMessage(rawObject(reversed, values, nulls)))
			if err != nil {
				t.Logf("canonicalize noisy: %v", err)
				return false
			}
			return Equal(plain, noisy) && plain.Key() == noisy.Key() && len(noisy.Args) == len(values)
		},
		gen.MapOf(gen.Identifier(), gen.IntRange(-1000, 1000)),
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("integral floats equal their integers", prop.ForAll(
		func(n int) bool {
			a := MustCanonicalize("tool", fmt.Sprintf(`{"v": %d}`, n))
			b := MustCanonicalize("tool", fmt.Sprintf(`{"v": %d.0}`, n))
			_, isInt := a.Args["v"].(int64)
			return isInt && Equal(a, b) && a.Key() == b.Key()
		},
		gen.IntRange(-100000, 100000),
	))

	properties.TestingRun(t)
}
