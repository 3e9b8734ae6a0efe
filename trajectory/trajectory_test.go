package trajectory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/contextbench/oracle"
	"github.com/BaSui01/contextbench/types"
)

func TestCanonicalize(t *testing.T) {
	a := MustCanonicalize("get_order", `{"order_id": "84721"}`)
	b := MustCanonicalize("get_order", `{"order_id":"84721","ignored":null}`)
	assert.True(t, Equal(a, b))
	assert.Equal(t, a.Key(), b.Key())

	ints := MustCanonicalize("calculate_compound_growth", `{"years": 10, "growth_rate": 0.096}`)
	assert.IsType(t, int64(0), ints.Args["years"], "ints stay ints")
	assert.IsType(t, float64(0), ints.Args["growth_rate"])

	floats := MustCanonicalize("calculate_compound_growth", `{"growth_rate": 0.096, "years": 10.0}`)
	assert.True(t, Equal(ints, floats), "10 == 10.0")
	assert.NotEqual(t, MustCanonicalize("x", `{"v": 0.1}`).Key(), MustCanonicalize("x", `{"v": 0.1000001}`).Key())

	nested := MustCanonicalize("x", `{"outer": {"keep": 1, "drop": null}, "list": [1, null]}`)
	assert.Equal(t, map[string]any{"keep": int64(1)}, nested.Args["outer"])
	assert.Equal(t, []any{int64(1), nil}, nested.Args["list"])

	empty, err := Canonicalize("get_current_research_state", nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Args)

	_, err = Canonicalize("x", json.RawMessage(`[1, 2]`))
	assert.Error(t, err)
}

func TestCall_String(t *testing.T) {
	c := MustCanonicalize("get_tracking_details", `{"tracking_number": "1Z", "carrier": "UPS"}`)
	assert.Equal(t, `get_tracking_details(tracking_number="1Z", carrier="UPS")`, c.String())
	assert.Equal(t, `f(a=1, b=[2,"x"])`, New("f", map[string]any{"b": []any{2, "x"}, "a": 1}).String())
}

func TestMatches(t *testing.T) {
	ref := MustCanonicalize("get_tracking_details", `{"tracking_number": "TRK99002ABC"}`)
	actual := MustCanonicalize("get_tracking_details", `{"tracking_number": "9400111899223856923412", "carrier": "USPS"}`)

	assert.True(t, Matches(ref, actual, MatchName))
	assert.False(t, Matches(ref, actual, MatchSubset))
	assert.False(t, Matches(ref, actual, MatchExact))

	ref = MustCanonicalize("get_order", `{"order_id": "84721"}`)
	actual = MustCanonicalize("get_order", `{"order_id": "84721", "include_items": true}`)
	assert.True(t, Matches(ref, actual, MatchSubset))
	assert.False(t, Matches(ref, actual, MatchExact))
	assert.False(t, Matches(ref, MustCanonicalize("get_shipment", `{"order_id": "84721"}`), MatchName))

	mode, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchSubset, mode)
	_, err = ParseMatchMode("fuzzy")
	assert.Error(t, err)
}

func TestFromToolCalls(t *testing.T) {
	tr := FromToolCalls([]types.ToolCall{
		{ID: "1", Name: "get_order", Arguments: json.RawMessage(`{"order_id": "84721"}`)},
		{ID: "2", Name: "get_order", Arguments: json.RawMessage(`{"order_id": "84721", "x": null}`)},
		{ID: "3", Name: "get_shipment", Arguments: json.RawMessage(`{not json`)},
	})
	require.Len(t, tr, 3, "emission order and duplicates are preserved")
	assert.Equal(t, "2", tr[1].ID)
	assert.Equal(t, 2, tr.Unique())
	assert.Equal(t, []string{"get_order", "get_order", "get_shipment"}, tr.Names())
	assert.Equal(t, 2, tr.Index(tr[2], MatchName, 0))
	assert.Equal(t, -1, tr.Index(tr[0], MatchExact, 2))
}

func TestGenerator_CompoundGrowth(t *testing.T) {
	g := NewGenerator(nil)
	tr, err := g.Generate([]oracle.Query{{Metric: oracle.MetricCompoundGrowth, Domains: []oracle.Domain{oracle.RenewableEnergy}}})
	require.NoError(t, err)

	want := MustCanonicalize("calculate_compound_growth", `{"initial_value": 1200, "growth_rate": 0.096, "years": 10}`)
	assert.True(t, tr.Contains(want, MatchExact), "got %v", tr)
	assert.True(t, tr.Contains(MustCanonicalize("get_statistics", `{"topic": "renewable_energy"}`), MatchExact))
}

func TestGenerator_NPVRatio(t *testing.T) {
	g := NewGenerator(nil)
	tr, err := g.Generate([]oracle.Query{{
		Operation: oracle.OpNPVRatio,
		Domains:   []oracle.Domain{oracle.RenewableEnergy, oracle.ArtificialIntelligence},
	}})
	require.NoError(t, err)

	renewable := MustCanonicalize("calculate_cost_benefit_analysis",
		`{"initial_investment": 100, "annual_benefits": [15, 18, 21, 24, 27, 30, 33, 36, 39, 42], "discount_rate": 0.10, "years": 10}`)
	ai := MustCanonicalize("calculate_cost_benefit_analysis",
		`{"initial_investment": 80, "annual_benefits": [12, 15, 18, 21, 24, 27, 30, 33, 36, 39], "discount_rate": 0.1, "years": 10}`)
	assert.True(t, tr.Contains(renewable, MatchExact))
	assert.True(t, tr.Contains(ai, MatchExact))
	assert.Len(t, tr, 4)
}

func TestGenerator_DedupAcrossQuestions(t *testing.T) {
	g := NewGenerator(nil)
	domains := []oracle.Domain{oracle.RenewableEnergy, oracle.Cybersecurity}
	tr, err := g.Generate([]oracle.Query{
		{Metric: oracle.MetricGrowthRate, Domains: domains[:1]},
		{Metric: oracle.MetricNPV, Domains: domains[:1]},
		{Operation: oracle.OpRankByPriority, Domains: domains},
		{Operation: oracle.OpCorrelation, Domains: domains, Params: oracle.Params{Variable1: oracle.MetricGrowthRate, Variable2: oracle.MetricRiskFactor}},
	})
	require.NoError(t, err)
	assert.Equal(t, len(tr), tr.Unique())
	// stats×2, growth×2, cba×2, correlation
	assert.Len(t, tr, 7)
	assert.Equal(t, "get_statistics", tr[0].Name)
	assert.Equal(t, "analyze_correlation", tr[len(tr)-1].Name)
}

func TestGenerator_RejectsBadQueries(t *testing.T) {
	g := NewGenerator(nil)
	_, err := g.Generate([]oracle.Query{{Metric: "vibes", Domains: []oracle.Domain{oracle.Biotechnology}}})
	assert.Error(t, err)
	_, err = g.Generate([]oracle.Query{{Operation: oracle.OpTotalNPV}})
	assert.Error(t, err)
}

func TestProperty_Generator_Deterministic(t *testing.T) {
	domains := oracle.Domains()
	metrics := []oracle.Metric{
		oracle.MetricGrowthRate, oracle.MetricCompoundGrowth, oracle.MetricNPV,
		oracle.MetricPriorityScore, oracle.MetricExpertForecast, oracle.MetricCaseStudyROI,
	}
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "n")
		queries := make([]oracle.Query, n)
		for i := range queries {
			queries[i] = oracle.Query{
				Metric:  rapid.SampledFrom(metrics).Draw(rt, "metric"),
				Domains: []oracle.Domain{rapid.SampledFrom(domains).Draw(rt, "domain")},
				Params:  oracle.Params{Index: rapid.IntRange(1, 3).Draw(rt, "index")},
			}
		}
		a, err := NewGenerator(nil).Generate(queries)
		if err != nil {
			rt.Fatal(err)
		}
		b, _ := NewGenerator(nil).Generate(queries)
		ja, _ := json.Marshal(a)
		jb, _ := json.Marshal(b)
		if string(ja) != string(jb) {
			rt.Fatalf("generator output differs:\n%s\n%s", ja, jb)
		}
		if a.Unique() != len(a) {
			rt.Fatalf("duplicates in reference: %v", a)
		}
	})
}

func TestProperty_EqualityIsKeyEquality(t *testing.T) {
	value := rapid.OneOf(
		rapid.Map(rapid.IntRange(-50, 50), func(i int) any { return i }),
		rapid.Map(rapid.Float64Range(-10, 10), func(f float64) any { return f }),
		rapid.Map(rapid.StringMatching(`[a-z]{0,4}`), func(s string) any { return s }),
	)
	args := rapid.MapOf(rapid.SampledFrom([]string{"a", "b", "c", "d"}), value)
	rapid.Check(t, func(rt *rapid.T) {
		x := New("f", args.Draw(rt, "x"))
		y := New("f", args.Draw(rt, "y"))
		if Equal(x, y) != (x.Key() == y.Key()) {
			rt.Fatalf("Equal=%v but keys %q vs %q", Equal(x, y), x.Key(), y.Key())
		}
		if !Equal(x, x) {
			rt.Fatalf("not reflexive: %v", x)
		}
	})
}
