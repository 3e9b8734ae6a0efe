package replay

import (
	"sort"
	"strings"

	"github.com/BaSui01/contextbench/oracle"
	"github.com/BaSui01/contextbench/tasks"
)

// answer combines observed payloads into the answer of q. Literal questions
// read their source field; research questions recombine tool results the
// way an analyst would.
func (m *Model) answer(q tasks.Question) (any, bool) {
	switch {
	case q.Query != nil:
		return m.resolve(*q.Query)
	case q.Source != nil:
		payload, ok := m.lastOK[q.Source.Tool].(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := payload[q.Source.Field]
		return v, ok
	default:
		return nil, false
	}
}

func (m *Model) resolve(q oracle.Query) (any, bool) {
	if err := q.Validate(); err != nil {
		return nil, false
	}
	if !q.IsAggregate() {
		return m.scalar(q.Domains[0], q.Metric, q.Params)
	}

	p := q.Params
	switch q.Operation {
	case oracle.OpNPVRatio:
		if len(q.Domains) != 2 {
			return nil, false
		}
		a, ok := m.scalar(q.Domains[0], oracle.MetricNPV, p)
		if !ok {
			return nil, false
		}
		b, ok := m.scalar(q.Domains[1], oracle.MetricNPV, p)
		if !ok || b == 0 {
			return nil, false
		}
		return oracle.Round(a / b), true
	case oracle.OpTotalNPV:
		var total float64
		for _, d := range q.Domains {
			v, ok := m.scalar(d, oracle.MetricNPV, p)
			if !ok {
				return nil, false
			}
			total += v
		}
		return oracle.Round(total), true
	case oracle.OpRankByNPV:
		return m.rank(q.Domains, oracle.MetricNPV, p)
	case oracle.OpRankByGrowth:
		return m.rank(q.Domains, oracle.MetricCompoundGrowth, p)
	case oracle.OpRankByPriority:
		return m.rank(q.Domains, oracle.MetricPriorityScore, p)
	case oracle.OpCorrelation, oracle.OpWeightedAverageGrowth:
		if v, ok := m.aggregatorResult(q); ok {
			return v, true
		}
		return m.aggregateFallback(q)
	default:
		return nil, false
	}
}

// scalar returns a per-domain metric from the payloads. Calculations whose
// tool was not on the surface are recomputed from the statistics payload.
func (m *Model) scalar(d oracle.Domain, metric oracle.Metric, p oracle.Params) (float64, bool) {
	stats, haveStats := m.callPayload(oracle.Query{Metric: oracle.MetricInitial, Domains: []oracle.Domain{d}}, "get_statistics")
	field := func(name string) (float64, bool) {
		if !haveStats {
			return 0, false
		}
		return number(stats[name])
	}
	years := p.Years
	if years <= 0 {
		years = oracle.DefaultYears
	}
	rate := p.DiscountRate
	if rate == 0 {
		rate = oracle.DefaultDiscountRate
	}
	q := oracle.Query{Metric: metric, Domains: []oracle.Domain{d}, Params: p}

	switch metric {
	case oracle.MetricInitial:
		return field("market_size_bn")
	case oracle.MetricGrowthRate:
		return field("growth_rate")
	case oracle.MetricRiskFactor:
		return field("risk_factor")
	case oracle.MetricInvestment:
		return field("investment_bn")
	case oracle.MetricRiskAdjustedGrowth:
		g, ok1 := field("growth_rate")
		r, ok2 := field("risk_factor")
		return oracle.Round(g * (1 - r)), ok1 && ok2
	case oracle.MetricCompoundGrowth:
		if payload, ok := m.callPayload(q, "calculate_compound_growth"); ok {
			return number(payload["result"])
		}
		initial, ok1 := field("market_size_bn")
		g, ok2 := field("growth_rate")
		return oracle.Round(oracle.CompoundGrowth(initial, g, years)), ok1 && ok2
	case oracle.MetricNPV:
		return m.npv(q, stats, haveStats, rate, years)
	case oracle.MetricPriorityScore:
		npv, ok := m.npv(oracle.Query{Metric: oracle.MetricNPV, Domains: q.Domains, Params: p}, stats, haveStats, rate, years)
		r, ok2 := field("risk_factor")
		return oracle.Round(npv * (1 - r)), ok && ok2
	case oracle.MetricYearValue:
		if payload, ok := m.callPayload(q, "get_year_data"); ok {
			return number(payload["market_size_bn"])
		}
	case oracle.MetricExpertForecast:
		if payload, ok := m.callPayload(q, "get_expert_opinion"); ok {
			return number(payload["forecast_growth_rate"])
		}
	case oracle.MetricCaseStudyROI:
		if payload, ok := m.callPayload(q, "get_case_study"); ok {
			return number(payload["roi_percent"])
		}
	}
	return 0, false
}

func (m *Model) npv(q oracle.Query, stats map[string]any, haveStats bool, rate float64, years int) (float64, bool) {
	if payload, ok := m.callPayload(q, "calculate_cost_benefit_analysis"); ok {
		if v, ok := number(payload["npv"]); ok {
			return v, true
		}
		return number(payload["result"])
	}
	if !haveStats {
		return 0, false
	}
	investment, ok := number(stats["investment_bn"])
	if !ok {
		return 0, false
	}
	benefits := numbers(stats["annual_benefits"])
	v, err := oracle.NetPresentValue(investment, benefits, rate, years)
	if err != nil {
		return 0, false
	}
	return oracle.Round(v), true
}

// callPayload finds the payload of the reference call named name that the
// generator derives for q.
func (m *Model) callPayload(q oracle.Query, name string) (map[string]any, bool) {
	calls, err := m.gen.Generate([]oracle.Query{q})
	if err != nil {
		return nil, false
	}
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Name != name {
			continue
		}
		payload, ok := m.payloads[calls[i].Key()].(map[string]any)
		return payload, ok
	}
	return nil, false
}

func (m *Model) aggregatorResult(q oracle.Query) (float64, bool) {
	calls, err := m.gen.Generate([]oracle.Query{q})
	if err != nil || len(calls) == 0 {
		return 0, false
	}
	last := calls[len(calls)-1]
	payload, ok := m.payloads[last.Key()].(map[string]any)
	if !ok {
		return 0, false
	}
	return number(payload["result"])
}

func (m *Model) aggregateFallback(q oracle.Query) (any, bool) {
	var xs, ys []float64
	for _, d := range q.Domains {
		switch q.Operation {
		case oracle.OpCorrelation:
			x, ok1 := m.scalar(d, q.Params.Variable1, q.Params)
			y, ok2 := m.scalar(d, q.Params.Variable2, q.Params)
			if !ok1 || !ok2 {
				return nil, false
			}
			xs, ys = append(xs, x), append(ys, y)
		default:
			g, ok1 := m.scalar(d, oracle.MetricGrowthRate, q.Params)
			w, ok2 := m.scalar(d, oracle.MetricInvestment, q.Params)
			if !ok1 || !ok2 {
				return nil, false
			}
			xs, ys = append(xs, g), append(ys, w)
		}
	}
	var v float64
	var err error
	if q.Operation == oracle.OpCorrelation {
		v, err = oracle.Pearson(xs, ys)
	} else {
		v, err = oracle.WeightedAverage(xs, ys)
	}
	if err != nil {
		return nil, false
	}
	return oracle.Round(v), true
}

func (m *Model) rank(domains []oracle.Domain, metric oracle.Metric, p oracle.Params) (any, bool) {
	type scored struct {
		domain oracle.Domain
		value  float64
	}
	items := make([]scored, 0, len(domains))
	for _, d := range domains {
		v, ok := m.scalar(d, metric, p)
		if !ok {
			return nil, false
		}
		items = append(items, scored{d, v})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].value != items[j].value {
			return items[i].value > items[j].value
		}
		return items[i].domain < items[j].domain
	})
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = string(it.domain)
	}
	return strings.Join(names, ", "), true
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func numbers(v any) []float64 {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(items))
	for _, it := range items {
		if f, ok := number(it); ok {
			out = append(out, f)
		}
	}
	return out
}
