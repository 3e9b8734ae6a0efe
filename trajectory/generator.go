package trajectory

import (
	"fmt"

	"github.com/BaSui01/contextbench/oracle"
)

// Generator derives the minimal reference trajectory of a set of queries.
// It reads nothing but the queries and the oracle's base facts, so its
// output is byte-stable.
type Generator struct {
	oracle *oracle.Oracle
}

// NewGenerator creates a generator over o; nil means oracle.New().
func NewGenerator(o *oracle.Oracle) *Generator {
	if o == nil {
		o = oracle.New()
	}
	return &Generator{oracle: o}
}

// Generate returns the deduplicated reference calls for queries in
// first-needed order.
func (g *Generator) Generate(queries []oracle.Query) (Trajectory, error) {
	var out Trajectory
	for i, q := range queries {
		calls, err := g.forQuery(q)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		out = append(out, calls...)
	}
	return out.Dedup(), nil
}

func (g *Generator) forQuery(q oracle.Query) (Trajectory, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if !q.IsAggregate() {
		return g.forScalar(q.Domains[0], q.Metric, q.Params)
	}

	var out Trajectory
	switch q.Operation {
	case oracle.OpNPVRatio, oracle.OpTotalNPV, oracle.OpRankByNPV:
		for _, d := range q.Domains {
			out = append(out, g.statistics(d), g.costBenefit(d, q.Params))
		}
	case oracle.OpRankByGrowth, oracle.OpRankByPriority:
		for _, d := range q.Domains {
			out = append(out, g.statistics(d), g.compoundGrowth(d, q.Params), g.costBenefit(d, q.Params))
		}
	case oracle.OpCorrelation:
		points := make([]any, 0, len(q.Domains))
		for _, d := range q.Domains {
			out = append(out, g.statistics(d))
			x, err := g.oracle.Scalar(d, q.Params.Variable1, q.Params)
			if err != nil {
				return nil, err
			}
			y, err := g.oracle.Scalar(d, q.Params.Variable2, q.Params)
			if err != nil {
				return nil, err
			}
			points = append(points, map[string]any{
				string(q.Params.Variable1): x,
				string(q.Params.Variable2): y,
			})
		}
		out = append(out, New("analyze_correlation", map[string]any{
			"data_points": points,
			"variable1":   string(q.Params.Variable1),
			"variable2":   string(q.Params.Variable2),
		}))
	case oracle.OpWeightedAverageGrowth:
		for _, d := range q.Domains {
			out = append(out, g.statistics(d))
		}
		values, weights := g.oracle.GrowthWeights(q.Domains)
		out = append(out, New("calculate_weighted_average", map[string]any{
			"values":  values,
			"weights": weights,
		}))
	default:
		return nil, fmt.Errorf("no reference policy for operation %q", q.Operation)
	}
	return out, nil
}

func (g *Generator) forScalar(d oracle.Domain, m oracle.Metric, p oracle.Params) (Trajectory, error) {
	switch m {
	case oracle.MetricInitial, oracle.MetricGrowthRate, oracle.MetricRiskFactor,
		oracle.MetricInvestment, oracle.MetricRiskAdjustedGrowth:
		return Trajectory{g.statistics(d)}, nil
	case oracle.MetricCompoundGrowth:
		return Trajectory{g.statistics(d), g.compoundGrowth(d, p)}, nil
	case oracle.MetricNPV, oracle.MetricPriorityScore:
		return Trajectory{g.statistics(d), g.costBenefit(d, p)}, nil
	case oracle.MetricYearValue:
		return Trajectory{New("get_year_data", map[string]any{"topic": string(d), "year": p.Year})}, nil
	case oracle.MetricExpertForecast:
		return Trajectory{New("get_expert_opinion", map[string]any{
			"topic":     string(d),
			"expert_id": fmt.Sprintf("expert_%d", p.Index),
		})}, nil
	case oracle.MetricCaseStudyROI:
		return Trajectory{New("get_case_study", map[string]any{
			"topic":   string(d),
			"case_id": fmt.Sprintf("case_%d", p.Index),
		})}, nil
	default:
		return nil, fmt.Errorf("no reference policy for metric %q", m)
	}
}

func (g *Generator) statistics(d oracle.Domain) Call {
	return New("get_statistics", map[string]any{"topic": string(d)})
}

func (g *Generator) compoundGrowth(d oracle.Domain, p oracle.Params) Call {
	f, _ := g.oracle.Facts(d)
	return New("calculate_compound_growth", map[string]any{
		"initial_value": f.Initial,
		"growth_rate":   f.GrowthRate,
		"years":         years(p),
	})
}

func (g *Generator) costBenefit(d oracle.Domain, p oracle.Params) Call {
	f, _ := g.oracle.Facts(d)
	y := years(p)
	rate := p.DiscountRate
	if rate == 0 {
		rate = oracle.DefaultDiscountRate
	}
	return New("calculate_cost_benefit_analysis", map[string]any{
		"initial_investment": f.InvestmentBn,
		"annual_benefits":    oracle.AnnualBenefits(f, y),
		"discount_rate":      rate,
		"years":              y,
	})
}

func years(p oracle.Params) int {
	if p.Years <= 0 {
		return oracle.DefaultYears
	}
	return p.Years
}
