package oracle

import (
	"fmt"
	"sort"
	"strings"
)

// Metric names a per-domain scalar.
type Metric string

const (
	MetricInitial            Metric = "initial"
	MetricGrowthRate         Metric = "growth_rate"
	MetricRiskFactor         Metric = "risk_factor"
	MetricInvestment         Metric = "investment_bn"
	MetricCompoundGrowth     Metric = "compound_growth"
	MetricNPV                Metric = "npv"
	MetricPriorityScore      Metric = "priority_score"
	MetricYearValue          Metric = "year_value"
	MetricExpertForecast     Metric = "expert_forecast"
	MetricCaseStudyROI       Metric = "case_study_roi"
	MetricRiskAdjustedGrowth Metric = "risk_adjusted_growth"
)

// Operation names a cross-domain aggregate.
type Operation string

const (
	OpNPVRatio              Operation = "npv_ratio"
	OpTotalNPV              Operation = "total_npv"
	OpRankByNPV             Operation = "rank_by_npv"
	OpRankByGrowth          Operation = "rank_by_compound_growth"
	OpRankByPriority        Operation = "rank_by_priority"
	OpCorrelation           Operation = "correlation"
	OpWeightedAverageGrowth Operation = "weighted_average_growth"
)

// Params parameterize a scalar. Zero values take the defaults.
type Params struct {
	Years        int     `json:"years,omitempty" yaml:"years,omitempty"`
	DiscountRate float64 `json:"discount_rate,omitempty" yaml:"discount_rate,omitempty"`
	Year         int     `json:"year,omitempty" yaml:"year,omitempty"`
	// Index selects an expert or case study, 1-based.
	Index int `json:"index,omitempty" yaml:"index,omitempty"`
	// Variable1 and Variable2 name the paired metrics of a correlation.
	Variable1 Metric `json:"variable1,omitempty" yaml:"variable1,omitempty"`
	Variable2 Metric `json:"variable2,omitempty" yaml:"variable2,omitempty"`
}

func (p Params) years() int {
	if p.Years <= 0 {
		return DefaultYears
	}
	return p.Years
}

func (p Params) rate() float64 {
	if p.DiscountRate == 0 {
		return DefaultDiscountRate
	}
	return p.DiscountRate
}

// Oracle evaluates scalars and aggregates over a facts table.
type Oracle struct {
	facts map[Domain]Facts
}

// New creates an oracle over BaseFacts.
func New() *Oracle {
	facts := make(map[Domain]Facts, len(BaseFacts))
	for d, f := range BaseFacts {
		facts[d] = f
	}
	return &Oracle{facts: facts}
}

// Facts returns the base facts of a domain.
func (o *Oracle) Facts(d Domain) (Facts, bool) {
	f, ok := o.facts[d]
	return f, ok
}

func (o *Oracle) mustFacts(d Domain) (Facts, error) {
	f, ok := o.facts[d]
	if !ok {
		return Facts{}, fmt.Errorf("unknown domain %q", d)
	}
	return f, nil
}

// Scalar computes a per-domain metric, rounded to SignificantDigits.
func (o *Oracle) Scalar(d Domain, m Metric, p Params) (float64, error) {
	v, err := o.scalar(d, m, p)
	if err != nil {
		return 0, err
	}
	return Round(v), nil
}

func (o *Oracle) scalar(d Domain, m Metric, p Params) (float64, error) {
	f, err := o.mustFacts(d)
	if err != nil {
		return 0, err
	}
	switch m {
	case MetricInitial:
		return f.Initial, nil
	case MetricGrowthRate:
		return f.GrowthRate, nil
	case MetricRiskFactor:
		return f.RiskFactor, nil
	case MetricInvestment:
		return f.InvestmentBn, nil
	case MetricCompoundGrowth:
		return CompoundGrowth(f.Initial, f.GrowthRate, p.years()), nil
	case MetricNPV:
		years := p.years()
		return NetPresentValue(f.InvestmentBn, AnnualBenefits(f, years), p.rate(), years)
	case MetricPriorityScore:
		npv, err := NetPresentValue(f.InvestmentBn, AnnualBenefits(f, p.years()), p.rate(), p.years())
		if err != nil {
			return 0, err
		}
		return npv * (1 - f.RiskFactor), nil
	case MetricRiskAdjustedGrowth:
		return f.GrowthRate * (1 - f.RiskFactor), nil
	case MetricYearValue:
		return YearValue(f, p.Year), nil
	case MetricExpertForecast:
		return ExpertForecast(f, p.Index)
	case MetricCaseStudyROI:
		return CaseStudyROI(f, p.Index)
	default:
		return 0, fmt.Errorf("unknown metric %q", m)
	}
}

// YearValue returns the market size in year, extrapolated from BaseYear in
// either direction.
func YearValue(f Facts, year int) float64 {
	return CompoundGrowth(f.Initial, f.GrowthRate, year-BaseYear)
}

// ExpertForecast returns the growth rate forecast by expert index (1-based).
func ExpertForecast(f Facts, index int) (float64, error) {
	if index < 1 || index > ExpertsPerDomain {
		return 0, fmt.Errorf("expert index %d out of range", index)
	}
	return f.GrowthRate * expertBias[index-1], nil
}

// CaseStudyROI returns the return on investment (percent) of case study index (1-based).
func CaseStudyROI(f Facts, index int) (float64, error) {
	if index < 1 || index > CasesPerDomain {
		return 0, fmt.Errorf("case index %d out of range", index)
	}
	return 100 * f.GrowthRate * (1 - f.RiskFactor) * caseMultiplier[index-1] * float64(DefaultYears) / 2, nil
}

// Aggregate computes a cross-domain operation. Numeric results are rounded
// float64 values; rankings are comma-separated domain lists, best first.
func (o *Oracle) Aggregate(op Operation, p Params, domains ...Domain) (any, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("%s: no domains", op)
	}
	for _, d := range domains {
		if _, err := o.mustFacts(d); err != nil {
			return nil, err
		}
	}
	switch op {
	case OpNPVRatio:
		if len(domains) != 2 {
			return nil, fmt.Errorf("%s needs exactly two domains", op)
		}
		a, err := o.scalar(domains[0], MetricNPV, p)
		if err != nil {
			return nil, err
		}
		b, err := o.scalar(domains[1], MetricNPV, p)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, fmt.Errorf("%s: zero denominator", op)
		}
		// Ratio of the rounded NPVs, matching what an agent sees from the tools.
		return Round(Round(a) / Round(b)), nil
	case OpTotalNPV:
		var total float64
		for _, d := range domains {
			v, err := o.Scalar(d, MetricNPV, p)
			if err != nil {
				return nil, err
			}
			total += v
		}
		return Round(total), nil
	case OpRankByNPV:
		return o.rank(domains, MetricNPV, p)
	case OpRankByGrowth:
		return o.rank(domains, MetricCompoundGrowth, p)
	case OpRankByPriority:
		return o.rank(domains, MetricPriorityScore, p)
	case OpCorrelation:
		xs, ys, err := o.pairs(domains, p)
		if err != nil {
			return nil, err
		}
		r, err := Pearson(xs, ys)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return Round(r), nil
	case OpWeightedAverageGrowth:
		values, weights := o.GrowthWeights(domains)
		v, err := WeightedAverage(values, weights)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return Round(v), nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

// GrowthWeights returns growth rates and investment weights in domain order.
func (o *Oracle) GrowthWeights(domains []Domain) (values, weights []float64) {
	for _, d := range domains {
		f := o.facts[d]
		values = append(values, f.GrowthRate)
		weights = append(weights, f.InvestmentBn)
	}
	return values, weights
}

func (o *Oracle) pairs(domains []Domain, p Params) ([]float64, []float64, error) {
	if p.Variable1 == "" || p.Variable2 == "" {
		return nil, nil, fmt.Errorf("correlation needs two variables")
	}
	xs := make([]float64, 0, len(domains))
	ys := make([]float64, 0, len(domains))
	for _, d := range domains {
		x, err := o.scalar(d, p.Variable1, p)
		if err != nil {
			return nil, nil, err
		}
		y, err := o.scalar(d, p.Variable2, p)
		if err != nil {
			return nil, nil, err
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys, nil
}

func (o *Oracle) rank(domains []Domain, m Metric, p Params) (string, error) {
	type scored struct {
		domain Domain
		value  float64
	}
	items := make([]scored, 0, len(domains))
	for _, d := range domains {
		v, err := o.Scalar(d, m, p)
		if err != nil {
			return "", err
		}
		items = append(items, scored{domain: d, value: v})
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
	return strings.Join(names, ", "), nil
}
