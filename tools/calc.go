package tools

import (
	"context"
	"math"
	"sort"

	"github.com/BaSui01/contextbench/oracle"
	"github.com/BaSui01/contextbench/types"
)

// =============================================================================
// Aggregate calculation tools
// =============================================================================

type compoundGrowthArgs struct {
	InitialValue float64 `json:"initial_value" validate:"gt=0"`
	GrowthRate   float64 `json:"growth_rate" validate:"gt=-1"`
	Years        int     `json:"years" validate:"gte=1,lte=100"`
}

type costBenefitArgs struct {
	InitialInvestment float64   `json:"initial_investment" validate:"gte=0"`
	AnnualBenefits    []float64 `json:"annual_benefits" validate:"required,min=1"`
	DiscountRate      float64   `json:"discount_rate" validate:"gt=-1,lt=1"`
	Years             int       `json:"years" validate:"gte=1,lte=100"`
}

type correlationArgs struct {
	DataPoints []map[string]any `json:"data_points" validate:"required,min=2"`
	Variable1  string           `json:"variable1" validate:"required"`
	Variable2  string           `json:"variable2" validate:"required,nefield=Variable1"`
}

type trendArgs struct {
	Values    []float64 `json:"values" validate:"required,min=2"`
	StartYear int       `json:"start_year"`
}

// result wraps a rounded numeric result the way every calculation tool reports it.
func result(v float64, extra map[string]any) types.ToolOutcome {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return types.Fail(types.ErrInvalid, "result is not a finite number")
	}
	out := map[string]any{"result": oracle.Round(v)}
	for k, x := range extra {
		out[k] = x
	}
	return types.OK(out)
}

func registerAggregateCalc(r *Registry) {
	r.add(describe("calculate_compound_growth", "Project a value forward: initial_value × (1 + growth_rate)^years.", ClassCalculation,
		req("initial_value", num(), "Starting value"),
		req("growth_rate", num(), "Annual growth rate as a decimal, e.g. 0.096"),
		req("years", integer().WithMinimum(1), "Number of years")),
		typed(func(_ context.Context, _ *Env, a compoundGrowthArgs) types.ToolOutcome {
			final := oracle.CompoundGrowth(a.InitialValue, a.GrowthRate, a.Years)
			return result(final, map[string]any{
				"total_growth_percent": oracle.Round((final/a.InitialValue - 1) * 100),
			})
		}))

	r.add(describe("calculate_cost_benefit_analysis", "Net present value of an investment: Σ benefits[y-1]/(1+discount_rate)^y − initial_investment.", ClassCalculation,
		req("initial_investment", num().WithMinimum(0), "Up-front investment"),
		req("annual_benefits", nums(), "Benefit of each year, first year first"),
		req("discount_rate", num(), "Discount rate as a decimal, e.g. 0.10"),
		req("years", integer().WithMinimum(1), "Number of years")),
		typed(func(_ context.Context, _ *Env, a costBenefitArgs) types.ToolOutcome {
			npv, err := oracle.NetPresentValue(a.InitialInvestment, a.AnnualBenefits, a.DiscountRate, a.Years)
			if err != nil {
				return types.Fail(types.ErrInvalid, "%v", err)
			}
			var total float64
			for _, b := range a.AnnualBenefits[:a.Years] {
				total += b
			}
			extra := map[string]any{
				"npv":            oracle.Round(npv),
				"total_benefits": oracle.Round(total),
			}
			if a.InitialInvestment > 0 {
				extra["benefit_cost_ratio"] = oracle.Round((npv + a.InitialInvestment) / a.InitialInvestment)
			}
			return result(npv, extra)
		}))

	r.add(describe("analyze_correlation", "Pearson correlation of two numeric fields across data points.", ClassCalculation,
		req("data_points", types.NewArraySchema(types.NewObjectSchema()), "Objects holding both variables"),
		req("variable1", str(), "First field name"),
		req("variable2", str(), "Second field name")),
		typed(func(_ context.Context, _ *Env, a correlationArgs) types.ToolOutcome {
			xs := make([]float64, 0, len(a.DataPoints))
			ys := make([]float64, 0, len(a.DataPoints))
			for i, p := range a.DataPoints {
				x, ok := numberField(p, a.Variable1)
				if !ok {
					return types.Fail(types.ErrInvalid, "data point %d has no numeric %q", i, a.Variable1)
				}
				y, ok := numberField(p, a.Variable2)
				if !ok {
					return types.Fail(types.ErrInvalid, "data point %d has no numeric %q", i, a.Variable2)
				}
				xs = append(xs, x)
				ys = append(ys, y)
			}
			rho, err := oracle.Pearson(xs, ys)
			if err != nil {
				return types.Fail(types.ErrInvalid, "%v", err)
			}
			return result(rho, map[string]any{
				"correlation": oracle.Round(rho),
				"n":           len(xs),
				"strength":    correlationStrength(rho),
			})
		}))

	r.add(describe("analyze_historical_trends", "Summarize a yearly series: CAGR, mean, min and max.", ClassCalculation,
		req("values", nums(), "Yearly values, oldest first"),
		opt("start_year", integer(), "Year of the first value")),
		typed(func(_ context.Context, _ *Env, a trendArgs) types.ToolOutcome {
			cagr, err := oracle.CAGR(a.Values)
			if err != nil {
				return types.Fail(types.ErrInvalid, "%v", err)
			}
			sorted := append([]float64(nil), a.Values...)
			sort.Float64s(sorted)
			var sum float64
			for _, v := range a.Values {
				sum += v
			}
			extra := map[string]any{
				"cagr": oracle.Round(cagr),
				"mean": oracle.Round(sum / float64(len(a.Values))),
				"min":  sorted[0],
				"max":  sorted[len(sorted)-1],
			}
			if a.StartYear != 0 {
				extra["end_year"] = a.StartYear + len(a.Values) - 1
			}
			return result(cagr, extra)
		}))
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func correlationStrength(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.7:
		return "strong"
	case a >= 0.4:
		return "moderate"
	case a >= 0.2:
		return "weak"
	default:
		return "negligible"
	}
}

// =============================================================================
// Atomic calculation tools
// =============================================================================

type percentageArgs struct {
	Value float64 `json:"value"`
	Total float64 `json:"total" validate:"ne=0"`
}

type ratioArgs struct {
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator" validate:"ne=0"`
}

type powerArgs struct {
	Base     float64 `json:"base"`
	Exponent float64 `json:"exponent"`
}

type sumArgs struct {
	Values []float64 `json:"values" validate:"required,min=1"`
}

type weightedAverageArgs struct {
	Values  []float64 `json:"values" validate:"required,min=1"`
	Weights []float64 `json:"weights" validate:"required,min=1"`
}

type discountFactorArgs struct {
	Rate  float64 `json:"rate" validate:"gt=-1"`
	Years int     `json:"years" validate:"gte=0,lte=100"`
}

type presentValueArgs struct {
	FutureValue float64 `json:"future_value"`
	Rate        float64 `json:"rate" validate:"gt=-1"`
	Years       int     `json:"years" validate:"gte=0,lte=100"`
}

func registerAtomicCalc(r *Registry) {
	r.add(describe("calculate_percentage", "value / total × 100.", ClassCalculation,
		req("value", num(), "Part"), req("total", num(), "Whole")),
		typed(func(_ context.Context, _ *Env, a percentageArgs) types.ToolOutcome {
			return result(a.Value/a.Total*100, nil)
		}))
	r.add(describe("calculate_ratio", "numerator / denominator.", ClassCalculation,
		req("numerator", num(), "Numerator"), req("denominator", num(), "Denominator")),
		typed(func(_ context.Context, _ *Env, a ratioArgs) types.ToolOutcome {
			return result(a.Numerator/a.Denominator, nil)
		}))
	r.add(describe("calculate_power", "base ^ exponent.", ClassCalculation,
		req("base", num(), "Base"), req("exponent", num(), "Exponent")),
		typed(func(_ context.Context, _ *Env, a powerArgs) types.ToolOutcome {
			return result(math.Pow(a.Base, a.Exponent), nil)
		}))
	r.add(describe("calculate_sum", "Sum of values.", ClassCalculation,
		req("values", nums(), "Values")),
		typed(func(_ context.Context, _ *Env, a sumArgs) types.ToolOutcome {
			var total float64
			for _, v := range a.Values {
				total += v
			}
			return result(total, nil)
		}))
	r.add(describe("calculate_weighted_average", "Σ value·weight / Σ weight.", ClassCalculation,
		req("values", nums(), "Values"), req("weights", nums(), "Weights, same length as values")),
		typed(func(_ context.Context, _ *Env, a weightedAverageArgs) types.ToolOutcome {
			v, err := oracle.WeightedAverage(a.Values, a.Weights)
			if err != nil {
				return types.Fail(types.ErrInvalid, "%v", err)
			}
			return result(v, nil)
		}))
	r.add(describe("calculate_discount_factor", "1 / (1 + rate)^years.", ClassCalculation,
		req("rate", num(), "Discount rate as a decimal"), req("years", integer().WithMinimum(0), "Periods")),
		typed(func(_ context.Context, _ *Env, a discountFactorArgs) types.ToolOutcome {
			return result(oracle.DiscountFactor(a.Rate, a.Years), nil)
		}))
	r.add(describe("calculate_present_value", "future_value / (1 + rate)^years.", ClassCalculation,
		req("future_value", num(), "Future value"), req("rate", num(), "Discount rate as a decimal"),
		req("years", integer().WithMinimum(0), "Periods")),
		typed(func(_ context.Context, _ *Env, a presentValueArgs) types.ToolOutcome {
			return result(oracle.PresentValue(a.FutureValue, a.Rate, a.Years), nil)
		}))
}
