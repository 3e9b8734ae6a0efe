package oracle

import (
	"errors"
	"fmt"
	"math"
)

// Round rounds v to SignificantDigits significant digits.
func Round(v float64) float64 {
	return RoundSig(v, SignificantDigits)
}

// RoundSig rounds v to n significant digits.
func RoundSig(v float64, n int) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	magnitude := math.Ceil(math.Log10(math.Abs(v)))
	scale := math.Pow(10, float64(n)-magnitude)
	return math.Round(v*scale) / scale
}

// CompoundGrowth returns initial × (1 + rate)^years.
func CompoundGrowth(initial, rate float64, years int) float64 {
	return initial * math.Pow(1+rate, float64(years))
}

// DiscountFactor returns 1 / (1 + rate)^years.
func DiscountFactor(rate float64, years int) float64 {
	return 1 / math.Pow(1+rate, float64(years))
}

// PresentValue discounts a future value back years periods.
func PresentValue(futureValue, rate float64, years int) float64 {
	return futureValue * DiscountFactor(rate, years)
}

// NetPresentValue returns Σ_{y=1..years} benefits[y-1]/(1+rate)^y − initialInvestment.
func NetPresentValue(initialInvestment float64, benefits []float64, rate float64, years int) (float64, error) {
	if years <= 0 {
		return 0, errors.New("years must be positive")
	}
	if len(benefits) < years {
		return 0, fmt.Errorf("need %d annual benefits, got %d", years, len(benefits))
	}
	if rate <= -1 {
		return 0, errors.New("discount rate must be greater than -1")
	}
	var total float64
	for y := 1; y <= years; y++ {
		total += benefits[y-1] / math.Pow(1+rate, float64(y))
	}
	return total - initialInvestment, nil
}

// AnnualBenefits projects the yearly benefits of an investment.
func AnnualBenefits(f Facts, years int) []float64 {
	out := make([]float64, years)
	first := f.InvestmentBn * BenefitRatio
	for y := 0; y < years; y++ {
		out[y] = RoundSig(first+BenefitStep*float64(y), 12)
	}
	return out
}

// Pearson returns the Pearson correlation coefficient of xs and ys.
func Pearson(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(xs), len(ys))
	}
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0, errors.New("need at least two data points")
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n
	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, errors.New("zero variance")
	}
	return cov / math.Sqrt(varX*varY), nil
}

// WeightedAverage returns Σ v·w / Σ w.
func WeightedAverage(values, weights []float64) (float64, error) {
	if len(values) != len(weights) {
		return 0, fmt.Errorf("length mismatch: %d values, %d weights", len(values), len(weights))
	}
	if len(values) == 0 {
		return 0, errors.New("no values")
	}
	var num, den float64
	for i := range values {
		num += values[i] * weights[i]
		den += weights[i]
	}
	if den == 0 {
		return 0, errors.New("weights sum to zero")
	}
	return num / den, nil
}

// CAGR returns the compound annual growth rate of a series of yearly values.
func CAGR(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, errors.New("need at least two values")
	}
	first, last := values[0], values[len(values)-1]
	if first <= 0 || last <= 0 {
		return 0, errors.New("values must be positive")
	}
	return math.Pow(last/first, 1/float64(len(values)-1)) - 1, nil
}
