package oracle

// Domain names a research domain (also used as the research topic id).
type Domain string

const (
	RenewableEnergy        Domain = "renewable_energy"
	ArtificialIntelligence Domain = "artificial_intelligence"
	ElectricVehicles       Domain = "electric_vehicles"
	Biotechnology          Domain = "biotechnology"
	QuantumComputing       Domain = "quantum_computing"
	Cybersecurity          Domain = "cybersecurity"
)

// Facts are the per-domain base facts. Initial is the market size in
// billions of USD at BaseYear, GrowthRate the annual growth, RiskFactor a
// 0..1 risk score and InvestmentBn the up-front investment for the
// cost-benefit analysis.
type Facts struct {
	Initial      float64 `json:"initial" yaml:"initial"`
	GrowthRate   float64 `json:"growth_rate" yaml:"growth_rate"`
	RiskFactor   float64 `json:"risk_factor" yaml:"risk_factor"`
	InvestmentBn float64 `json:"investment_bn" yaml:"investment_bn"`
}

const (
	// BaseYear is the year Initial refers to.
	BaseYear = 2024
	// DefaultDiscountRate is the CBA discount rate.
	DefaultDiscountRate = 0.10
	// DefaultYears is the CBA and growth horizon.
	DefaultYears = 10
	// BenefitRatio sets the first-year benefit as a share of the investment.
	BenefitRatio = 0.15
	// BenefitStep is the yearly benefit increase in billions.
	BenefitStep = 3.0
	// SignificantDigits is the precision of every numeric tool output and expected answer.
	SignificantDigits = 6
)

// domainOrder fixes iteration order so every derived artifact is byte-stable.
var domainOrder = []Domain{
	RenewableEnergy,
	ArtificialIntelligence,
	ElectricVehicles,
	Biotechnology,
	QuantumComputing,
	Cybersecurity,
}

// BaseFacts is the only source of research ground truth.
var BaseFacts = map[Domain]Facts{
	RenewableEnergy:        {Initial: 1200, GrowthRate: 0.096, RiskFactor: 0.35, InvestmentBn: 100},
	ArtificialIntelligence: {Initial: 950, GrowthRate: 0.187, RiskFactor: 0.55, InvestmentBn: 80},
	ElectricVehicles:       {Initial: 560, GrowthRate: 0.142, RiskFactor: 0.45, InvestmentBn: 60},
	Biotechnology:          {Initial: 1550, GrowthRate: 0.078, RiskFactor: 0.40, InvestmentBn: 90},
	QuantumComputing:       {Initial: 35, GrowthRate: 0.305, RiskFactor: 0.80, InvestmentBn: 25},
	Cybersecurity:          {Initial: 220, GrowthRate: 0.121, RiskFactor: 0.30, InvestmentBn: 45},
}

// Domains returns every domain in canonical order.
func Domains() []Domain {
	out := make([]Domain, len(domainOrder))
	copy(out, domainOrder)
	return out
}

// IsDomain reports whether d is a known domain.
func IsDomain(d Domain) bool {
	_, ok := BaseFacts[d]
	return ok
}

// Title returns a display title for a domain, e.g. "Renewable Energy".
func (d Domain) Title() string {
	switch d {
	case RenewableEnergy:
		return "Renewable Energy"
	case ArtificialIntelligence:
		return "Artificial Intelligence"
	case ElectricVehicles:
		return "Electric Vehicles"
	case Biotechnology:
		return "Biotechnology"
	case QuantumComputing:
		return "Quantum Computing"
	case Cybersecurity:
		return "Cybersecurity"
	default:
		return string(d)
	}
}

// Experts and case studies per domain.
const (
	ExpertsPerDomain = 3
	CasesPerDomain   = 3
)

// expertBias scales the base growth rate into each expert's forecast.
var expertBias = [ExpertsPerDomain]float64{0.9, 1.0, 1.15}

// caseMultiplier scales the risk-adjusted return of each case study.
var caseMultiplier = [CasesPerDomain]float64{0.8, 1.0, 1.3}
