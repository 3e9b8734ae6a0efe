package store

import (
	"fmt"
	"strings"

	"github.com/BaSui01/contextbench/oracle"
)

// Topic is a research topic record. Its statistics come from the oracle's
// base facts.
type Topic struct {
	Topic          string    `json:"topic"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	MarketSizeBn   float64   `json:"market_size_bn"`
	BaseYear       int       `json:"base_year"`
	GrowthRate     float64   `json:"growth_rate"`
	RiskFactor     float64   `json:"risk_factor"`
	InvestmentBn   float64   `json:"investment_bn"`
	AnnualBenefits []float64 `json:"annual_benefits"`
	ExpertIDs      []string  `json:"expert_ids"`
	CaseIDs        []string  `json:"case_ids"`
}

// Expert is an expert profile with a growth forecast for one topic.
type Expert struct {
	ID             string  `json:"expert_id"`
	Topic          string  `json:"topic"`
	Name           string  `json:"name"`
	Affiliation    string  `json:"affiliation"`
	ForecastGrowth float64 `json:"forecast_growth_rate"`
	Confidence     string  `json:"confidence"`
	Opinion        string  `json:"opinion"`
}

// CaseStudy is a case study with a reported return on investment.
type CaseStudy struct {
	ID           string  `json:"case_id"`
	Topic        string  `json:"topic"`
	Title        string  `json:"title"`
	Organization string  `json:"organization"`
	ROIPercent   float64 `json:"roi_percent"`
	Summary      string  `json:"summary"`
}

// YearData is the market size of a topic in one year.
type YearData struct {
	Topic        string  `json:"topic"`
	Year         int     `json:"year"`
	MarketSizeBn float64 `json:"market_size_bn"`
	Projected    bool    `json:"projected"`
}

// Year range served by get_year_data.
const (
	FirstDataYear = 2015
	LastDataYear  = 2035
)

// Research is the frozen research namespace.
type Research struct {
	topics  map[string]Topic
	experts map[string]Expert
	cases   map[string]CaseStudy
}

var expertPeople = []struct{ name, affiliation, confidence string }{
	{"Dr. Helen Okafor", "Global Markets Institute", "moderate"},
	{"Prof. Daniel Kim", "Center for Technology Economics", "high"},
	{"Rosa Lindqvist", "Northbridge Capital Research", "optimistic"},
}

var caseOrgs = []string{"Meridian Holdings", "Atlas Public Works", "Vireo Ventures"}

// NewResearch builds the research store from the oracle's base facts.
func NewResearch() *Research {
	r := &Research{
		topics:  make(map[string]Topic),
		experts: make(map[string]Expert),
		cases:   make(map[string]CaseStudy),
	}
	for _, d := range oracle.Domains() {
		f := oracle.BaseFacts[d]
		topic := Topic{
			Topic:          string(d),
			Title:          d.Title(),
			MarketSizeBn:   f.Initial,
			BaseYear:       oracle.BaseYear,
			GrowthRate:     f.GrowthRate,
			RiskFactor:     f.RiskFactor,
			InvestmentBn:   f.InvestmentBn,
			AnnualBenefits: oracle.AnnualBenefits(f, oracle.DefaultYears),
		}
		for i := 1; i <= oracle.ExpertsPerDomain; i++ {
			id := fmt.Sprintf("expert_%d", i)
			forecast, _ := oracle.ExpertForecast(f, i)
			p := expertPeople[i-1]
			r.experts[key(d, id)] = Expert{
				ID:             id,
				Topic:          string(d),
				Name:           p.name,
				Affiliation:    p.affiliation,
				ForecastGrowth: oracle.Round(forecast),
				Confidence:     p.confidence,
				Opinion: fmt.Sprintf("%s expects %s to grow at roughly %.1f%% per year over the next decade.",
					p.name, d.Title(), oracle.Round(forecast)*100),
			}
			topic.ExpertIDs = append(topic.ExpertIDs, id)
		}
		for i := 1; i <= oracle.CasesPerDomain; i++ {
			id := fmt.Sprintf("case_%d", i)
			roi, _ := oracle.CaseStudyROI(f, i)
			r.cases[key(d, id)] = CaseStudy{
				ID:           id,
				Topic:        string(d),
				Title:        fmt.Sprintf("%s deployment at %s", d.Title(), caseOrgs[i-1]),
				Organization: caseOrgs[i-1],
				ROIPercent:   oracle.Round(roi),
				Summary: fmt.Sprintf("%s reported a %.2f%% return on its %s programme.",
					caseOrgs[i-1], oracle.Round(roi), strings.ToLower(d.Title())),
			}
			topic.CaseIDs = append(topic.CaseIDs, id)
		}
		topic.Summary = verboseSummary(d, f)
		r.topics[string(d)] = topic
	}
	return r
}

func key(d oracle.Domain, id string) string {
	return string(d) + "/" + id
}

// verboseSummary renders the long narrative returned by research_topic.
func verboseSummary(d oracle.Domain, f oracle.Facts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: sector overview.\n\n", d.Title())
	fmt.Fprintf(&b, "The %s market was valued at about $%.0f billion in %d and analysts describe its growth as %s. ",
		strings.ToLower(d.Title()), f.Initial, oracle.BaseYear, growthWord(f.GrowthRate))
	fmt.Fprintf(&b, "Risk is generally considered %s. ", riskWord(f.RiskFactor))
	b.WriteString("Coverage spans supply chains, regulation, talent, capital formation and adoption curves across regions. ")
	b.WriteString("Historic cycles show periods of over-investment followed by consolidation, and commentators disagree on timing. ")
	b.WriteString("For precise growth forecasts consult expert_2 (consensus view) and compare with expert_1 and expert_3. ")
	b.WriteString("For realised returns see case_1 through case_3; case_3 is the most frequently cited. ")
	b.WriteString("Exact statistics (market size, growth rate, risk factor, investment) are available through get_statistics.")
	return b.String()
}

func growthWord(rate float64) string {
	switch {
	case rate >= 0.2:
		return "explosive"
	case rate >= 0.12:
		return "rapid"
	case rate >= 0.09:
		return "steady"
	default:
		return "moderate"
	}
}

func riskWord(risk float64) string {
	switch {
	case risk >= 0.7:
		return "very high"
	case risk >= 0.5:
		return "high"
	case risk >= 0.35:
		return "moderate"
	default:
		return "low"
	}
}

func normalizeTopic(topic string) string {
	t := strings.ToLower(strings.TrimSpace(topic))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(t)
}

// Topic looks up a research topic. Spaces and dashes are read as underscores.
func (r *Research) Topic(topic string) (Topic, bool) {
	t, ok := r.topics[normalizeTopic(topic)]
	if !ok {
		return Topic{}, false
	}
	t.AnnualBenefits = append([]float64(nil), t.AnnualBenefits...)
	t.ExpertIDs = append([]string(nil), t.ExpertIDs...)
	t.CaseIDs = append([]string(nil), t.CaseIDs...)
	return t, true
}

// Expert looks up an expert of a topic.
func (r *Research) Expert(topic, expertID string) (Expert, bool) {
	e, ok := r.experts[normalizeTopic(topic)+"/"+strings.ToLower(strings.TrimSpace(expertID))]
	return e, ok
}

// CaseStudy looks up a case study of a topic.
func (r *Research) CaseStudy(topic, caseID string) (CaseStudy, bool) {
	c, ok := r.cases[normalizeTopic(topic)+"/"+strings.ToLower(strings.TrimSpace(caseID))]
	return c, ok
}

// YearData returns the market size of a topic in year. Years outside
// FirstDataYear..LastDataYear are not found.
func (r *Research) YearData(topic string, year int) (YearData, bool) {
	t, ok := r.topics[normalizeTopic(topic)]
	if !ok || year < FirstDataYear || year > LastDataYear {
		return YearData{}, false
	}
	f := oracle.BaseFacts[oracle.Domain(t.Topic)]
	return YearData{
		Topic:        t.Topic,
		Year:         year,
		MarketSizeBn: oracle.Round(oracle.YearValue(f, year)),
		Projected:    year > oracle.BaseYear,
	}, true
}

// Topics returns the topic ids in canonical order.
func (r *Research) Topics() []string {
	out := make([]string, 0, len(r.topics))
	for _, d := range oracle.Domains() {
		out = append(out, string(d))
	}
	return out
}
