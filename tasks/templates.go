package tasks

import (
	"fmt"
	"strings"

	"github.com/BaSui01/contextbench/oracle"
)

// answerInstructions close every numbered query.
const answerInstructions = "Answer every question. End your reply with a fenced ```json block of the form " +
	`{"answers": {"1": <value>, "2": <value>, ...}}` +
	" containing raw numbers (no units or % signs) or plain strings. Rankings are comma-separated topic ids, best first."

// template builds one question from the task's domains.
type template struct {
	text  func(primary, secondary oracle.Domain, compare []oracle.Domain) string
	query func(primary, secondary oracle.Domain, compare []oracle.Domain) oracle.Query
}

func scalar(m oracle.Metric, d oracle.Domain, p oracle.Params) oracle.Query {
	return oracle.Query{Metric: m, Domains: []oracle.Domain{d}, Params: p}
}

func aggregate(op oracle.Operation, p oracle.Params, domains ...oracle.Domain) oracle.Query {
	return oracle.Query{Operation: op, Domains: append([]oracle.Domain(nil), domains...), Params: p}
}

func titles(domains []oracle.Domain) string {
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.Title()
	}
	return strings.Join(names, ", ")
}

// researchTemplates is the fixed question sequence of a research task. The
// question text and the oracle query are built from the same domains, so
// they stay aligned.
var researchTemplates = []template{
	{
		text: func(p, _ oracle.Domain, _ []oracle.Domain) string {
			return fmt.Sprintf("What is the annual growth rate of %s (as a decimal)?", p.Title())
		},
		query: func(p, _ oracle.Domain, _ []oracle.Domain) oracle.Query {
			return scalar(oracle.MetricGrowthRate, p, oracle.Params{})
		},
	},
	{
		text: func(_, s oracle.Domain, _ []oracle.Domain) string {
			return fmt.Sprintf("What is the current market size of %s in billions of USD?", s.Title())
		},
		query: func(_, s oracle.Domain, _ []oracle.Domain) oracle.Query {
			return scalar(oracle.MetricInitial, s, oracle.Params{})
		},
	},
	{
		text: func(p, _ oracle.Domain, _ []oracle.Domain) string {
			return fmt.Sprintf("Using its current market size and growth rate, what will the %s market be worth after 10 years of compound growth (billions of USD)?", p.Title())
		},
		query: func(p, _ oracle.Domain, _ []oracle.Domain) oracle.Query {
			return scalar(oracle.MetricCompoundGrowth, p, oracle.Params{Years: 10})
		},
	},
	{
		text: func(p, _ oracle.Domain, _ []oracle.Domain) string {
			return fmt.Sprintf("What growth rate does expert_2 forecast for %s?", p.Title())
		},
		query: func(p, _ oracle.Domain, _ []oracle.Domain) oracle.Query {
			return scalar(oracle.MetricExpertForecast, p, oracle.Params{Index: 2})
		},
	},
	{
		text: func(_, s oracle.Domain, _ []oracle.Domain) string {
			return fmt.Sprintf("What ROI (percent) does case_1 report for %s?", s.Title())
		},
		query: func(_, s oracle.Domain, _ []oracle.Domain) oracle.Query {
			return scalar(oracle.MetricCaseStudyROI, s, oracle.Params{Index: 1})
		},
	},
	{
		text: func(p, s oracle.Domain, _ []oracle.Domain) string {
			return fmt.Sprintf("Run a 10-year cost-benefit analysis at a 10%% discount rate for %s and for %s. What is the ratio of the %s NPV to the %s NPV?",
				p.Title(), s.Title(), p.Title(), s.Title())
		},
		query: func(p, s oracle.Domain, _ []oracle.Domain) oracle.Query {
			return aggregate(oracle.OpNPVRatio, oracle.Params{Years: 10, DiscountRate: oracle.DefaultDiscountRate}, p, s)
		},
	},
	{
		text: func(p, _ oracle.Domain, _ []oracle.Domain) string {
			return fmt.Sprintf("What is the projected %s market size in 2030?", p.Title())
		},
		query: func(p, _ oracle.Domain, _ []oracle.Domain) oracle.Query {
			return scalar(oracle.MetricYearValue, p, oracle.Params{Year: 2030})
		},
	},
	{
		text: func(_, _ oracle.Domain, c []oracle.Domain) string {
			return fmt.Sprintf("Rank %s by 10-year NPV at a 10%% discount rate, highest first.", titles(c))
		},
		query: func(_, _ oracle.Domain, c []oracle.Domain) oracle.Query {
			return aggregate(oracle.OpRankByNPV, oracle.Params{Years: 10, DiscountRate: oracle.DefaultDiscountRate}, c...)
		},
	},
	{
		text: func(_, _ oracle.Domain, c []oracle.Domain) string {
			return fmt.Sprintf("What is the Pearson correlation between growth rate and risk factor across %s?", titles(c))
		},
		query: func(_, _ oracle.Domain, c []oracle.Domain) oracle.Query {
			return aggregate(oracle.OpCorrelation, oracle.Params{Variable1: oracle.MetricGrowthRate, Variable2: oracle.MetricRiskFactor}, c...)
		},
	},
	{
		text: func(_, _ oracle.Domain, c []oracle.Domain) string {
			return fmt.Sprintf("What is the investment-weighted average growth rate of %s?", titles(c))
		},
		query: func(_, _ oracle.Domain, c []oracle.Domain) oracle.Query {
			return aggregate(oracle.OpWeightedAverageGrowth, oracle.Params{}, c...)
		},
	},
	{
		text: func(_, _ oracle.Domain, c []oracle.Domain) string {
			return fmt.Sprintf("Rank %s by priority score (NPV × (1 − risk factor)), highest first.", titles(c))
		},
		query: func(_, _ oracle.Domain, c []oracle.Domain) oracle.Query {
			return aggregate(oracle.OpRankByPriority, oracle.Params{Years: 10, DiscountRate: oracle.DefaultDiscountRate}, c...)
		},
	},
}

// researchQuestions instantiates the templates for one domain set.
func researchQuestions(primary, secondary oracle.Domain, compare []oracle.Domain) []Question {
	out := make([]Question, len(researchTemplates))
	for i, tpl := range researchTemplates {
		q := tpl.query(primary, secondary, compare)
		out[i] = Question{
			Number: i + 1,
			Text:   tpl.text(primary, secondary, compare),
			Query:  &q,
		}
	}
	return out
}

// deliverableQuestions builds one question per domain for the multi-agent
// variant; each is delivered under the domain id.
func deliverableQuestions(domains []oracle.Domain, metric oracle.Metric, verb string) []Question {
	out := make([]Question, len(domains))
	for i, d := range domains {
		q := scalar(metric, d, oracle.Params{Years: 10, DiscountRate: oracle.DefaultDiscountRate})
		out[i] = Question{
			Number:      i + 1,
			Text:        fmt.Sprintf("What is the %s of %s?", verb, d.Title()),
			Query:       &q,
			Deliverable: string(d),
		}
	}
	return out
}

func renderQuery(t *Task) string {
	var b strings.Builder
	for _, h := range t.History {
		b.WriteString(h)
		b.WriteString("\n\n")
	}
	if t.Preamble != "" {
		b.WriteString(t.Preamble)
		b.WriteString("\n\n")
	}
	for _, q := range t.Questions {
		fmt.Fprintf(&b, "%d. %s\n", q.Number, q.Text)
	}
	if len(t.Questions) > 0 && t.Criteria == nil {
		b.WriteString("\n")
		b.WriteString(answerInstructions)
	}
	return strings.TrimRight(b.String(), "\n")
}
