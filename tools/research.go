package tools

import (
	"context"
	"strings"

	"github.com/BaSui01/contextbench/store"
	"github.com/BaSui01/contextbench/types"
)

type topicArgs struct {
	Topic string `json:"topic" validate:"required"`
}

type expertArgs struct {
	Topic    string `json:"topic" validate:"required"`
	ExpertID string `json:"expert_id" validate:"required"`
}

type caseArgs struct {
	Topic  string `json:"topic" validate:"required"`
	CaseID string `json:"case_id" validate:"required"`
}

type yearArgs struct {
	Topic string `json:"topic" validate:"required"`
	Year  int    `json:"year" validate:"required"`
}

func unknownTopic(env *Env, topic string) types.ToolOutcome {
	return types.Fail(types.ErrNotFound, "topic %q not found (available: %s)", topic, strings.Join(env.Stores.Research.Topics(), ", "))
}

// registerResearch adds the research lookup tools.
func registerResearch(r *Registry) {
	topic := req("topic", str(), "Research topic, e.g. renewable_energy")

	r.add(describe("get_statistics", "Get market statistics of a research topic: market size, growth rate, risk factor, investment and projected annual benefits.", ClassLookup, topic),
		typed(func(_ context.Context, env *Env, a topicArgs) types.ToolOutcome {
			t, ok := env.Stores.Research.Topic(a.Topic)
			if !ok {
				return unknownTopic(env, a.Topic)
			}
			return types.OK(map[string]any{
				"topic":           t.Topic,
				"market_size_bn":  t.MarketSizeBn,
				"base_year":       t.BaseYear,
				"growth_rate":     t.GrowthRate,
				"risk_factor":     t.RiskFactor,
				"investment_bn":   t.InvestmentBn,
				"annual_benefits": t.AnnualBenefits,
			})
		}))

	r.add(describe("research_topic", "Get a narrative overview of a topic, naming the experts and case studies worth consulting.", ClassLookup, topic),
		typed(func(_ context.Context, env *Env, a topicArgs) types.ToolOutcome {
			t, ok := env.Stores.Research.Topic(a.Topic)
			if !ok {
				return unknownTopic(env, a.Topic)
			}
			return types.OK(map[string]any{
				"topic":      t.Topic,
				"title":      t.Title,
				"summary":    t.Summary,
				"expert_ids": t.ExpertIDs,
				"case_ids":   t.CaseIDs,
				"data_years": []int{store.FirstDataYear, store.LastDataYear},
			})
		}))

	r.add(describe("get_expert_opinion", "Get an expert's growth forecast for a topic.", ClassLookup,
		topic, req("expert_id", str(), "Expert id, e.g. expert_1")),
		typed(func(_ context.Context, env *Env, a expertArgs) types.ToolOutcome {
			t, ok := env.Stores.Research.Topic(a.Topic)
			if !ok {
				return unknownTopic(env, a.Topic)
			}
			e, ok := env.Stores.Research.Expert(a.Topic, a.ExpertID)
			if !ok {
				return types.Fail(types.ErrNotFound, "expert %q not found for %s (available: %s)", a.ExpertID, t.Topic, strings.Join(t.ExpertIDs, ", "))
			}
			return types.OK(e)
		}))

	r.add(describe("get_case_study", "Get a case study with its reported ROI.", ClassLookup,
		topic, req("case_id", str(), "Case id, e.g. case_1")),
		typed(func(_ context.Context, env *Env, a caseArgs) types.ToolOutcome {
			t, ok := env.Stores.Research.Topic(a.Topic)
			if !ok {
				return unknownTopic(env, a.Topic)
			}
			c, ok := env.Stores.Research.CaseStudy(a.Topic, a.CaseID)
			if !ok {
				return types.Fail(types.ErrNotFound, "case %q not found for %s (available: %s)", a.CaseID, t.Topic, strings.Join(t.CaseIDs, ", "))
			}
			return types.OK(c)
		}))

	r.add(describe("get_year_data", "Get a topic's market size in one year (2015-2035; years after 2024 are projections).", ClassLookup,
		topic, req("year", integer(), "Calendar year")),
		typed(func(_ context.Context, env *Env, a yearArgs) types.ToolOutcome {
			if _, ok := env.Stores.Research.Topic(a.Topic); !ok {
				return unknownTopic(env, a.Topic)
			}
			y, ok := env.Stores.Research.YearData(a.Topic, a.Year)
			if !ok {
				return types.Fail(types.ErrNotFound, "no data for %d (range %d-%d)", a.Year, store.FirstDataYear, store.LastDataYear)
			}
			return types.OK(y)
		}))
}
