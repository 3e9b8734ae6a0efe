package tools

import (
	"fmt"

	"go.uber.org/zap"
)

// Scenario selects a tool surface.
type Scenario string

const (
	// ScenarioShipping is the fine-grained shipping surface.
	ScenarioShipping Scenario = "shipping"
	// ScenarioShippingConsolidated exposes the same operations behind fewer tools.
	ScenarioShippingConsolidated Scenario = "shipping_consolidated"
	// ScenarioShippingNoisy adds research and finance distractors to ScenarioShipping.
	ScenarioShippingNoisy Scenario = "shipping_noisy"
	// ScenarioResearch is research lookups, every calculation tool and store_answer.
	ScenarioResearch Scenario = "research"
	// ScenarioResearchAtomic drops the aggregate calculation tools.
	ScenarioResearchAtomic Scenario = "research_atomic"
	// ScenarioResearchMultiAgent is the researcher subagent surface.
	ScenarioResearchMultiAgent Scenario = "research_multiagent"
	// ScenarioFinance is the financial-research state surface.
	ScenarioFinance Scenario = "finance"
)

// Scenarios lists every scenario.
func Scenarios() []Scenario {
	return []Scenario{
		ScenarioShipping,
		ScenarioShippingConsolidated,
		ScenarioShippingNoisy,
		ScenarioResearch,
		ScenarioResearchAtomic,
		ScenarioResearchMultiAgent,
		ScenarioFinance,
	}
}

// ParseScenario validates a scenario name.
func ParseScenario(s string) (Scenario, error) {
	for _, sc := range Scenarios() {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown scenario %q", s)
}

// noisyDistractors are the off-domain tools mixed into the noisy shipping surface.
var noisyDistractors = []string{
	"get_statistics",
	"research_topic",
	"get_expert_opinion",
	"get_case_study",
	"get_year_data",
	"get_stock_price",
	"get_company_info",
	"analyze_sector",
	"calculate_percentage",
	"calculate_ratio",
	"calculate_sum",
}

// NewScenarioRegistry builds the registry of a scenario.
func NewScenarioRegistry(s Scenario, logger *zap.Logger) (*Registry, error) {
	r := NewRegistry(logger)
	switch s {
	case ScenarioShipping:
		registerShipping(r)
	case ScenarioShippingConsolidated:
		registerShippingConsolidated(r)
	case ScenarioShippingNoisy:
		registerShipping(r)
		pool := NewRegistry(nil)
		registerResearch(pool)
		registerFinance(pool)
		registerAtomicCalc(pool)
		if err := r.include(pool, noisyDistractors...); err != nil {
			return nil, err
		}
	case ScenarioResearch:
		registerResearch(r)
		registerAggregateCalc(r)
		registerAtomicCalc(r)
		registerStoreAnswer(r)
	case ScenarioResearchAtomic:
		registerResearch(r)
		registerAtomicCalc(r)
		registerStoreAnswer(r)
	case ScenarioResearchMultiAgent:
		registerResearch(r)
		registerAggregateCalc(r)
		registerAtomicCalc(r)
		registerDeliverables(r)
	case ScenarioFinance:
		registerFinance(r)
	default:
		return nil, fmt.Errorf("unknown scenario %q", s)
	}
	return r, nil
}

// MustScenarioRegistry is NewScenarioRegistry for known scenarios.
func MustScenarioRegistry(s Scenario, logger *zap.Logger) *Registry {
	r, err := NewScenarioRegistry(s, logger)
	if err != nil {
		panic(err)
	}
	return r
}

// include copies named tools from src.
func (r *Registry) include(src *Registry, names ...string) error {
	for _, name := range names {
		fn, meta, err := src.Get(name)
		if err != nil {
			return err
		}
		if err := r.Register(name, fn, meta); err != nil {
			return err
		}
	}
	return nil
}
