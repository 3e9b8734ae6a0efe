package tasks

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/trajectory"
)

// ParseQuestionSet parses a question selection such as "5,7-9" into sorted,
// de-duplicated question numbers.
func ParseQuestionSet(s string) ([]int, error) {
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || start < 1 {
			return nil, fmt.Errorf("invalid question %q", part)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("invalid question range %q", part)
			}
		}
		for n := start; n <= end; n++ {
			seen[n] = true
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("empty question set %q", s)
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// scenarioAliases maps reference tool names onto the tool that serves the
// same purpose in another surface. An empty target drops the call.
var scenarioAliases = map[tools.Scenario]map[string]string{
	tools.ScenarioShippingConsolidated: {
		"get_customer":                 "lookup_customer",
		"find_customer_by_email":       "lookup_customer",
		"get_customer_orders":          "lookup_customer",
		"get_carrier_service_levels":   "get_carrier_info",
		"check_inventory":              "get_warehouse_info",
		"check_inventory_at_warehouse": "get_warehouse_info",
		"create_return_label":          "manage_order",
		"cancel_order":                 "manage_order",
		"hold_order":                   "manage_order",
		"expedite_order":               "manage_order",
		"issue_refund":                 "manage_order",
		"update_shipping_address":      "manage_order",
		"create_support_ticket":        "customer_service",
		"send_customer_notification":   "customer_service",
		"get_billing_info":             "billing",
		"apply_account_credit":         "billing",
		"get_fraud_score":              "billing",
	},
	tools.ScenarioResearchAtomic: {
		"calculate_compound_growth":       "calculate_power",
		"calculate_cost_benefit_analysis": "calculate_present_value",
		"analyze_correlation":             "",
		"analyze_historical_trends":       "",
	},
}

// compatible lists the surfaces a task of the key scenario may be re-run on.
var compatible = map[tools.Scenario][]tools.Scenario{
	tools.ScenarioShipping: {tools.ScenarioShippingConsolidated, tools.ScenarioShippingNoisy},
	tools.ScenarioResearch: {tools.ScenarioResearchAtomic},
}

// ForScenario returns a copy of t that runs on another tool surface of the
// same family. Renamed tools make the reference compare by name only.
func (t *Task) ForScenario(s tools.Scenario) (*Task, error) {
	if s == "" || s == t.Scenario {
		return t, nil
	}
	ok := false
	for _, c := range compatible[t.Scenario] {
		if c == s {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("task %d (%s) cannot run on scenario %s", t.ID, t.Scenario, s)
	}
	cp := *t
	cp.Scenario = s
	aliases := scenarioAliases[s]
	if len(aliases) == 0 {
		return &cp, nil
	}
	var tr trajectory.Trajectory
	renamed := false
	for _, call := range t.ExpectedTrajectory {
		target, hit := aliases[call.Name]
		if !hit {
			tr = append(tr, call)
			continue
		}
		renamed = true
		if target == "" {
			continue
		}
		tr = append(tr, trajectory.New(target, call.Args))
	}
	cp.ExpectedTrajectory = tr.Dedup()
	if renamed {
		cp.TrajectoryMode = trajectory.MatchName
	}
	return &cp, nil
}
