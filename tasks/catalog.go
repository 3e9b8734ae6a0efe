package tasks

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/BaSui01/contextbench/oracle"
	"github.com/BaSui01/contextbench/store"
	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/trajectory"
)

// Dataset names.
const (
	DatasetShippingSupport     = "shipping-support"
	DatasetResearchDistraction = "research-distraction"
	DatasetResearchMultiAgent  = "research-multiagent"
	DatasetFinancePoisoning    = "finance-poisoning"
)

// Dataset is a named, ordered set of tasks.
type Dataset struct {
	Name        string
	Description string
	Tasks       []*Task
}

// Catalog holds every task by id and the named datasets over them.
type Catalog struct {
	tasks    map[int]*Task
	order    []int
	datasets map[string]datasetDef
}

type datasetDef struct {
	description string
	scenarios   []tools.Scenario
}

var defaultDatasets = map[string]datasetDef{
	DatasetShippingSupport: {
		description: "Customer-support tickets over the shipping tools (context confusion).",
		scenarios:   []tools.Scenario{tools.ScenarioShipping},
	},
	DatasetResearchDistraction: {
		description: "Long multi-question research reports (context distraction).",
		scenarios:   []tools.Scenario{tools.ScenarioResearch},
	},
	DatasetResearchMultiAgent: {
		description: "Per-topic deliverables produced by researcher subagents.",
		scenarios:   []tools.Scenario{tools.ScenarioResearchMultiAgent},
	},
	DatasetFinancePoisoning: {
		description: "Financial research with a planted non-existent ticker (context poisoning).",
		scenarios:   []tools.Scenario{tools.ScenarioFinance},
	},
}

var validate = validator.New()

// NewCatalog validates tasks, derives their reference trajectories and
// indexes them.
func NewCatalog(tasks ...*Task) (*Catalog, error) {
	c := &Catalog{
		tasks:    make(map[int]*Task, len(tasks)),
		datasets: defaultDatasets,
	}
	g := trajectory.NewGenerator(nil)
	for _, t := range tasks {
		if _, dup := c.tasks[t.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %d", t.ID)
		}
		if err := t.deriveReference(g); err != nil {
			return nil, err
		}
		if err := Validate(t); err != nil {
			return nil, err
		}
		c.tasks[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	sort.Ints(c.order)
	return c, nil
}

// Default returns the bundled catalog.
func Default() *Catalog {
	c, err := NewCatalog(defaultTasks()...)
	if err != nil {
		panic(fmt.Sprintf("bundled task catalog is invalid: %v", err))
	}
	return c
}

// Task returns a task by id.
func (c *Catalog) Task(id int) (*Task, bool) {
	t, ok := c.tasks[id]
	return t, ok
}

// Tasks returns every task ordered by id.
func (c *Catalog) Tasks() []*Task {
	out := make([]*Task, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.tasks[id])
	}
	return out
}

// DatasetNames returns the dataset names in sorted order.
func (c *Catalog) DatasetNames() []string {
	names := make([]string, 0, len(c.datasets))
	for n := range c.datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dataset returns a named dataset.
func (c *Catalog) Dataset(name string) (*Dataset, error) {
	def, ok := c.datasets[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q (available: %v)", name, c.DatasetNames())
	}
	ds := &Dataset{Name: name, Description: def.description}
	for _, t := range c.Tasks() {
		for _, s := range def.scenarios {
			if t.Scenario == s {
				ds.Tasks = append(ds.Tasks, t)
				break
			}
		}
	}
	return ds, nil
}

// Validate checks a task's declaration.
func Validate(t *Task) error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("task %d: %w", t.ID, err)
	}
	if len(t.Questions) == 0 && t.Criteria == nil {
		return fmt.Errorf("task %d: needs questions or response criteria", t.ID)
	}
	seen := make(map[int]bool, len(t.Questions))
	for _, q := range t.Questions {
		if seen[q.Number] {
			return fmt.Errorf("task %d: duplicate question %d", t.ID, q.Number)
		}
		seen[q.Number] = true
		if q.Query == nil && q.Expected == nil {
			return fmt.Errorf("task %d question %d: no query and no expected value", t.ID, q.Number)
		}
		if q.Query != nil {
			if err := q.Query.Validate(); err != nil {
				return fmt.Errorf("task %d question %d: %w", t.ID, q.Number, err)
			}
		}
	}
	if _, err := t.ExpectedAnswers(); err != nil {
		return err
	}
	if t.Scenario == tools.ScenarioFinance && t.Poison == nil {
		return fmt.Errorf("task %d: finance tasks declare a poison", t.ID)
	}
	if len(t.ExpectedTrajectory) == 0 {
		return fmt.Errorf("task %d: empty expected trajectory", t.ID)
	}
	reg, err := tools.NewScenarioRegistry(t.Scenario, nil)
	if err != nil {
		return fmt.Errorf("task %d: %w", t.ID, err)
	}
	for _, call := range t.ExpectedTrajectory {
		if !reg.Has(call.Name) {
			return fmt.Errorf("task %d: reference tool %q is not in scenario %s", t.ID, call.Name, t.Scenario)
		}
	}
	return nil
}

// =============================================================================
// Bundled tasks
// =============================================================================

func defaultTasks() []*Task {
	var out []*Task
	out = append(out, researchTasks()...)
	out = append(out, multiAgentTasks()...)
	out = append(out, shippingTasks()...)
	out = append(out, financeTasks()...)
	return out
}

func researchTask(id int, primary, secondary oracle.Domain, compare []oracle.Domain, history []string) *Task {
	return &Task{
		ID:              id,
		Name:            fmt.Sprintf("research report: %s vs %s", primary, secondary),
		Scenario:        tools.ScenarioResearch,
		Preamble:        "You are preparing a market research report. Use the research tools for every figure and the calculation tools for every computation.",
		Questions:       researchQuestions(primary, secondary, compare),
		PrimaryDomain:   primary,
		SecondaryDomain: secondary,
		Domains:         compare,
		TrajectoryMode:  trajectory.MatchSubset,
		History:         history,
	}
}

// distractionHistory is prior discussion replayed ahead of the questions.
func distractionHistory(domains []oracle.Domain) []string {
	research := store.NewResearch()
	out := make([]string, 0, len(domains)+1)
	out = append(out, "Earlier in this engagement we reviewed the following background material. Keep it in mind, but only the numbered questions below need answers.")
	for _, d := range domains {
		t, _ := research.Topic(string(d))
		out = append(out, "Background on "+t.Title+": "+t.Summary)
	}
	return out
}

func researchTasks() []*Task {
	return []*Task{
		researchTask(1, oracle.RenewableEnergy, oracle.ArtificialIntelligence,
			[]oracle.Domain{oracle.RenewableEnergy, oracle.ArtificialIntelligence, oracle.ElectricVehicles, oracle.Biotechnology}, nil),
		researchTask(2, oracle.ElectricVehicles, oracle.Biotechnology,
			[]oracle.Domain{oracle.ElectricVehicles, oracle.Biotechnology, oracle.QuantumComputing, oracle.Cybersecurity}, nil),
		researchTask(3, oracle.Cybersecurity, oracle.QuantumComputing,
			[]oracle.Domain{oracle.Cybersecurity, oracle.QuantumComputing, oracle.RenewableEnergy, oracle.ArtificialIntelligence},
			distractionHistory([]oracle.Domain{oracle.Biotechnology, oracle.ElectricVehicles})),
		researchTask(4, oracle.Biotechnology, oracle.RenewableEnergy, oracle.Domains(),
			distractionHistory(oracle.Domains())),
	}
}

func multiAgentTasks() []*Task {
	npvDomains := []oracle.Domain{oracle.RenewableEnergy, oracle.ArtificialIntelligence, oracle.Cybersecurity}
	growthDomains := []oracle.Domain{oracle.ElectricVehicles, oracle.Biotechnology, oracle.QuantumComputing, oracle.Cybersecurity}
	return []*Task{
		{
			ID:             11,
			Name:           "multi-agent NPV report",
			Scenario:       tools.ScenarioResearchMultiAgent,
			Preamble:       "Produce a report with one section per topic. Delegate each topic to a researcher.",
			Questions:      deliverableQuestions(npvDomains, oracle.MetricNPV, "10-year NPV at a 10% discount rate (billions of USD)"),
			PrimaryDomain:  npvDomains[0],
			Domains:        npvDomains,
			TrajectoryMode: trajectory.MatchSubset,
		},
		{
			ID:             12,
			Name:           "multi-agent growth report",
			Scenario:       tools.ScenarioResearchMultiAgent,
			Preamble:       "Produce a report with one section per topic. Delegate each topic to a researcher.",
			Questions:      deliverableQuestions(growthDomains, oracle.MetricCompoundGrowth, "market size after 10 years of compound growth (billions of USD)"),
			PrimaryDomain:  growthDomains[0],
			Domains:        growthDomains,
			TrajectoryMode: trajectory.MatchSubset,
		},
	}
}

func shippingTask(id int, name, query string, mode trajectory.MatchMode, criteria ResponseCriteria, calls ...trajectory.Call) *Task {
	return &Task{
		ID:                 id,
		Name:               name,
		Scenario:           tools.ScenarioShipping,
		ExpectedTrajectory: calls,
		TrajectoryMode:     mode,
		Criteria:           &criteria,
		literalQuery:       query,
	}
}

func shippingTasks() []*Task {
	call := trajectory.MustCanonicalize
	return []*Task{
		shippingTask(101, "order status", "What's the status of order #84721?", trajectory.MatchSubset,
			ResponseCriteria{
				MustInclude: []string{"in transit"},
				AnyOf:       [][]string{{"1Z999AA10123456784", "2025-12-22", "December 22"}},
			},
			call("get_order", `{"order_id": "84721"}`)),
		shippingTask(102, "delayed international order",
			"My order #23456 to Manchester was supposed to arrive on the 16th and it still hasn't shown up. What is going on and when will it arrive?",
			trajectory.MatchSubset,
			ResponseCriteria{
				MustInclude: []string{"royal mail", "customs", "2025-12-20"},
				AnyOf:       [][]string{{"2025-12-16", "December 16"}},
			},
			call("get_order", `{"order_id": "23456"}`),
			call("get_shipment", `{"order_id": "23456"}`),
			call("get_carrier_incidents", `{"date": "today"}`)),
		shippingTask(103, "return label", "The keyboard from order 55310 arrived with a broken key. Can you send me a return label?", trajectory.MatchSubset,
			ResponseCriteria{MustInclude: []string{"RL-55310"}},
			call("get_order", `{"order_id": "55310"}`),
			call("create_return_label", `{"order_id": "55310"}`)),
		shippingTask(104, "tracking history", "Where has my package with tracking number 9400111899223856923412 been?", trajectory.MatchName,
			ResponseCriteria{
				MustInclude: []string{"delivered"},
				AnyOf:       [][]string{{"Austin", "Dallas"}},
			},
			call("get_tracking_details", `{"tracking_number": "TRK99002ABC"}`)),
		shippingTask(105, "cancel unshipped order", "Please cancel order 67890, I ordered the wrong backpack.", trajectory.MatchSubset,
			ResponseCriteria{MustInclude: []string{"cancel"}, AnyOf: [][]string{{"67890"}}},
			call("get_order", `{"order_id": "67890"}`),
			call("cancel_order", `{"order_id": "67890"}`)),
		shippingTask(106, "stock and warehouse status",
			"Do you have SKU-MONITOR-27 in stock, and is the WH-WEST warehouse operating normally?", trajectory.MatchSubset,
			ResponseCriteria{MustInclude: []string{"reduced"}, AnyOf: [][]string{{"in stock", "available", "units"}}},
			call("check_inventory", `{"sku": "SKU-MONITOR-27"}`),
			call("get_warehouse_info", `{"warehouse_id": "WH-WEST"}`)),
	}
}

func financeTasks() []*Task {
	finance := store.NewFinance()
	tech, _ := finance.Sector("technology")
	energy, _ := finance.Sector("energy")
	nvtx, _ := finance.Quote("NVTX")
	solr, _ := finance.Quote("SOLR")
	call := trajectory.MustCanonicalize

	return []*Task{
		{
			ID:       201,
			Name:     "poisoned acquisition target",
			Scenario: tools.ScenarioFinance,
			Preamble: "Continue the investment research already in progress. Check your research state first.",
			Questions: []Question{
				{Number: 1, Text: "What is the current NVTX share price?", Expected: nvtx.Price, Source: &AnswerSource{Tool: "get_stock_price", Field: "price"}},
				{Number: 2, Text: "What is the average P/E ratio of the technology sector?", Expected: tech.AvgPERatio, Source: &AnswerSource{Tool: "analyze_sector", Field: "average_pe_ratio"}},
				{Number: 3, Text: "What is the final status of the QuantumDynamics goal (active, completed or cancelled)?", Expected: "cancelled", Source: &AnswerSource{Tool: "update_research_goal", Field: "status"}},
			},
			InitialGoals: []string{
				"Analyze Novatech Systems (ticker: NVTX) valuation",
				"Evaluate QuantumDynamics (ticker: QDYN) as an acquisition target",
				"Compare technology sector P/E ratios",
			},
			InitialTracked: []string{"NVTX"},
			Poison:         &Poison{Identifier: "QDYN", GoalText: "QDYN"},
			TrajectoryMode: trajectory.MatchSubset,
			ExpectedTrajectory: trajectory.Trajectory{
				call("get_current_research_state", `{}`),
				call("get_stock_price", `{"ticker": "NVTX"}`),
				call("analyze_sector", `{"sector": "technology"}`),
				call("get_stock_price", `{"ticker": "QDYN"}`),
				call("update_research_goal", `{"goal_index": 1, "status": "cancelled"}`),
			},
		},
		{
			ID:       202,
			Name:     "poisoned momentum summary",
			Scenario: tools.ScenarioFinance,
			Preamble: "Pick up the research where the last session left off. Your earlier summary is in the research state.",
			Questions: []Question{
				{Number: 1, Text: "What is the current SOLR share price?", Expected: solr.Price, Source: &AnswerSource{Tool: "get_stock_price", Field: "price"}},
				{Number: 2, Text: "What is the outlook of the energy sector?", Expected: energy.Outlook, Source: &AnswerSource{Tool: "analyze_sector", Field: "outlook"}},
				{Number: 3, Text: "What is the final status of the QDYN momentum goal (active, completed or cancelled)?", Expected: "cancelled", Source: &AnswerSource{Tool: "update_research_goal", Field: "status"}},
			},
			InitialGoals: []string{
				"Track QuantumDynamics (ticker: QDYN) momentum after its earnings beat",
				"Summarize the Solaris Energy (ticker: SOLR) outlook",
			},
			Poison:         &Poison{Identifier: "QDYN", GoalText: "QDYN"},
			TrajectoryMode: trajectory.MatchSubset,
			ExpectedTrajectory: trajectory.Trajectory{
				call("get_current_research_state", `{}`),
				call("get_stock_price", `{"ticker": "SOLR"}`),
				call("analyze_sector", `{"sector": "energy"}`),
				call("get_stock_price", `{"ticker": "QDYN"}`),
				call("update_research_goal", `{"goal_index": 0, "status": "cancelled"}`),
			},
		},
	}
}
