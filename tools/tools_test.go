package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/contextbench/agent/state"
	"github.com/BaSui01/contextbench/oracle"
	"github.com/BaSui01/contextbench/store"
	"github.com/BaSui01/contextbench/types"
)

func TestScenarioRegistries(t *testing.T) {
	for _, s := range Scenarios() {
		r, err := NewScenarioRegistry(s, nil)
		require.NoError(t, err, s)
		assert.Positive(t, r.Len(), s)
		for _, schema := range r.List() {
			parsed, err := types.FromJSON(schema.Parameters)
			require.NoError(t, err)
			assert.True(t, parsed.IsClosed(), "%s/%s schema must be closed", s, schema.Name)
		}
	}

	_, err := NewScenarioRegistry("teleport", nil)
	assert.Error(t, err)
}

func TestScenarioProfiles(t *testing.T) {
	full := MustScenarioRegistry(ScenarioShipping, nil)
	consolidated := MustScenarioRegistry(ScenarioShippingConsolidated, nil)
	noisy := MustScenarioRegistry(ScenarioShippingNoisy, nil)

	assert.Less(t, consolidated.Len(), full.Len())
	assert.Equal(t, full.Len()+len(noisyDistractors), noisy.Len())
	assert.True(t, consolidated.Has("manage_order"))
	assert.False(t, consolidated.Has("cancel_order"))
	assert.True(t, noisy.Has("get_stock_price"))

	research := MustScenarioRegistry(ScenarioResearch, nil)
	atomic := MustScenarioRegistry(ScenarioResearchAtomic, nil)
	multi := MustScenarioRegistry(ScenarioResearchMultiAgent, nil)
	for _, name := range CalculationTools {
		assert.True(t, research.Has(name), name)
		assert.Equal(t, ClassCalculation, research.ClassOf(name), name)
	}
	assert.False(t, atomic.Has("calculate_compound_growth"))
	assert.True(t, atomic.Has("calculate_power"))
	assert.True(t, research.Has("store_answer"))
	assert.True(t, multi.Has("store_deliverable"))
	assert.True(t, multi.Has("finish"))
	assert.False(t, multi.Has("store_answer"))
}

func TestShippingTools_StatusAndDelay(t *testing.T) {
	e := newTestExecutor(t, ScenarioShipping, newTestEnv())
	ctx := context.Background()

	order := payload(t, e.ExecuteOne(ctx, call("get_order", `{"order_id": "#84721"}`)).Outcome)
	assert.Equal(t, store.OrderInTransit, order["status"])
	assert.Equal(t, "1Z999AA10123456784", order["tracking_number"])

	shipment := payload(t, e.ExecuteOne(ctx, call("get_shipment", `{"order_id": "23456"}`)).Outcome)
	assert.Equal(t, "2025-12-16", shipment["original_eta"])
	assert.Equal(t, "2025-12-20", shipment["estimated_delivery"])

	incidents := payload(t, e.ExecuteOne(ctx, call("get_carrier_incidents", `{"date": "today"}`)).Outcome)
	assert.Equal(t, store.Today, incidents["date"])
	list := incidents["incidents"].([]any)
	require.NotEmpty(t, list)
	assert.Equal(t, "ROYAL_MAIL", list[0].(map[string]any)["carrier"])

	quiet := payload(t, e.ExecuteOne(ctx, call("get_carrier_incidents", `{"date": "2025-11-01"}`)).Outcome)
	assert.Empty(t, quiet["incidents"])

	bad := e.ExecuteOne(ctx, call("get_carrier_incidents", `{"date": "yesterday"}`)).Outcome
	require.NotNil(t, bad.Err)
	assert.Equal(t, types.ErrInvalid, bad.Err.Kind)
}

func TestShippingTools_Actions(t *testing.T) {
	e := newTestExecutor(t, ScenarioShipping, newTestEnv())
	ctx := context.Background()

	tests := []struct {
		name    string
		tool    string
		args    string
		wantErr types.ErrorCode
	}{
		{"return label for delivered order", "create_return_label", `{"order_id": "55310", "reason": "damaged"}`, ""},
		{"return label for order in transit", "create_return_label", `{"order_id": "84721", "reason": "damaged"}`, types.ErrInvalid},
		{"cancel processing order", "cancel_order", `{"order_id": "67890", "reason": "changed mind"}`, ""},
		{"cancel shipped order", "cancel_order", `{"order_id": "84721", "reason": "changed mind"}`, types.ErrInvalid},
		{"hold processing order", "hold_order", `{"order_id": "67890", "reason": "address check"}`, ""},
		{"refund over total", "issue_refund", `{"order_id": "55310", "amount": 100000, "reason": "x"}`, types.ErrInvalid},
		{"expedite unknown level", "expedite_order", `{"order_id": "84721", "service_level": "teleport"}`, types.ErrInvalid},
		{"ticket for unknown customer", "create_support_ticket", `{"customer_id": "C-9999", "subject": "hi"}`, types.ErrNotFound},
		{"credit above limit", "apply_account_credit", `{"customer_id": "C-1001", "amount": 900}`, types.ErrInvalid},
		{"notify by pigeon", "send_customer_notification", `{"customer_id": "C-1001", "channel": "pigeon", "message": "hi"}`, types.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := e.ExecuteOne(ctx, call(tt.tool, tt.args)).Outcome
			if tt.wantErr == "" {
				assert.Nil(t, o.Err)
				return
			}
			require.NotNil(t, o.Err)
			assert.Equal(t, tt.wantErr, o.Err.Kind, o.Err.Message)
		})
	}

	label := payload(t, e.ExecuteOne(ctx, call("create_return_label", `{"order_id": "55310", "reason": "damaged"}`)).Outcome)
	assert.Equal(t, "RL-55310", label["label_id"], "ids are deterministic")
}

func TestConsolidatedTools(t *testing.T) {
	e := newTestExecutor(t, ScenarioShippingConsolidated, newTestEnv())
	ctx := context.Background()

	o := e.ExecuteOne(ctx, call("manage_order", `{"action": "cancel", "order_id": "67890", "reason": "dup"}`)).Outcome
	assert.Nil(t, o.Err)

	o = e.ExecuteOne(ctx, call("manage_order", `{"action": "explode", "order_id": "67890"}`)).Outcome
	require.NotNil(t, o.Err)
	assert.Equal(t, types.ErrInvalid, o.Err.Kind)

	info := payload(t, e.ExecuteOne(ctx, call("get_carrier_info", `{"carrier": "royal mail", "include": ["service_levels", "incidents"]}`)).Outcome)
	assert.Equal(t, "ROYAL_MAIL", info["carrier"])
	assert.NotEmpty(t, info["incidents"])
	assert.NotContains(t, info, "profile")

	o = e.ExecuteOne(ctx, call("lookup_customer", `{"customer_id": "C-1001", "email": "alice.nguyen@example.com"}`)).Outcome
	require.NotNil(t, o.Err, "exactly one of customer_id or email")

	c := payload(t, e.ExecuteOne(ctx, call("lookup_customer", `{"email": "alice.nguyen@example.com"}`)).Outcome)
	assert.Equal(t, "C-1001", c["customer_id"])

	fraud := payload(t, e.ExecuteOne(ctx, call("billing", `{"action": "fraud_score", "customer_id": "C-1002"}`)).Outcome)
	assert.EqualValues(t, store.FraudScore("C-1002"), fraud["fraud_score"])
}

func TestResearchTools(t *testing.T) {
	e := newTestExecutor(t, ScenarioResearch, newTestEnv())
	ctx := context.Background()

	stats := payload(t, e.ExecuteOne(ctx, call("get_statistics", `{"topic": "renewable_energy"}`)).Outcome)
	assert.Equal(t, 1200.0, stats["market_size_bn"])
	assert.Equal(t, 0.096, stats["growth_rate"])

	o := e.ExecuteOne(ctx, call("get_statistics", `{"topic": "space_mining"}`)).Outcome
	require.NotNil(t, o.Err)
	assert.Equal(t, types.ErrNotFound, o.Err.Kind)

	o = e.ExecuteOne(ctx, call("get_expert_opinion", `{"topic": "renewable_energy", "expert_id": "expert_7"}`)).Outcome
	require.NotNil(t, o.Err)
	assert.Contains(t, o.Err.Message, "expert_1")

	overview := payload(t, e.ExecuteOne(ctx, call("research_topic", `{"topic": "quantum computing"}`)).Outcome)
	assert.Contains(t, overview["summary"], "expert_")
}

func TestCalculationTools_MatchOracle(t *testing.T) {
	e := newTestExecutor(t, ScenarioResearch, newTestEnv())
	ctx := context.Background()

	growth := payload(t, e.ExecuteOne(ctx, call("calculate_compound_growth",
		`{"initial_value": 1200, "growth_rate": 0.096, "years": 10}`)).Outcome)
	want, err := oracle.New().Scalar(oracle.RenewableEnergy, oracle.MetricCompoundGrowth, oracle.Params{})
	require.NoError(t, err)
	assert.Equal(t, want, growth["result"])
	assert.InDelta(t, 3007.32, growth["result"], 3007.32*0.01)

	cba := payload(t, e.ExecuteOne(ctx, call("calculate_cost_benefit_analysis",
		`{"initial_investment": 100, "annual_benefits": [15, 18, 21, 24, 27, 30, 33, 36, 39, 42], "discount_rate": 0.10, "years": 10}`)).Outcome)
	wantNPV, err := oracle.New().Scalar(oracle.RenewableEnergy, oracle.MetricNPV, oracle.Params{})
	require.NoError(t, err)
	assert.Equal(t, wantNPV, cba["npv"])

	short := e.ExecuteOne(ctx, call("calculate_cost_benefit_analysis",
		`{"initial_investment": 100, "annual_benefits": [15], "discount_rate": 0.10, "years": 10}`)).Outcome
	require.NotNil(t, short.Err)
	assert.Equal(t, types.ErrInvalid, short.Err.Kind)

	corr := payload(t, e.ExecuteOne(ctx, call("analyze_correlation", `{
		"data_points": [
			{"growth_rate": 0.096, "risk_factor": 0.35},
			{"growth_rate": 0.187, "risk_factor": 0.55},
			{"growth_rate": 0.305, "risk_factor": 0.80}
		],
		"variable1": "growth_rate", "variable2": "risk_factor"}`)).Outcome)
	assert.Greater(t, corr["result"], 0.9)
	assert.Equal(t, "strong", corr["strength"])

	ratio := payload(t, e.ExecuteOne(ctx, call("calculate_ratio", `{"numerator": 1, "denominator": 3}`)).Outcome)
	assert.Equal(t, 0.333333, ratio["result"])

	zero := e.ExecuteOne(ctx, call("calculate_ratio", `{"numerator": 1, "denominator": 0}`)).Outcome
	require.NotNil(t, zero.Err)
}

func TestStoreAnswer(t *testing.T) {
	env := newTestEnv(state.WithDeliverableKeys("1", "2"))
	e := newTestExecutor(t, ScenarioResearch, env)
	ctx := context.Background()

	assert.Nil(t, e.ExecuteOne(ctx, call("store_answer", `{"key": 1, "value": 42}`)).Outcome.Err)
	assert.Nil(t, e.ExecuteOne(ctx, call("store_answer", `{"key": "2", "value": "renewable_energy"}`)).Outcome.Err)

	v, ok := env.State.Deliverable("1")
	require.True(t, ok)
	assert.Equal(t, int64(42), v, "integral numbers stay integers")

	again := e.ExecuteOne(ctx, call("store_answer", `{"key": "1", "value": 43}`)).Outcome
	require.NotNil(t, again.Err)
	assert.Equal(t, types.ErrInvalid, again.Err.Kind)

	undeclared := e.ExecuteOne(ctx, call("store_answer", `{"key": "9", "value": 1}`)).Outcome
	require.NotNil(t, undeclared.Err)
	assert.Equal(t, types.ErrInvalid, undeclared.Err.Kind)

	noValue := e.ExecuteOne(ctx, call("store_answer", `{"key": "2", "value": null}`)).Outcome
	require.NotNil(t, noValue.Err)
}

func TestDeliverableProtocol(t *testing.T) {
	env := newTestEnv(state.WithDeliverableKeys("renewable_energy", "cybersecurity"))
	env.AssignedKey = "renewable_energy"
	e := newTestExecutor(t, ScenarioResearchMultiAgent, env)
	ctx := context.Background()

	early := e.ExecuteOne(ctx, call("finish", `{"summary": "done"}`)).Outcome
	require.NotNil(t, early.Err, "finish before store_deliverable")
	assert.Equal(t, types.ErrInvalid, early.Err.Kind)

	wrong := e.ExecuteOne(ctx, call("store_deliverable", `{"key": "cybersecurity", "value": 1}`)).Outcome
	require.NotNil(t, wrong.Err)

	assert.Nil(t, e.ExecuteOne(ctx, call("store_deliverable", `{"key": "renewable_energy", "value": {"npv": 60.84}}`)).Outcome.Err)
	assert.Nil(t, e.ExecuteOne(ctx, call("finish", `{"summary": "done"}`)).Outcome.Err)
}

func TestFinanceTools_Poisoning(t *testing.T) {
	env := newTestEnv(state.WithGoals("Analyze NVTX", "Evaluate QuantumDynamics (ticker: QDYN) upside"))
	e := newTestExecutor(t, ScenarioFinance, env)
	ctx := context.Background()

	o := e.ExecuteOne(ctx, call("get_stock_price", `{"ticker": "QDYN"}`)).Outcome
	require.NotNil(t, o.Err)
	assert.Equal(t, types.ErrNotFound, o.Err.Kind)
	assert.Contains(t, o.Err.Message, "QDYN")

	assert.Nil(t, e.ExecuteOne(ctx, call("update_research_goal", `{"goal_index": 1, "status": "cancelled"}`)).Outcome.Err)

	reopen := e.ExecuteOne(ctx, call("update_research_goal", `{"goal_index": 1, "status": "active"}`)).Outcome
	require.NotNil(t, reopen.Err, "cancelled is terminal")
	assert.Equal(t, types.ErrInvalid, reopen.Err.Kind)

	missing := e.ExecuteOne(ctx, call("update_research_goal", `{"goal_index": 5, "status": "completed"}`)).Outcome
	require.NotNil(t, missing.Err)
	assert.Equal(t, types.ErrNotFound, missing.Err.Kind)

	sector := e.ExecuteOne(ctx, call("analyze_sector", `{"sector": "crypto"}`)).Outcome
	require.NotNil(t, sector.Err)
	assert.Equal(t, types.ErrInvalid, sector.Err.Kind)

	tracked := payload(t, e.ExecuteOne(ctx, call("track_company", `{"ticker": "nvtx"}`)).Outcome)
	assert.Equal(t, true, tracked["added"])

	snap := payload(t, e.ExecuteOne(ctx, call("get_current_research_state", `{}`)).Outcome)
	assert.Len(t, snap["goals"], 2)

	assert.Nil(t, e.ExecuteOne(ctx, call("complete_research", `{"summary": "done"}`)).Outcome.Err)
	twice := e.ExecuteOne(ctx, call("complete_research", `{"summary": "again"}`)).Outcome
	require.NotNil(t, twice.Err)
}

func TestNormalizeArg(t *testing.T) {
	tests := []struct {
		tool, key string
		in, want  any
	}{
		{"get_order", "order_id", "#23456", "23456"},
		{"get_shipment", "order_id", " 23456 ", "23456"},
		{"get_carrier_incidents", "date", "today", store.Today},
		{"get_carrier_incidents", "date", "2025-12-14", "2025-12-14"},
		{"find_customer_by_email", "email", " Jane@Example.COM", "jane@example.com"},
		{"get_order", "reason", "#keep", "#keep"},
		{"get_stock_price", "ticker", "#QDYN", "#QDYN"},
		{"get_order", "order_id", 23456.0, 23456.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeArg(tt.tool, tt.key, tt.in), "%s.%s", tt.tool, tt.key)
	}
}
