package tools

import (
	"context"
	"strings"

	"github.com/BaSui01/contextbench/agent/state"
	"github.com/BaSui01/contextbench/types"
)

type tickerArgs struct {
	Ticker string `json:"ticker" validate:"required"`
}

type sectorArgs struct {
	Sector string `json:"sector" validate:"required"`
}

type addGoalArgs struct {
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type updateGoalArgs struct {
	GoalIndex *int   `json:"goal_index" validate:"required,gte=0"`
	Status    string `json:"status" validate:"required,oneof=active completed cancelled"`
}

type noteArgs struct {
	Topic string `json:"topic" validate:"required"`
	Note  string `json:"note" validate:"required"`
}

type summaryArgs struct {
	Summary string `json:"summary" validate:"required"`
}

type noArgs struct{}

func researchState(env *Env) (*state.Research, types.ToolOutcome, bool) {
	if env.State == nil {
		return nil, types.Fail(types.ErrInternal, "no research state bound to this run"), false
	}
	return env.State, types.ToolOutcome{}, true
}

// registerFinance adds the financial-research tools. Every lookup miss names
// the identifier so a caller can tell which fact was wrong.
func registerFinance(r *Registry) {
	ticker := req("ticker", str(), "Stock ticker, e.g. NVTX")

	r.add(describe("get_current_research_state", "Get the research goals, tracked companies, notes and summaries.", ClassState),
		typed(func(_ context.Context, env *Env, _ noArgs) types.ToolOutcome {
			st, fail, ok := researchState(env)
			if !ok {
				return fail
			}
			return types.OK(st.Snapshot())
		}))

	r.add(describe("get_stock_price", "Get the latest price of a stock.", ClassLookup, ticker),
		typed(func(_ context.Context, env *Env, a tickerArgs) types.ToolOutcome {
			q, ok := env.Stores.Finance.Quote(a.Ticker)
			if !ok {
				return types.Fail(types.ErrNotFound, "ticker %s not found", strings.ToUpper(strings.TrimSpace(a.Ticker)))
			}
			return types.OK(q)
		}))

	r.add(describe("get_company_info", "Get a company profile.", ClassLookup, ticker),
		typed(func(_ context.Context, env *Env, a tickerArgs) types.ToolOutcome {
			c, ok := env.Stores.Finance.Company(a.Ticker)
			if !ok {
				return types.Fail(types.ErrNotFound, "ticker %s not found", strings.ToUpper(strings.TrimSpace(a.Ticker)))
			}
			return types.OK(c)
		}))

	r.add(describe("analyze_sector", "Get a sector's outlook, members and valuation.", ClassLookup,
		req("sector", str(), "Sector name, e.g. technology")),
		typed(func(_ context.Context, env *Env, a sectorArgs) types.ToolOutcome {
			s, ok := env.Stores.Finance.Sector(a.Sector)
			if !ok {
				return types.Fail(types.ErrInvalid, "unknown sector %q (valid: %s)", a.Sector, strings.Join(env.Stores.Finance.SectorNames(), ", "))
			}
			return types.OK(s)
		}))

	r.add(describe("add_research_goal", "Add an active research goal.", ClassState,
		req("description", str(), "What to find out"),
		opt("priority", types.NewEnumSchema("low", "medium", "high"), "Priority")),
		typed(func(_ context.Context, env *Env, a addGoalArgs) types.ToolOutcome {
			st, fail, ok := researchState(env)
			if !ok {
				return fail
			}
			return types.OK(st.AddGoal(a.Description, a.Priority))
		}))

	r.add(describe("update_research_goal", "Mark a goal completed or cancelled. Completed and cancelled goals are final.", ClassState,
		req("goal_index", integer().WithMinimum(0), "0-based goal index from get_current_research_state"),
		req("status", types.NewEnumSchema("active", "completed", "cancelled"), "New status")),
		typed(func(_ context.Context, env *Env, a updateGoalArgs) types.ToolOutcome {
			st, fail, ok := researchState(env)
			if !ok {
				return fail
			}
			status, err := state.ParseGoalStatus(a.Status)
			if err != nil {
				return types.Fail(types.ErrInvalid, "%v", err)
			}
			g, err := st.UpdateGoal(*a.GoalIndex, status)
			if err != nil {
				return failFrom(err)
			}
			return types.OK(g)
		}))

	r.add(describe("track_company", "Add a company to the tracked list.", ClassState, ticker),
		typed(func(_ context.Context, env *Env, a tickerArgs) types.ToolOutcome {
			st, fail, ok := researchState(env)
			if !ok {
				return fail
			}
			c, found := env.Stores.Finance.Company(a.Ticker)
			if !found {
				return types.Fail(types.ErrNotFound, "ticker %s not found", strings.ToUpper(strings.TrimSpace(a.Ticker)))
			}
			added := st.Track(c.Ticker)
			return types.OK(map[string]any{"ticker": c.Ticker, "added": added, "tracked": st.Tracked()})
		}))

	r.add(describe("add_research_note", "Attach a note to a topic.", ClassState,
		req("topic", str(), "Topic or ticker"), req("note", str(), "Note text")),
		typed(func(_ context.Context, env *Env, a noteArgs) types.ToolOutcome {
			st, fail, ok := researchState(env)
			if !ok {
				return fail
			}
			st.AddNote(a.Topic, a.Note)
			return types.OK(map[string]any{"topic": a.Topic, "notes": len(st.Snapshot().Notes[a.Topic])})
		}))

	r.add(describe("create_research_summary", "Record an interim research summary.", ClassState,
		req("summary", str(), "Summary text")),
		typed(func(_ context.Context, env *Env, a summaryArgs) types.ToolOutcome {
			st, fail, ok := researchState(env)
			if !ok {
				return fail
			}
			return types.OK(map[string]any{"summary_number": st.AddSummary(a.Summary)})
		}))

	r.add(describe("complete_research", "Finish the research with a final summary.", ClassState,
		req("summary", str(), "Final summary")),
		typed(func(_ context.Context, env *Env, a summaryArgs) types.ToolOutcome {
			st, fail, ok := researchState(env)
			if !ok {
				return fail
			}
			if err := st.Complete(a.Summary); err != nil {
				return failFrom(err)
			}
			open := 0
			for _, g := range st.Goals() {
				if g.Status == state.GoalActive {
					open++
				}
			}
			return types.OK(map[string]any{"completed": true, "open_goals": open})
		}))
}
