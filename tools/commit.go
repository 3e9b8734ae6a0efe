package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/contextbench/types"
)

// AnswerKey is a deliverable key that also accepts a bare JSON number, so
// store_answer(key=1, ...) and store_answer(key="1", ...) mean the same.
type AnswerKey string

// UnmarshalJSON implements json.Unmarshaler.
func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = AnswerKey(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("key must be a string or integer: %w", err)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("key must be a string or integer, got %s", n)
	}
	*k = AnswerKey(n.String())
	return nil
}

type storeArgs struct {
	Key   AnswerKey `json:"key" validate:"required"`
	Value any       `json:"value" validate:"required"`
}

type finishArgs struct {
	Summary string `json:"summary" validate:"required"`
}

// NormalizeValue converts decoded json.Number values to int64 when integral
// and float64 otherwise, recursively.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = NormalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = NormalizeValue(e)
		}
		return out
	default:
		return v
	}
}

func commit(env *Env, key string, value any) types.ToolOutcome {
	if env.State == nil {
		return types.Fail(types.ErrInternal, "no research state bound to this run")
	}
	if err := env.State.StoreDeliverable(key, NormalizeValue(value)); err != nil {
		return failFrom(err)
	}
	return types.OK(map[string]any{
		"stored": key,
		"total":  len(env.State.Deliverables()),
	})
}

// failFrom maps a Go error from a typed state operation onto the tool wire.
func failFrom(err error) types.ToolOutcome {
	code := types.GetErrorCode(err)
	if code == "" {
		code = types.ErrInternal
	}
	msg := err.Error()
	if e, ok := types.AsError(err); ok {
		msg = e.Message
	}
	return types.Fail(code, "%s", msg)
}

// registerStoreAnswer adds the flat-variant commit tool.
func registerStoreAnswer(r *Registry) {
	r.add(describe("store_answer", "Commit the final answer to one numbered question. Each question can be answered once.", ClassCommit,
		req("key", str(), "Question number, \"1\"..\"N\""),
		req("value", &types.JSONSchema{}, "Answer value (number or string)")),
		typed(func(_ context.Context, env *Env, a storeArgs) types.ToolOutcome {
			return commit(env, string(a.Key), a.Value)
		}))
}

// registerDeliverables adds the researcher commit tools.
func registerDeliverables(r *Registry) {
	r.add(describe("store_deliverable", "Store your finding under your assigned deliverable key.", ClassCommit,
		req("key", str(), "Assigned deliverable key"),
		req("value", &types.JSONSchema{}, "Finding (number, string or object)")),
		typed(func(_ context.Context, env *Env, a storeArgs) types.ToolOutcome {
			key := string(a.Key)
			if env.AssignedKey != "" && key != env.AssignedKey {
				return types.Fail(types.ErrInvalid, "you are assigned deliverable %q, not %q", env.AssignedKey, key)
			}
			return commit(env, key, a.Value)
		}))

	r.add(describe("finish", "Report that your assignment is done. Call store_deliverable first.", ClassCommit,
		req("summary", str(), "One-paragraph summary of the finding")),
		typed(func(_ context.Context, env *Env, a finishArgs) types.ToolOutcome {
			if env.AssignedKey != "" {
				if env.State == nil {
					return types.Fail(types.ErrInternal, "no research state bound to this run")
				}
				if _, ok := env.State.Deliverable(env.AssignedKey); !ok {
					return types.Fail(types.ErrInvalid, "store_deliverable(key=%q) must be called before finish", env.AssignedKey)
				}
			}
			return types.OK(map[string]any{"status": "done", "key": env.AssignedKey, "summary": a.Summary})
		}))
}
