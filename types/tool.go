package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// ToolSchema defines a tool's interface for function calling.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolError is the err arm of a ToolOutcome.
type ToolError struct {
	Kind    ErrorCode `json:"kind"`
	Message string    `json:"message"`
}

// Error implements the error interface so a ToolError can travel as one when needed.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ToolOutcome is the tagged result of a tool: exactly one of OK or Err is set.
// Its wire shape is {"ok": payload} or {"err": {"kind": ..., "message": ...}}.
type ToolOutcome struct {
	OK  any        `json:"ok,omitempty"`
	Err *ToolError `json:"err,omitempty"`
}

// OK builds a successful outcome.
func OK(payload any) ToolOutcome {
	if payload == nil {
		payload = map[string]any{}
	}
	return ToolOutcome{OK: payload}
}

// Fail builds a failed outcome.
func Fail(kind ErrorCode, format string, args ...any) ToolOutcome {
	return ToolOutcome{Err: &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// IsError reports whether the outcome is the err arm.
func (o ToolOutcome) IsError() bool {
	return o.Err != nil
}

// Encode renders the outcome in its wire shape.
func (o ToolOutcome) Encode() string {
	data, err := json.Marshal(o)
	if err != nil {
		fallback, _ := json.Marshal(ToolOutcome{Err: &ToolError{Kind: ErrInternal, Message: err.Error()}})
		return string(fallback)
	}
	return string(data)
}

// DecodeInto unmarshals the ok payload into v.
func (o ToolOutcome) DecodeInto(v any) error {
	if o.Err != nil {
		return o.Err
	}
	data, err := json.Marshal(o.OK)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return json.Unmarshal(data, v)
}

// DecodeOutcome parses a tool message body. Bodies that are not in the wire
// shape are treated as an ok payload holding the raw text.
func DecodeOutcome(content string) ToolOutcome {
	var raw struct {
		OK  json.RawMessage `json:"ok"`
		Err *ToolError      `json:"err"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil || (raw.Err == nil && len(raw.OK) == 0) {
		return ToolOutcome{OK: content}
	}
	if raw.Err != nil {
		return ToolOutcome{Err: raw.Err}
	}
	var payload any
	if err := json.Unmarshal(raw.OK, &payload); err != nil {
		return ToolOutcome{OK: string(raw.OK)}
	}
	return ToolOutcome{OK: payload}
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	ToolCallID string        `json:"tool_call_id"`
	Name       string        `json:"name"`
	Outcome    ToolOutcome   `json:"outcome"`
	Duration   time.Duration `json:"duration"`
}

// ToMessage converts ToolResult to a Message.
func (tr ToolResult) ToMessage() Message {
	return NewToolMessage(tr.ToolCallID, tr.Name, tr.Outcome.Encode())
}

// IsError returns true if the tool execution failed.
func (tr ToolResult) IsError() bool {
	return tr.Outcome.IsError()
}
