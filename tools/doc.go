// Package tools is the tool surface agents act through.
//
// Every tool has a closed JSON argument schema and returns a types.ToolOutcome,
// either {"ok": payload} or {"err": {"kind": ..., "message": ...}}. Handlers
// never return Go errors: unknown ids are not_found, malformed arguments and
// illegal combinations are invalid.
//
// A Registry holds the tools of one scenario (see NewScenarioRegistry). An
// Executor binds a Registry to a run's Env and executes tool calls in
// emission order with a per-tool timeout.
package tools
