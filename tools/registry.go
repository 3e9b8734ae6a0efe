package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/agent/state"
	"github.com/BaSui01/contextbench/store"
	"github.com/BaSui01/contextbench/types"
)

// Class groups tools by how the harness treats their exchanges.
type Class string

const (
	ClassLookup      Class = "lookup"
	ClassAction      Class = "action"
	ClassCalculation Class = "calculation"
	ClassState       Class = "state"
	ClassCommit      Class = "commit"
)

// Env is the per-run environment a handler operates on. Stores are shared
// and read-only; State belongs to the run.
type Env struct {
	Stores *store.Stores
	State  *state.Research
	// AssignedKey is the deliverable key of a researcher subagent. Empty
	// outside the multi-agent scenario.
	AssignedKey string
}

// Handler executes a tool. Failures are reported through the err arm of the
// outcome, never as Go errors.
type Handler func(ctx context.Context, env *Env, args json.RawMessage) types.ToolOutcome

// Metadata describes a registered tool.
type Metadata struct {
	Schema  types.ToolSchema
	Class   Class
	Timeout time.Duration // default 5s
}

// Registry holds a scenario's tools in registration order.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	metadata map[string]Metadata
	order    []string
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		metadata: make(map[string]Metadata),
		logger:   logger.With(zap.String("component", "tool_registry")),
	}
}

// Register adds a tool.
func (r *Registry) Register(name string, fn Handler, metadata Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	// 校验 Schema
	if metadata.Schema.Name == "" {
		metadata.Schema.Name = name
	}
	if metadata.Schema.Name != name {
		return fmt.Errorf("tool name mismatch: schema.Name=%s, register name=%s", metadata.Schema.Name, name)
	}
	if metadata.Class == "" {
		metadata.Class = ClassLookup
	}
	if metadata.Timeout == 0 {
		metadata.Timeout = 5 * time.Second
	}

	r.handlers[name] = fn
	r.metadata[name] = metadata
	r.order = append(r.order, name)

	r.logger.Debug("tool registered", zap.String("name", name), zap.String("class", string(metadata.Class)))
	return nil
}

// MustRegister is Register for static tool tables.
func (r *Registry) MustRegister(name string, fn Handler, metadata Metadata) {
	if err := r.Register(name, fn, metadata); err != nil {
		panic(err)
	}
}

// Get returns a tool's handler and metadata.
func (r *Registry) Get(name string) (Handler, Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.handlers[name]
	if !ok {
		return nil, Metadata{}, types.Errorf(types.ErrNotFound, "tool %s not found", name)
	}
	return fn, r.metadata[name], nil
}

// List returns the tool schemas in registration order.
func (r *Registry) List() []types.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]types.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.metadata[name].Schema)
	}
	return schemas
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ClassOf returns the class of a registered tool, falling back to the
// static classification for unknown names.
func (r *Registry) ClassOf(name string) Class {
	r.mu.RLock()
	meta, ok := r.metadata[name]
	r.mu.RUnlock()
	if ok {
		return meta.Class
	}
	return Classify(name)
}

// =============================================================================
// Static classification
// =============================================================================

// CalculationTools is the calculation-class set purged from history on commit.
var CalculationTools = []string{
	"calculate_compound_growth",
	"calculate_cost_benefit_analysis",
	"analyze_correlation",
	"analyze_historical_trends",
	"calculate_percentage",
	"calculate_ratio",
	"calculate_power",
	"calculate_sum",
	"calculate_weighted_average",
	"calculate_discount_factor",
	"calculate_present_value",
}

// CommitTools bind a deliverable value.
var CommitTools = []string{"store_answer", "store_deliverable"}

var (
	calcSet   = toSet(CalculationTools)
	commitSet = toSet(CommitTools)
)

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// IsCalculation reports whether name is in the calculation-class set.
func IsCalculation(name string) bool { return calcSet[name] }

// IsCommit reports whether name is a commit tool.
func IsCommit(name string) bool { return commitSet[name] }

// Classify returns the static class of a tool name.
func Classify(name string) Class {
	switch {
	case calcSet[name]:
		return ClassCalculation
	case commitSet[name], name == "finish":
		return ClassCommit
	default:
		return ClassLookup
	}
}
