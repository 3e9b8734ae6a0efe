package evaluation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/contextbench/agent/state"
	"github.com/BaSui01/contextbench/internal/metrics"
	"github.com/BaSui01/contextbench/runner"
	"github.com/BaSui01/contextbench/tasks"
	"github.com/BaSui01/contextbench/types"
)

const tracerName = "github.com/BaSui01/contextbench/agent/evaluation"

// Subject is one agent prepared for one record.
type Subject struct {
	Agent   runner.Agent
	Initial []types.Message
	// State is the research state the agent's tools mutate, if any.
	State    *state.Research
	Scenario string
}

// SubjectFactory builds a fresh agent for rec. Subjects never share state.
type SubjectFactory func(ctx context.Context, rec *tasks.Record) (*Subject, error)

// EvaluatorSet picks the evaluators for rec.
type EvaluatorSet func(rec *tasks.Record) []Evaluator

// ExampleResult is the outcome of one record.
type ExampleResult struct {
	Metadata   tasks.Metadata `json:"metadata"`
	RunID      string         `json:"run_id,omitempty"`
	Status     runner.Status  `json:"status,omitempty"`
	Turns      int            `json:"turns"`
	Duration   time.Duration  `json:"duration"`
	Scores     []Score        `json:"scores"`
	Diagnostic string         `json:"diagnostic,omitempty"`
	// Error is set when the example could not be run or failed mid-run.
	Error   string   `json:"error,omitempty"`
	Outputs *Outputs `json:"outputs,omitempty"`
}

// Score returns the score under key.
func (r *ExampleResult) Score(key string) (Score, bool) {
	for _, s := range r.Scores {
		if s.Key == key {
			return s, true
		}
	}
	return Score{}, false
}

// BatchConfig configures a Batch.
type BatchConfig struct {
	// Concurrency bounds the examples run at once.
	Concurrency int `yaml:"concurrency" json:"concurrency"`
	// KeepOutputs attaches run outputs to each result.
	KeepOutputs bool `yaml:"keep_outputs" json:"keep_outputs"`
}

// Batch runs a dataset through the driver and scores every example. One
// example failing never stops the others.
type Batch struct {
	driver     *runner.Driver
	subjects   SubjectFactory
	evaluators EvaluatorSet
	cfg        BatchConfig
	metrics    *metrics.Collector
	tracer     trace.Tracer
	logger     *zap.Logger
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithEvaluators replaces the default evaluator selection.
func WithEvaluators(set EvaluatorSet) BatchOption {
	return func(b *Batch) { b.evaluators = set }
}

// WithBatchMetrics records scores on c.
func WithBatchMetrics(c *metrics.Collector) BatchOption {
	return func(b *Batch) { b.metrics = c }
}

// NewBatch creates a batch runner. Without WithEvaluators it uses Defaults
// with no consistency judge.
func NewBatch(driver *runner.Driver, subjects SubjectFactory, cfg BatchConfig, logger *zap.Logger, opts ...BatchOption) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	b := &Batch{
		driver:   driver,
		subjects: subjects,
		cfg:      cfg,
		tracer:   otel.Tracer(tracerName),
		logger:   logger.With(zap.String("component", "batch")),
	}
	b.evaluators = func(rec *tasks.Record) []Evaluator { return Defaults(rec, nil, b.logger) }
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run evaluates every record and aggregates the scores. It only fails when
// ctx is cancelled; per-example failures are in the report.
func (b *Batch) Run(ctx context.Context, records []tasks.Record) (*Report, error) {
	results := make([]ExampleResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i := range records {
		rec := &records[i]
		g.Go(func() error {
			results[i] = b.runOne(gctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return NewReport(results), fmt.Errorf("batch cancelled: %w", err)
	}
	return NewReport(results), nil
}

func (b *Batch) runOne(ctx context.Context, rec *tasks.Record) ExampleResult {
	result := ExampleResult{Metadata: rec.Metadata, Scores: []Score{}}
	taskID := strconv.Itoa(rec.Metadata.TaskID)
	logger := b.logger.With(zap.String("task_id", taskID), zap.String("dataset", rec.Metadata.Dataset))

	ctx, span := b.tracer.Start(ctx, "evaluation.example", trace.WithAttributes(
		attribute.String("example.task_id", taskID),
		attribute.String("example.name", rec.Metadata.Name),
		attribute.String("example.dataset", rec.Metadata.Dataset),
	))
	defer span.End()

	subject, err := b.subjects(ctx, rec)
	if err != nil {
		logger.Error("build agent", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "build agent")
		result.Error = err.Error()
		return result
	}

	res, err := b.driver.Run(ctx, subject.Agent, subject.Initial,
		runner.WithScenario(subject.Scenario),
		runner.WithTaskID(taskID),
	)
	if err != nil {
		logger.Warn("run failed; scoring partial output", zap.Error(err))
		span.RecordError(err)
		result.Error = err.Error()
	}
	if res == nil {
		span.SetStatus(codes.Error, "no run result")
		return result
	}
	result.RunID = res.RunID
	result.Status = res.Status
	result.Turns = res.Turns
	result.Duration = res.Duration
	if res.Diagnostic != nil {
		result.Diagnostic = res.Diagnostic.Error()
	}

	out := OutputsFrom(res, subject.State)
	for _, ev := range b.evaluators(rec) {
		s := b.evaluate(ctx, ev, rec, out, logger)
		result.Scores = append(result.Scores, s)
		b.metrics.RecordScore(s.Key, s.Score)
		span.SetAttributes(attribute.Float64("score."+s.Key, s.Score))
	}
	if b.cfg.KeepOutputs {
		result.Outputs = out
	}

	logger.Info("example scored",
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.Status)),
		zap.Int("scores", len(result.Scores)),
	)
	return result
}

// evaluate runs one evaluator. A panic scores 0 with the panic as comment.
func (b *Batch) evaluate(ctx context.Context, ev Evaluator, rec *tasks.Record, out *Outputs, logger *zap.Logger) (s Score) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("evaluator panicked", zap.String("key", ev.Key()), zap.Any("recover", r))
			s = Score{Key: ev.Key(), Score: 0, Comment: fmt.Sprintf("evaluator panicked: %v", r)}
		}
	}()
	return ev.Evaluate(ctx, rec, out)
}
