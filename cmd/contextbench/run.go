package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/agent/evaluation"
	"github.com/BaSui01/contextbench/config"
	"github.com/BaSui01/contextbench/internal/metrics"
	"github.com/BaSui01/contextbench/internal/remote"
	"github.com/BaSui01/contextbench/internal/server"
	"github.com/BaSui01/contextbench/internal/telemetry"
	"github.com/BaSui01/contextbench/runner"
	"github.com/BaSui01/contextbench/tasks"
)

// shutdownTimeout bounds flushing telemetry and stopping the metrics endpoint.
const shutdownTimeout = 5 * time.Second

type runFlags struct {
	dataset     string
	task        int
	questions   string
	scenario    string
	from        string
	agent       string
	judge       string
	output      string
	langsmith   bool
	concurrency int
	maxTurns    int
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate an agent on a dataset or a single task",
		Long: `Run evaluates every task of a dataset, or a single task, and prints a
score table. Each example gets a fresh agent, fresh stores and fresh state.

Examples:
  contextbench run --dataset finance-poisoning
  contextbench run --task 3 --questions "1,4-6"
  contextbench run --case 102 --scenario shipping_consolidated
  contextbench run --dataset research-multiagent --judge llm --langsmith
  contextbench run --from exported.yaml --output report.json

Exit Codes:
  0  every example ran
  1  the run failed or some examples errored
  2  unknown dataset or task, --langsmith without remote endpoint and API
     key, or an LLM agent or judge without a provider`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.dataset, "dataset", "", "dataset name (default from run.dataset)")
	fl.IntVar(&f.task, "task", 0, "run a single task by id")
	fl.IntVar(&f.task, "case", 0, "alias of --task")
	fl.StringVar(&f.questions, "questions", "", `restrict to question numbers, e.g. "5,7-9"`)
	fl.StringVar(&f.scenario, "scenario", "", "run on another tool surface of the same family")
	fl.StringVar(&f.from, "from", "", "evaluate records from an exported dataset file")
	fl.StringVar(&f.agent, "agent", "", "agent kind: replay or llm")
	fl.StringVar(&f.judge, "judge", "", "consistency judge: numeric, llm or none")
	fl.StringVarP(&f.output, "output", "o", "", "write the JSON report to a file")
	fl.BoolVar(&f.langsmith, "langsmith", false, "upload the results to the remote experiment store")
	fl.IntVar(&f.concurrency, "concurrency", 0, "examples run at once")
	fl.IntVar(&f.maxTurns, "max-turns", 0, "turn budget per run")
	cmd.MarkFlagsMutuallyExclusive("task", "case")
	cmd.MarkFlagsMutuallyExclusive("from", "dataset")
	cmd.MarkFlagsMutuallyExclusive("from", "task")
	cmd.MarkFlagsMutuallyExclusive("from", "case")
	cmd.MarkFlagsMutuallyExclusive("from", "questions")
	cmd.MarkFlagsMutuallyExclusive("from", "scenario")
	return cmd
}

// apply copies the flags that were set over the loaded config.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("dataset") {
		cfg.Run.Dataset = f.dataset
	}
	if changed("questions") {
		cfg.Run.Questions = f.questions
	}
	if changed("scenario") {
		cfg.Run.Scenario = f.scenario
	}
	if changed("agent") {
		cfg.Agent.Kind = f.agent
	}
	if changed("judge") {
		cfg.Judge.Kind = f.judge
	}
	if changed("output") {
		cfg.Run.Output = f.output
	}
	if changed("concurrency") {
		cfg.Run.Concurrency = f.concurrency
	}
	if changed("max-turns") {
		cfg.Run.MaxTurns = f.maxTurns
	}
}

func (a *app) run(cmd *cobra.Command, f *runFlags) error {
	ctx := cmd.Context()
	cfg := a.cfg
	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if f.langsmith && !cfg.Remote.Configured() {
		return missingf("--langsmith needs remote.endpoint and remote.api_key (CONTEXTBENCH_REMOTE_ENDPOINT, CONTEXTBENCH_REMOTE_API_KEY)")
	}

	p, err := buildPlan(tasks.Default(), selection{
		dataset:    cfg.Run.Dataset,
		datasetSet: cmd.Flags().Changed("dataset"),
		taskID:     f.task,
		questions:  cfg.Run.Questions,
		scenario:   cfg.Run.Scenario,
		from:       f.from,
	})
	if err != nil {
		return err
	}
	logger := a.logger.With(zap.String("dataset", p.dataset))

	// Initialize OpenTelemetry
	otelProviders, err := telemetry.Init(ctx, cfg.Telemetry, logger,
		telemetry.WithAttributes(attribute.String("contextbench.dataset", p.dataset)))
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelProviders.Shutdown(sctx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(cfg.Metrics.Namespace, registry, logger)
	if cfg.Metrics.Enabled {
		scfg := server.DefaultConfig()
		scfg.Addr = cfg.Metrics.Addr
		endpoint := server.NewEndpoint(registry, scfg, logger)
		if err := endpoint.Start(); err != nil {
			return fmt.Errorf("start metrics endpoint: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := endpoint.Shutdown(sctx); err != nil {
				logger.Warn("metrics endpoint shutdown", zap.Error(err))
			}
		}()
	}

	judge, closeJudge, err := buildJudge(cfg, collector, logger)
	if err != nil {
		return err
	}
	defer closeJudge()
	subjects, err := newSubjectBuilder(cfg, collector, logger)
	if err != nil {
		return err
	}

	driver := runner.NewDriver(runner.Config{MaxTurns: cfg.Run.MaxTurns, Timeout: cfg.Run.Timeout}, logger,
		runner.WithMetrics(collector))
	batch := evaluation.NewBatch(driver, subjects.factory(p),
		evaluation.BatchConfig{Concurrency: cfg.Run.Concurrency, KeepOutputs: cfg.Run.Output != ""},
		logger,
		evaluation.WithEvaluators(func(rec *tasks.Record) []evaluation.Evaluator {
			return evaluation.Defaults(rec, judge, logger)
		}),
		evaluation.WithBatchMetrics(collector),
	)

	logger.Info("starting evaluation",
		zap.Int("examples", len(p.records)),
		zap.String("agent", cfg.Agent.Kind),
		zap.String("judge", cfg.Judge.Kind),
		zap.Int("concurrency", cfg.Run.Concurrency))
	started := time.Now()
	report, err := batch.Run(ctx, p.records)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", p.dataset, err)
	}
	fmt.Fprintln(a.stdout, report.Table())

	if cfg.Run.Output != "" {
		if err := writeReport(cfg.Run.Output, report); err != nil {
			return err
		}
		logger.Info("report written", zap.String("path", cfg.Run.Output))
	}

	if f.langsmith {
		client, err := remote.NewClient(cfg.Remote, logger)
		if err != nil {
			return missingf("%w", err)
		}
		id, err := client.Upload(ctx, remote.NewExperiment(cfg.Remote.Project, p.dataset, started, report))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "uploaded experiment %s to project %s\n", id, cfg.Remote.Project)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d examples failed", report.Failed, len(report.Results))
	}
	logger.Info("evaluation finished", zap.Duration("elapsed", time.Since(started)))
	return nil
}

func writeReport(path string, report *evaluation.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
