// Package pipeline runs the analysis stages over a materialised workspace
// and persists the resulting report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/panbanda/triage/internal/scanner"
	"github.com/panbanda/triage/pkg/analyzer"
	"github.com/panbanda/triage/pkg/analyzer/deps"
	"github.com/panbanda/triage/pkg/analyzer/language"
	codemetrics "github.com/panbanda/triage/pkg/analyzer/metrics"
	"github.com/panbanda/triage/pkg/analyzer/smells"
	"github.com/panbanda/triage/pkg/config"
	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/report"
	"github.com/panbanda/triage/pkg/source"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout bounds a whole run.
	DefaultTimeout = 10 * time.Minute
	// persistTimeout bounds saving the partial report and final status
	// after the run's own context is gone.
	persistTimeout = 30 * time.Second
)

// ProjectStore records project lifecycle status.
type ProjectStore interface {
	UpdateStatus(ctx context.Context, projectID string, status models.ProjectStatus) error
}

// AnalysisStore persists finished reports.
type AnalysisStore interface {
	Save(ctx context.Context, projectID, agentType string, report *models.AnalysisReport) error
}

// LanguageDetector computes the language distribution.
type LanguageDetector interface {
	Detect(ctx context.Context, src source.ContentSource, files []string) ([]models.LanguageStat, error)
}

// DependencyAnalyzer finds declared dependencies and frameworks.
type DependencyAnalyzer interface {
	Analyze(ctx context.Context, root string) (*deps.Result, error)
}

// MetricsCalculator computes size and complexity metrics.
type MetricsCalculator interface {
	Calculate(ctx context.Context, src source.ContentSource, files []string) (models.CodeMetrics, error)
}

// SmellDetector finds code smells.
type SmellDetector interface {
	Detect(ctx context.Context, src source.ContentSource, files []string) ([]models.CodeSmell, error)
}

// Orchestrator sequences the analysis stages for one project at a time.
// It holds no per-run state and may serve concurrent runs.
type Orchestrator struct {
	projects ProjectStore
	reports  *report.Generator

	cfg     *config.Config
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics

	languages    LanguageDetector
	dependencies DependencyAnalyzer
	calculator   MetricsCalculator
	smells       SmellDetector
}

// Option is a functional option for configuring Orchestrator.
type Option func(*Orchestrator)

// WithConfig sets the configuration analyzers are built from.
func WithConfig(cfg *config.Config) Option {
	return func(o *Orchestrator) {
		if cfg != nil {
			o.cfg = cfg
		}
	}
}

// WithTimeout overrides the configured run timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithLogger sets the logger for the orchestrator and the analyzers it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegisterer registers pipeline metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *Orchestrator) {
		o.metrics = newMetrics(reg)
	}
}

// WithTracer sets the tracer used for run and stage spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithLanguageDetector replaces the language stage.
func WithLanguageDetector(d LanguageDetector) Option {
	return func(o *Orchestrator) { o.languages = d }
}

// WithDependencyAnalyzer replaces the dependency stage.
func WithDependencyAnalyzer(a DependencyAnalyzer) Option {
	return func(o *Orchestrator) { o.dependencies = a }
}

// WithMetricsCalculator replaces the metrics stage.
func WithMetricsCalculator(c MetricsCalculator) Option {
	return func(o *Orchestrator) { o.calculator = c }
}

// WithSmellDetector replaces the smell stage.
func WithSmellDetector(d SmellDetector) Option {
	return func(o *Orchestrator) { o.smells = d }
}

// New creates an orchestrator writing status to projects and reports to
// analyses.
func New(projects ProjectStore, analyses AnalysisStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		projects: projects,
		cfg:      config.DefaultConfig(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("github.com/panbanda/triage/pkg/pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = newMetrics(nil)
	}
	o.reports = report.New(analyses)

	workers := o.cfg.Pipeline.Workers
	if o.languages == nil {
		o.languages = language.New(language.WithWorkers(workers), language.WithLogger(o.logger))
	}
	if o.dependencies == nil {
		o.dependencies = deps.New(
			deps.WithMaxDepth(o.cfg.Dependencies.MaxDepth),
			deps.WithSkipDirs(o.cfg.Dependencies.SkipDirs),
			deps.WithLogger(o.logger),
		)
	}
	if o.calculator == nil {
		o.calculator = codemetrics.New(codemetrics.WithWorkers(workers), codemetrics.WithLogger(o.logger))
	}
	if o.smells == nil {
		o.smells = smells.New(
			smells.WithThresholds(o.cfg.Thresholds),
			smells.WithWorkers(workers),
			smells.WithLogger(o.logger),
		)
	}
	return o
}

// Timeout returns the effective run timeout.
func (o *Orchestrator) Timeout() time.Duration {
	switch {
	case o.timeout > 0:
		return o.timeout
	case o.cfg.Pipeline.Timeout > 0:
		return o.cfg.Pipeline.Timeout
	default:
		return DefaultTimeout
	}
}

// RunAnalysis analyzes the workspace at workDir for projectID.
//
// The project moves to analyzing, then to completed once the report is
// saved. Discovery failure, an empty workspace, report persistence failure
// and the timeout are fatal: a partial report is saved, the project moves
// to failed and the error is returned. Failures in the languages,
// dependencies, metrics and smells stages only empty that part of the
// report. workDir is removed when the run ends, whatever the outcome.
func (o *Orchestrator) RunAnalysis(ctx context.Context, projectID, workDir string) (err error) {
	logger := o.logger.With(slog.String("project_id", projectID))
	ctx, span := o.tracer.Start(ctx, "pipeline.RunAnalysis",
		trace.WithAttributes(attribute.String("project.id", projectID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	defer o.removeWorkspace(workDir, logger)

	if err := o.projects.UpdateStatus(ctx, projectID, models.ProjectAnalyzing); err != nil {
		o.metrics.runs.WithLabelValues(outcomeFailed).Inc()
		return fmt.Errorf("mark project %s analyzing: %w", projectID, err)
	}

	timeout := o.Timeout()
	runCtx, cancel := context.WithTimeoutCause(ctx, timeout, ErrTimeout)
	defer cancel()

	data := report.Data{StartTime: time.Now()}
	runErr := o.run(runCtx, logger, projectID, workDir, &data)

	// The run context may be cancelled by now; status and the partial
	// report are still written.
	finishCtx, finishCancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer finishCancel()

	if runErr != nil {
		o.fail(finishCtx, logger, projectID, data, runErr, timeout)
		o.metrics.runs.WithLabelValues(outcomeFailed).Inc()
		return runErr
	}

	if err := o.projects.UpdateStatus(finishCtx, projectID, models.ProjectCompleted); err != nil {
		o.metrics.runs.WithLabelValues(outcomeFailed).Inc()
		return fmt.Errorf("mark project %s completed: %w", projectID, err)
	}
	o.metrics.runs.WithLabelValues(outcomeCompleted).Inc()
	logger.Info("analysis completed", slog.Duration("elapsed", time.Since(data.StartTime)))
	return nil
}

// run executes every stage. Only fatal errors are returned.
func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, projectID, workDir string, data *report.Data) error {
	var files []string
	if err := o.stage(ctx, analyzer.StageDiscover, func(ctx context.Context) error {
		var err error
		files, err = o.discover(ctx, logger, workDir)
		return err
	}); err != nil {
		return o.fatal(ctx, analyzer.StageDiscover, err)
	}

	src := source.NewRooted(workDir, o.cfg.Pipeline.MaxFileSize)

	o.degradable(ctx, logger, analyzer.StageLanguages, func(ctx context.Context) error {
		stats, err := o.languages.Detect(ctx, src, files)
		if err == nil {
			data.Languages = stats
		}
		return err
	})
	if err := interrupted(ctx, analyzer.StageLanguages); err != nil {
		return err
	}

	o.degradable(ctx, logger, analyzer.StageDependencies, func(ctx context.Context) error {
		res, err := o.dependencies.Analyze(ctx, workDir)
		if err == nil {
			data.Dependencies = res.Dependencies
			data.Frameworks = res.Frameworks
		}
		return err
	})
	if err := interrupted(ctx, analyzer.StageDependencies); err != nil {
		return err
	}

	o.degradable(ctx, logger, analyzer.StageMetrics, func(ctx context.Context) error {
		m, err := o.calculator.Calculate(ctx, src, files)
		if err == nil {
			data.Metrics = m
		}
		return err
	})
	if err := interrupted(ctx, analyzer.StageMetrics); err != nil {
		return err
	}

	o.degradable(ctx, logger, analyzer.StageSmells, func(ctx context.Context) error {
		issues, err := o.smells.Detect(ctx, src, files)
		if err == nil {
			data.Issues = issues
		}
		return err
	})
	if err := interrupted(ctx, analyzer.StageSmells); err != nil {
		return err
	}

	if err := o.stage(ctx, analyzer.StageReport, func(ctx context.Context) error {
		data.EndTime = time.Now()
		return o.reports.Save(ctx, projectID, o.reports.Generate(*data))
	}); err != nil {
		return o.fatal(ctx, analyzer.StageReport, err)
	}
	return nil
}

// discover lists the workspace's source files relative to workDir.
func (o *Orchestrator) discover(ctx context.Context, logger *slog.Logger, workDir string) ([]string, error) {
	info, err := os.Stat(workDir)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s: not a directory", workDir)
	}

	found, err := scanner.NewScanner(o.cfg).ScanDir(ctx, workDir)
	if err != nil {
		return nil, err
	}
	found, skipped := scanner.FilterBySize(found, o.cfg.Pipeline.MaxFileSize)
	if skipped > 0 {
		logger.Debug("discover: skipped oversized files", slog.Int("count", skipped))
	}
	o.metrics.filesDiscovered.Observe(float64(len(found)))
	if len(found) == 0 {
		return nil, ErrNoSourceFiles
	}
	return scanner.Relative(workDir, found), nil
}

// stage runs fn as a named stage: a span, a duration sample and panic
// recovery. A panic is returned as an error.
func (o *Orchestrator) stage(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.stage."+name,
		trace.WithAttributes(attribute.String("stage", name)))
	analyzer.BeginStage(ctx, name)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
		o.metrics.stageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			o.metrics.stageFailures.WithLabelValues(name).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return fn(ctx)
}

// degradable runs a stage whose failure leaves its part of the report empty.
func (o *Orchestrator) degradable(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) {
	err := o.stage(ctx, name, fn)
	if err == nil || ctx.Err() != nil {
		return
	}
	var p panicError
	if errors.As(err, &p) {
		logger.Error("stage panicked, continuing without its results",
			slog.String("stage", name), slog.Any("panic", p.value))
		return
	}
	logger.Warn("stage failed, continuing without its results",
		slog.String("stage", name), slog.Any("error", err))
}

// fatal wraps a fatal stage error, preferring the timeout when the run's
// deadline caused it.
func (o *Orchestrator) fatal(ctx context.Context, name string, err error) error {
	if cerr := interrupted(ctx, name); cerr != nil {
		return cerr
	}
	return &StageError{Stage: name, Err: err}
}

// interrupted returns a StageError when ctx is done, carrying ErrTimeout
// for a deadline and the context error otherwise.
func interrupted(ctx context.Context, name string) error {
	if ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrTimeout) {
		return &StageError{Stage: name, Err: ErrTimeout}
	}
	return &StageError{Stage: name, Err: cause}
}

// fail saves a partial report and marks the project failed. Errors here
// are logged; the run's own error is what the caller sees.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, projectID string, data report.Data, runErr error, timeout time.Duration) {
	cause := runErr
	if errors.Is(runErr, ErrTimeout) {
		cause = fmt.Errorf("analysis timed out after %s", timeout)
	}
	logger.Error("analysis failed", slog.Any("error", runErr))

	data.EndTime = time.Now()
	partial := o.reports.GeneratePartial(data, cause)
	if err := o.reports.Save(ctx, projectID, partial); err != nil {
		logger.Error("save partial report", slog.Any("error", err))
	}
	if err := o.projects.UpdateStatus(ctx, projectID, models.ProjectFailed); err != nil {
		logger.Error("mark project failed", slog.Any("error", err))
	}
}

func (o *Orchestrator) removeWorkspace(workDir string, logger *slog.Logger) {
	if err := os.RemoveAll(workDir); err != nil {
		logger.Warn("remove workspace", slog.String("path", workDir), slog.Any("error", err))
	}
}
