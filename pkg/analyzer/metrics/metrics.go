// Package metrics computes size, complexity and maintainability figures for
// a file set.
package metrics

import (
	"context"
	"log/slog"
	"math"

	"github.com/panbanda/triage/internal/fileproc"
	"github.com/panbanda/triage/pkg/analyzer/complexity"
	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/source"
)

// Calculator computes CodeMetrics.
type Calculator struct {
	workers    int
	logger     *slog.Logger
	complexity *complexity.Analyzer
}

// Option is a functional option for configuring Calculator.
type Option func(*Calculator)

// WithWorkers sets the worker pool size (<= 0 uses the default).
func WithWorkers(n int) Option {
	return func(c *Calculator) {
		c.workers = n
	}
}

// WithLogger sets the logger used for skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a metrics calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.complexity = complexity.New(complexity.WithWorkers(c.workers))
	return c
}

// MaintainabilityIndex is a single-input approximation of the classical
// index: it ignores Halstead volume and line counts, so values are not
// comparable with other tools. The result is clamped to [0, 100].
func MaintainabilityIndex(avgComplexity float64) float64 {
	if avgComplexity < 0 || math.IsNaN(avgComplexity) {
		avgComplexity = 0
	}
	mi := (171 - 5.2*math.Log(avgComplexity+1) - 0.23*avgComplexity) / 171 * 100
	return math.Max(0, math.Min(100, mi))
}

// Result is the calculator's output with the per-file detail kept.
type Result struct {
	Metrics   models.CodeMetrics
	Files     map[string]models.LineCounts
	Functions []models.FunctionMetric
}

type fileLOC struct {
	path   string
	counts models.LineCounts
}

// Calculate returns aggregate metrics for files. Unreadable files are
// skipped; files without a parser count toward line totals only.
func (c *Calculator) Calculate(ctx context.Context, src source.ContentSource, files []string) (models.CodeMetrics, error) {
	res, err := c.CalculateDetailed(ctx, src, files)
	if err != nil {
		return models.CodeMetrics{}, err
	}
	return res.Metrics, nil
}

// CalculateDetailed is Calculate with per-file line counts and the
// function table.
func (c *Calculator) CalculateDetailed(ctx context.Context, src source.ContentSource, files []string) (*Result, error) {
	locs, errs := fileproc.ForEachFile(ctx, files, c.workers, func(_ context.Context, path string) (fileLOC, error) {
		content, err := src.Read(path)
		if err != nil {
			return fileLOC{}, err
		}
		return fileLOC{path: path, counts: CountLOC(content, StyleFor(path))}, nil
	})
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	c.logSkipped("loc", errs)

	analysis, parseErrs, err := c.complexity.Analyze(ctx, src, files)
	if err != nil {
		return nil, err
	}
	c.logSkipped("complexity", parseErrs)

	res := &Result{Files: make(map[string]models.LineCounts, len(locs))}
	var lines models.LineCounts
	for _, f := range locs {
		res.Files[f.path] = f.counts
		lines.Add(f.counts)
	}

	res.Functions = analysis.Functions()
	res.Metrics = models.CodeMetrics{
		TotalFiles:           len(locs),
		TotalLines:           lines.Total,
		CodeLines:            lines.Code,
		CommentLines:         lines.Comment,
		BlankLines:           lines.Blank,
		TotalFunctions:       analysis.Summary.TotalFunctions,
		AverageComplexity:    round2(analysis.Summary.AvgComplexity),
		MaintainabilityIndex: round2(MaintainabilityIndex(analysis.Summary.AvgComplexity)),
	}
	return res, nil
}

func (c *Calculator) logSkipped(phase string, errs *fileproc.ProcessingErrors) {
	if !errs.HasErrors() {
		return
	}
	for _, e := range errs.Errors {
		c.logger.Debug("metrics: skipped file",
			slog.String("phase", phase),
			slog.String("path", e.Path),
			slog.Any("error", e.Err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
