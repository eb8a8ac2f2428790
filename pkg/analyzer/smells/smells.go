// Package smells flags long functions, overly complex functions, deep
// nesting and duplicated blocks.
package smells

import (
	"context"
	"log/slog"

	"github.com/panbanda/triage/internal/fileproc"
	"github.com/panbanda/triage/pkg/analyzer/complexity"
	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/source"
)

// Detector finds code smells in a file set.
// It is safe for concurrent use.
type Detector struct {
	thresholds Thresholds
	workers    int
	logger     *slog.Logger
}

// Option is a functional option for configuring Detector.
type Option func(*Detector)

// WithThresholds sets custom detection thresholds. Zero fields keep their
// defaults.
func WithThresholds(t Thresholds) Option {
	return func(d *Detector) {
		d.thresholds = t
	}
}

// WithWorkers sets the worker pool size (<= 0 uses the default).
func WithWorkers(n int) Option {
	return func(d *Detector) {
		d.workers = n
	}
}

// WithLogger sets the logger used for skipped files.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a smell detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		thresholds: DefaultThresholds(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.thresholds = d.thresholds.withDefaults()
	return d
}

// Thresholds returns the effective thresholds.
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Detect returns every smell found in files: function smells and nesting
// per parsed file, followed by duplication across all readable files.
// Files that cannot be read or parsed are logged and skipped. The only
// error returned is the context's.
func (d *Detector) Detect(ctx context.Context, src source.ContentSource, files []string) ([]models.CodeSmell, error) {
	analysis, parseErrs, err := complexity.New(complexity.WithWorkers(d.workers)).Analyze(ctx, src, files)
	if err != nil {
		return nil, err
	}
	d.logSkipped("parse", parseErrs)

	out := []models.CodeSmell{}
	for _, fr := range analysis.Files {
		out = append(out, functionSmells(fr.Functions, d.thresholds)...)
		if fr.Tree != nil {
			out = append(out, nestingSmells(fr.Tree, d.thresholds)...)
		}
	}

	th := d.thresholds
	blocks, readErrs := fileproc.ForEachFile(ctx, files, d.workers, func(_ context.Context, path string) (fileBlocks, error) {
		content, err := src.Read(path)
		if err != nil {
			return fileBlocks{}, err
		}
		return windows(path, content, th.DuplicateWindow, th.DuplicateMinLines), nil
	})
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	d.logSkipped("duplication", readErrs)

	out = append(out, duplicationSmells(blocks, th.DuplicateBand)...)
	return out, nil
}

func (d *Detector) logSkipped(phase string, errs *fileproc.ProcessingErrors) {
	if !errs.HasErrors() {
		return
	}
	for _, e := range errs.Errors {
		d.logger.Debug("smells: skipped file",
			slog.String("phase", phase),
			slog.String("path", e.Path),
			slog.Any("error", e.Err))
	}
}
