// Package complexity builds per-function tables with cyclomatic complexity.
// Both the metrics calculator and the smell detector score functions through
// this package so their numbers agree.
package complexity

import (
	"context"
	"fmt"

	"github.com/panbanda/triage/internal/fileproc"
	"github.com/panbanda/triage/pkg/ast"
	"github.com/panbanda/triage/pkg/ast/treesitter"
	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/parser"
	"github.com/panbanda/triage/pkg/source"
	"github.com/panbanda/triage/pkg/stats"
)

// Analyzer computes function tables for source files.
type Analyzer struct {
	workers int
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithWorkers sets the worker pool size (<= 0 uses the default).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// New creates a new complexity analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cyclomatic returns 1 plus the number of decision points under fn.
// Decision points of nested functions are counted toward fn as well.
func Cyclomatic(fn *ast.Node) int {
	count := 1
	ast.Walk(fn, func(n *ast.Node) bool {
		if n.Kind.IsDecision() {
			count++
		}
		return true
	})
	return count
}

// FunctionTable scores every function in file, in source order.
func FunctionTable(file *ast.File) []models.FunctionMetric {
	fns := ast.Functions(file.Root)
	table := make([]models.FunctionMetric, 0, len(fns))
	for _, fn := range fns {
		table = append(table, models.FunctionMetric{
			Name:       fn.Name,
			File:       file.Path,
			Line:       fn.StartLine,
			LineCount:  fn.Lines(),
			Complexity: Cyclomatic(fn),
		})
	}
	return table
}

// AnalyzeFile parses path from src and builds its function table.
func AnalyzeFile(ctx context.Context, psr *parser.Parser, src source.ContentSource, path string) (*FileResult, error) {
	if !treesitter.Supported(path) {
		return nil, fmt.Errorf("%s: %w", path, parser.ErrUnsupportedLanguage)
	}
	content, err := src.Read(path)
	if err != nil {
		return nil, err
	}
	file, err := treesitter.ParseFile(ctx, psr, path, content)
	if err != nil {
		return nil, err
	}

	result := &FileResult{
		Path:      path,
		Language:  file.Language,
		Functions: FunctionTable(file),
		Tree:      file,
	}
	for _, fn := range result.Functions {
		result.TotalComplexity += fn.Complexity
	}
	return result, nil
}

// Analyze builds function tables for every parseable file in files.
// Files in other languages are skipped; unreadable or unparseable files are
// reported in the returned errors and otherwise ignored. The only error
// returned is the context's.
func (a *Analyzer) Analyze(ctx context.Context, src source.ContentSource, files []string) (*Analysis, *fileproc.ProcessingErrors, error) {
	parseable := make([]string, 0, len(files))
	for _, f := range files {
		if treesitter.Supported(f) {
			parseable = append(parseable, f)
		}
	}

	results, errs := fileproc.MapFiles(ctx, parseable, a.workers, func(ctx context.Context, psr *parser.Parser, path string) (FileResult, error) {
		fr, err := AnalyzeFile(ctx, psr, src, path)
		if err != nil {
			return FileResult{}, err
		}
		return *fr, nil
	})
	if err := context.Cause(ctx); err != nil {
		return nil, errs, err
	}
	return buildAnalysis(results), errs, nil
}

// buildAnalysis aggregates file tables. The average is weighted by function
// count, not by file.
func buildAnalysis(results []FileResult) *Analysis {
	analysis := &Analysis{Files: results}
	if analysis.Files == nil {
		analysis.Files = []FileResult{}
	}

	var all []float64
	for _, fr := range results {
		for _, fn := range fr.Functions {
			all = append(all, float64(fn.Complexity))
			analysis.Summary.TotalComplexity += fn.Complexity
			analysis.Summary.MaxComplexity = max(analysis.Summary.MaxComplexity, fn.Complexity)
		}
	}

	analysis.Summary.TotalFiles = len(results)
	analysis.Summary.TotalFunctions = len(all)
	analysis.Summary.AvgComplexity = stats.Mean(all)
	analysis.Summary.P50Complexity = stats.Percentile(all, 50)
	analysis.Summary.P90Complexity = stats.Percentile(all, 90)
	return analysis
}
