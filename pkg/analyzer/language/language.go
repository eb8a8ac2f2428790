// Package language computes the language distribution of a file set.
package language

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/panbanda/triage/internal/fileproc"
	"github.com/panbanda/triage/pkg/langs"
	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/source"
)

// HeadSize is how much of an unidentified file is scored.
const HeadSize = 1000

// Detector classifies files and aggregates their line counts by language.
type Detector struct {
	workers int
	logger  *slog.Logger
}

// Option is a functional option for configuring Detector.
type Option func(*Detector)

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

// New creates a language detector.
func New(opts ...Option) *Detector {
	d := &Detector{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Classify returns the language of path, consulting the name first and the
// content signatures second.
func Classify(path string, content []byte) (string, bool) {
	if info, ok := langs.Lookup(path); ok {
		return info.Name, true
	}
	return DetectContent(content)
}

type fileLanguage struct {
	language string
	lines    int
}

// Detect returns the language distribution of files, sorted by line count
// descending. Unreadable and unclassifiable files are left out of the
// distribution. The only error returned is the context's.
func (d *Detector) Detect(ctx context.Context, src source.ContentSource, files []string) ([]models.LanguageStat, error) {
	results, errs := fileproc.ForEachFile(ctx, files, d.workers, func(_ context.Context, path string) (fileLanguage, error) {
		if info, ok := langs.Lookup(path); ok {
			content, err := src.Read(path)
			if err != nil {
				return fileLanguage{}, err
			}
			return fileLanguage{language: info.Name, lines: source.CountLines(content)}, nil
		}

		head, err := source.Head(src, path, HeadSize)
		if err != nil {
			return fileLanguage{}, err
		}
		lang, ok := DetectContent(head)
		if !ok {
			return fileLanguage{}, nil
		}
		content, err := src.Read(path)
		if err != nil {
			return fileLanguage{}, err
		}
		return fileLanguage{language: lang, lines: source.CountLines(content)}, nil
	})
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	if errs.HasErrors() {
		for _, e := range errs.Errors {
			d.logger.Debug("language: skipped file", slog.String("path", e.Path), slog.Any("error", e.Err))
		}
	}

	return distribution(results), nil
}

func distribution(results []fileLanguage) []models.LanguageStat {
	counts := make(map[string]int)
	total := 0
	for _, r := range results {
		// Empty files carry no lines to attribute.
		if r.language == "" || r.lines == 0 {
			continue
		}
		counts[r.language] += r.lines
		total += r.lines
	}

	stats := make([]models.LanguageStat, 0, len(counts))
	for name, lines := range counts {
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(lines)/float64(total)*10000) / 100
		}
		stats = append(stats, models.LanguageStat{Name: name, LineCount: lines, Percentage: pct})
	}
	slices.SortFunc(stats, func(a, b models.LanguageStat) int {
		if c := cmp.Compare(b.LineCount, a.LineCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return stats
}
