// Package deps finds dependency manifests, parses declared dependencies and
// detects frameworks from them.
package deps

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/panbanda/triage/internal/fileproc"
	"github.com/panbanda/triage/pkg/models"
)

// DefaultMaxManifestSize caps how much of a manifest is read.
const DefaultMaxManifestSize = 5 << 20

// Result is the outcome of one dependency analysis.
type Result struct {
	Dependencies []models.Dependency `json:"dependencies"`
	Frameworks   []models.Framework  `json:"frameworks"`
	// Manifests lists every manifest found, relative to the root.
	Manifests []string `json:"manifests"`
	// Errors holds manifests that could not be read or parsed.
	Errors []fileproc.ProcessingError `json:"-"`
}

// Analyzer detects dependencies and frameworks under a root directory.
type Analyzer struct {
	maxDepth int
	skipDirs map[string]bool
	rules    []FrameworkRule
	logger   *slog.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithMaxDepth bounds the manifest search (<= 0 uses DefaultMaxDepth).
func WithMaxDepth(depth int) Option {
	return func(a *Analyzer) {
		if depth > 0 {
			a.maxDepth = depth
		}
	}
}

// WithSkipDirs replaces the directory names excluded from the search.
func WithSkipDirs(dirs []string) Option {
	return func(a *Analyzer) {
		a.skipDirs = make(map[string]bool, len(dirs))
		for _, d := range dirs {
			a.skipDirs[d] = true
		}
	}
}

// WithFrameworks replaces the framework table.
func WithFrameworks(rules []FrameworkRule) Option {
	return func(a *Analyzer) {
		a.rules = rules
	}
}

// WithLogger sets the logger used for manifest errors.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates a dependency analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		maxDepth: DefaultMaxDepth,
		rules:    Frameworks,
		logger:   slog.Default(),
	}
	WithSkipDirs(DefaultSkipDirs)(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze searches root for manifests, parses each and detects frameworks.
// A manifest that fails to read or parse is recorded in Result.Errors and
// the others are still used. Errors are returned only for an unreadable
// root or a cancelled context.
func (a *Analyzer) Analyze(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dependency root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dependency root %s: not a directory", root)
	}

	paths, err := findManifests(ctx, root, a.maxDepth, a.skipDirs)
	if err != nil {
		return nil, fmt.Errorf("find manifests: %w", err)
	}

	res := &Result{
		Dependencies: []models.Dependency{},
		Manifests:    make([]string, 0, len(paths)),
	}
	var parsed []parsedManifest
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		res.Manifests = append(res.Manifests, rel)

		m, err := parseManifest(path)
		if err != nil {
			a.logger.Debug("dependencies: skipped manifest", slog.String("path", rel), slog.Any("error", err))
			res.Errors = append(res.Errors, fileproc.ProcessingError{Path: rel, Err: err})
			continue
		}
		for i := range m.deps {
			m.deps[i].Manifest = rel
		}
		m.path = rel
		parsed = append(parsed, m)
		res.Dependencies = append(res.Dependencies, m.deps...)
	}

	res.Frameworks = detectFrameworks(parsed, a.rules)
	return res, nil
}

// parseManifest reads and parses one manifest file.
func parseManifest(path string) (parsedManifest, error) {
	name := filepath.Base(path)
	parse, ok := parsers[name]
	if !ok {
		return parsedManifest{}, fmt.Errorf("%s: unknown manifest", name)
	}

	f, err := os.Open(path)
	if err != nil {
		return parsedManifest{}, err
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, DefaultMaxManifestSize+1))
	if err != nil {
		return parsedManifest{}, err
	}
	if len(content) > DefaultMaxManifestSize {
		return parsedManifest{}, fmt.Errorf("%s: manifest larger than %d bytes", name, DefaultMaxManifestSize)
	}

	deps, err := parse(content)
	if err != nil {
		return parsedManifest{}, err
	}
	return parsedManifest{name: name, content: content, deps: deps}, nil
}
