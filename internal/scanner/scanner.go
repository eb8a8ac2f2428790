// Package scanner discovers the source files of an analysis workspace.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/triage/pkg/config"
	"github.com/panbanda/triage/pkg/langs"
	"github.com/panbanda/triage/pkg/source"
)

// shebangProbe is how many bytes of an extensionless file are read to look
// for an interpreter line.
const shebangProbe = 64

// Scanner finds source files in a directory.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// loadExcludePatterns loads exclusion patterns from both config and the
// .gitignore files under root. Config patterns use gitignore syntax.
func (s *Scanner) loadExcludePatterns(root string) {
	s.matchers = nil
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}

	if s.config.Exclude.Gitignore {
		if gitPatterns, err := gitignore.ReadPatterns(osfs.New(root), nil); err == nil {
			patterns = append(patterns, gitPatterns...)
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

func (s *Scanner) isExcluded(path string, isDir bool) bool {
	pathParts := strings.Split(path, string(filepath.Separator))
	if isDir {
		name := pathParts[len(pathParts)-1]
		for _, dir := range s.config.Exclude.Dirs {
			if name == dir {
				return true
			}
		}
	} else if s.config.ShouldExclude(path) {
		return true
	}

	for _, m := range s.matchers {
		if m.Match(pathParts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for source files. A file counts as
// source when its name or extension maps to a known language, or when it
// has no extension and starts with a shebang line. Returned paths are
// joined onto root. Symlinks escaping root are skipped.
func (s *Scanner) ScanDir(ctx context.Context, root string) ([]string, error) {
	files := make([]string, 0, 1024)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
			// WalkDir does not follow links; directories behind them are
			// not descended into.
			info, err := os.Stat(resolved)
			if err != nil || info.IsDir() {
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) {
			return nil
		}
		if isSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

func isSourceFile(path string) bool {
	if langs.IsSource(path) {
		return true
	}
	if filepath.Ext(path) != "" {
		return false
	}
	head, err := source.Head(source.NewFilesystem(), path, shebangProbe)
	return err == nil && langs.HasShebang(head)
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}

	return true
}

// Relative rewrites files as slash-separated paths relative to root. Files
// outside root are returned unchanged.
func Relative(root string, files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil || strings.HasPrefix(rel, "..") {
			out = append(out, f)
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// FilterBySize filters files that exceed the configured maximum size.
// Returns the filtered list and the count of files that were skipped.
// If maxSize is 0, returns the original list unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			skipped++
			continue
		}
		if info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped
}
