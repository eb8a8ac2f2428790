package deps

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultMaxDepth bounds the manifest search below the root.
const DefaultMaxDepth = 5

// DefaultSkipDirs are vendored or generated directories never searched.
var DefaultSkipDirs = []string{
	"node_modules", "vendor", ".git", "dist", "build", "target",
	"__pycache__", ".venv", "venv", "bower_components",
}

// findManifests returns the known manifest files under root in lexical
// walk order. Manifests nested more than maxDepth directories below root
// are not visited.
func findManifests(ctx context.Context, root string, maxDepth int, skip map[string]bool) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable subtrees are skipped
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if skip[d.Name()] {
				return filepath.SkipDir
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return filepath.SkipDir
			}
			if strings.Count(rel, string(filepath.Separator))+1 > maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := parsers[d.Name()]; ok && d.Type().IsRegular() {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}
