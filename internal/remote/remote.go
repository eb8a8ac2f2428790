// Package remote resolves repository references and clones them.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source represents a remote repository to analyze.
type Source struct {
	URL     string // normalized git URL
	Ref     string // branch or tag (empty = default branch)
	Shallow bool   // clone only the tip commit
}

// Parse detects if target is a remote reference.
// Returns nil if target exists on the filesystem (local paths take precedence).
func Parse(target string) (*Source, error) {
	if _, err := os.Stat(target); err == nil {
		return nil, nil
	}

	if strings.HasPrefix(target, "git@") {
		return &Source{URL: target, Shallow: true}, nil
	}

	path, ref := target, ""
	if idx := strings.LastIndex(path, "@"); idx != -1 {
		path, ref = path[:idx], path[idx+1:]
	}

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "ssh://"):
		return &Source{URL: path, Ref: ref, Shallow: true}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path, Ref: ref, Shallow: true}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref, Shallow: true}, nil
	}
	return nil, nil
}

// isHostPath matches host/owner/repo where host looks like a domain.
func isHostPath(path string) bool {
	parts := strings.Split(path, "/")
	if len(parts) < 3 || !strings.Contains(parts[0], ".") || strings.HasPrefix(parts[0], ".") {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// a dot before the slash indicates a domain
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone checks the source out into dest, which must be empty or absent.
// Clone progress is written to progress when non-nil.
func (s *Source) Clone(ctx context.Context, dest string, progress io.Writer) error {
	opts := &git.CloneOptions{
		URL:          s.URL,
		SingleBranch: true,
		Tags:         git.NoTags,
		Progress:     progress,
	}
	if s.Shallow {
		opts.Depth = 1
	}

	if s.Ref == "" {
		if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
			return fmt.Errorf("clone %s: %w", s.URL, err)
		}
		return nil
	}

	// a ref may name a branch or a tag
	opts.ReferenceName = plumbing.NewBranchReferenceName(s.Ref)
	_, err := git.PlainCloneContext(ctx, dest, false, opts)
	if errors.Is(err, plumbing.ErrReferenceNotFound) || isMissingRef(err) {
		if rmErr := os.RemoveAll(dest); rmErr != nil {
			return rmErr
		}
		opts.ReferenceName = plumbing.NewTagReferenceName(s.Ref)
		_, err = git.PlainCloneContext(ctx, dest, false, opts)
	}
	if err != nil {
		return fmt.Errorf("clone %s@%s: %w", s.URL, s.Ref, err)
	}
	return nil
}

func isMissingRef(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch)
}
