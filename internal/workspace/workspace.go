// Package workspace materializes an analysis target into a private
// directory the pipeline is free to consume and remove.
package workspace

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/panbanda/triage/internal/remote"
)

// Workspace is a prepared copy of a target.
type Workspace struct {
	Dir    string // directory handed to the pipeline
	Target string // original local path or remote reference
	Remote bool
}

// Options configures Prepare.
type Options struct {
	// BaseDir is where workspace directories are created; empty uses the
	// system temp dir.
	BaseDir string
	// Progress receives clone progress for remote targets.
	Progress io.Writer
	Logger   *slog.Logger
}

// Prepare clones a remote target or copies a local directory into a fresh
// temporary directory. The caller owns the returned directory.
func Prepare(ctx context.Context, target string, opts Options) (*Workspace, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	src, err := remote.Parse(target)
	if err != nil {
		return nil, err
	}
	if src == nil {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", target, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("target %s: not a directory", target)
		}
	}

	dir, err := os.MkdirTemp(opts.BaseDir, "triage-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	ws := &Workspace{Dir: dir, Target: target, Remote: src != nil}
	if src != nil {
		logger.Info("cloning", "url", src.URL, "ref", src.Ref, "workspace", dir)
		err = src.Clone(ctx, dir, opts.Progress)
	} else {
		logger.Info("copying", "path", target, "workspace", dir)
		err = copyTree(ctx, target, dir)
	}
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return ws, nil
}

// copyTree copies regular files, directories and symlinks from src into
// dst. Version control metadata is skipped.
func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return os.MkdirAll(target, 0o755)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(path, target)
		default:
			return nil
		}
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
