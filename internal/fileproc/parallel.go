// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panbanda/triage/pkg/analyzer"
	"github.com/panbanda/triage/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	return e.Len() > 0
}

// Len returns the number of collected errors.
func (e *ProcessingErrors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors)
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the individual file errors to errors.Is and errors.As.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	errs := make([]error, len(e.Errors))
	for i := range e.Errors {
		errs[i] = e.Errors[i]
	}
	return errs
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x suits the mix of file I/O and cgo parsing.
const DefaultWorkerMultiplier = 2

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// ForEachFile runs fn for every file on a bounded pool. Successful results
// are returned in the order of files, regardless of completion order. Files
// that fail, or that were not started before ctx was cancelled, are recorded
// in the returned errors; it is nil when every file succeeded.
//
// A tracker carried by ctx is ticked once per file.
// If workers is <= 0, DefaultWorkers is used.
func ForEachFile[T any](ctx context.Context, files []string, workers int, fn func(context.Context, string) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Add(len(files))
	}

	slots := make([]T, len(files))
	done := make([]bool, len(files))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if tracker != nil {
				defer tracker.Tick(path)
			}

			select {
			case <-ctx.Done():
				errs.Add(path, context.Cause(ctx))
				return nil
			default:
			}

			result, err := fn(ctx, path)
			if err != nil {
				errs.Add(path, err)
				return nil // one bad file never stops the pool
			}
			slots[i] = result
			done[i] = true
			return nil
		})
	}
	_ = p.Wait()

	results := make([]T, 0, len(files))
	for i, ok := range done {
		if ok {
			results = append(results, slots[i])
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}

// MapFiles is ForEachFile with a dedicated tree-sitter parser per file.
func MapFiles[T any](ctx context.Context, files []string, workers int, fn func(context.Context, *parser.Parser, string) (T, error)) ([]T, *ProcessingErrors) {
	return ForEachFile(ctx, files, workers, func(ctx context.Context, path string) (T, error) {
		psr := parser.New()
		defer psr.Close()
		return fn(ctx, psr, path)
	})
}
