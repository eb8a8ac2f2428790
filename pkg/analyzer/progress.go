package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
)

// ProgressFunc is called to report analysis progress.
// current is the number of files processed in the current stage, total is
// the stage's file count, and path is the file just finished.
type ProgressFunc func(current, total int, path string)

// StageFunc is called when the pipeline enters a new stage.
type StageFunc func(stage string)

// Tracker tracks progress across the stages of a pipeline run.
// It is safe for concurrent use from multiple goroutines.
type Tracker struct {
	total    atomic.Int32
	current  atomic.Int32
	callback ProgressFunc

	mu      sync.Mutex
	stage   string
	onStage StageFunc
}

// NewTracker creates a new progress tracker with the given callback.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// OnStage registers fn to be called from Begin.
func (t *Tracker) OnStage(fn StageFunc) *Tracker {
	t.mu.Lock()
	t.onStage = fn
	t.mu.Unlock()
	return t
}

// Begin starts a new stage and resets the counters.
func (t *Tracker) Begin(stage string) {
	t.mu.Lock()
	t.stage = stage
	fn := t.onStage
	t.mu.Unlock()

	t.total.Store(0)
	t.current.Store(0)
	if fn != nil {
		fn(stage)
	}
}

// Stage returns the name of the current stage.
func (t *Tracker) Stage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage
}

// Add increments the total count by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int32(n))
}

// Tick marks one file as completed and invokes the callback if set.
func (t *Tracker) Tick(path string) {
	current := int(t.current.Add(1))
	total := int(t.total.Load())
	if t.callback != nil {
		t.callback(current, total, path)
	}
}

// Current returns the current progress count.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the total count.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries a progress tracker.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the progress tracker from the context.
// Returns nil if no tracker was set.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}

// BeginStage starts stage on the tracker carried by ctx, if any.
func BeginStage(ctx context.Context, stage string) {
	if t := TrackerFromContext(ctx); t != nil {
		t.Begin(stage)
	}
}
