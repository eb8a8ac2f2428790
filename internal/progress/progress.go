// Package progress renders pipeline progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/panbanda/triage/pkg/analyzer"
	"github.com/schollz/progressbar/v3"
)

// Bar is a progress bar that follows the stages of an analysis run.
type Bar struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
	w   io.Writer

	stage string
}

// New creates a bar writing to w. Nothing is drawn until a stage begins.
func New(w io.Writer) *Bar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Bar{bar: bar, w: w}
}

// Tracker returns an analyzer tracker bound to the bar.
func (b *Bar) Tracker() *analyzer.Tracker {
	return analyzer.NewTracker(b.progress).OnStage(b.begin)
}

// Stage returns the stage currently shown.
func (b *Bar) Stage() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stage
}

// Max returns the file count of the current stage, or -1 before any file
// has been counted.
func (b *Bar) Max() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bar.GetMax()
}

func (b *Bar) begin(stage string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stage = stage
	b.bar.Reset()
	b.bar.ChangeMax(-1)
	b.bar.Describe(stage)
}

func (b *Bar) progress(current, total int, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if total > 0 && b.bar.GetMax() != total {
		b.bar.ChangeMax(total)
	}
	_ = b.bar.Set(current)
}

// Done clears the bar.
func (b *Bar) Done() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
	_ = b.bar.Clear()
}

// Fail clears the bar and prints the error with the stage it stopped in.
func (b *Bar) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
	_ = b.bar.Clear()
	if b.stage != "" {
		fmt.Fprintf(b.w, "  %s failed: %v\n", b.stage, err)
		return
	}
	fmt.Fprintf(b.w, "  analysis failed: %v\n", err)
}
