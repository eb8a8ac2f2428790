package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSourceFiles is returned when discovery finds nothing to analyze.
	ErrNoSourceFiles = errors.New("no source files found")
	// ErrTimeout is the cause attached to a run that exceeded its deadline.
	ErrTimeout = errors.New("analysis timed out")
)

// StageError reports the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// panicError carries a recovered stage panic.
type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
