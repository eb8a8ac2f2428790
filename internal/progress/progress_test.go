package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar_FollowsStages(t *testing.T) {
	var buf bytes.Buffer
	bar := New(&buf)
	tracker := bar.Tracker()

	tracker.Begin("metrics")
	assert.Equal(t, "metrics", bar.Stage())

	tracker.Add(3)
	tracker.Tick("a.go")
	tracker.Tick("b.go")
	assert.Equal(t, 3, bar.Max())

	tracker.Begin("smells")
	assert.Equal(t, "smells", bar.Stage())
	assert.Equal(t, -1, bar.Max())

	bar.Done()
	assert.Contains(t, buf.String(), "metrics")
}

func TestBar_FailNamesStage(t *testing.T) {
	var buf bytes.Buffer
	bar := New(&buf)
	bar.Tracker().Begin("discover")

	bar.Fail(errors.New("no source files found"))

	assert.True(t, strings.HasSuffix(buf.String(), "  discover failed: no source files found\n"))
}

func TestBar_FailBeforeAnyStage(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Fail(errors.New("boom"))
	assert.Contains(t, buf.String(), "analysis failed: boom")
}
