package badgerstore

import (
	"context"
	"testing"

	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.Status(ctx, "p1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.UpdateStatus(ctx, "p1", models.ProjectAnalyzing))
	require.NoError(t, s.UpdateStatus(ctx, "p1", models.ProjectFailed))
	assert.ErrorIs(t, s.UpdateStatus(ctx, "p1", models.ProjectCompleted), store.ErrInvalidTransition)

	status, err := s.Status(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectFailed, status)
}

func TestSaveGetList(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	version := "4.18.0"
	report := &models.AnalysisReport{
		ProjectID:  "p2",
		Status:     models.ReportCompleted,
		Frameworks: []models.Framework{{Name: "Express", Version: &version, Confidence: 0.85}},
	}
	report.Normalize()
	require.NoError(t, s.Save(ctx, "p2", "code_analysis", report))
	require.NoError(t, s.UpdateStatus(ctx, "p2", models.ProjectAnalyzing))
	require.NoError(t, s.UpdateStatus(ctx, "p1", models.ProjectAnalyzing))

	got, err := s.Get(ctx, "p2", "code_analysis")
	require.NoError(t, err)
	assert.Equal(t, "p2", got.ProjectID)
	require.Len(t, got.Frameworks, 1)
	assert.Equal(t, "4.18.0", *got.Frameworks[0].Version)

	_, err = s.Get(ctx, "p3", "code_analysis")
	assert.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Summary{
		{ProjectID: "p1", Status: models.ProjectAnalyzing},
		{ProjectID: "p2", Status: models.ProjectAnalyzing},
	}, list)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Config{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, "p1", models.ProjectAnalyzing))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: dir})
	require.NoError(t, err)
	defer s.Close()
	status, err := s.Status(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectAnalyzing, status)
}
