package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/panbanda/triage/pkg/models"
	"github.com/panbanda/triage/pkg/report"
	"github.com/panbanda/triage/pkg/source"
	"github.com/panbanda/triage/pkg/store/memstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "ws")
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	require.NoError(t, os.MkdirAll(root, 0o755))
	return root
}

func savedReport(t *testing.T, s *memstore.Store, projectID string) *models.AnalysisReport {
	t.Helper()
	r, err := s.Get(context.Background(), projectID, report.AgentType)
	require.NoError(t, err)
	return r
}

const sampleJS = `// entry point
function handler(req, res) {
  if (req.a && req.b) {
    return res.send(1);
  }
  return res.send(2);
}

module.exports = handler;
`

func TestRunAnalysis_Completes(t *testing.T) {
	s := memstore.New()
	reg := prometheus.NewRegistry()
	dir := workspace(t, map[string]string{
		"src/index.js": sampleJS,
		"package.json": `{"dependencies":{"express":"^4.18.0"}}`,
	})

	o := New(s, s, WithRegisterer(reg))
	require.NoError(t, o.RunAnalysis(context.Background(), "p1", dir))

	assert.Equal(t, []models.ProjectStatus{models.ProjectAnalyzing, models.ProjectCompleted}, s.History("p1"))

	r := savedReport(t, s, "p1")
	assert.Equal(t, "p1", r.ProjectID)
	assert.Equal(t, models.ReportCompleted, r.Status)
	assert.Empty(t, r.Error)
	require.Len(t, r.Languages, 1)
	assert.Equal(t, "JavaScript", r.Languages[0].Name)
	assert.InDelta(t, 100.0, r.Languages[0].Percentage, 1e-9)
	require.Len(t, r.Dependencies, 1)
	assert.Equal(t, "express", r.Dependencies[0].Name)
	require.Len(t, r.Frameworks, 1)
	assert.Equal(t, "Express", r.Frameworks[0].Name)
	assert.Equal(t, 1, r.Metrics.TotalFiles)
	assert.Equal(t, 9, r.Metrics.TotalLines)
	assert.Equal(t, r.Metrics.TotalLines, r.Metrics.CodeLines+r.Metrics.CommentLines+r.Metrics.BlankLines)
	assert.InDelta(t, 3.0, r.Metrics.AverageComplexity, 1e-9)
	assert.False(t, r.EndTime.Before(r.StartTime))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "workspace should be removed")

	assert.Equal(t, 1.0, testutil.ToFloat64(o.metrics.runs.WithLabelValues(outcomeCompleted)))
	assert.Zero(t, testutil.ToFloat64(o.metrics.runs.WithLabelValues(outcomeFailed)))
	assert.Equal(t, 6, testutil.CollectAndCount(o.metrics.stageDuration))
}

func TestRunAnalysis_ReadmeOnlyFails(t *testing.T) {
	s := memstore.New()
	dir := workspace(t, map[string]string{"README.md": "# legacy\n"})

	o := New(s, s)
	err := o.RunAnalysis(context.Background(), "p1", dir)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSourceFiles)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "discover", stageErr.Stage)

	assert.Equal(t, []models.ProjectStatus{models.ProjectAnalyzing, models.ProjectFailed}, s.History("p1"))
	r := savedReport(t, s, "p1")
	assert.Equal(t, models.ReportPartial, r.Status)
	assert.Contains(t, r.Error, "no source files")
	assert.Empty(t, r.Languages)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.metrics.runs.WithLabelValues(outcomeFailed)))
}

func TestRunAnalysis_MissingWorkspace(t *testing.T) {
	s := memstore.New()
	err := New(s, s).RunAnalysis(context.Background(), "p1", filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSourceFiles)
	assert.Equal(t, models.ReportPartial, savedReport(t, s, "p1").Status)
}

func TestRunAnalysis_CorruptManifestDegrades(t *testing.T) {
	s := memstore.New()
	dir := workspace(t, map[string]string{
		"app.py":           "def main():\n    return 1\n",
		"requirements.txt": "flask==2.0\x00\xff\xfe",
		"package.json":     `{"dependencies":{"react":"18.2.0"}}`,
	})

	require.NoError(t, New(s, s).RunAnalysis(context.Background(), "p1", dir))

	r := savedReport(t, s, "p1")
	assert.Equal(t, models.ReportCompleted, r.Status)
	require.Len(t, r.Dependencies, 1)
	assert.Equal(t, "react", r.Dependencies[0].Name)
	assert.Equal(t, models.ProjectCompleted, s.History("p1")[1])
}

func TestRunAnalysis_Timeout(t *testing.T) {
	s := memstore.New()
	dir := workspace(t, map[string]string{"main.py": "print(1)\n"})

	o := New(s, s, WithTimeout(time.Nanosecond))
	err := o.RunAnalysis(context.Background(), "p1", dir)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	r := savedReport(t, s, "p1")
	assert.Equal(t, models.ReportPartial, r.Status)
	assert.True(t, strings.HasPrefix(r.Error, "analysis timed out after"), r.Error)
	assert.Equal(t, models.ProjectFailed, s.History("p1")[1])

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

type panickingDetector struct{}

func (panickingDetector) Detect(context.Context, source.ContentSource, []string) ([]models.LanguageStat, error) {
	panic("detector exploded")
}

type failingSmells struct{}

func (failingSmells) Detect(context.Context, source.ContentSource, []string) ([]models.CodeSmell, error) {
	return []models.CodeSmell{{Type: models.SmellLongFunction}}, errors.New("smells broke")
}

func TestRunAnalysis_StageFailuresDegrade(t *testing.T) {
	s := memstore.New()
	dir := workspace(t, map[string]string{"main.go": "package main\n\nfunc main() {}\n"})

	o := New(s, s,
		WithRegisterer(prometheus.NewRegistry()),
		WithLanguageDetector(panickingDetector{}),
		WithSmellDetector(failingSmells{}),
	)
	require.NoError(t, o.RunAnalysis(context.Background(), "p1", dir))

	r := savedReport(t, s, "p1")
	assert.Equal(t, models.ReportCompleted, r.Status)
	assert.Empty(t, r.Languages)
	assert.Empty(t, r.Issues, "a failed stage contributes nothing")
	assert.Equal(t, 1, r.Metrics.TotalFiles)

	assert.Equal(t, 1.0, testutil.ToFloat64(o.metrics.stageFailures.WithLabelValues("languages")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.metrics.stageFailures.WithLabelValues("smells")))
	assert.Zero(t, testutil.ToFloat64(o.metrics.stageFailures.WithLabelValues("metrics")))
}

type failingStore struct {
	*memstore.Store
	calls int
}

func (f *failingStore) Save(context.Context, string, string, *models.AnalysisReport) error {
	f.calls++
	return errors.New("database unavailable")
}

func TestRunAnalysis_PersistFailureIsFatal(t *testing.T) {
	projects := memstore.New()
	analyses := &failingStore{Store: memstore.New()}
	dir := workspace(t, map[string]string{"main.rb": "puts 1\n"})

	err := New(projects, analyses).RunAnalysis(context.Background(), "p1", dir)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "report", stageErr.Stage)
	assert.Equal(t, 2, analyses.calls, "final report then partial report")
	assert.Equal(t, models.ProjectFailed, projects.History("p1")[1])
}

func TestRunAnalysis_TerminalProjectRejected(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.UpdateStatus(ctx, "p1", models.ProjectAnalyzing))
	require.NoError(t, s.UpdateStatus(ctx, "p1", models.ProjectCompleted))
	dir := workspace(t, map[string]string{"main.go": "package main\n"})

	err := New(s, s).RunAnalysis(ctx, "p1", dir)
	assert.Error(t, err)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "workspace is removed even when the run never starts")
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: "discover", Err: ErrNoSourceFiles}
	assert.Equal(t, "discover stage: no source files found", err.Error())
	assert.ErrorIs(t, err, ErrNoSourceFiles)
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(nil, nil).Timeout())
	assert.Equal(t, time.Second, New(nil, nil, WithTimeout(time.Second)).Timeout())
}
