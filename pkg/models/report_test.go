package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectStatus_Transitions(t *testing.T) {
	assert.True(t, ProjectPending.CanTransition(ProjectAnalyzing))
	assert.True(t, ProjectAnalyzing.CanTransition(ProjectCompleted))
	assert.True(t, ProjectAnalyzing.CanTransition(ProjectFailed))
	assert.False(t, ProjectPending.CanTransition(ProjectCompleted))
	assert.False(t, ProjectCompleted.CanTransition(ProjectAnalyzing))
	assert.False(t, ProjectFailed.CanTransition(ProjectCompleted))
	assert.True(t, ProjectFailed.IsTerminal())
	assert.False(t, ProjectAnalyzing.IsTerminal())
}

func TestAnalysisReport_NormalizeNeverNull(t *testing.T) {
	r := &AnalysisReport{
		Status: ReportPartial,
		Issues: []CodeSmell{{Type: SmellDeepNesting, Severity: SeverityLow}},
	}
	r.Normalize()

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
	assert.Contains(t, string(data), `"languages":[]`)
	assert.Contains(t, string(data), `"metadata":{}`)
}

func TestFramework_NullVersion(t *testing.T) {
	data, err := json.Marshal(Framework{Name: "React", Confidence: 0.9})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"React","version":null,"confidence":0.9}`, string(data))
}

func TestAnalysisReport_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &AnalysisReport{StartTime: start, EndTime: start.Add(3 * time.Second)}
	assert.Equal(t, 3*time.Second, r.Duration())

	r.EndTime = start.Add(-time.Second)
	assert.Zero(t, r.Duration())
}

func TestAnalysisReport_IssueCounts(t *testing.T) {
	r := &AnalysisReport{Issues: []CodeSmell{
		{Severity: SeverityHigh}, {Severity: SeverityLow}, {Severity: SeverityLow},
	}}
	counts := r.IssueCounts()
	assert.Equal(t, 1, counts[SeverityHigh])
	assert.Equal(t, 0, counts[SeverityMedium])
	assert.Equal(t, 2, counts[SeverityLow])
}

func TestLineCounts(t *testing.T) {
	var total LineCounts
	total.Add(LineCounts{Total: 3, Code: 1, Comment: 1, Blank: 1})
	total.Add(LineCounts{Total: 2, Code: 2})
	assert.True(t, total.Balanced())
	assert.Equal(t, 5, total.Total)
	assert.False(t, LineCounts{Total: 2, Code: 1}.Balanced())
}

func TestSeverity_Weight(t *testing.T) {
	assert.Greater(t, SeverityHigh.Weight(), SeverityMedium.Weight())
	assert.Greater(t, SeverityMedium.Weight(), SeverityLow.Weight())
	assert.Zero(t, Severity("bogus").Weight())
}
