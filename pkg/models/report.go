package models

import "time"

// ReportStatus is the internal status of an analysis report.
type ReportStatus string

const (
	ReportCompleted ReportStatus = "completed"
	ReportFailed    ReportStatus = "failed"
	ReportPartial   ReportStatus = "partial"
)

// ProjectStatus is the lifecycle state of a project in the project store.
type ProjectStatus string

const (
	ProjectPending   ProjectStatus = "pending"
	ProjectAnalyzing ProjectStatus = "analyzing"
	ProjectCompleted ProjectStatus = "completed"
	ProjectFailed    ProjectStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectCompleted || s == ProjectFailed
}

// CanTransition reports whether a project may move from s to next.
func (s ProjectStatus) CanTransition(next ProjectStatus) bool {
	switch s {
	case ProjectPending:
		return next == ProjectAnalyzing
	case ProjectAnalyzing:
		return next.IsTerminal()
	default:
		return false
	}
}

// AnalysisReport is the terminal aggregate of one pipeline run.
type AnalysisReport struct {
	ProjectID    string         `json:"project_id"`
	Status       ReportStatus   `json:"status"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Languages    []LanguageStat `json:"languages"`
	Frameworks   []Framework    `json:"frameworks"`
	Dependencies []Dependency   `json:"dependencies"`
	Metrics      CodeMetrics    `json:"metrics"`
	Issues       []CodeSmell    `json:"issues"`
	Error        string         `json:"error,omitempty"`
}

// Normalize replaces nil lists with empty ones so serialized reports never
// carry null collections.
func (r *AnalysisReport) Normalize() {
	if r.Languages == nil {
		r.Languages = []LanguageStat{}
	}
	if r.Frameworks == nil {
		r.Frameworks = []Framework{}
	}
	if r.Dependencies == nil {
		r.Dependencies = []Dependency{}
	}
	if r.Issues == nil {
		r.Issues = []CodeSmell{}
	}
	for i := range r.Issues {
		if r.Issues[i].Metadata == nil {
			r.Issues[i].Metadata = map[string]any{}
		}
	}
}

// Duration returns the wall-clock time the run took.
func (r *AnalysisReport) Duration() time.Duration {
	if r.EndTime.Before(r.StartTime) {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// IssueCounts tallies issues by severity.
func (r *AnalysisReport) IssueCounts() map[Severity]int {
	counts := map[Severity]int{SeverityHigh: 0, SeverityMedium: 0, SeverityLow: 0}
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}
