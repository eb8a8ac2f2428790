package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/panbanda/triage/pkg/models"
)

// AnalysisView renders an analysis report as summary, language, framework,
// dependency and issue blocks. Structured formats receive the report as is.
func AnalysisView(r *models.AnalysisReport, colored bool) *Report {
	view := &Report{
		Title: fmt.Sprintf("Analysis %s", r.ProjectID),
		Data:  r,
	}

	view.Sections = append(view.Sections, summarySection(r))

	if len(r.Languages) > 0 {
		rows := make([][]string, len(r.Languages))
		for i, l := range r.Languages {
			rows[i] = []string{l.Name, strconv.Itoa(l.LineCount), fmt.Sprintf("%.1f%%", l.Percentage)}
		}
		view.Sections = append(view.Sections, NewTable("Languages", []string{"Language", "Lines", "Share"}, rows, nil, r.Languages))
	}

	if len(r.Frameworks) > 0 {
		rows := make([][]string, len(r.Frameworks))
		for i, fw := range r.Frameworks {
			version := "-"
			if fw.Version != nil {
				version = *fw.Version
			}
			rows[i] = []string{fw.Name, version, fmt.Sprintf("%.2f", fw.Confidence)}
		}
		view.Sections = append(view.Sections, NewTable("Frameworks", []string{"Framework", "Version", "Confidence"}, rows, nil, r.Frameworks))
	}

	if len(r.Dependencies) > 0 {
		rows := make([][]string, len(r.Dependencies))
		for i, d := range r.Dependencies {
			rows[i] = []string{d.Name, d.Version, string(d.Kind), d.Manifest}
		}
		view.Sections = append(view.Sections, NewTable("Dependencies", []string{"Name", "Version", "Kind", "Manifest"}, rows, nil, r.Dependencies))
	}

	if len(r.Issues) > 0 {
		rows := make([][]string, len(r.Issues))
		counts := map[models.Severity]int{}
		for i, smell := range r.Issues {
			counts[smell.Severity]++
			severity := string(smell.Severity)
			if colored {
				severity = SeverityColor(severity, severity)
			}
			rows[i] = []string{
				severity,
				string(smell.Type),
				fmt.Sprintf("%s:%d", smell.File, smell.Line),
				smell.Description,
			}
		}
		footer := []string{
			fmt.Sprintf("%d high", counts[models.SeverityHigh]),
			fmt.Sprintf("%d medium", counts[models.SeverityMedium]),
			fmt.Sprintf("%d low", counts[models.SeverityLow]),
			"",
		}
		view.Sections = append(view.Sections, NewTable("Issues", []string{"Severity", "Type", "Location", "Description"}, rows, footer, r.Issues))
	}

	return view
}

func summarySection(r *models.AnalysisReport) *Section {
	m := r.Metrics
	lines := []string{
		fmt.Sprintf("Status:          %s", r.Status),
		fmt.Sprintf("Duration:        %s", r.EndTime.Sub(r.StartTime).Round(time.Millisecond)),
		fmt.Sprintf("Files:           %d", m.TotalFiles),
		fmt.Sprintf("Lines:           %d (code %d, comment %d, blank %d)", m.TotalLines, m.CodeLines, m.CommentLines, m.BlankLines),
		fmt.Sprintf("Functions:       %d", m.TotalFunctions),
		fmt.Sprintf("Avg complexity:  %.2f", m.AverageComplexity),
		fmt.Sprintf("Maintainability: %.1f", m.MaintainabilityIndex),
	}
	if r.Error != "" {
		lines = append(lines, fmt.Sprintf("Error:           %s", r.Error))
	}
	return &Section{
		Title:   "Summary",
		Content: strings.Join(lines, "\n"),
		Data:    m,
	}
}
