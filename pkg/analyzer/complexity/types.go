package complexity

import (
	"github.com/panbanda/triage/pkg/ast"
	"github.com/panbanda/triage/pkg/models"
)

// FileResult is the function table of one parsed file.
type FileResult struct {
	Path            string                  `json:"path"`
	Language        string                  `json:"language"`
	Functions       []models.FunctionMetric `json:"functions"`
	TotalComplexity int                     `json:"total_complexity"`

	// Tree is the lowered syntax tree the table was built from.
	Tree *ast.File `json:"-"`
}

// Analysis is the function table of a file set.
type Analysis struct {
	Files   []FileResult `json:"files"`
	Summary Summary      `json:"summary"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalFiles      int     `json:"total_files"`
	TotalFunctions  int     `json:"total_functions"`
	TotalComplexity int     `json:"total_complexity"`
	AvgComplexity   float64 `json:"avg_complexity"`
	MaxComplexity   int     `json:"max_complexity"`
	P50Complexity   float64 `json:"p50_complexity"`
	P90Complexity   float64 `json:"p90_complexity"`
}

// Functions returns every function in the analysis, file by file.
func (a *Analysis) Functions() []models.FunctionMetric {
	var out []models.FunctionMetric
	for _, f := range a.Files {
		out = append(out, f.Functions...)
	}
	return out
}
