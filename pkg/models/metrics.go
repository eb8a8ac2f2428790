package models

// FunctionMetric describes a single function-like construct.
type FunctionMetric struct {
	Name       string `json:"name"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	LineCount  int    `json:"line_count"`
	Complexity int    `json:"complexity"`
}

// LineCounts is the code/comment/blank split of a file or file set.
type LineCounts struct {
	Total   int `json:"total_lines"`
	Code    int `json:"code_lines"`
	Comment int `json:"comment_lines"`
	Blank   int `json:"blank_lines"`
}

// Balanced reports whether code, comment and blank lines add up to the total.
func (c LineCounts) Balanced() bool {
	return c.Code+c.Comment+c.Blank == c.Total
}

// Add accumulates other into c.
func (c *LineCounts) Add(other LineCounts) {
	c.Total += other.Total
	c.Code += other.Code
	c.Comment += other.Comment
	c.Blank += other.Blank
}

// CodeMetrics is the aggregate size and complexity summary of a run.
type CodeMetrics struct {
	TotalFiles           int     `json:"total_files"`
	TotalLines           int     `json:"total_lines"`
	CodeLines            int     `json:"code_lines"`
	CommentLines         int     `json:"comment_lines"`
	BlankLines           int     `json:"blank_lines"`
	TotalFunctions       int     `json:"total_functions"`
	AverageComplexity    float64 `json:"average_complexity"`
	MaintainabilityIndex float64 `json:"maintainability_index"`
}

// Lines returns the line split of the aggregate.
func (m CodeMetrics) Lines() LineCounts {
	return LineCounts{Total: m.TotalLines, Code: m.CodeLines, Comment: m.CommentLines, Blank: m.BlankLines}
}
