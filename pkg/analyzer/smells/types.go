package smells

import "github.com/panbanda/triage/pkg/models"

// Band maps a measured value to a severity: above High is high, above
// Medium is medium, anything else that was flagged is low.
type Band struct {
	Medium int `json:"medium" koanf:"medium"`
	High   int `json:"high" koanf:"high"`
}

// Grade returns the severity of v.
func (b Band) Grade(v int) models.Severity {
	switch {
	case v > b.High:
		return models.SeverityHigh
	case v > b.Medium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// Thresholds configures every detector.
type Thresholds struct {
	// FunctionLines flags functions longer than this many lines.
	FunctionLines     int  `json:"function_lines" koanf:"function_lines"`
	FunctionLinesBand Band `json:"function_lines_band" koanf:"function_lines_band"`

	// Complexity flags functions with cyclomatic complexity above this.
	Complexity     int  `json:"complexity" koanf:"complexity"`
	ComplexityBand Band `json:"complexity_band" koanf:"complexity_band"`

	// Nesting flags control structures nested deeper than this.
	Nesting     int  `json:"nesting" koanf:"nesting"`
	NestingBand Band `json:"nesting_band" koanf:"nesting_band"`

	// DuplicateWindow is the sliding window size in raw lines.
	DuplicateWindow int `json:"duplicate_window" koanf:"duplicate_window"`
	// DuplicateMinLines is the minimum normalized line count of a block.
	DuplicateMinLines int `json:"duplicate_min_lines" koanf:"duplicate_min_lines"`
	// DuplicateBand grades lines x occurrences.
	DuplicateBand Band `json:"duplicate_band" koanf:"duplicate_band"`
}

// DefaultThresholds returns the standard detection limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FunctionLines:     50,
		FunctionLinesBand: Band{Medium: 75, High: 100},
		Complexity:        10,
		ComplexityBand:    Band{Medium: 15, High: 20},
		Nesting:           4,
		NestingBand:       Band{Medium: 5, High: 6},
		DuplicateWindow:   10,
		DuplicateMinLines: 5,
		DuplicateBand:     Band{Medium: 50, High: 100},
	}
}

// withDefaults fills unset fields from DefaultThresholds.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.FunctionLines <= 0 {
		t.FunctionLines = d.FunctionLines
	}
	if t.FunctionLinesBand == (Band{}) {
		t.FunctionLinesBand = d.FunctionLinesBand
	}
	if t.Complexity <= 0 {
		t.Complexity = d.Complexity
	}
	if t.ComplexityBand == (Band{}) {
		t.ComplexityBand = d.ComplexityBand
	}
	if t.Nesting <= 0 {
		t.Nesting = d.Nesting
	}
	if t.NestingBand == (Band{}) {
		t.NestingBand = d.NestingBand
	}
	if t.DuplicateWindow <= 0 {
		t.DuplicateWindow = d.DuplicateWindow
	}
	if t.DuplicateMinLines <= 0 {
		t.DuplicateMinLines = d.DuplicateMinLines
	}
	if t.DuplicateBand == (Band{}) {
		t.DuplicateBand = d.DuplicateBand
	}
	return t
}
