package models

// SmellType is the category of a code smell.
type SmellType string

const (
	SmellLongFunction SmellType = "long_function"
	SmellTooComplex   SmellType = "too_complex"
	SmellDuplication  SmellType = "duplication"
	SmellDeepNesting  SmellType = "deep_nesting"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Weight orders severities for sorting; higher is worse.
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Location is a position in the analyzed tree.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// CodeSmell is a single independent finding.
type CodeSmell struct {
	Type        SmellType      `json:"type"`
	Severity    Severity       `json:"severity"`
	File        string         `json:"file"`
	Line        int            `json:"line"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}
