package models

// String methods for the custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// ReportStatus
func (s ReportStatus) String() string { return string(s) }

// ProjectStatus
func (s ProjectStatus) String() string { return string(s) }

// DependencyKind
func (k DependencyKind) String() string { return string(k) }

// SmellType
func (t SmellType) String() string { return string(t) }

// Severity
func (s Severity) String() string { return string(s) }
