package models

// LanguageStat is one entry of a language distribution.
type LanguageStat struct {
	Name       string  `json:"name"`
	LineCount  int     `json:"line_count"`
	Percentage float64 `json:"percentage"`
}
