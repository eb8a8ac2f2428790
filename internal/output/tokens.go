package output

import (
	"fmt"
	"unicode/utf8"
)

// TokenBudget describes how much of a model context window a rendered
// report would occupy.
type TokenBudget struct {
	Tokens       int     `json:"tokens"`
	Budget       int     `json:"budget"`
	BudgetLabel  string  `json:"budget_label"`
	UsagePercent float64 `json:"usage_percent"`
	Remaining    int     `json:"remaining"`
}

// DefaultBudget is the context window assumed when none is given.
const DefaultBudget = 128000

// CharsPerToken is the approximate character-to-token ratio for
// code-heavy text.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for text.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	return int(float64(runes)/CharsPerToken + 0.5)
}

// FormatTokenCount formats a token count for display.
// Counts >= 1000 are formatted as "X.Xk".
func FormatTokenCount(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}

// EstimateBudget measures rendered output against a context window.
// A non-positive budget uses DefaultBudget.
func EstimateBudget(rendered []byte, budget int) TokenBudget {
	if budget <= 0 {
		budget = DefaultBudget
	}

	tokens := EstimateTokens(string(rendered))
	return TokenBudget{
		Tokens:       tokens,
		Budget:       budget,
		BudgetLabel:  budgetLabel(budget),
		UsagePercent: float64(tokens) / float64(budget) * 100,
		Remaining:    max(budget-tokens, 0),
	}
}

// String renders the budget as a one-line summary.
func (b TokenBudget) String() string {
	return fmt.Sprintf("~%s tokens (%.1f%% of %s context)",
		FormatTokenCount(b.Tokens), b.UsagePercent, b.BudgetLabel)
}

func budgetLabel(budget int) string {
	if budget >= 1000 {
		return fmt.Sprintf("%dk", budget/1000)
	}
	return fmt.Sprintf("%d", budget)
}
