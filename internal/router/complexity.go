package router

import (
	"strings"

	"inferd/pkg/types"
)

// Keyword ladders for deriving a complexity hint from prompt text when the
// request omits one.
var (
	highComplexityTerms = []string{
		"machine learning", "regression", "correlation matrix",
		"survival analysis", "multivariate",
	}
	mediumComplexityTerms = []string{
		"analysis", "compare", "statistical", "distribution", "hypothesis",
	}
)

// AnalyzeComplexity maps prompt text to a capability tier. Deterministic
// keyword matching; anything unrecognized is low complexity.
func AnalyzeComplexity(prompt string) types.Tier {
	p := strings.ToLower(prompt)
	for _, term := range highComplexityTerms {
		if strings.Contains(p, term) {
			return types.TierHigh
		}
	}
	for _, term := range mediumComplexityTerms {
		if strings.Contains(p, term) {
			return types.TierMedium
		}
	}
	return types.TierLow
}
