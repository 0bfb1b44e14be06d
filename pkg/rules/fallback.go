package rules

import (
	"fmt"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

// evaluateGenericPresence is the fallback for unknown rule IDs: a plain
// days-present report with a partial verdict, never an error.
func evaluateGenericPresence(in Input) *models.RuleVerdict {
	days := yearDaysPresent(in, in.Opts.Year)

	return &models.RuleVerdict{
		RuleID:      in.RuleID,
		CountryCode: in.Country,
		Status:      models.VerdictPartial,
		Result: map[string]any{
			"year":         in.Opts.Year,
			"days_present": days,
			"generic":      true,
		},
		Recommendations: []string{
			fmt.Sprintf("No evaluator is registered for %q; this is a generic presence report for %s.", in.RuleID, in.Country),
		},
		EvaluatedAt: in.Opts.AsOf,
	}
}
