package rules

import (
	"fmt"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

// Flat 183-day residency tests. These jurisdictions share the arithmetic and
// differ only in which country's presence is counted.
const (
	RuleCanadaTaxResidency  = "ca-tax-residency-183"
	RuleGermanyTaxResidency = "de-tax-residency-183"
	RuleFranceTaxResidency  = "fr-tax-residency-183"

	flatDayThreshold = 183
)

// evaluateFlatDayThreshold reports met when presence in the country reaches
// 183 days for the calendar year, with the remaining-day count either way.
func evaluateFlatDayThreshold(in Input) *models.RuleVerdict {
	days := yearDaysPresent(in, in.Opts.Year)
	remaining := flatDayThreshold - days
	if remaining < 0 {
		remaining = 0
	}

	verdict := &models.RuleVerdict{
		RuleID:      in.RuleID,
		CountryCode: in.Country,
		Status:      models.VerdictNotMet,
		Result: map[string]any{
			"year":           in.Opts.Year,
			"days_present":   days,
			"threshold":      flatDayThreshold,
			"days_remaining": remaining,
		},
		Recommendations: []string{},
		EvaluatedAt:     in.Opts.AsOf,
	}

	if days >= flatDayThreshold {
		verdict.Status = models.VerdictMet
		return verdict
	}

	verdict.Recommendations = append(verdict.Recommendations,
		fmt.Sprintf("You have %d of %d required days of presence in %s for %d; %d more needed.",
			days, flatDayThreshold, in.Country, in.Opts.Year, remaining))
	return verdict
}
