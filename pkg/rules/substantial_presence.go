package rules

import (
	"fmt"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

// RuleUSSubstantialPresence is the IRS substantial presence test.
const RuleUSSubstantialPresence = "us-tax-residency-183"

const (
	substantialPresenceThreshold   = 183
	substantialPresenceMinimumDays = 31
)

// evaluateSubstantialPresence implements the IRS formula: current-year days
// plus one third of prior-year days plus one sixth of the days two years
// back. Residency requires at least 31 days in the current year and a
// weighted total of at least 183.
func evaluateSubstantialPresence(in Input) *models.RuleVerdict {
	year := in.Opts.Year
	currentDays := yearDaysPresent(in, year)
	priorDays := yearDaysPresent(in, year-1)
	twoYearsAgoDays := yearDaysPresent(in, year-2)

	weighted := float64(currentDays) + float64(priorDays)/3.0 + float64(twoYearsAgoDays)/6.0
	met := currentDays >= substantialPresenceMinimumDays && weighted >= substantialPresenceThreshold

	verdict := &models.RuleVerdict{
		RuleID:      in.RuleID,
		CountryCode: in.Country,
		Status:      models.VerdictNotMet,
		Result: map[string]any{
			"year":                 year,
			"current_year_days":    currentDays,
			"prior_year_days":      priorDays,
			"two_years_ago_days":   twoYearsAgoDays,
			"weighted_total":       weighted,
			"threshold":            substantialPresenceThreshold,
			"minimum_current_days": substantialPresenceMinimumDays,
		},
		Recommendations: []string{},
		EvaluatedAt:     in.Opts.AsOf,
	}

	if met {
		verdict.Status = models.VerdictMet
		return verdict
	}

	if currentDays < substantialPresenceMinimumDays {
		verdict.Recommendations = append(verdict.Recommendations,
			fmt.Sprintf("You need at least %d days of US presence in %d to be considered; you have %d.",
				substantialPresenceMinimumDays, year, currentDays))
	}
	if weighted < substantialPresenceThreshold {
		verdict.Recommendations = append(verdict.Recommendations,
			fmt.Sprintf("Your weighted three-year total is %.1f days; the substantial presence test requires %d.",
				weighted, substantialPresenceThreshold))
	}
	return verdict
}
