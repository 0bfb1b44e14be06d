package rules

import (
	"fmt"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

// RuleUKStatutoryResidence is the UK Statutory Residence Test sufficient-ties
// tier model.
const RuleUKStatutoryResidence = "uk-tax-residency-srt"

// Tier boundaries and ties-required values are the statutory figures.
const (
	ukSRTAutomaticDays = 183
	ukSRTOneTieDays    = 121
	ukSRTTwoTiesDays   = 91
	ukSRTThreeTiesDays = 46
)

// evaluateUKStatutoryResidence: 183 days is automatic residence. Below that,
// residence depends on how many UK ties the subject has: 121+ days needs one
// tie, 91+ needs two, 46+ needs three (four in some arriver cases). Fewer
// than 46 days cannot establish residence through ties alone.
func evaluateUKStatutoryResidence(in Input) *models.RuleVerdict {
	days := yearDaysPresent(in, in.Opts.Year)

	var tier string
	tiesRequired := 0
	switch {
	case days >= ukSRTAutomaticDays:
		tier = "automatic_residence"
	case days >= ukSRTOneTieDays:
		tier = "one_tie"
		tiesRequired = 1
	case days >= ukSRTTwoTiesDays:
		tier = "two_ties"
		tiesRequired = 2
	case days >= ukSRTThreeTiesDays:
		tier = "three_or_four_ties"
		tiesRequired = 3
	default:
		tier = "below_threshold"
	}

	verdict := &models.RuleVerdict{
		RuleID:      in.RuleID,
		CountryCode: in.Country,
		Status:      models.VerdictNotMet,
		Result: map[string]any{
			"year":          in.Opts.Year,
			"days_present":  days,
			"tier":          tier,
			"ties_required": tiesRequired,
			"tie_count":     in.Opts.TieCount,
		},
		Recommendations: []string{},
		EvaluatedAt:     in.Opts.AsOf,
	}

	switch {
	case days >= ukSRTAutomaticDays:
		verdict.Status = models.VerdictMet
	case tiesRequired > 0 && in.Opts.TieCount >= tiesRequired:
		verdict.Status = models.VerdictMet
		verdict.Recommendations = append(verdict.Recommendations,
			fmt.Sprintf("Residence through the sufficient ties test: %d days with %d ties (%d required).",
				days, in.Opts.TieCount, tiesRequired))
	case tiesRequired > 0:
		verdict.Status = models.VerdictPartial
		verdict.Recommendations = append(verdict.Recommendations,
			fmt.Sprintf("With %d days of UK presence you would be resident with %d or more UK ties; you reported %d.",
				days, tiesRequired, in.Opts.TieCount))
		if tier == "three_or_four_ties" {
			verdict.Recommendations = append(verdict.Recommendations,
				"In the 46-90 day band, four ties are required if you were not UK resident in any of the three prior tax years.")
		}
	default:
		verdict.Recommendations = append(verdict.Recommendations,
			fmt.Sprintf("Fewer than %d days of UK presence cannot establish residence through ties.", ukSRTThreeTiesDays))
	}
	return verdict
}
