package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/presence"
)

// schengenRuleSuffix matches the per-jurisdiction rule IDs that all evaluate
// the shared 90-days-in-any-180 Schengen limit (fr-schengen-duration, ...).
const schengenRuleSuffix = "-schengen-duration"

const (
	schengenDayLimit    = 90
	schengenWindowDays  = 180
	schengenLookbackOff = schengenWindowDays - 1
)

// schengenCountries is the Schengen area membership set (ISO alpha-2).
var schengenCountries = map[string]bool{
	"AT": true, "BE": true, "BG": true, "HR": true, "CZ": true, "DK": true,
	"EE": true, "FI": true, "FR": true, "DE": true, "GR": true, "HU": true,
	"IS": true, "IT": true, "LV": true, "LI": true, "LT": true, "LU": true,
	"MT": true, "NL": true, "NO": true, "PL": true, "PT": true, "RO": true,
	"SK": true, "SI": true, "ES": true, "SE": true, "CH": true,
}

// IsSchengenCountry reports Schengen-area membership for an ISO alpha-2 code.
func IsSchengenCountry(code string) bool {
	return schengenCountries[code]
}

type schengenStay struct {
	entryDate time.Time
	days      int
}

// evaluateSchengenWindow checks the 90-in-180 rule: for every Schengen
// entry's start date, sum the durations of all Schengen stays that began in
// the 180 days (inclusive) ending on that date. Every window whose sum
// exceeds 90 days is reported as its own violation; a subject can violate
// several distinct rolling windows.
func evaluateSchengenWindow(in Input) *models.RuleVerdict {
	stays := schengenStays(in.Entries, in.Opts.AsOf)

	violations := []map[string]any{}
	maxDaysUsed := 0
	for _, anchor := range stays {
		windowStart := anchor.entryDate.AddDate(0, 0, -schengenLookbackOff)
		daysUsed := 0
		for _, stay := range stays {
			if stay.entryDate.Before(windowStart) || stay.entryDate.After(anchor.entryDate) {
				continue
			}
			daysUsed += stay.days
		}
		if daysUsed > maxDaysUsed {
			maxDaysUsed = daysUsed
		}
		if daysUsed > schengenDayLimit {
			violations = append(violations, map[string]any{
				"date":         anchor.entryDate.Format(time.DateOnly),
				"window_start": windowStart.Format(time.DateOnly),
				"days_used":    daysUsed,
				"days_over":    daysUsed - schengenDayLimit,
			})
		}
	}

	verdict := &models.RuleVerdict{
		RuleID:      in.RuleID,
		CountryCode: in.Country,
		Status:      models.VerdictMet,
		Result: map[string]any{
			"day_limit":     schengenDayLimit,
			"window_days":   schengenWindowDays,
			"max_days_used": maxDaysUsed,
			"violations":    violations,
		},
		Recommendations: []string{},
		EvaluatedAt:     in.Opts.AsOf,
	}

	if len(violations) > 0 {
		verdict.Status = models.VerdictNotMet
		verdict.Recommendations = append(verdict.Recommendations,
			fmt.Sprintf("Your travel history exceeds the %d-day Schengen limit in %d rolling window(s); review the violation dates before your next trip.",
				schengenDayLimit, len(violations)))
	}
	return verdict
}

// schengenStays extracts the Schengen-area stays with usable dates, sorted by
// entry date. Open-ended stays are clipped to asOf; malformed entries drop
// out of the sum rather than failing the evaluation.
func schengenStays(entries []*models.TravelEntry, asOf time.Time) []schengenStay {
	stays := make([]schengenStay, 0, len(entries))
	for _, e := range entries {
		if e == nil || !schengenCountries[e.CountryCode] || e.EntryDate.IsZero() {
			continue
		}
		start := presence.DateOnly(e.EntryDate)
		end := asOf
		if e.ExitDate != nil && !e.ExitDate.IsZero() {
			end = presence.DateOnly(*e.ExitDate)
		}
		if end.Before(start) {
			continue
		}
		stays = append(stays, schengenStay{entryDate: start, days: presence.DaysInclusive(start, end)})
	}
	sort.Slice(stays, func(i, j int) bool { return stays[i].entryDate.Before(stays[j].entryDate) })
	return stays
}
