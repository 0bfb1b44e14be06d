// Package insights derives advisory warnings from presence summaries,
// duplicate detection output, and the raw entry set. Insights never carry
// legal weight; rule verdicts do.
package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

const (
	// proximityFloor is the days-present count at which a 183-day residency
	// threshold starts being worth a warning.
	proximityFloor = 160
	residencyLimit = 183

	// lowConfidenceCutoff marks entries whose extraction confidence is too
	// weak to trust without review.
	lowConfidenceCutoff = 0.5

	// openEndedAfter is how long a stay can remain without an exit date
	// before it is probably a missed exit rather than an ongoing stay.
	openEndedAfter = 180 * 24 * time.Hour
)

// Generate produces the advisory insights for one user. Summaries are the
// per-country presence results for the current calendar year; groups and
// entries are the user's full sets. Output order is stable: warnings first,
// then info, countries alphabetical within a kind.
func Generate(summaries []*models.PresenceSummary, groups []*models.DuplicateGroup, entries []*models.TravelEntry, asOf time.Time) []models.Insight {
	var out []models.Insight
	out = append(out, thresholdProximity(summaries)...)
	out = append(out, unresolvedDuplicates(groups)...)
	out = append(out, lowConfidence(entries)...)
	out = append(out, openEndedStays(entries, asOf)...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity == models.SeverityWarning
		}
		return false
	})
	return out
}

func thresholdProximity(summaries []*models.PresenceSummary) []models.Insight {
	var out []models.Insight
	sorted := make([]*models.PresenceSummary, len(summaries))
	copy(sorted, summaries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CountryCode < sorted[j].CountryCode })

	for _, s := range sorted {
		if s.DaysPresent < proximityFloor || s.DaysPresent >= residencyLimit {
			continue
		}
		remaining := residencyLimit - s.DaysPresent
		out = append(out, models.Insight{
			Kind:        models.InsightThresholdProximity,
			Severity:    models.SeverityWarning,
			CountryCode: s.CountryCode,
			Message:     fmt.Sprintf("%d days present in %s this year; %d more would cross the 183-day residency threshold", s.DaysPresent, s.CountryCode, remaining),
		})
	}
	return out
}

func unresolvedDuplicates(groups []*models.DuplicateGroup) []models.Insight {
	pending := 0
	for _, g := range groups {
		if g.Status == models.GroupPending {
			pending++
		}
	}
	if pending == 0 {
		return nil
	}
	noun := "groups"
	if pending == 1 {
		noun = "group"
	}
	return []models.Insight{{
		Kind:     models.InsightUnresolvedDuplicates,
		Severity: models.SeverityWarning,
		Message:  fmt.Sprintf("%d unresolved duplicate %s; presence arithmetic may double-count travel until resolved", pending, noun),
	}}
}

func lowConfidence(entries []*models.TravelEntry) []models.Insight {
	count := 0
	for _, e := range entries {
		if e.Status == models.EntryIgnored {
			continue
		}
		if e.ConfidenceScore < lowConfidenceCutoff {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	plural := "entries"
	if count == 1 {
		plural = "entry"
	}
	return []models.Insight{{
		Kind:     models.InsightLowConfidenceEntries,
		Severity: models.SeverityInfo,
		Message:  fmt.Sprintf("%d travel %s extracted with low confidence; review the source documents", count, plural),
	}}
}

func openEndedStays(entries []*models.TravelEntry, asOf time.Time) []models.Insight {
	// One insight per country with a long-open stay, oldest entry date shown.
	oldest := make(map[string]time.Time)
	for _, e := range entries {
		if e.Status == models.EntryIgnored || e.ExitDate != nil {
			continue
		}
		if e.EntryDate.IsZero() || e.CountryCode == "" || e.CountryCode == models.CountryUnknown {
			continue
		}
		if asOf.Sub(e.EntryDate) < openEndedAfter {
			continue
		}
		if cur, ok := oldest[e.CountryCode]; !ok || e.EntryDate.Before(cur) {
			oldest[e.CountryCode] = e.EntryDate
		}
	}

	countries := make([]string, 0, len(oldest))
	for c := range oldest {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	var out []models.Insight
	for _, c := range countries {
		out = append(out, models.Insight{
			Kind:        models.InsightOpenEndedStay,
			Severity:    models.SeverityInfo,
			CountryCode: c,
			Message:     fmt.Sprintf("stay in %s open since %s with no exit date; add the exit if the trip has ended", c, oldest[c].Format("2006-01-02")),
		})
	}
	return out
}
