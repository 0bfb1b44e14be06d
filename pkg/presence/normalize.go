package presence

import (
	"sort"
	"time"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

// Normalize converts an unordered entry set into a per-country mapping of
// sorted, disjoint presence intervals.
//
// Entries with an unknown country or a missing entry date are excluded (they
// stay available for audit and duplicate detection, they just carry no
// presence weight). A missing exit date means the stay is ongoing and is
// clipped to asOf. Overlapping and immediately consecutive intervals merge,
// so the result is pairwise disjoint with at least a one-day gap.
func Normalize(entries []*models.TravelEntry, asOf time.Time) map[string][]models.PresenceInterval {
	asOf = DateOnly(asOf)
	byCountry := make(map[string][]models.PresenceInterval)

	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.CountryCode == "" || e.CountryCode == models.CountryUnknown {
			continue
		}
		if e.EntryDate.IsZero() {
			continue
		}

		start := DateOnly(e.EntryDate)
		end := asOf
		if e.ExitDate != nil && !e.ExitDate.IsZero() {
			end = DateOnly(*e.ExitDate)
		}
		if end.Before(start) {
			// Exit before entry is unusable extraction output; skip rather
			// than abort.
			continue
		}

		byCountry[e.CountryCode] = append(byCountry[e.CountryCode], models.PresenceInterval{
			CountryCode: e.CountryCode,
			Start:       start,
			End:         end,
		})
	}

	for country, intervals := range byCountry {
		byCountry[country] = merge(intervals)
	}
	return byCountry
}

// merge sweeps sorted intervals left to right, folding any interval that
// starts on or before the day after the running interval's end.
func merge(intervals []models.PresenceInterval) []models.PresenceInterval {
	if len(intervals) == 0 {
		return intervals
	}

	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start.Equal(intervals[j].Start) {
			return intervals[i].End.Before(intervals[j].End)
		}
		return intervals[i].Start.Before(intervals[j].Start)
	})

	merged := []models.PresenceInterval{intervals[0]}
	for _, next := range intervals[1:] {
		cur := &merged[len(merged)-1]
		if !next.Start.After(cur.End.AddDate(0, 0, 1)) {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}
