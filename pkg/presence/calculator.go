package presence

import (
	"fmt"
	"sort"
	"time"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/models"
)

// Compute produces the presence summary for one target country over an
// inclusive date range.
//
// The calculation is presence by elimination: the subject is assumed present
// in the target country for the entire range, and every other-country
// interval overlapping the range subtracts its day count as an absence. Each
// subtraction is recorded as a trip for audit display. DaysPresent is floored
// at zero and DaysPresent + DaysAbsent always equals TotalDays.
func Compute(entries []*models.TravelEntry, targetCountry string, rangeStart, rangeEnd, asOf time.Time) (*models.PresenceSummary, error) {
	if rangeStart.IsZero() || rangeEnd.IsZero() {
		return nil, fmt.Errorf("presence range: %w", apperrors.ErrInvalidRange)
	}
	rangeStart, rangeEnd = DateOnly(rangeStart), DateOnly(rangeEnd)
	if rangeEnd.Before(rangeStart) {
		return nil, fmt.Errorf("presence range end %s before start %s: %w",
			rangeEnd.Format(time.DateOnly), rangeStart.Format(time.DateOnly), apperrors.ErrInvalidRange)
	}

	summary := &models.PresenceSummary{
		CountryCode: targetCountry,
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
		TotalDays:   DaysInclusive(rangeStart, rangeEnd),
		Trips:       []models.Trip{},
	}

	normalized := Normalize(entries, asOf)
	daysAbsent := 0
	for country, intervals := range normalized {
		if country == targetCountry {
			continue
		}
		for _, iv := range intervals {
			start, end, ok := overlap(iv.Start, iv.End, rangeStart, rangeEnd)
			if !ok {
				continue
			}
			days := DaysInclusive(start, end)
			daysAbsent += days
			summary.Trips = append(summary.Trips, models.Trip{
				CountryCode: country,
				Departure:   start,
				Return:      end,
				Days:        days,
			})
		}
	}

	sort.Slice(summary.Trips, func(i, j int) bool {
		if summary.Trips[i].Departure.Equal(summary.Trips[j].Departure) {
			return summary.Trips[i].CountryCode < summary.Trips[j].CountryCode
		}
		return summary.Trips[i].Departure.Before(summary.Trips[j].Departure)
	})

	// Concurrent absences in different countries can overlap, so the raw sum
	// may exceed the range; the floor keeps legal test math non-negative.
	if daysAbsent > summary.TotalDays {
		daysAbsent = summary.TotalDays
	}
	summary.DaysAbsent = daysAbsent
	summary.DaysPresent = summary.TotalDays - daysAbsent
	return summary, nil
}

// DaysInCountry sums the subject's own normalized presence in one country
// clipped to [rangeStart, rangeEnd]. This is direct counting, not presence by
// elimination; the Schengen rule uses it to total days inside the area.
func DaysInCountry(normalized map[string][]models.PresenceInterval, country string, rangeStart, rangeEnd time.Time) int {
	days := 0
	for _, iv := range normalized[country] {
		if start, end, ok := overlap(iv.Start, iv.End, rangeStart, rangeEnd); ok {
			days += DaysInclusive(start, end)
		}
	}
	return days
}
