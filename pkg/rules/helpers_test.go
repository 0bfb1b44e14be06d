package rules

import (
	"time"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func entry(country string, entryDate time.Time, exitDate *time.Time) *models.TravelEntry {
	return &models.TravelEntry{
		CountryCode: country,
		EntryDate:   entryDate,
		ExitDate:    exitDate,
		Status:      models.EntryConfirmed,
	}
}

// stayOf builds an entry of exactly `days` calendar days starting at `start`.
func stayOf(country string, start time.Time, days int) *models.TravelEntry {
	exit := start.AddDate(0, 0, days-1)
	return entry(country, start, &exit)
}

// awayFor builds a single absence from the target country: an entry in
// another country of exactly `days` days starting January 1 of `year`.
// With an as-of date at year end, days present = year length - days.
func awayFor(year, days int) *models.TravelEntry {
	return stayOf("BR", date(year, time.January, 1), days)
}
