package models

import "time"

// PresenceInterval is a normalized, non-overlapping [Start, End] span in one
// country. Derived by the interval normalizer, never persisted.
type PresenceInterval struct {
	CountryCode string    `json:"country_code"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Trip records one subtracted absence from the target country, clipped to the
// query range, for audit display.
type Trip struct {
	CountryCode string    `json:"country_code"`
	Departure   time.Time `json:"departure"`
	Return      time.Time `json:"return"`
	Days        int       `json:"days"`
}

// PresenceSummary is the presence calculator's output for one country and
// date range. DaysPresent + DaysAbsent always equals TotalDays.
type PresenceSummary struct {
	CountryCode string    `json:"country_code"`
	RangeStart  time.Time `json:"range_start"`
	RangeEnd    time.Time `json:"range_end"`
	TotalDays   int       `json:"total_days"`
	DaysPresent int       `json:"days_present"`
	DaysAbsent  int       `json:"days_absent"`
	Trips       []Trip    `json:"trips"`
}
