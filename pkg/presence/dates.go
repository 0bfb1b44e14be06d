// Package presence implements the interval normalizer and the presence
// calculator: it turns raw, possibly-overlapping travel entries into disjoint
// per-country intervals and computes days-present arithmetic over them.
//
// All dates are naive calendar dates: timestamps are truncated to UTC
// midnight before any arithmetic and day counts are inclusive on both ends.
package presence

import "time"

// DateOnly truncates a timestamp to a UTC calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysInclusive counts calendar days in [start, end], both ends included.
// A zero-length interval (start == end) is one day.
func DaysInclusive(start, end time.Time) int {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// maxDate and minDate pick interval bounds for clipping.
func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// overlap clips [aStart, aEnd] to [bStart, bEnd]. ok is false when the two
// ranges share no day.
func overlap(aStart, aEnd, bStart, bEnd time.Time) (start, end time.Time, ok bool) {
	start = maxDate(aStart, bStart)
	end = minDate(aEnd, bEnd)
	if end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
