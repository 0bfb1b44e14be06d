package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

func TestSubstantialPresenceMet(t *testing.T) {
	// 130 current-year days, 150 prior-year days, 90 two years back:
	// 130 + 150/3 + 90/6 = 195 >= 183, and 130 >= 31.
	entries := []*models.TravelEntry{
		awayFor(2024, 236), // 366 - 236 = 130
		awayFor(2023, 215), // 365 - 215 = 150
		awayFor(2022, 275), // 365 - 275 = 90
	}
	opts := Options{Year: 2024, AsOf: date(2024, 12, 31)}

	verdict := NewRegistry().Evaluate(RuleUSSubstantialPresence, "US", entries, opts)

	assert.Equal(t, models.VerdictMet, verdict.Status)
	assert.Equal(t, 130, verdict.Result["current_year_days"])
	assert.Equal(t, 150, verdict.Result["prior_year_days"])
	assert.Equal(t, 90, verdict.Result["two_years_ago_days"])
	assert.InDelta(t, 195.0, verdict.Result["weighted_total"].(float64), 0.01)
}

func TestSubstantialPresenceRequiresMinimumCurrentDays(t *testing.T) {
	// Heavy prior-year presence cannot compensate for fewer than 31 days in
	// the current year.
	entries := []*models.TravelEntry{
		awayFor(2024, 346), // 20 current-year days
	}
	opts := Options{Year: 2024, AsOf: date(2024, 12, 31)}

	verdict := NewRegistry().Evaluate(RuleUSSubstantialPresence, "US", entries, opts)

	assert.Equal(t, models.VerdictNotMet, verdict.Status)
	assert.Equal(t, 20, verdict.Result["current_year_days"])
	assert.NotEmpty(t, verdict.Recommendations)
}

func TestSubstantialPresenceBelowWeightedThreshold(t *testing.T) {
	// 100 + 60/3 + 60/6 = 130 < 183.
	entries := []*models.TravelEntry{
		awayFor(2024, 266),
		awayFor(2023, 305),
		awayFor(2022, 305),
	}
	opts := Options{Year: 2024, AsOf: date(2024, 12, 31)}

	verdict := NewRegistry().Evaluate(RuleUSSubstantialPresence, "US", entries, opts)

	require.Equal(t, models.VerdictNotMet, verdict.Status)
	assert.InDelta(t, 130.0, verdict.Result["weighted_total"].(float64), 0.01)
}

func TestSubstantialPresenceWeightedTotalMonotonic(t *testing.T) {
	// Shrinking the current-year absence (more days present) must never
	// decrease the weighted total, holding the other years fixed.
	opts := Options{Year: 2024, AsOf: date(2024, 12, 31)}
	reg := NewRegistry()

	prev := -1.0
	for away := 300; away >= 0; away -= 50 {
		entries := []*models.TravelEntry{
			awayFor(2023, 100),
			awayFor(2022, 200),
		}
		if away > 0 {
			entries = append(entries, awayFor(2024, away))
		}

		verdict := reg.Evaluate(RuleUSSubstantialPresence, "US", entries, opts)
		weighted := verdict.Result["weighted_total"].(float64)
		assert.GreaterOrEqual(t, weighted, prev)
		prev = weighted
	}
}

func TestSubstantialPresenceEmptyEntriesAssumesFullPresence(t *testing.T) {
	// Presence by elimination: with no travel evidence the subject was in the
	// target country the whole time.
	opts := Options{Year: 2024, AsOf: date(2024, 12, 31)}

	verdict := NewRegistry().Evaluate(RuleUSSubstantialPresence, "US", nil, opts)

	assert.Equal(t, models.VerdictMet, verdict.Status)
	assert.Equal(t, 366, verdict.Result["current_year_days"])
}

func TestSubstantialPresenceCurrentYearClippedToAsOf(t *testing.T) {
	opts := Options{Year: 2024, AsOf: date(2024, time.March, 31)}

	verdict := NewRegistry().Evaluate(RuleUSSubstantialPresence, "US", nil, opts)

	// Jan 1 through Mar 31.
	assert.Equal(t, 91, verdict.Result["current_year_days"])
}
