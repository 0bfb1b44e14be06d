package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

func TestFlatDayThresholdMetAtExactly183(t *testing.T) {
	entries := []*models.TravelEntry{
		awayFor(2024, 183), // 366 - 183 = 183 days present
	}
	opts := Options{Year: 2024, AsOf: date(2024, 12, 31)}

	verdict := NewRegistry().Evaluate(RuleCanadaTaxResidency, "CA", entries, opts)

	assert.Equal(t, models.VerdictMet, verdict.Status)
	assert.Equal(t, 183, verdict.Result["days_present"])
	assert.Equal(t, 0, verdict.Result["days_remaining"])
}

func TestFlatDayThresholdOneDayShort(t *testing.T) {
	entries := []*models.TravelEntry{
		awayFor(2024, 184), // 182 days present
	}
	opts := Options{Year: 2024, AsOf: date(2024, 12, 31)}

	verdict := NewRegistry().Evaluate(RuleGermanyTaxResidency, "DE", entries, opts)

	assert.Equal(t, models.VerdictNotMet, verdict.Status)
	assert.Equal(t, 182, verdict.Result["days_present"])
	assert.Equal(t, 1, verdict.Result["days_remaining"])
	assert.NotEmpty(t, verdict.Recommendations)
}

func TestFlatDayThresholdSharedAcrossJurisdictions(t *testing.T) {
	opts := Options{Year: 2024, AsOf: date(2024, 12, 31)}
	reg := NewRegistry()

	for _, tt := range []struct {
		ruleID  string
		country string
	}{
		{RuleCanadaTaxResidency, "CA"},
		{RuleGermanyTaxResidency, "DE"},
		{RuleFranceTaxResidency, "FR"},
	} {
		verdict := reg.Evaluate(tt.ruleID, tt.country, nil, opts)
		assert.Equal(t, models.VerdictMet, verdict.Status, tt.ruleID)
		assert.Equal(t, 366, verdict.Result["days_present"], tt.ruleID)
	}
}
