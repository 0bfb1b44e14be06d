package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

func TestRegistryUnknownRuleFallsBack(t *testing.T) {
	opts := Options{Year: 2024, AsOf: date(2024, 12, 31)}

	verdict := NewRegistry().Evaluate("xx-mystery-rule", "US", nil, opts)

	assert.Equal(t, models.VerdictPartial, verdict.Status)
	assert.Equal(t, "xx-mystery-rule", verdict.RuleID)
	assert.Equal(t, true, verdict.Result["generic"])
	assert.Equal(t, 366, verdict.Result["days_present"])
	assert.NotEmpty(t, verdict.Recommendations)
}

func TestRegistrySchengenSuffixDispatch(t *testing.T) {
	opts := Options{AsOf: date(2024, 12, 31)}

	for _, ruleID := range []string{"fr-schengen-duration", "de-schengen-duration", "it-schengen-duration"} {
		verdict := NewRegistry().Evaluate(ruleID, "FR", nil, opts)
		assert.Equal(t, ruleID, verdict.RuleID)
		assert.Equal(t, 90, verdict.Result["day_limit"], ruleID)
	}
}

func TestRegistryDefaultsYearFromAsOf(t *testing.T) {
	verdict := NewRegistry().Evaluate(RuleCanadaTaxResidency, "CA", nil, Options{AsOf: date(2023, 12, 31)})
	assert.Equal(t, 2023, verdict.Result["year"])
	assert.Equal(t, 365, verdict.Result["days_present"])
}

func TestCatalogParses(t *testing.T) {
	infos, err := Catalog()
	require.NoError(t, err)
	require.NotEmpty(t, infos)

	seen := make(map[string]bool)
	for _, info := range infos {
		assert.NotEmpty(t, info.ID)
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Description)
		assert.False(t, seen[info.ID], "duplicate catalog id %s", info.ID)
		seen[info.ID] = true
	}

	// Every registered rule family is described.
	for _, id := range []string{
		RuleUSSubstantialPresence, RuleCanadaTaxResidency, RuleGermanyTaxResidency,
		RuleFranceTaxResidency, RuleUKStatutoryResidence, "fr-schengen-duration",
	} {
		assert.True(t, seen[id], "catalog missing %s", id)
	}
}
