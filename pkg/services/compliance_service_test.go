package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/rules"
)

func seedEntry(t *testing.T, repo *mockEntryRepo, userID uuid.UUID, country string, entry, exit time.Time, status models.EntryStatus) *models.TravelEntry {
	t.Helper()
	e := &models.TravelEntry{
		UserID:          userID,
		CountryCode:     country,
		EntryDate:       entry,
		SourceType:      models.SourceManual,
		ConfidenceScore: 1.0,
		Status:          status,
	}
	if !exit.IsZero() {
		e.ExitDate = &exit
	}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func TestComplianceService_ComputePresenceExcludesIgnored(t *testing.T) {
	repo := newMockEntryRepo()
	svc := NewComplianceService(repo, rules.NewRegistry(), zap.NewNop())
	userID := uuid.New()

	// Ten days in France; the same absence again as an ignored entry must
	// not double count or resurface after being ignored.
	seedEntry(t, repo, userID, "FR", date(2024, 6, 1), date(2024, 6, 10), models.EntryConfirmed)
	seedEntry(t, repo, userID, "ES", date(2024, 7, 1), date(2024, 7, 5), models.EntryIgnored)

	asOf := date(2024, 12, 31)
	summary, err := svc.ComputePresence(context.Background(), userID, "US", date(2024, 1, 1), asOf, asOf)
	require.NoError(t, err)

	assert.Equal(t, 366, summary.TotalDays)
	assert.Equal(t, 10, summary.DaysAbsent)
	assert.Equal(t, 356, summary.DaysPresent)
	require.Len(t, summary.Trips, 1)
	assert.Equal(t, "FR", summary.Trips[0].CountryCode)
}

func TestComplianceService_ComputePresenceIncludesPendingAndDisputed(t *testing.T) {
	repo := newMockEntryRepo()
	svc := NewComplianceService(repo, rules.NewRegistry(), zap.NewNop())
	userID := uuid.New()

	seedEntry(t, repo, userID, "FR", date(2024, 6, 1), date(2024, 6, 5), models.EntryPending)
	seedEntry(t, repo, userID, "DE", date(2024, 7, 1), date(2024, 7, 5), models.EntryDisputed)

	asOf := date(2024, 12, 31)
	summary, err := svc.ComputePresence(context.Background(), userID, "US", date(2024, 1, 1), asOf, asOf)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.DaysAbsent)
}

func TestComplianceService_EvaluateRule(t *testing.T) {
	repo := newMockEntryRepo()
	svc := NewComplianceService(repo, rules.NewRegistry(), zap.NewNop())
	userID := uuid.New()

	verdict, err := svc.EvaluateRule(context.Background(), userID, "no-such-rule", "US", rules.Options{
		Year: 2024,
		AsOf: date(2024, 12, 31),
	})
	require.NoError(t, err)
	assert.Equal(t, "no-such-rule", verdict.RuleID)
	assert.Equal(t, models.VerdictPartial, verdict.Status)
	assert.Equal(t, true, verdict.Result["generic"])
}

func TestComplianceService_SimulateLeavesStoredEntriesAlone(t *testing.T) {
	repo := newMockEntryRepo()
	svc := NewComplianceService(repo, rules.NewRegistry(), zap.NewNop())
	userID := uuid.New()

	stored := seedEntry(t, repo, userID, "FR", date(2024, 6, 1), date(2024, 6, 10), models.EntryConfirmed)

	newCountry := "ES"
	result, err := svc.Simulate(context.Background(), userID, []models.ScenarioChange{
		{Op: models.ChangeModifyTravel, EntryID: stored.ID, Patch: &models.TravelEntryPatch{CountryCode: &newCountry}},
	}, []string{"us-tax-residency-183"}, "US", rules.Options{Year: 2024, AsOf: date(2024, 12, 31)})
	require.NoError(t, err)

	require.Len(t, result.Before, 1)
	require.Len(t, result.After, 1)
	require.Len(t, result.Impact, 1)

	got, err := repo.GetByID(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "FR", got.CountryCode)
}

func TestComplianceService_RuleCatalog(t *testing.T) {
	svc := NewComplianceService(newMockEntryRepo(), rules.NewRegistry(), zap.NewNop())

	catalog, err := svc.RuleCatalog()
	require.NoError(t, err)
	assert.NotEmpty(t, catalog)
}
