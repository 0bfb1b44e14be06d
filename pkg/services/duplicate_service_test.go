package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/apperrors"
	"github.com/stampwise/stampwise-engine/pkg/models"
)

// seedRecord stores an active record whose hash and text make it an exact
// duplicate of any sibling seeded with the same label.
func seedRecord(t *testing.T, repo *mockRecordRepo, userID uuid.UUID, label string, createdAt time.Time) *models.EvidenceRecord {
	t.Helper()
	hash := "hash-" + label
	r := &models.EvidenceRecord{
		UserID:        userID,
		Kind:          models.EvidencePassportScan,
		ExtractedText: "passport " + label + " republic of france",
		ContentHash:   &hash,
		Status:        models.RecordActive,
		CreatedAt:     createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

func newDuplicateFixture() (*mockRecordRepo, *mockGroupRepo, DuplicateService) {
	recordRepo := newMockRecordRepo()
	groupRepo := newMockGroupRepo()
	svc := NewDuplicateService(recordRepo, groupRepo, 0, zap.NewNop())
	return recordRepo, groupRepo, svc
}

func TestDuplicateService_ScanCreatesPendingGroups(t *testing.T) {
	recordRepo, _, svc := newDuplicateFixture()
	userID := uuid.New()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	primary := seedRecord(t, recordRepo, userID, "a", base)
	dup := seedRecord(t, recordRepo, userID, "a", base.Add(time.Minute))
	seedRecord(t, recordRepo, userID, "unrelated completely different flight email", base.Add(2*time.Minute))

	groups, err := svc.Scan(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	group := groups[0]
	assert.Equal(t, models.GroupPending, group.Status)
	assert.Equal(t, primary.ID, group.PrimaryID)
	require.Len(t, group.Members, 1)
	assert.Equal(t, dup.ID, group.Members[0].RecordID)
	assert.InDelta(t, 1.0, group.Members[0].SimilarityScore, 1e-9)
}

func TestDuplicateService_ScanSkipsRecordsInPendingGroups(t *testing.T) {
	recordRepo, _, svc := newDuplicateFixture()
	userID := uuid.New()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	seedRecord(t, recordRepo, userID, "a", base)
	seedRecord(t, recordRepo, userID, "a", base.Add(time.Minute))

	first, err := svc.Scan(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Same data again: every record is claimed by the pending group.
	second, err := svc.Scan(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestDuplicateService_ScanAfterResolution(t *testing.T) {
	recordRepo, _, svc := newDuplicateFixture()
	userID := uuid.New()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	seedRecord(t, recordRepo, userID, "a", base)
	seedRecord(t, recordRepo, userID, "a", base.Add(time.Minute))

	groups, err := svc.Scan(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	_, err = svc.Resolve(context.Background(), groups[0].ID, models.ResolutionMerge)
	require.NoError(t, err)

	// Merged records are no longer active, so nothing is left to cluster.
	again, err := svc.Scan(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestDuplicateService_ResolveActions(t *testing.T) {
	tests := []struct {
		action models.ResolutionAction
		status models.RecordStatus
	}{
		{models.ResolutionMerge, models.RecordMerged},
		{models.ResolutionDelete, models.RecordDeleted},
		{models.ResolutionIgnore, models.RecordIgnored},
	}

	for _, tc := range tests {
		t.Run(string(tc.action), func(t *testing.T) {
			recordRepo, _, svc := newDuplicateFixture()
			userID := uuid.New()
			base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

			primary := seedRecord(t, recordRepo, userID, "a", base)
			dup := seedRecord(t, recordRepo, userID, "a", base.Add(time.Minute))

			groups, err := svc.Scan(context.Background(), userID, 0)
			require.NoError(t, err)
			require.Len(t, groups, 1)

			resolved, err := svc.Resolve(context.Background(), groups[0].ID, tc.action)
			require.NoError(t, err)
			assert.Equal(t, models.GroupResolved, resolved.Status)
			require.NotNil(t, resolved.ResolutionAction)
			assert.Equal(t, tc.action, *resolved.ResolutionAction)
			assert.NotNil(t, resolved.ResolvedAt)

			gotPrimary, err := recordRepo.GetByID(context.Background(), primary.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RecordActive, gotPrimary.Status)

			gotDup, err := recordRepo.GetByID(context.Background(), dup.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.status, gotDup.Status)
		})
	}
}

func TestDuplicateService_ResolveTwice(t *testing.T) {
	recordRepo, _, svc := newDuplicateFixture()
	userID := uuid.New()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	seedRecord(t, recordRepo, userID, "a", base)
	seedRecord(t, recordRepo, userID, "a", base.Add(time.Minute))

	groups, err := svc.Scan(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	_, err = svc.Resolve(context.Background(), groups[0].ID, models.ResolutionMerge)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), groups[0].ID, models.ResolutionDelete)
	assert.ErrorIs(t, err, apperrors.ErrGroupResolved)
}

func TestDuplicateService_ResolveUnknownAction(t *testing.T) {
	_, _, svc := newDuplicateFixture()

	_, err := svc.Resolve(context.Background(), uuid.New(), models.ResolutionAction("squash"))
	assert.Error(t, err)
}

func TestDuplicateService_ResolveMissingGroup(t *testing.T) {
	_, _, svc := newDuplicateFixture()

	_, err := svc.Resolve(context.Background(), uuid.New(), models.ResolutionMerge)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
