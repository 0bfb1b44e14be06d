package dedupe

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func record(id string, createdAt time.Time) *models.EvidenceRecord {
	return &models.EvidenceRecord{
		ID:        uuid.MustParse(id),
		UserID:    uuid.MustParse("00000000-0000-0000-0000-0000000000aa"),
		Kind:      models.EvidencePassportScan,
		Status:    models.RecordActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

const (
	idA = "11111111-1111-1111-1111-111111111111"
	idB = "22222222-2222-2222-2222-222222222222"
	idC = "33333333-3333-3333-3333-333333333333"
	idD = "44444444-4444-4444-4444-444444444444"
)

var baseTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func TestScoreSymmetric(t *testing.T) {
	a := record(idA, baseTime)
	a.ExtractedText = "john smith passport ab123456"
	a.DocumentNumber = strPtr("AB123456")
	a.FullName = strPtr("John Smith")

	b := record(idB, baseTime.Add(30*time.Minute))
	b.ExtractedText = "passport ab123456 john smith issued paris"
	b.DocumentNumber = strPtr("AB123456")
	b.FullName = strPtr("John Smith")

	scoreAB, signalsAB := Score(a, b)
	scoreBA, signalsBA := Score(b, a)

	assert.Equal(t, scoreAB, scoreBA)
	assert.ElementsMatch(t, signalsAB, signalsBA)
}

func TestScoreIdenticalRecords(t *testing.T) {
	a := record(idA, baseTime)
	a.ExtractedText = "john smith passport ab123456"
	a.DocumentNumber = strPtr("AB123456")
	a.FullName = strPtr("John Smith")
	a.ContentHash = strPtr("deadbeef")

	b := record(idB, baseTime)
	b.ExtractedText = a.ExtractedText
	b.DocumentNumber = strPtr("AB123456")
	b.FullName = strPtr("John Smith")
	b.ContentHash = strPtr("deadbeef")

	score, signals := Score(a, b)
	assert.InDelta(t, 1.0, score, 1e-9)
	assert.ElementsMatch(t, []string{SignalText, SignalStructured, SignalHash, SignalTemporal}, signals)
}

// Two records with text overlap 0.5, fully matching structured fields, no
// content hash on either side, and creation times within the hour. The hash
// weight is renormalized away: (0.3*0.5 + 0.4*1.0 + 0.1*1.0) / 0.8 = 0.8125.
func TestScoreRenormalizesMissingHash(t *testing.T) {
	a := record(idA, baseTime)
	a.ExtractedText = "john smith passport ab123456"
	a.DocumentNumber = strPtr("AB123456")
	a.FullName = strPtr("John Smith")

	b := record(idB, baseTime.Add(20*time.Minute))
	b.ExtractedText = "john smith passport ab123456 issued france paris 2020"
	b.DocumentNumber = strPtr("AB123456")
	b.FullName = strPtr("John Smith")

	score, signals := Score(a, b)
	assert.InDelta(t, 0.8125, score, 1e-9)
	assert.ElementsMatch(t, []string{SignalText, SignalStructured, SignalTemporal}, signals)
}

func TestScoreNoSignalsAvailable(t *testing.T) {
	a := record(idA, time.Time{})
	b := record(idB, time.Time{})

	score, signals := Score(a, b)
	assert.Zero(t, score)
	assert.Empty(t, signals)
}

func TestScoreStructuredFieldsCaseAndWhitespaceInsensitive(t *testing.T) {
	a := record(idA, baseTime)
	a.DocumentNumber = strPtr(" ab123456 ")
	a.Nationality = strPtr("FR")

	b := record(idB, baseTime.Add(48*time.Hour))
	b.DocumentNumber = strPtr("AB123456")
	b.Nationality = strPtr("fr")

	score, signals := Score(a, b)
	// structured = 1.0, temporal = 0: (0.4*1.0 + 0.1*0) / 0.5 = 0.8
	assert.InDelta(t, 0.8, score, 1e-9)
	assert.ElementsMatch(t, []string{SignalStructured}, signals)
}

func TestScoreDifferingHashPullsScoreDown(t *testing.T) {
	a := record(idA, baseTime)
	a.DocumentNumber = strPtr("AB123456")
	a.ContentHash = strPtr("aaaa")

	b := record(idB, baseTime)
	b.DocumentNumber = strPtr("AB123456")
	b.ContentHash = strPtr("bbbb")

	score, signals := Score(a, b)
	// (0.4*1 + 0.2*0 + 0.1*1) / 0.7
	assert.InDelta(t, 0.5/0.7, score, 1e-9)
	assert.NotContains(t, signals, SignalHash)
}

func TestScoreBirthDateComparedByDay(t *testing.T) {
	a := record(idA, baseTime)
	a.BirthDate = timePtr(time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC))

	b := record(idB, baseTime)
	b.BirthDate = timePtr(time.Date(1990, 3, 14, 23, 59, 0, 0, time.UTC))

	score, _ := Score(a, b)
	// structured = 1.0 (birth date only), temporal = 1.0
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestDetectClustersAboveThreshold(t *testing.T) {
	a := record(idA, baseTime)
	a.DocumentNumber = strPtr("AB123456")
	a.FullName = strPtr("John Smith")

	b := record(idB, baseTime.Add(10*time.Minute))
	b.DocumentNumber = strPtr("AB123456")
	b.FullName = strPtr("John Smith")

	c := record(idC, baseTime.Add(20*time.Minute))
	c.DocumentNumber = strPtr("ZZ999999")
	c.FullName = strPtr("Ana Pereira")

	candidates := Detect([]*models.EvidenceRecord{c, b, a}, 0)
	require.Len(t, candidates, 1)

	// Oldest record seeds the cluster.
	assert.Equal(t, a.ID, candidates[0].PrimaryID)
	require.Len(t, candidates[0].Members, 1)
	assert.Equal(t, b.ID, candidates[0].Members[0].RecordID)
	assert.GreaterOrEqual(t, candidates[0].Members[0].SimilarityScore, DefaultThreshold)
}

func TestDetectDeterministicAcrossInputOrder(t *testing.T) {
	make4 := func() []*models.EvidenceRecord {
		a := record(idA, baseTime)
		a.DocumentNumber = strPtr("AB123456")
		a.FullName = strPtr("John Smith")
		b := record(idB, baseTime.Add(5*time.Minute))
		b.DocumentNumber = strPtr("AB123456")
		b.FullName = strPtr("John Smith")
		c := record(idC, baseTime.Add(10*time.Minute))
		c.DocumentNumber = strPtr("AB123456")
		c.FullName = strPtr("John Smith")
		d := record(idD, baseTime.Add(72*time.Hour))
		d.DocumentNumber = strPtr("CD777777")
		d.FullName = strPtr("Someone Else")
		return []*models.EvidenceRecord{a, b, c, d}
	}

	forward := make4()
	reversed := make4()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	first := Detect(forward, 0)
	second := Detect(reversed, 0)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].PrimaryID, second[i].PrimaryID)
		require.Equal(t, len(first[i].Members), len(second[i].Members))
		for j := range first[i].Members {
			assert.Equal(t, first[i].Members[j].RecordID, second[i].Members[j].RecordID)
		}
	}
}

func TestDetectRecordBelongsToAtMostOneCluster(t *testing.T) {
	a := record(idA, baseTime)
	a.DocumentNumber = strPtr("AB123456")
	a.FullName = strPtr("John Smith")
	b := record(idB, baseTime.Add(5*time.Minute))
	b.DocumentNumber = strPtr("AB123456")
	b.FullName = strPtr("John Smith")
	c := record(idC, baseTime.Add(10*time.Minute))
	c.DocumentNumber = strPtr("AB123456")
	c.FullName = strPtr("John Smith")

	candidates := Detect([]*models.EvidenceRecord{a, b, c}, 0)
	require.Len(t, candidates, 1)

	seen := map[uuid.UUID]bool{candidates[0].PrimaryID: true}
	for _, m := range candidates[0].Members {
		assert.False(t, seen[m.RecordID])
		seen[m.RecordID] = true
	}
	assert.Len(t, seen, 3)
}

func TestDetectCustomThreshold(t *testing.T) {
	a := record(idA, baseTime)
	a.DocumentNumber = strPtr("AB123456")
	a.Nationality = strPtr("FR")

	b := record(idB, baseTime.Add(48*time.Hour))
	b.DocumentNumber = strPtr("AB123456")
	b.Nationality = strPtr("FR")

	// Pair scores 0.8 exactly (structured match, temporal miss).
	records := []*models.EvidenceRecord{a, b}

	assert.Len(t, Detect(records, 0.81), 0)
	assert.Len(t, Detect(records, 0.8), 1)
}

func TestDetectDoesNotMutateInput(t *testing.T) {
	a := record(idA, baseTime)
	a.DocumentNumber = strPtr("AB123456")
	b := record(idB, baseTime)
	b.DocumentNumber = strPtr("AB123456")

	records := []*models.EvidenceRecord{b, a}
	Detect(records, 0)

	assert.Equal(t, b.ID, records[0].ID)
	assert.Equal(t, a.ID, records[1].ID)
	assert.Equal(t, models.RecordActive, a.Status)
	assert.Equal(t, models.RecordActive, b.Status)
}

func TestDetectEmptyAndSingle(t *testing.T) {
	assert.Empty(t, Detect(nil, 0))
	assert.Empty(t, Detect([]*models.EvidenceRecord{record(idA, baseTime)}, 0))
}
