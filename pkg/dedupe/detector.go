package dedupe

import (
	"sort"

	"github.com/google/uuid"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

// DefaultThreshold is the minimum pairwise similarity for two records to be
// clustered together when the caller does not supply its own threshold.
const DefaultThreshold = 0.8

// Candidate is one clustered set of likely-duplicate records, before any
// group identity or persistence. PrimaryID is the oldest record in the
// cluster; Members covers the rest with their score against the primary.
type Candidate struct {
	PrimaryID uuid.UUID
	Members   []models.DuplicateMember
}

// Detect clusters the given records into duplicate candidates using greedy
// single-link clustering: records are visited oldest first, each unassigned
// record seeds a cluster, and every later unassigned record scoring at or
// above the threshold against the seed joins it. A record belongs to at most
// one cluster. Records are never mutated and the input slice order is
// preserved.
//
// A threshold <= 0 selects DefaultThreshold. Clusters with no members are
// not reported.
func Detect(records []*models.EvidenceRecord, threshold float64) []Candidate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	// Sort a copy by (created_at, id) so clustering is deterministic
	// regardless of input order.
	sorted := make([]*models.EvidenceRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	assigned := make(map[uuid.UUID]bool, len(sorted))
	var candidates []Candidate

	for i, seed := range sorted {
		if assigned[seed.ID] {
			continue
		}

		var members []models.DuplicateMember
		for _, other := range sorted[i+1:] {
			if assigned[other.ID] {
				continue
			}
			score, signals := Score(seed, other)
			if score < threshold {
				continue
			}
			members = append(members, models.DuplicateMember{
				RecordID:        other.ID,
				SimilarityScore: score,
				MatchedSignals:  signals,
			})
			assigned[other.ID] = true
		}

		if len(members) == 0 {
			continue
		}
		assigned[seed.ID] = true
		candidates = append(candidates, Candidate{
			PrimaryID: seed.ID,
			Members:   members,
		})
	}

	return candidates
}
