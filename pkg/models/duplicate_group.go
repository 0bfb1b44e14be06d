package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupStatus is the lifecycle of a duplicate group.
type GroupStatus string

const (
	GroupPending  GroupStatus = "pending"
	GroupResolved GroupStatus = "resolved"
)

// ResolutionAction is the user's decision for a duplicate group.
type ResolutionAction string

const (
	ResolutionMerge  ResolutionAction = "merge"
	ResolutionDelete ResolutionAction = "delete"
	ResolutionIgnore ResolutionAction = "ignore"
)

// DuplicateMember is one evidence record clustered into a group, with the
// similarity score against the group's primary and the signals that matched.
type DuplicateMember struct {
	RecordID        uuid.UUID `json:"record_id"`
	SimilarityScore float64   `json:"similarity_score"`
	MatchedSignals  []string  `json:"matched_signals"`
}

// DuplicateGroup is a cluster of evidence records believed to represent the
// same real-world document or event. Created pending by the detector; once a
// user resolves it the group becomes immutable audit history.
type DuplicateGroup struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	PrimaryID uuid.UUID         `json:"primary_id"`
	Members   []DuplicateMember `json:"members"`
	Status    GroupStatus       `json:"status"`

	ResolutionAction *ResolutionAction `json:"resolution_action,omitempty"`
	ResolvedAt       *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ContainsRecord reports whether the group includes the given record,
// counting the primary.
func (g *DuplicateGroup) ContainsRecord(recordID uuid.UUID) bool {
	if g.PrimaryID == recordID {
		return true
	}
	for _, m := range g.Members {
		if m.RecordID == recordID {
			return true
		}
	}
	return false
}
