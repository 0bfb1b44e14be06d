// Package models contains domain types for stampwise-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// CountryUnknown marks an entry whose country could not be resolved during
// extraction. Unknown entries are excluded from presence arithmetic but kept
// for audit and duplicate detection.
const CountryUnknown = "UNKNOWN"

// SourceType identifies where a travel entry was extracted from.
type SourceType string

const (
	SourcePassportStamp SourceType = "passport_stamp"
	SourceFlightEmail   SourceType = "flight_email"
	SourceManual        SourceType = "manual"
)

// EntryStatus is the review lifecycle of a travel entry.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryConfirmed EntryStatus = "confirmed"
	EntryDisputed  EntryStatus = "disputed"
	EntryIgnored   EntryStatus = "ignored"
)

// TravelEntry is one attributed presence claim: the subject was in
// CountryCode from EntryDate until ExitDate. A nil ExitDate means the stay is
// ongoing and is clipped to the evaluation date by the presence calculator.
type TravelEntry struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CountryCode string     `json:"country_code"`
	EntryDate   time.Time  `json:"entry_date"`
	ExitDate    *time.Time `json:"exit_date,omitempty"`
	SourceType  SourceType `json:"source_type"`
	// SourceID is a weak reference to the originating evidence record.
	SourceID        *uuid.UUID  `json:"source_id,omitempty"`
	ConfidenceScore float64     `json:"confidence_score"`
	Status          EntryStatus `json:"status"`

	// IsSimulated and IsModified are set only on ephemeral copies created by
	// the scenario simulator; they are never persisted.
	IsSimulated bool `json:"is_simulated,omitempty"`
	IsModified  bool `json:"is_modified,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy. The scenario simulator works on clones so the
// caller's entry set is never aliased.
func (e *TravelEntry) Clone() *TravelEntry {
	c := *e
	if e.ExitDate != nil {
		exit := *e.ExitDate
		c.ExitDate = &exit
	}
	if e.SourceID != nil {
		src := *e.SourceID
		c.SourceID = &src
	}
	return &c
}

// CloneEntries deep-copies a full entry set.
func CloneEntries(entries []*TravelEntry) []*TravelEntry {
	cloned := make([]*TravelEntry, len(entries))
	for i, e := range entries {
		cloned[i] = e.Clone()
	}
	return cloned
}
