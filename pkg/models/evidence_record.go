package models

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceKind identifies the type of uploaded evidence.
type EvidenceKind string

const (
	EvidencePassportScan EvidenceKind = "passport_scan"
	EvidenceFlightEmail  EvidenceKind = "flight_email"
)

// RecordStatus is the lifecycle of an evidence record. Duplicate resolution
// moves records out of "active"; only active records feed extraction.
type RecordStatus string

const (
	RecordActive  RecordStatus = "active"
	RecordMerged  RecordStatus = "merged"
	RecordIgnored RecordStatus = "ignored"
	RecordDeleted RecordStatus = "deleted"
)

// EvidenceRecord is one piece of raw evidence (a passport scan or a parsed
// confirmation email) as produced by the external extraction pipeline. The
// structured fields are nullable because extraction frequently fails to read
// some of them.
type EvidenceRecord struct {
	ID            uuid.UUID    `json:"id"`
	UserID        uuid.UUID    `json:"user_id"`
	Kind          EvidenceKind `json:"kind"`
	ExtractedText string       `json:"extracted_text"`

	DocumentNumber *string    `json:"document_number,omitempty"`
	FullName       *string    `json:"full_name,omitempty"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Nationality    *string    `json:"nationality,omitempty"`

	// ContentHash is the SHA-256 of the raw upload, when the binary payload
	// was available at ingest time.
	ContentHash *string `json:"content_hash,omitempty"`

	Status    RecordStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
