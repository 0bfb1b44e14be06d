package models

// InsightSeverity ranks how urgently an insight should be surfaced.
type InsightSeverity string

const (
	SeverityInfo    InsightSeverity = "info"
	SeverityWarning InsightSeverity = "warning"
)

// InsightKind identifies the condition an insight reports.
type InsightKind string

const (
	InsightThresholdProximity   InsightKind = "threshold_proximity"
	InsightUnresolvedDuplicates InsightKind = "unresolved_duplicates"
	InsightLowConfidenceEntries InsightKind = "low_confidence_entries"
	InsightOpenEndedStay        InsightKind = "open_ended_stay"
)

// Insight is a human-readable advisory produced from presence and duplicate
// detection outputs. Advisory only; verdicts carry the legal arithmetic.
type Insight struct {
	Kind        InsightKind     `json:"kind"`
	Severity    InsightSeverity `json:"severity"`
	CountryCode string          `json:"country_code,omitempty"`
	Message     string          `json:"message"`
}
