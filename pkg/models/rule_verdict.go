package models

import "time"

// VerdictStatus is the outcome of one rule evaluation.
type VerdictStatus string

const (
	VerdictMet     VerdictStatus = "met"
	VerdictNotMet  VerdictStatus = "not_met"
	VerdictPartial VerdictStatus = "partial"
)

// RuleVerdict is the output of one rule evaluator invocation. Verdicts are
// ephemeral: recomputed on every request, never persisted verbatim.
type RuleVerdict struct {
	RuleID      string        `json:"rule_id"`
	CountryCode string        `json:"country_code"`
	Status      VerdictStatus `json:"status"`
	// Result holds the rule-specific arithmetic breakdown (day counts,
	// weighted totals, violations) for rendering.
	Result          map[string]any `json:"result"`
	Recommendations []string       `json:"recommendations"`
	EvaluatedAt     time.Time      `json:"evaluated_at"`
}
