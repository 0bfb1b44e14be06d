package models

import (
	"time"

	"github.com/google/uuid"
)

// ChangeOp is a typed scenario operation.
type ChangeOp string

const (
	ChangeAddTravel    ChangeOp = "add_travel"
	ChangeRemoveTravel ChangeOp = "remove_travel"
	ChangeModifyTravel ChangeOp = "modify_travel"
)

// TravelEntryPatch is a partial update shallow-merged onto a matched entry by
// modify_travel. Nil fields are left unchanged; ClearExit reopens the stay.
type TravelEntryPatch struct {
	CountryCode *string    `json:"country_code,omitempty"`
	EntryDate   *time.Time `json:"entry_date,omitempty"`
	ExitDate    *time.Time `json:"exit_date,omitempty"`
	ClearExit   bool       `json:"clear_exit,omitempty"`
}

// ScenarioChange is one hypothetical operation on the entry set. Entry is
// used by add_travel, EntryID by remove_travel and modify_travel, Patch by
// modify_travel.
type ScenarioChange struct {
	Op      ChangeOp          `json:"op"`
	Entry   *TravelEntry      `json:"entry,omitempty"`
	EntryID uuid.UUID         `json:"entry_id,omitempty"`
	Patch   *TravelEntryPatch `json:"patch,omitempty"`
}

// ImpactClass classifies a before/after verdict-status pair.
type ImpactClass string

const (
	ImpactAchievesCompliance ImpactClass = "achieves_compliance"
	ImpactLosesCompliance    ImpactClass = "loses_compliance"
	ImpactImproved           ImpactClass = "improved"
	ImpactWorsened           ImpactClass = "worsened"
	ImpactNoChange           ImpactClass = "no_change"
)

// RuleImpact is the classified before/after outcome for one rule.
type RuleImpact struct {
	RuleID      string        `json:"rule_id"`
	Before      VerdictStatus `json:"before"`
	After       VerdictStatus `json:"after"`
	Class       ImpactClass   `json:"class"`
	Description string        `json:"description"`
}

// ScenarioResult is the scenario simulator's output: full verdicts for the
// unmodified and modified entry sets plus the per-rule classification.
type ScenarioResult struct {
	Before  []*RuleVerdict `json:"before"`
	After   []*RuleVerdict `json:"after"`
	Impact  []RuleImpact   `json:"impact"`
	Summary string         `json:"summary"`
}
