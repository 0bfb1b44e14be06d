// Package scenario implements counterfactual "what-if" evaluation: apply
// hypothetical changes to a cloned entry set, re-run the presence and rule
// pipeline, and classify the verdict movement per rule.
package scenario

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/rules"
)

// Simulate applies changes in order to a deep clone of baseEntries and
// evaluates every requested rule before and after. The caller's entry set is
// never touched. Changes referencing unknown entry IDs are silent no-ops so
// one stale ID cannot sink a whole scenario.
func Simulate(reg *rules.Registry, baseEntries []*models.TravelEntry, changes []models.ScenarioChange, ruleIDs []string, country string, opts rules.Options) *models.ScenarioResult {
	modified := applyChanges(models.CloneEntries(baseEntries), changes, opts)

	result := &models.ScenarioResult{
		Before: make([]*models.RuleVerdict, 0, len(ruleIDs)),
		After:  make([]*models.RuleVerdict, 0, len(ruleIDs)),
		Impact: make([]models.RuleImpact, 0, len(ruleIDs)),
	}

	for _, ruleID := range ruleIDs {
		before := reg.Evaluate(ruleID, country, baseEntries, opts)
		after := reg.Evaluate(ruleID, country, modified, opts)

		result.Before = append(result.Before, before)
		result.After = append(result.After, after)
		result.Impact = append(result.Impact, classify(ruleID, before.Status, after.Status))
	}

	result.Summary = summarize(result.Impact, len(changes))
	return result
}

func applyChanges(entries []*models.TravelEntry, changes []models.ScenarioChange, opts rules.Options) []*models.TravelEntry {
	for _, change := range changes {
		switch change.Op {
		case models.ChangeAddTravel:
			if change.Entry == nil {
				continue
			}
			added := change.Entry.Clone()
			if added.ID == uuid.Nil {
				added.ID = uuid.New()
			}
			added.IsSimulated = true
			if added.Status == "" {
				added.Status = models.EntryConfirmed
			}
			entries = append(entries, added)

		case models.ChangeRemoveTravel:
			for i, e := range entries {
				if e.ID == change.EntryID {
					entries = append(entries[:i], entries[i+1:]...)
					break
				}
			}

		case models.ChangeModifyTravel:
			if change.Patch == nil {
				continue
			}
			for _, e := range entries {
				if e.ID != change.EntryID {
					continue
				}
				applyPatch(e, change.Patch)
				break
			}
		}
	}
	return entries
}

// applyPatch shallow-merges non-nil patch fields onto the entry.
func applyPatch(e *models.TravelEntry, patch *models.TravelEntryPatch) {
	if patch.CountryCode != nil {
		e.CountryCode = *patch.CountryCode
	}
	if patch.EntryDate != nil {
		e.EntryDate = *patch.EntryDate
	}
	if patch.ClearExit {
		e.ExitDate = nil
	} else if patch.ExitDate != nil {
		exit := *patch.ExitDate
		e.ExitDate = &exit
	}
	e.IsSimulated = true
	e.IsModified = true
}

// classify maps a before/after status pair to an impact class. The
// classification reads only the two statuses, never the numeric results.
func classify(ruleID string, before, after models.VerdictStatus) models.RuleImpact {
	impact := models.RuleImpact{RuleID: ruleID, Before: before, After: after}

	switch {
	case before == after:
		impact.Class = models.ImpactNoChange
		impact.Description = fmt.Sprintf("%s: no status change (%s)", ruleID, before)
	case after == models.VerdictMet:
		impact.Class = models.ImpactAchievesCompliance
		impact.Description = fmt.Sprintf("%s: achieves compliance (%s -> %s)", ruleID, before, after)
	case before == models.VerdictMet:
		impact.Class = models.ImpactLosesCompliance
		impact.Description = fmt.Sprintf("%s: loses compliance (%s -> %s)", ruleID, before, after)
	case before == models.VerdictNotMet && after == models.VerdictPartial:
		impact.Class = models.ImpactImproved
		impact.Description = fmt.Sprintf("%s: moves closer to compliance (%s -> %s)", ruleID, before, after)
	default:
		impact.Class = models.ImpactWorsened
		impact.Description = fmt.Sprintf("%s: moves away from compliance (%s -> %s)", ruleID, before, after)
	}
	return impact
}

func summarize(impacts []models.RuleImpact, changeCount int) string {
	counts := make(map[models.ImpactClass]int)
	for _, impact := range impacts {
		counts[impact.Class]++
	}

	return fmt.Sprintf("%d change(s) across %d rule(s): %d achieve compliance, %d lose compliance, %d unchanged",
		changeCount, len(impacts),
		counts[models.ImpactAchievesCompliance],
		counts[models.ImpactLosesCompliance],
		counts[models.ImpactNoChange])
}
