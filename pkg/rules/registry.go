// Package rules implements the compliance rule evaluator: a registry of
// per-rule evaluators that consume travel entries through the presence
// calculator and return verdicts with their supporting arithmetic.
//
// The thresholds in this package are legally meaningful values taken from the
// statutes they model. Do not "fix" them.
package rules

import (
	"strings"
	"time"

	"github.com/stampwise/stampwise-engine/pkg/models"
	"github.com/stampwise/stampwise-engine/pkg/presence"
)

// Options carries the caller-supplied evaluation parameters. Every public
// entry point takes an explicit as-of date so evaluation stays deterministic;
// the zero value falls back to wall clock at the registry boundary.
type Options struct {
	// Year is the calendar year under evaluation. Zero means the as-of year.
	Year int `json:"year"`
	// AsOf closes open-ended stays and anchors "current" computations.
	AsOf time.Time `json:"as_of"`
	// TieCount is the number of UK Statutory Residence Test ties the subject
	// claims. Only the UK rule reads it.
	TieCount int `json:"tie_count"`
}

func (o Options) withDefaults() Options {
	if o.AsOf.IsZero() {
		o.AsOf = time.Now().UTC()
	}
	o.AsOf = presence.DateOnly(o.AsOf)
	if o.Year == 0 {
		o.Year = o.AsOf.Year()
	}
	return o
}

// Input is everything an evaluator sees. Evaluators are pure functions over
// it: no I/O, no clock reads, and the entry list is never mutated.
type Input struct {
	RuleID  string
	Country string
	Entries []*models.TravelEntry
	Opts    Options
}

type evaluator func(in Input) *models.RuleVerdict

// Registry dispatches rule IDs to evaluators. Unknown IDs degrade to a
// generic days-present report instead of failing.
type Registry struct {
	evaluators map[string]evaluator
}

// NewRegistry returns a registry with all built-in jurisdiction rules.
func NewRegistry() *Registry {
	r := &Registry{evaluators: make(map[string]evaluator)}

	r.register(RuleUSSubstantialPresence, evaluateSubstantialPresence)
	r.register(RuleUKStatutoryResidence, evaluateUKStatutoryResidence)
	for _, id := range []string{RuleCanadaTaxResidency, RuleGermanyTaxResidency, RuleFranceTaxResidency} {
		r.register(id, evaluateFlatDayThreshold)
	}
	return r
}

func (r *Registry) register(ruleID string, ev evaluator) {
	r.evaluators[ruleID] = ev
}

// Evaluate runs one rule against the entry set. Data-quality problems degrade
// the verdict; Evaluate itself never fails.
func (r *Registry) Evaluate(ruleID, country string, entries []*models.TravelEntry, opts Options) *models.RuleVerdict {
	in := Input{
		RuleID:  ruleID,
		Country: country,
		Entries: entries,
		Opts:    opts.withDefaults(),
	}

	if ev, ok := r.evaluators[ruleID]; ok {
		return ev(in)
	}
	// Any jurisdiction can ask the shared Schengen question, so the rule
	// family matches by suffix: fr-schengen-duration, de-schengen-duration...
	if strings.HasSuffix(ruleID, schengenRuleSuffix) {
		return evaluateSchengenWindow(in)
	}
	return evaluateGenericPresence(in)
}

// calendarYear returns the inclusive range for one calendar year, with the
// end clipped to asOf so days that have not happened yet are not counted.
// A year entirely after asOf yields (zero, zero, false).
func calendarYear(year int, asOf time.Time) (start, end time.Time, ok bool) {
	start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if asOf.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	if asOf.Before(end) {
		end = asOf
	}
	return start, end, true
}

// yearDaysPresent runs the presence calculator restricted to one calendar
// year and returns days present in the country. Zero for future years.
func yearDaysPresent(in Input, year int) int {
	start, end, ok := calendarYear(year, in.Opts.AsOf)
	if !ok {
		return 0
	}
	summary, err := presence.Compute(in.Entries, in.Country, start, end, in.Opts.AsOf)
	if err != nil {
		return 0
	}
	return summary.DaysPresent
}
