// Package dedupe implements multi-signal duplicate detection over evidence
// records: pairwise similarity scoring plus greedy single-link clustering
// into duplicate groups.
package dedupe

import (
	"strings"
	"time"

	"github.com/stampwise/stampwise-engine/pkg/models"
)

// Signal names reported in DuplicateMember.MatchedSignals.
const (
	SignalText       = "text"
	SignalStructured = "structured_fields"
	SignalHash       = "content_hash"
	SignalTemporal   = "temporal_proximity"
)

// Signal weights. Weights of signals that cannot be computed for a pair
// (missing hash, no shared structured fields) are renormalized away instead
// of silently scoring zero.
const (
	weightText       = 0.3
	weightStructured = 0.4
	weightHash       = 0.2
	weightTemporal   = 0.1
)

// temporalWindow is how close two records' creation times must be for the
// temporal-proximity signal to fire. Independent sources uploading the same
// document tend to land within the same session.
const temporalWindow = time.Hour

// matchedSignalCutoff is the per-signal score above which the signal is
// reported as matched for display.
const matchedSignalCutoff = 0.5

// Score computes the weighted similarity of two evidence records in [0, 1].
// It is symmetric: Score(a, b) == Score(b, a). The returned signal list names
// the signals that matched strongly enough to show a user.
func Score(a, b *models.EvidenceRecord) (float64, []string) {
	type signal struct {
		name   string
		weight float64
		score  float64
		ok     bool
	}

	signals := []signal{
		{name: SignalText, weight: weightText},
		{name: SignalStructured, weight: weightStructured},
		{name: SignalHash, weight: weightHash},
		{name: SignalTemporal, weight: weightTemporal},
	}

	signals[0].score, signals[0].ok = textSimilarity(a.ExtractedText, b.ExtractedText)
	signals[1].score, signals[1].ok = structuredSimilarity(a, b)
	signals[2].score, signals[2].ok = hashMatch(a.ContentHash, b.ContentHash)
	signals[3].score, signals[3].ok = temporalProximity(a.CreatedAt, b.CreatedAt)

	var weightedSum, totalWeight float64
	matched := []string{}
	for _, s := range signals {
		if !s.ok {
			continue
		}
		weightedSum += s.weight * s.score
		totalWeight += s.weight
		if s.score >= matchedSignalCutoff {
			matched = append(matched, s.name)
		}
	}
	if totalWeight == 0 {
		return 0, matched
	}
	return weightedSum / totalWeight, matched
}

// textSimilarity is the Jaccard index over whitespace-tokenized lowercase
// text. Unavailable when either record has no extracted text.
func textSimilarity(a, b string) (float64, bool) {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0, false
	}

	intersection := 0
	for token := range tokensA {
		if tokensB[token] {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union), true
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		tokens[token] = true
	}
	return tokens
}

// structuredSimilarity is the fraction of matching key fields among the
// fields present in both records. Unavailable when the records share no
// populated fields.
func structuredSimilarity(a, b *models.EvidenceRecord) (float64, bool) {
	present := 0
	matching := 0

	compareString := func(x, y *string) {
		if x == nil || y == nil {
			return
		}
		present++
		if strings.EqualFold(strings.TrimSpace(*x), strings.TrimSpace(*y)) {
			matching++
		}
	}

	compareString(a.DocumentNumber, b.DocumentNumber)
	compareString(a.FullName, b.FullName)
	compareString(a.Nationality, b.Nationality)
	if a.BirthDate != nil && b.BirthDate != nil {
		present++
		ay, am, ad := a.BirthDate.Date()
		by, bm, bd := b.BirthDate.Date()
		if ay == by && am == bm && ad == bd {
			matching++
		}
	}

	if present == 0 {
		return 0, false
	}
	return float64(matching) / float64(present), true
}

// hashMatch is exact: 1 when both content hashes exist and are equal, 0 when
// both exist and differ, unavailable otherwise.
func hashMatch(a, b *string) (float64, bool) {
	if a == nil || b == nil || *a == "" || *b == "" {
		return 0, false
	}
	if *a == *b {
		return 1, true
	}
	return 0, true
}

// temporalProximity is a fixed bonus when two records were created within
// one hour of each other.
func temporalProximity(a, b time.Time) (float64, bool) {
	if a.IsZero() || b.IsZero() {
		return 0, false
	}
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	if delta <= temporalWindow {
		return 1, true
	}
	return 0, true
}
