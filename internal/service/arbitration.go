package service

import (
	"time"

	"github.com/cortexmem/recall/internal/domain"
)

// ClassifyIntent buckets a query into fact / how / why using lexical
// heuristics. Ambiguous queries (both "how" and "why" markers, or neither)
// default to fact.
func ClassifyIntent(query string) domain.Intent {
	tokens := tokenize(query)

	how := hasAny(tokens, "how", "steps", "procedure", "instructions")
	why := hasAny(tokens, "why", "because", "reason", "explain")

	switch {
	case how && !why:
		return domain.IntentHow
	case why && !how:
		return domain.IntentWhy
	default:
		return domain.IntentFact
	}
}

func hasAny(tokens map[string]struct{}, words ...string) bool {
	for _, w := range words {
		if _, ok := tokens[w]; ok {
			return true
		}
	}
	return false
}

// EffectiveWeights blends the uniform base table, the per-intent multipliers,
// and the learned profile into one normalized weight vector over provenance
// classes. Floors and renormalization keep every class represented.
func EffectiveWeights(cfg domain.ArbitrationConfig, intent domain.Intent, profile domain.ArbitrationProfile) domain.ArbitrationProfile {
	multipliers := cfg.IntentMultipliers[intent]

	var blended domain.ArbitrationProfile
	for _, class := range domain.ProvenanceClasses {
		m := 1.0
		if multipliers != nil {
			if v, ok := multipliers[class]; ok && v > 0 {
				m = v
			}
		}
		w := 0.25 * m * profile.Weight(class) * float64(len(domain.ProvenanceClasses))
		blended = blended.Shifted(map[domain.ProvenanceClass]float64{class: w})
	}

	return blended.Normalized(cfg.WeightFloor)
}

// ApplyWeights scales each candidate's final score by its provenance class
// weight. Weights are multiplied back up by the class count so a uniform
// profile with no intent boost leaves scores untouched. Ordering is
// re-established afterwards.
func ApplyWeights(candidates []ScoredCandidate, weights domain.ArbitrationProfile) {
	n := float64(len(domain.ProvenanceClasses))
	for i := range candidates {
		if candidates[i].Breakdown == nil {
			continue
		}
		candidates[i].Breakdown.Final *= weights.Weight(candidates[i].Provenance) * n
	}
	SortByScore(candidates)
}

// ResolveConflicts finds candidates sharing an assertion key and applies the
// configured conflict policy pairwise. Losers are flagged contradicted so the
// scorer's conflict penalty lands in their breakdown; near-ties may be marked
// uncertain instead, depending on policy.
func ResolveConflicts(candidates []domain.Candidate, cfg domain.ArbitrationConfig) {
	byKey := make(map[string][]int)
	for i, c := range candidates {
		if c.AssertionKey == "" {
			continue
		}
		byKey[c.AssertionKey] = append(byKey[c.AssertionKey], i)
	}

	for _, idxs := range byKey {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				resolvePair(&candidates[idxs[a]], &candidates[idxs[b]], cfg)
			}
		}
	}
}

func resolvePair(a, b *domain.Candidate, cfg domain.ArbitrationConfig) {
	margin := a.Confidence - b.Confidence
	if margin < 0 {
		margin = -margin
	}

	// A clear confidence gap needs no policy: the stronger claim wins.
	if margin > cfg.ConflictEpsilon {
		loserByConfidence(a, b).Contradicted = true
		return
	}

	switch cfg.ConflictPolicy {
	case domain.ConflictConfidence:
		loserByConfidence(a, b).Contradicted = true
	case domain.ConflictRecency:
		loserByRecency(a, b).Contradicted = true
	case domain.ConflictUncertain:
		a.Uncertain = true
		b.Uncertain = true
	default: // hierarchical
		loser := loserByConfidence(a, b)
		winner := a
		if loser == a {
			winner = b
		}
		loser.Contradicted = true
		if margin < cfg.UncertainMargin {
			winner.Uncertain = true
		}
	}
}

func loserByConfidence(a, b *domain.Candidate) *domain.Candidate {
	if a.Confidence > b.Confidence {
		return b
	}
	if b.Confidence > a.Confidence {
		return a
	}
	// Equal confidence: recency decides deterministically.
	return loserByRecency(a, b)
}

func loserByRecency(a, b *domain.Candidate) *domain.Candidate {
	// A missing timestamp is treated as "now", i.e. newest.
	now := time.Now()
	ta, tb := now, now
	if a.Timestamp != nil {
		ta = *a.Timestamp
	}
	if b.Timestamp != nil {
		tb = *b.Timestamp
	}
	if ta.After(tb) {
		return b
	}
	if tb.After(ta) {
		return a
	}
	if a.ID < b.ID {
		return b
	}
	return a
}
