package service

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cortexmem/recall/internal/domain"
)

const maxKeywordBoost = 0.15

// Select runs the candidate selection pipeline: threshold filter, then the
// configured fallbacks in order. The returned reason names which stage
// produced the final set, so callers can explain why a result surfaced.
// With every optional stage disabled this is a plain threshold filter.
func Select(candidates []ScoredCandidate, query string, cfg domain.SelectionConfig) ([]ScoredCandidate, domain.Reason) {
	if len(candidates) == 0 {
		return nil, domain.ReasonNoCandidates
	}

	kept := filterBySimilarity(candidates, cfg.Threshold)
	reason := domain.ReasonThreshold

	if len(kept) == 0 && cfg.DynamicThresholdEnabled {
		top := topSimilarity(candidates)
		used := cfg.Threshold
		if dynamic := max(cfg.FloorThreshold, top*0.98); dynamic < used {
			used = dynamic
		}
		kept = filterBySimilarity(candidates, used)
		if len(kept) > 0 {
			reason = domain.ReasonDynamicThreshold
		}
	}

	if len(kept) > 0 && cfg.KeywordBoostEnabled {
		kept = sortByBoostedSimilarity(kept, query, cfg.KeywordBoostUnit)
	}

	if len(kept) > 0 && cfg.MMREnabled {
		kept = MMR(kept, cfg.MMRK, cfg.MMRLambda)
	}

	if len(kept) == 0 && cfg.Top1FallbackEnabled {
		if best := topBySimilarity(candidates, 1); len(best) > 0 {
			return best, domain.ReasonTop1Fallback
		}
	}

	if len(kept) == 0 && cfg.MinResults > 0 {
		if backfill := topBySimilarity(candidates, cfg.MinResults); len(backfill) > 0 {
			return backfill, domain.ReasonMinResults
		}
	}

	if len(kept) == 0 {
		return nil, domain.ReasonBelowThreshold
	}
	return kept, reason
}

func filterBySimilarity(candidates []ScoredCandidate, threshold float64) []ScoredCandidate {
	var kept []ScoredCandidate
	for _, c := range candidates {
		if c.RawSimilarity >= threshold {
			kept = append(kept, c)
		}
	}
	return kept
}

func topSimilarity(candidates []ScoredCandidate) float64 {
	var top float64
	for _, c := range candidates {
		if c.RawSimilarity > top {
			top = c.RawSimilarity
		}
	}
	return top
}

// topBySimilarity returns the n highest-similarity candidates ignoring any
// threshold, used by the top-1 and minimum-results fallbacks.
func topBySimilarity(candidates []ScoredCandidate, n int) []ScoredCandidate {
	out := make([]ScoredCandidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RawSimilarity != out[j].RawSimilarity {
			return out[i].RawSimilarity > out[j].RawSimilarity
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// sortByBoostedSimilarity re-sorts candidates by similarity plus a capped
// keyword-overlap boost. The boost affects ranking only; breakdowns and the
// stored similarity are left untouched.
func sortByBoostedSimilarity(candidates []ScoredCandidate, query string, boostUnit float64) []ScoredCandidate {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return candidates
	}

	boosted := make([]float64, len(candidates))
	for i, c := range candidates {
		matches := 0
		hitTokens := tokenize(c.Text)
		for tok := range queryTokens {
			if _, ok := hitTokens[tok]; ok {
				matches++
			}
		}
		boost := boostUnit * float64(matches)
		if boost > maxKeywordBoost {
			boost = maxKeywordBoost
		}
		boosted[i] = c.RawSimilarity + boost
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if boosted[order[a]] != boosted[order[b]] {
			return boosted[order[a]] > boosted[order[b]]
		}
		return candidates[order[a]].ID < candidates[order[b]].ID
	})

	out := make([]ScoredCandidate, len(candidates))
	for i, idx := range order {
		out[i] = candidates[idx]
	}
	return out
}

// tokenize splits text into a set of lowercase word tokens.
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}
