package service

// MMR greedily reorders candidates by maximal marginal relevance, trading
// relevance against redundancy with already-picked items. lambda near 1.0
// favors relevance, near 0.0 favors diversity. The result never exceeds
// min(k, len(candidates)) items.
//
// MMR needs an embedding on every candidate to measure redundancy; if any is
// missing it degrades to a no-op and returns the input order truncated to k.
func MMR(candidates []ScoredCandidate, k int, lambda float64) []ScoredCandidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			return candidates[:k]
		}
	}

	remaining := make([]ScoredCandidate, len(candidates))
	copy(remaining, candidates)

	selected := make([]ScoredCandidate, 0, k)

	// Highest-relevance item seeds the selection.
	best := 0
	for i := 1; i < len(remaining); i++ {
		if remaining[i].Score() > remaining[best].Score() {
			best = i
		}
	}
	selected = append(selected, remaining[best])
	remaining = append(remaining[:best], remaining[best+1:]...)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestValue := mmrValue(remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			if v := mmrValue(remaining[i], selected, lambda); v > bestValue {
				bestIdx, bestValue = i, v
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func mmrValue(c ScoredCandidate, selected []ScoredCandidate, lambda float64) float64 {
	var maxSim float64
	for _, s := range selected {
		// Mismatched dimensions among stored candidates are treated as
		// unrelated rather than fatal here; the scorer already guards the
		// query/candidate space.
		sim, err := cosine(c.Embedding, s.Embedding)
		if err != nil {
			continue
		}
		if sim > maxSim {
			maxSim = sim
		}
	}
	return lambda*c.Score() - (1-lambda)*maxSim
}
