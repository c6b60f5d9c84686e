package service

import (
	"testing"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainSelectionConfig() domain.SelectionConfig {
	return domain.SelectionConfig{Threshold: 0.30}
}

func simCandidate(id string, sim float64) ScoredCandidate {
	return ScoredCandidate{Candidate: domain.Candidate{ID: id, RawSimilarity: sim}}
}

func TestSelectEmptyInput(t *testing.T) {
	selected, reason := Select(nil, "query", plainSelectionConfig())
	assert.Empty(t, selected)
	assert.Equal(t, domain.ReasonNoCandidates, reason)
}

func TestSelectDegeneratesToThresholdFilter(t *testing.T) {
	candidates := []ScoredCandidate{
		simCandidate("a", 0.80),
		simCandidate("b", 0.40),
		simCandidate("c", 0.20),
	}

	selected, reason := Select(candidates, "query", plainSelectionConfig())
	require.Len(t, selected, 2)
	assert.Equal(t, domain.ReasonThreshold, reason)
	assert.Equal(t, "a", selected[0].ID)
	assert.Equal(t, "b", selected[1].ID)
}

func TestSelectAllBelowThresholdNoFallbacks(t *testing.T) {
	candidates := []ScoredCandidate{simCandidate("a", 0.10)}

	selected, reason := Select(candidates, "query", plainSelectionConfig())
	assert.Empty(t, selected)
	assert.Equal(t, domain.ReasonBelowThreshold, reason)
}

func TestSelectDynamicThreshold(t *testing.T) {
	cfg := plainSelectionConfig()
	cfg.DynamicThresholdEnabled = true
	cfg.FloorThreshold = 0.15

	// Best hit at 0.29 just misses 0.30; the relaxed threshold
	// max(0.15, 0.29*0.98) admits it but still rejects 0.10.
	candidates := []ScoredCandidate{
		simCandidate("best", 0.29),
		simCandidate("weak", 0.10),
	}

	selected, reason := Select(candidates, "query", cfg)
	require.Len(t, selected, 1)
	assert.Equal(t, domain.ReasonDynamicThreshold, reason)
	assert.Equal(t, "best", selected[0].ID)
}

func TestSelectDynamicThresholdRespectsFloor(t *testing.T) {
	cfg := plainSelectionConfig()
	cfg.DynamicThresholdEnabled = true
	cfg.FloorThreshold = 0.15

	// 0.10*0.98 is below the floor, so the floor applies and nothing passes.
	candidates := []ScoredCandidate{simCandidate("weak", 0.10)}

	selected, reason := Select(candidates, "query", cfg)
	assert.Empty(t, selected)
	assert.Equal(t, domain.ReasonBelowThreshold, reason)
}

func TestSelectTop1Fallback(t *testing.T) {
	cfg := plainSelectionConfig()
	cfg.Top1FallbackEnabled = true

	candidates := []ScoredCandidate{
		simCandidate("weak", 0.10),
		simCandidate("weaker", 0.05),
	}

	selected, reason := Select(candidates, "query", cfg)
	require.Len(t, selected, 1)
	assert.Equal(t, domain.ReasonTop1Fallback, reason)
	assert.Equal(t, "weak", selected[0].ID)
}

func TestSelectMinResultsBackfill(t *testing.T) {
	cfg := plainSelectionConfig()
	cfg.MinResults = 2

	candidates := []ScoredCandidate{
		simCandidate("a", 0.12),
		simCandidate("b", 0.08),
		simCandidate("c", 0.03),
	}

	selected, reason := Select(candidates, "query", cfg)
	require.Len(t, selected, 2)
	assert.Equal(t, domain.ReasonMinResults, reason)
	assert.Equal(t, "a", selected[0].ID)
	assert.Equal(t, "b", selected[1].ID)
}

func TestSelectKeywordBoostReordersOnly(t *testing.T) {
	cfg := plainSelectionConfig()
	cfg.KeywordBoostEnabled = true
	cfg.KeywordBoostUnit = 0.03

	generic := simCandidate("generic", 0.52)
	generic.Text = "alpha beta gamma"
	matching := simCandidate("matching", 0.50)
	matching.Text = "deploy the server safely"

	selected, reason := Select([]ScoredCandidate{generic, matching}, "deploy server", cfg)
	require.Len(t, selected, 2)
	assert.Equal(t, domain.ReasonThreshold, reason)
	// Two token matches add 0.06, enough to overtake 0.52.
	assert.Equal(t, "matching", selected[0].ID)
	// Stored similarity is untouched by the boost.
	assert.Equal(t, 0.50, selected[0].RawSimilarity)
}

func TestSelectKeywordBoostCapped(t *testing.T) {
	cfg := plainSelectionConfig()
	cfg.KeywordBoostEnabled = true
	cfg.KeywordBoostUnit = 0.03

	strong := simCandidate("strong", 0.70)
	strong.Text = "nothing in common"
	spammy := simCandidate("spammy", 0.50)
	spammy.Text = "one two three four five six seven eight nine ten"

	query := "one two three four five six seven eight nine ten"
	selected, _ := Select([]ScoredCandidate{strong, spammy}, query, cfg)
	require.Len(t, selected, 2)
	// Ten matches would add 0.30 uncapped; the 0.15 cap keeps 0.70 on top.
	assert.Equal(t, "strong", selected[0].ID)
}

func TestSelectIdempotentWithoutBoosts(t *testing.T) {
	candidates := []ScoredCandidate{
		simCandidate("a", 0.90),
		simCandidate("b", 0.60),
	}

	first, _ := Select(candidates, "query", plainSelectionConfig())
	second, _ := Select(first, "query", plainSelectionConfig())
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestSelectMMRStage(t *testing.T) {
	cfg := plainSelectionConfig()
	cfg.MMREnabled = true
	cfg.MMRK = 2
	cfg.MMRLambda = 0.5

	seed := simCandidate("seed", 0.95)
	seed.Embedding = []float32{1, 0}
	duplicate := simCandidate("duplicate", 0.90)
	duplicate.Embedding = []float32{1, 0}
	distinct := simCandidate("distinct", 0.60)
	distinct.Embedding = []float32{0, 1}

	selected, reason := Select([]ScoredCandidate{seed, duplicate, distinct}, "query", cfg)
	require.Len(t, selected, 2)
	assert.Equal(t, domain.ReasonThreshold, reason)
	assert.Equal(t, "seed", selected[0].ID)
	assert.Equal(t, "distinct", selected[1].ID)
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("How do I deploy, again?")
	for _, want := range []string{"how", "do", "i", "deploy", "again"} {
		_, ok := tokens[want]
		assert.True(t, ok, "missing token %q", want)
	}
	assert.Len(t, tokens, 5)

	assert.Empty(t, tokenize("  ,,, !!! "))
}
