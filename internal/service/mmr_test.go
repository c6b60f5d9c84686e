package service

import (
	"testing"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddedCandidate(id string, score float64, embedding []float32) ScoredCandidate {
	return ScoredCandidate{
		Candidate: domain.Candidate{ID: id, RawSimilarity: score, Embedding: embedding},
	}
}

func TestMMRBounds(t *testing.T) {
	candidates := []ScoredCandidate{
		embeddedCandidate("a", 0.9, []float32{1, 0}),
		embeddedCandidate("b", 0.8, []float32{0, 1}),
	}

	assert.Nil(t, MMR(candidates, 0, 0.7))
	assert.Nil(t, MMR(nil, 3, 0.7))
	assert.Len(t, MMR(candidates, 1, 0.7), 1)
	assert.Len(t, MMR(candidates, 2, 0.7), 2)
	assert.Len(t, MMR(candidates, 10, 0.7), 2)
}

func TestMMRLambdaOneIsRelevanceOrder(t *testing.T) {
	candidates := []ScoredCandidate{
		embeddedCandidate("mid", 0.7, []float32{1, 0}),
		embeddedCandidate("top", 0.9, []float32{1, 0}),
		embeddedCandidate("low", 0.5, []float32{1, 0}),
	}

	out := MMR(candidates, 3, 1.0)
	require.Len(t, out, 3)
	assert.Equal(t, "top", out[0].ID)
	assert.Equal(t, "mid", out[1].ID)
	assert.Equal(t, "low", out[2].ID)
}

func TestMMRPenalizesRedundancy(t *testing.T) {
	candidates := []ScoredCandidate{
		embeddedCandidate("seed", 1.0, []float32{1, 0}),
		embeddedCandidate("duplicate", 0.9, []float32{1, 0}),
		embeddedCandidate("distinct", 0.5, []float32{0, 1}),
	}

	out := MMR(candidates, 2, 0.5)
	require.Len(t, out, 2)
	assert.Equal(t, "seed", out[0].ID)
	assert.Equal(t, "distinct", out[1].ID)
}

func TestMMRMissingEmbeddingDegrades(t *testing.T) {
	candidates := []ScoredCandidate{
		embeddedCandidate("a", 0.9, []float32{1, 0}),
		embeddedCandidate("b", 0.8, nil),
		embeddedCandidate("c", 0.7, []float32{0, 1}),
	}

	out := MMR(candidates, 2, 0.7)
	require.Len(t, out, 2)
	// Input order preserved, just truncated.
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}
