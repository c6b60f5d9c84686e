package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCandidateDefaults(t *testing.T) {
	c := NormalizeCandidate(Hit{ID: "a", Similarity: 0.7})

	assert.Equal(t, "a", c.ID)
	assert.Equal(t, 0.7, c.RawSimilarity)
	assert.Equal(t, DefaultSourceTrust, c.SourceTrust)
	assert.Equal(t, DefaultConfidence, c.Confidence)
	assert.Equal(t, DefaultImportance, c.Importance)
	assert.Equal(t, ProvenanceBase, c.Provenance)
	assert.Nil(t, c.Timestamp)
	assert.Zero(t, c.TimesUsed)
}

func TestNormalizeCandidateClampsSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, NormalizeCandidate(Hit{Similarity: 1.8}).RawSimilarity)
	assert.Equal(t, 0.0, NormalizeCandidate(Hit{Similarity: -0.3}).RawSimilarity)
}

func TestNormalizeCandidatePayload(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NormalizeCandidate(Hit{
		ID:         "a",
		Similarity: 0.9,
		Payload: map[string]any{
			"text":           "the capital of France is Paris",
			"assertion_key":  "capital/fr",
			"provenance":     "episodic",
			"source_trust":   0.9,
			"confidence":     1.4,
			"times_used":     float64(7),
			"contradicted":   true,
			"conflict_score": 0.3,
			"tags":           []any{"geo", "europe"},
			"belief_tags":    []string{"core:geo"},
			"timestamp":      ts.Format(time.RFC3339),
			"embedding":      []float64{0.1, 0.2},
		},
	})

	assert.Equal(t, "the capital of France is Paris", c.Text)
	assert.Equal(t, "capital/fr", c.AssertionKey)
	assert.Equal(t, ProvenanceEpisodic, c.Provenance)
	assert.Equal(t, 0.9, c.SourceTrust)
	// Out-of-range values clamp instead of failing.
	assert.Equal(t, 1.0, c.Confidence)
	assert.Equal(t, 7, c.TimesUsed)
	assert.True(t, c.Contradicted)
	assert.Equal(t, 0.3, c.ConflictScore)
	assert.Equal(t, []string{"geo", "europe"}, c.Tags)
	assert.Equal(t, []string{"core:geo"}, c.BeliefTags)
	require.NotNil(t, c.Timestamp)
	assert.True(t, ts.Equal(*c.Timestamp))
	assert.Equal(t, []float32{0.1, 0.2}, c.Embedding)
}

func TestNormalizeCandidateMalformedPayload(t *testing.T) {
	c := NormalizeCandidate(Hit{
		ID:         "a",
		Similarity: 0.5,
		Payload: map[string]any{
			"provenance":   "mystery",
			"source_trust": "very high",
			"timestamp":    "yesterday-ish",
			"embedding":    []any{"a", "b"},
			"tags":         42,
		},
	})

	assert.Equal(t, ProvenanceBase, c.Provenance)
	assert.Equal(t, DefaultSourceTrust, c.SourceTrust)
	assert.Nil(t, c.Timestamp)
	assert.Nil(t, c.Embedding)
	assert.Nil(t, c.Tags)
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var c Candidate
	assert.Zero(t, c.AgeDays(now))

	past := now.Add(-48 * time.Hour)
	c.Timestamp = &past
	assert.InDelta(t, 2.0, c.AgeDays(now), 1e-9)

	// A future timestamp never produces a negative age.
	future := now.Add(24 * time.Hour)
	c.Timestamp = &future
	assert.Zero(t, c.AgeDays(now))
}

func TestNewBeliefSet(t *testing.T) {
	set := NewBeliefSet("  Go ", "databases", "", "GO")
	assert.Len(t, set, 2)
	assert.True(t, set.Contains("go"))
	assert.True(t, set.Contains(" Databases "))
	assert.False(t, set.Contains("rust"))
}
