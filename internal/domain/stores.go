package domain

import (
	"context"
	"strings"
	"time"
)

// Reason explains why a retrieval produced the result set it did, replacing
// exceptions-as-control-flow for the "no result" paths.
type Reason string

const (
	ReasonOK               Reason = "ok"
	ReasonCircuitOpen      Reason = "circuit_open"
	ReasonStoreUnavailable Reason = "store_unavailable"
	ReasonNoCandidates     Reason = "no_candidates"
	ReasonBelowThreshold   Reason = "below_threshold"
	ReasonThreshold        Reason = "threshold"
	ReasonDynamicThreshold Reason = "dynamic_threshold"
	ReasonTop1Fallback     Reason = "top1_fallback"
	ReasonMinResults       Reason = "min_results_backfill"
	ReasonEmbedUnavailable Reason = "embedding_unavailable"
)

// StoreClient is the raw vector store contract. Errors and malformed payloads
// are absorbed by the resilient access layer, never surfaced past it.
type StoreClient interface {
	Search(ctx context.Context, vector []float32, topK int) ([]Hit, error)
}

// EmbeddingClient turns query text into a vector. The core depends only on
// dimensional consistency, not on any specific model.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BeliefSet is the set of normalized tags the system currently treats as
// relevant. Loaded once per query and read-only afterwards.
type BeliefSet map[string]struct{}

// NewBeliefSet normalizes tags (lowercase, trimmed) into a BeliefSet.
func NewBeliefSet(tags ...string) BeliefSet {
	set := make(BeliefSet, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the normalized form of tag is in the set.
func (s BeliefSet) Contains(tag string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// BeliefStore loads the active belief set.
type BeliefStore interface {
	ActiveSet(ctx context.Context) (BeliefSet, error)
}

// SignalStore records downstream usefulness signals and aggregates them per
// provenance class for the arbitration learner.
type SignalStore interface {
	Record(ctx context.Context, candidateID string, class ProvenanceClass, signal SignalType) error
	Aggregates(ctx context.Context, window time.Duration) ([]SignalAggregate, error)
	CountSince(ctx context.Context, window time.Duration) (int, error)
}

// UsageStore bumps the usage counter of a candidate that was actually used.
type UsageStore interface {
	BumpUsage(ctx context.Context, candidateID string) error
}

// ProfileStore persists the learned arbitration profile between process runs.
// It is a sidecar: a load failure of any kind falls back to defaults.
type ProfileStore interface {
	Load() (ArbitrationProfile, error)
	Save(p ArbitrationProfile) error
}
