package domain

import "time"

// ScoringWeights are the per-factor weights of the composite score.
type ScoringWeights struct {
	Similarity      float64
	Recency         float64
	Credibility     float64
	Confidence      float64
	BeliefAlignment float64
	Usage           float64
	Novelty         float64
}

func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Similarity:      1.0,
		Recency:         0.6,
		Credibility:     0.5,
		Confidence:      0.3,
		BeliefAlignment: 0.4,
		Usage:           0.2,
		Novelty:         0.1,
	}
}

// ScoringConfig tunes the composite scoring engine. The penalty and smoothing
// constants are empirically chosen defaults, not derived values.
type ScoringConfig struct {
	Weights            ScoringWeights
	RecencyDecayLambda float64
	BeliefSmoothing    float64
	ImportantTagPrefix string
	ImportantTagBoost  float64
	ConflictEnabled    bool
	ConflictPenalty    float64
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:            DefaultScoringWeights(),
		RecencyDecayLambda: 0.02,
		BeliefSmoothing:    0.1,
		ImportantTagPrefix: "core:",
		ImportantTagBoost:  0.1,
		ConflictEnabled:    true,
		ConflictPenalty:    0.05,
	}
}

// SelectionConfig enumerates the optional stages of the candidate selection
// pipeline. With everything disabled the pipeline degenerates to a plain
// similarity threshold filter.
type SelectionConfig struct {
	Threshold               float64
	DynamicThresholdEnabled bool
	FloorThreshold          float64
	Top1FallbackEnabled     bool
	MinResults              int
	KeywordBoostEnabled     bool
	KeywordBoostUnit        float64
	MMREnabled              bool
	MMRLambda               float64
	MMRK                    int
}

func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		Threshold:               0.30,
		DynamicThresholdEnabled: true,
		FloorThreshold:          0.15,
		Top1FallbackEnabled:     true,
		MinResults:              0,
		KeywordBoostEnabled:     true,
		KeywordBoostUnit:        0.03,
		MMREnabled:              true,
		MMRLambda:               0.7,
		MMRK:                    10,
	}
}

// FetchConfig tunes the resilient store access layer.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
	FailureLimit int
	OpenDuration time.Duration
}

func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:      8 * time.Second,
		MaxRetries:   2,
		BackoffBase:  200 * time.Millisecond,
		FailureLimit: 3,
		OpenDuration: 20 * time.Second,
	}
}

// ArbitrationConfig tunes intent-sensitive weighting and the learning step.
type ArbitrationConfig struct {
	Enabled           bool
	ConflictPolicy    ConflictPolicy
	ConflictEpsilon   float64
	UncertainMargin   float64
	IntentMultipliers map[Intent]map[ProvenanceClass]float64
	MaxShift          float64
	Damping           float64
	WeightFloor       float64
	LearnInterval     time.Duration
	SignalWindow      time.Duration
	MinSignals        int
}

// DefaultIntentMultipliers boosts the provenance class historically most
// useful for each question type.
func DefaultIntentMultipliers() map[Intent]map[ProvenanceClass]float64 {
	return map[Intent]map[ProvenanceClass]float64{
		IntentFact: {
			ProvenanceBase:     1.3,
			ProvenanceEpisodic: 1.2,
		},
		IntentHow: {
			ProvenanceProcedural: 1.5,
		},
		IntentWhy: {
			ProvenanceAbstraction: 1.5,
			ProvenanceEpisodic:    1.1,
		},
	}
}

func DefaultArbitrationConfig() ArbitrationConfig {
	return ArbitrationConfig{
		Enabled:           true,
		ConflictPolicy:    ConflictHierarchical,
		ConflictEpsilon:   0.1,
		UncertainMargin:   0.05,
		IntentMultipliers: DefaultIntentMultipliers(),
		MaxShift:          0.10,
		Damping:           0.20,
		WeightFloor:       0.05,
		LearnInterval:     1 * time.Hour,
		SignalWindow:      24 * time.Hour,
		MinSignals:        10,
	}
}

// RetrievalConfig is the single validated configuration struct for the
// ranking core, assembled once at startup and passed down by value.
type RetrievalConfig struct {
	Scoring     ScoringConfig
	Selection   SelectionConfig
	Fetch       FetchConfig
	Arbitration ArbitrationConfig
	DefaultTopK int
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Scoring:     DefaultScoringConfig(),
		Selection:   DefaultSelectionConfig(),
		Fetch:       DefaultFetchConfig(),
		Arbitration: DefaultArbitrationConfig(),
		DefaultTopK: 10,
	}
}
