package service

import (
	"context"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/cortexmem/recall/internal/resilience"
	"go.uber.org/zap"
)

// RankedCandidate is one entry of the final ranked list, carrying the full
// breakdown so callers can explain why it surfaced.
type RankedCandidate struct {
	ID         string                 `json:"id"`
	Text       string                 `json:"text,omitempty"`
	Provenance domain.ProvenanceClass `json:"provenance"`
	FinalScore float64                `json:"final_score"`
	Uncertain  bool                   `json:"uncertain,omitempty"`
	Breakdown  *ScoreBreakdown        `json:"score_breakdown,omitempty"`
}

// RetrieveResult is always a valid answer: a possibly-empty ranked list plus
// the reason that shaped it. Degraded confidence is communicated through the
// result, never through an error.
type RetrieveResult struct {
	Candidates []RankedCandidate `json:"candidates"`
	Reason     domain.Reason     `json:"reason"`
	Intent     domain.Intent     `json:"intent,omitempty"`
}

// RetrievalService runs the full pipeline: resilient fetch, conflict
// resolution, composite scoring, arbitration reweighting, candidate
// selection, and MMR ordering.
type RetrievalService struct {
	fetcher  *resilience.Fetcher
	embedder domain.EmbeddingClient
	beliefs  domain.BeliefStore
	learner  *Learner
	scorer   *Scorer
	cfg      domain.RetrievalConfig
	logger   *zap.Logger
}

func NewRetrievalService(
	fetcher *resilience.Fetcher,
	embedder domain.EmbeddingClient,
	beliefs domain.BeliefStore,
	learner *Learner,
	cfg domain.RetrievalConfig,
	logger *zap.Logger,
) *RetrievalService {
	return &RetrievalService{
		fetcher:  fetcher,
		embedder: embedder,
		beliefs:  beliefs,
		learner:  learner,
		scorer:   NewScorer(cfg.Scoring),
		cfg:      cfg,
		logger:   logger,
	}
}

// BreakerState exposes the store circuit breaker state for health reporting.
func (s *RetrievalService) BreakerState() string {
	return s.fetcher.State()
}

// Retrieve answers a query with a ranked, diversified, trust-adjusted
// candidate list. The only error it can return is a dimension mismatch
// between query and candidate embeddings, which is a programming error and
// must fail loud.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) (*RetrieveResult, error) {
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("embedding provider unavailable", zap.Error(err))
		return &RetrieveResult{Reason: domain.ReasonEmbedUnavailable}, nil
	}

	candidates, reason := s.fetcher.Fetch(ctx, queryVec, topK*2)
	if len(candidates) == 0 {
		return &RetrieveResult{Reason: reason}, nil
	}

	beliefs, err := s.beliefs.ActiveSet(ctx)
	if err != nil {
		// Belief alignment degrades to its smoothed default without a set.
		s.logger.Warn("active belief set unavailable", zap.Error(err))
		beliefs = domain.BeliefSet{}
	}

	if s.cfg.Arbitration.Enabled {
		ResolveConflicts(candidates, s.cfg.Arbitration)
	}

	scored, err := s.scorer.ScoreAll(ctx, candidates, queryVec, beliefs)
	if err != nil {
		return nil, err
	}

	var intent domain.Intent
	if s.cfg.Arbitration.Enabled {
		intent = ClassifyIntent(query)
		weights := EffectiveWeights(s.cfg.Arbitration, intent, s.learner.Profile())
		ApplyWeights(scored, weights)
	}

	selectionCfg := s.cfg.Selection
	if selectionCfg.MMREnabled {
		selectionCfg.MMRK = topK
	}
	selected, reason := Select(scored, query, selectionCfg)
	if len(selected) > topK {
		selected = selected[:topK]
	}

	result := &RetrieveResult{
		Candidates: make([]RankedCandidate, 0, len(selected)),
		Reason:     reason,
		Intent:     intent,
	}
	for _, sc := range selected {
		result.Candidates = append(result.Candidates, RankedCandidate{
			ID:         sc.ID,
			Text:       sc.Text,
			Provenance: sc.Provenance,
			FinalScore: sc.Score(),
			Uncertain:  sc.Uncertain,
			Breakdown:  sc.Breakdown,
		})
	}
	return result, nil
}
