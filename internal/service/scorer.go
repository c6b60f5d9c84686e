package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cortexmem/recall/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ErrDimensionMismatch is the one hard error in the scoring path: comparing
// vectors from different embedding spaces produces meaningless scores and
// must never be silent.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ScoreBreakdown records every factor that went into a candidate's final
// score. Produced fresh per query, never persisted.
type ScoreBreakdown struct {
	Similarity      float64 `json:"similarity"`
	Recency         float64 `json:"recency"`
	Credibility     float64 `json:"credibility"`
	Confidence      float64 `json:"confidence"`
	BeliefAlignment float64 `json:"belief_alignment"`
	Usage           float64 `json:"usage"`
	Novelty         float64 `json:"novelty"`
	ConflictPenalty float64 `json:"conflict_penalty,omitempty"`
	Final           float64 `json:"final_score"`
}

// ScoredCandidate pairs a candidate with its breakdown.
type ScoredCandidate struct {
	domain.Candidate
	Breakdown *ScoreBreakdown `json:"score_breakdown,omitempty"`
}

// Score returns the candidate's current ranking value: the composite final
// score when scored, the raw store similarity otherwise.
func (sc ScoredCandidate) Score() float64 {
	if sc.Breakdown != nil {
		return sc.Breakdown.Final
	}
	return sc.RawSimilarity
}

// Scorer computes the composite score of a candidate. It is deterministic
// for identical inputs; the belief set is passed in as a per-query snapshot.
type Scorer struct {
	cfg domain.ScoringConfig
	now func() time.Time
}

func NewScorer(cfg domain.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// Score computes every factor independently and combines them. A candidate
// without an embedding gets zero similarity and therefore a zero final score.
func (s *Scorer) Score(c domain.Candidate, queryVec []float32, beliefs domain.BeliefSet, selected []domain.Candidate) (ScoreBreakdown, error) {
	similarity, err := cosine(c.Embedding, queryVec)
	if err != nil {
		return ScoreBreakdown{}, fmt.Errorf("candidate %s: %w", c.ID, err)
	}

	recency := math.Exp(-s.cfg.RecencyDecayLambda * c.AgeDays(s.now()))
	credibility := c.SourceTrust
	confidence := c.Confidence
	alignment := s.beliefAlignment(c, beliefs)
	usage := 1 - math.Exp(-0.1*float64(c.TimesUsed))

	novelty, err := s.novelty(c, selected)
	if err != nil {
		return ScoreBreakdown{}, fmt.Errorf("candidate %s: %w", c.ID, err)
	}

	// A contradiction found within this result set takes the full penalty.
	// A store-recorded conflict score without an in-set loser scales the
	// penalty by how conflicted the record already is.
	var penalty float64
	if s.cfg.ConflictEnabled {
		switch {
		case c.Contradicted:
			penalty = s.cfg.ConflictPenalty
		case c.ConflictScore > 0:
			penalty = s.cfg.ConflictPenalty * c.ConflictScore
		}
	}

	w := s.cfg.Weights
	base := w.Similarity * similarity
	multiplier := (1 + w.Recency*recency) *
		(1 + w.Credibility*(credibility-0.5)) *
		(1 + w.Confidence*(confidence-0.5)) *
		(1 + w.BeliefAlignment*(alignment-0.5)) *
		(1 + w.Usage*usage) *
		(1 + w.Novelty*novelty)
	multiplier *= 1 - penalty

	b := ScoreBreakdown{
		Similarity:      similarity,
		Recency:         recency,
		Credibility:     credibility,
		Confidence:      confidence,
		BeliefAlignment: alignment,
		Usage:           usage,
		Novelty:         novelty,
		ConflictPenalty: penalty,
		Final:           base * multiplier,
	}
	return b, nil
}

// ScoreAll scores candidates in parallel (no shared mutable state) and
// re-sorts deterministically afterwards: ordering is established only at the
// end of the stage. Novelty is left to the MMR stage here, so each candidate
// is scored against an empty selected set.
func (s *Scorer) ScoreAll(ctx context.Context, candidates []domain.Candidate, queryVec []float32, beliefs domain.BeliefSet) ([]ScoredCandidate, error) {
	scored := make([]ScoredCandidate, len(candidates))

	g, _ := errgroup.WithContext(ctx)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			b, err := s.Score(c, queryVec, beliefs, nil)
			if err != nil {
				return err
			}
			scored[i] = ScoredCandidate{Candidate: c, Breakdown: &b}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortByScore(scored)
	return scored, nil
}

// SortByScore orders candidates by score descending with deterministic
// tie-breaking on raw similarity, then ID.
func SortByScore(candidates []ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].Score(), candidates[j].Score()
		if si != sj {
			return si > sj
		}
		if candidates[i].RawSimilarity != candidates[j].RawSimilarity {
			return candidates[i].RawSimilarity > candidates[j].RawSimilarity
		}
		return candidates[i].ID < candidates[j].ID
	})
}

// beliefAlignment is a smoothed Jaccard overlap between the candidate's
// belief tags and the active set, plus a capped fixed boost when the overlap
// touches the reserved important namespace.
func (s *Scorer) beliefAlignment(c domain.Candidate, beliefs domain.BeliefSet) float64 {
	alpha := s.cfg.BeliefSmoothing

	tags := domain.NewBeliefSet(c.BeliefTags...)
	intersection := 0
	important := false
	for tag := range tags {
		if _, ok := beliefs[tag]; ok {
			intersection++
			if s.cfg.ImportantTagPrefix != "" && strings.HasPrefix(tag, s.cfg.ImportantTagPrefix) {
				important = true
			}
		}
	}
	union := len(tags) + len(beliefs) - intersection

	alignment := (float64(intersection) + alpha) / (float64(union) + alpha)
	if important {
		alignment += s.cfg.ImportantTagBoost
	}
	if alignment > 1 {
		alignment = 1
	}
	return alignment
}

// novelty is one minus the mean cosine similarity against already selected
// candidates; zero when nothing is selected or the embedding is missing.
func (s *Scorer) novelty(c domain.Candidate, selected []domain.Candidate) (float64, error) {
	if len(c.Embedding) == 0 || len(selected) == 0 {
		return 0, nil
	}
	var sum float64
	var n int
	for _, other := range selected {
		if len(other.Embedding) == 0 {
			continue
		}
		sim, err := cosine(c.Embedding, other.Embedding)
		if err != nil {
			return 0, err
		}
		sum += sim
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return 1 - sum/float64(n), nil
}

// cosine returns the cosine similarity of a and b. Either vector being absent
// yields zero; mismatched dimensions are a hard error.
func cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
