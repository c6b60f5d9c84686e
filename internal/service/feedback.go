package service

import (
	"context"
	"errors"

	"github.com/cortexmem/recall/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrInvalidSignalType   = errors.New("invalid signal type")
	ErrInvalidProvenance   = errors.New("invalid provenance class")
	ErrFeedbackCandidateID = errors.New("candidate_id is required")
)

// FeedbackService records downstream usefulness signals for retrieved
// candidates. Signals feed the arbitration learner; a "used" signal also
// bumps the candidate's usage counter so the usage factor saturates over time.
type FeedbackService struct {
	signals domain.SignalStore
	usage   domain.UsageStore
	logger  *zap.Logger
}

func NewFeedbackService(signals domain.SignalStore, usage domain.UsageStore, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{signals: signals, usage: usage, logger: logger}
}

func (s *FeedbackService) Record(ctx context.Context, candidateID string, class string, signal string) error {
	if candidateID == "" {
		return ErrFeedbackCandidateID
	}
	if !domain.ValidProvenanceClass(class) {
		return ErrInvalidProvenance
	}
	if !domain.ValidSignalType(signal) {
		return ErrInvalidSignalType
	}

	if err := s.signals.Record(ctx, candidateID, domain.ProvenanceClass(class), domain.SignalType(signal)); err != nil {
		return err
	}

	if domain.SignalType(signal) == domain.SignalUsed {
		if err := s.usage.BumpUsage(ctx, candidateID); err != nil {
			// Usage bump is best-effort: the signal row already landed.
			s.logger.Warn("failed to bump usage counter",
				zap.String("candidate_id", candidateID),
				zap.Error(err))
		}
	}
	return nil
}
