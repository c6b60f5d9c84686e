package service

import (
	"context"
	"sync"
	"time"

	"github.com/cortexmem/recall/internal/domain"
	"go.uber.org/zap"
)

// Learner owns the arbitration profile: it serves consistent snapshots to
// query-time readers and nudges the weights on a low-frequency schedule from
// aggregated usefulness signals. Adaptation is bounded-rate: each step is
// clamped per class and damped before application, so the profile can never
// swing wildly between cycles.
type Learner struct {
	signals  domain.SignalStore
	profiles domain.ProfileStore
	cfg      domain.ArbitrationConfig
	logger   *zap.Logger

	mu      sync.RWMutex
	current domain.ArbitrationProfile

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewLearner(signals domain.SignalStore, profiles domain.ProfileStore, cfg domain.ArbitrationConfig, logger *zap.Logger) *Learner {
	current := domain.UniformProfile()
	if profiles != nil {
		if loaded, err := profiles.Load(); err == nil {
			current = loaded.Normalized(cfg.WeightFloor)
		} else {
			logger.Warn("arbitration profile sidecar unavailable, using defaults", zap.Error(err))
		}
	}

	return &Learner{
		signals:  signals,
		profiles: profiles,
		cfg:      cfg,
		logger:   logger,
		current:  current,
		interval: cfg.LearnInterval,
		stopCh:   make(chan struct{}),
	}
}

func (l *Learner) SetInterval(d time.Duration) {
	l.interval = d
}

// Profile returns a consistent snapshot of the current weight vector.
func (l *Learner) Profile() domain.ArbitrationProfile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Start runs the learning step on a periodic schedule in a background goroutine.
func (l *Learner) Start() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		l.logger.Info("arbitration learner started", zap.Duration("interval", l.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := l.Step(ctx); err != nil {
					l.logger.Error("arbitration learning step failed", zap.Error(err))
				}
				cancel()
			case <-l.stopCh:
				l.logger.Info("arbitration learner stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the learner.
func (l *Learner) Stop() {
	close(l.stopCh)
	l.wg.Wait()
}

// Step aggregates the trailing signal window and applies one bounded
// adjustment to the profile. Too few signals means no adjustment at all.
func (l *Learner) Step(ctx context.Context) error {
	total, err := l.signals.CountSince(ctx, l.cfg.SignalWindow)
	if err != nil {
		return err
	}
	if total < l.cfg.MinSignals {
		return nil
	}

	aggregates, err := l.signals.Aggregates(ctx, l.cfg.SignalWindow)
	if err != nil {
		return err
	}

	old := l.Profile()
	updated := l.advance(old, aggregates)

	if l.profiles != nil {
		if err := l.profiles.Save(updated); err != nil {
			l.logger.Warn("failed to persist arbitration profile", zap.Error(err))
		}
	}

	l.mu.Lock()
	l.current = updated
	l.mu.Unlock()

	l.logger.Info("arbitration profile updated",
		zap.Float64("base", updated.Base),
		zap.Float64("episodic", updated.Episodic),
		zap.Float64("procedural", updated.Procedural),
		zap.Float64("abstraction", updated.Abstraction))

	return nil
}

type classStats struct {
	used         int
	ignored      int
	helpful      int
	unhelpful    int
	contradicted int
	total        int
}

// advance proposes a per-class delta from aggregate usefulness, clamps it to
// the maximum per-class shift, damps it, then applies floor and
// renormalization. Pure given its inputs.
func (l *Learner) advance(old domain.ArbitrationProfile, aggregates []domain.SignalAggregate) domain.ArbitrationProfile {
	stats := make(map[domain.ProvenanceClass]*classStats)
	for _, agg := range aggregates {
		s, ok := stats[agg.Class]
		if !ok {
			s = &classStats{}
			stats[agg.Class] = s
		}
		switch agg.Signal {
		case domain.SignalUsed:
			s.used += agg.Count
		case domain.SignalIgnored:
			s.ignored += agg.Count
		case domain.SignalHelpful:
			s.helpful += agg.Count
		case domain.SignalUnhelpful:
			s.unhelpful += agg.Count
		case domain.SignalContradicted:
			s.contradicted += agg.Count
		}
		s.total += agg.Count
	}

	delta := make(map[domain.ProvenanceClass]float64, len(stats))
	for class, s := range stats {
		if s.total == 0 {
			continue
		}
		usefulness := (float64(s.helpful) + 0.5*float64(s.used) -
			float64(s.unhelpful) - 0.5*float64(s.ignored) -
			float64(s.contradicted)) / float64(s.total)

		d := usefulness * l.cfg.MaxShift
		if d > l.cfg.MaxShift {
			d = l.cfg.MaxShift
		}
		if d < -l.cfg.MaxShift {
			d = -l.cfg.MaxShift
		}
		delta[class] = d * l.cfg.Damping
	}

	return old.Shifted(delta).Normalized(l.cfg.WeightFloor)
}
