package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SignalStore persists downstream usefulness signals and aggregates them per
// provenance class for the arbitration learner's trailing window.
type SignalStore struct {
	db *pgxpool.Pool
}

func NewSignalStore(db *pgxpool.Pool) *SignalStore {
	return &SignalStore{db: db}
}

func (s *SignalStore) Record(ctx context.Context, candidateID string, class domain.ProvenanceClass, signal domain.SignalType) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO retrieval_signals (id, candidate_id, provenance_class, signal_type)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New(), candidateID, string(class), string(signal),
	)
	if err != nil {
		return fmt.Errorf("record signal: %w", err)
	}
	return nil
}

func (s *SignalStore) Aggregates(ctx context.Context, window time.Duration) ([]domain.SignalAggregate, error) {
	rows, err := s.db.Query(ctx,
		`SELECT provenance_class, signal_type, COUNT(*)
		 FROM retrieval_signals
		 WHERE created_at > NOW() - make_interval(secs => $1)
		 GROUP BY provenance_class, signal_type`,
		window.Seconds(),
	)
	if err != nil {
		return nil, fmt.Errorf("signal aggregates query: %w", err)
	}
	defer rows.Close()

	var aggregates []domain.SignalAggregate
	for rows.Next() {
		var class, signal string
		var count int
		if err := rows.Scan(&class, &signal, &count); err != nil {
			return nil, fmt.Errorf("scan signal aggregate: %w", err)
		}
		aggregates = append(aggregates, domain.SignalAggregate{
			Class:  domain.ProvenanceClass(class),
			Signal: domain.SignalType(signal),
			Count:  count,
		})
	}
	return aggregates, rows.Err()
}

func (s *SignalStore) CountSince(ctx context.Context, window time.Duration) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM retrieval_signals WHERE created_at > NOW() - make_interval(secs => $1)`,
		window.Seconds(),
	).Scan(&count)
	return count, err
}
