package store

import (
	"context"
	"fmt"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BeliefStore loads the active belief tag set, the read-only snapshot of what
// the system currently emphasizes.
type BeliefStore struct {
	db *pgxpool.Pool
}

func NewBeliefStore(db *pgxpool.Pool) *BeliefStore {
	return &BeliefStore{db: db}
}

func (s *BeliefStore) ActiveSet(ctx context.Context) (domain.BeliefSet, error) {
	rows, err := s.db.Query(ctx,
		`SELECT tag FROM active_beliefs WHERE active = TRUE`,
	)
	if err != nil {
		return nil, fmt.Errorf("active belief query: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan belief tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("active belief rows: %w", err)
	}

	return domain.NewBeliefSet(tags...), nil
}
