package store

import (
	"context"
	"fmt"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// VectorStore is the raw store client over a pgvector-backed belief_records
// table. It returns loosely typed hits; all payload coercion happens at the
// domain boundary, not here.
type VectorStore struct {
	db *pgxpool.Pool
}

func NewVectorStore(db *pgxpool.Pool) *VectorStore {
	return &VectorStore{db: db}
}

func (s *VectorStore) Search(ctx context.Context, vector []float32, topK int) ([]domain.Hit, error) {
	if topK <= 0 {
		topK = 10
	}

	vec := pgvector.NewVector(vector)

	rows, err := s.db.Query(ctx,
		`SELECT id, content, embedding, tags, belief_tags, assertion_key, provenance,
		        source_trust, confidence, importance, times_used, contradicted, conflict_score,
		        created_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM belief_records
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search query: %w", err)
	}
	defer rows.Close()

	var hits []domain.Hit
	for rows.Next() {
		var (
			id            string
			content       string
			embedding     pgvector.Vector
			tags          []string
			beliefTags    []string
			assertionKey  *string
			provenance    *string
			sourceTrust   *float64
			confidence    *float64
			importance    *float64
			timesUsed     *int
			contradicted  *bool
			conflictScore *float64
			createdAt     any
			similarity    float64
		)
		if err := rows.Scan(&id, &content, &embedding, &tags, &beliefTags, &assertionKey,
			&provenance, &sourceTrust, &confidence, &importance, &timesUsed,
			&contradicted, &conflictScore, &createdAt, &similarity); err != nil {
			return nil, fmt.Errorf("scan vector search row: %w", err)
		}

		payload := map[string]any{
			"text":        content,
			"embedding":   embedding.Slice(),
			"tags":        tags,
			"belief_tags": beliefTags,
			"timestamp":   createdAt,
		}
		if assertionKey != nil {
			payload["assertion_key"] = *assertionKey
		}
		if provenance != nil {
			payload["provenance"] = *provenance
		}
		if sourceTrust != nil {
			payload["source_trust"] = *sourceTrust
		}
		if confidence != nil {
			payload["confidence"] = *confidence
		}
		if importance != nil {
			payload["importance"] = *importance
		}
		if timesUsed != nil {
			payload["times_used"] = *timesUsed
		}
		if contradicted != nil {
			payload["contradicted"] = *contradicted
		}
		if conflictScore != nil {
			payload["conflict_score"] = *conflictScore
		}

		hits = append(hits, domain.Hit{ID: id, Similarity: similarity, Payload: payload})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search rows: %w", err)
	}
	return hits, nil
}

// BumpUsage increments the usage counter of a record that downstream judging
// marked as actually used.
func (s *VectorStore) BumpUsage(ctx context.Context, candidateID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE belief_records
		 SET times_used = times_used + 1, last_used_at = NOW()
		 WHERE id = $1`,
		candidateID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
