package config

import (
	"testing"
	"time"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRetrievalDefaults(t *testing.T) {
	cfg := Retrieval(zap.NewNop())
	assert.Equal(t, domain.DefaultRetrievalConfig(), cfg)
}

func TestRetrievalEnvOverrides(t *testing.T) {
	t.Setenv("SCORE_WEIGHT_SIMILARITY", "2.5")
	t.Setenv("SELECT_THRESHOLD", "0.45")
	t.Setenv("SELECT_MMR_ENABLED", "false")
	t.Setenv("FETCH_TIMEOUT", "250ms")
	t.Setenv("BREAKER_FAILURE_LIMIT", "7")
	t.Setenv("ARBITRATION_CONFLICT_POLICY", "recency")
	t.Setenv("RETRIEVE_DEFAULT_TOP_K", "3")

	cfg := Retrieval(zap.NewNop())
	assert.Equal(t, 2.5, cfg.Scoring.Weights.Similarity)
	assert.Equal(t, 0.45, cfg.Selection.Threshold)
	assert.False(t, cfg.Selection.MMREnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.Timeout)
	assert.Equal(t, 7, cfg.Fetch.FailureLimit)
	assert.Equal(t, domain.ConflictRecency, cfg.Arbitration.ConflictPolicy)
	assert.Equal(t, 3, cfg.DefaultTopK)
}

func TestRetrievalMalformedValuesFallBack(t *testing.T) {
	t.Setenv("SCORE_WEIGHT_RECENCY", "lots")
	t.Setenv("SELECT_MIN_RESULTS", "two")
	t.Setenv("FETCH_BACKOFF_BASE", "soon")
	t.Setenv("ARBITRATION_ENABLED", "yep")
	t.Setenv("ARBITRATION_CONFLICT_POLICY", "coin-flip")

	want := domain.DefaultRetrievalConfig()
	cfg := Retrieval(zap.NewNop())
	assert.Equal(t, want.Scoring.Weights.Recency, cfg.Scoring.Weights.Recency)
	assert.Equal(t, want.Selection.MinResults, cfg.Selection.MinResults)
	assert.Equal(t, want.Fetch.BackoffBase, cfg.Fetch.BackoffBase)
	assert.Equal(t, want.Arbitration.Enabled, cfg.Arbitration.Enabled)
	assert.Equal(t, want.Arbitration.ConflictPolicy, cfg.Arbitration.ConflictPolicy)
}

func TestServerDefaults(t *testing.T) {
	assert.Equal(t, 8080, ServerPort())
	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, float64(100), RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, "info", LogLevel())
	assert.Equal(t, "arbitration_profile.json", ProfilePath())
}

func TestServerEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("EMBEDDING_PROVIDER", "mock")

	assert.Equal(t, ":9000", ServerAddr())
	assert.Equal(t, float64(5), RateLimitRPS())
	assert.Equal(t, "mock", EmbeddingProvider())
}
