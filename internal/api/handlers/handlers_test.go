package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cortexmem/recall/internal/domain"
	"github.com/cortexmem/recall/internal/resilience"
	"github.com/cortexmem/recall/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVectorStore struct {
	hits []domain.Hit
}

func (s *stubVectorStore) Search(_ context.Context, _ []float32, _ int) ([]domain.Hit, error) {
	return s.hits, nil
}

func (s *stubVectorStore) BumpUsage(_ context.Context, _ string) error {
	return nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type stubBeliefs struct{}

func (stubBeliefs) ActiveSet(_ context.Context) (domain.BeliefSet, error) {
	return domain.BeliefSet{}, nil
}

type stubSignals struct {
	recorded int
}

func (s *stubSignals) Record(_ context.Context, _ string, _ domain.ProvenanceClass, _ domain.SignalType) error {
	s.recorded++
	return nil
}

func (s *stubSignals) Aggregates(_ context.Context, _ time.Duration) ([]domain.SignalAggregate, error) {
	return nil, nil
}

func (s *stubSignals) CountSince(_ context.Context, _ time.Duration) (int, error) {
	return 0, nil
}

func newTestRetrieveHandler(t *testing.T) *RetrieveHandler {
	t.Helper()
	logger := zap.NewNop()
	cfg := domain.DefaultRetrievalConfig()

	store := &stubVectorStore{hits: []domain.Hit{
		{ID: "a", Similarity: 0.9, Payload: map[string]any{
			"text":      "record a",
			"embedding": []float64{1, 0},
		}},
	}}
	fetcher := resilience.NewFetcher(store, cfg.Fetch, logger)
	learner := service.NewLearner(&stubSignals{}, nil, cfg.Arbitration, logger)
	svc := service.NewRetrievalService(fetcher, stubEmbedder{}, stubBeliefs{}, learner, cfg, logger)
	return NewRetrieveHandler(svc, logger)
}

func TestRetrieveHandlerBadBody(t *testing.T) {
	h := newTestRetrieveHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader("{not json"))
	h.Retrieve(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrieveHandlerEmptyQuery(t *testing.T) {
	h := newTestRetrieveHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader(`{"query":"   "}`))
	h.Retrieve(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrieveHandlerSuccess(t *testing.T) {
	h := newTestRetrieveHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", strings.NewReader(`{"query":"record","top_k":3}`))
	h.Retrieve(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result service.RetrieveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "a", result.Candidates[0].ID)
	assert.Equal(t, domain.ReasonThreshold, result.Reason)
}

func TestFeedbackHandlerValidation(t *testing.T) {
	signals := &stubSignals{}
	svc := service.NewFeedbackService(signals, &stubVectorStore{}, zap.NewNop())
	h := NewFeedbackHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/feedback",
		strings.NewReader(`{"candidate_id":"c1","provenance_class":"base","signal":"loved-it"}`))
	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, signals.recorded)
}

func TestFeedbackHandlerAccepted(t *testing.T) {
	signals := &stubSignals{}
	svc := service.NewFeedbackService(signals, &stubVectorStore{}, zap.NewNop())
	h := NewFeedbackHandler(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/feedback",
		strings.NewReader(`{"candidate_id":"c1","provenance_class":"episodic","signal":"helpful"}`))
	h.Create(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, signals.recorded)
}
