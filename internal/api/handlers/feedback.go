package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cortexmem/recall/internal/service"
)

type FeedbackHandler struct {
	svc *service.FeedbackService
}

func NewFeedbackHandler(svc *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

type feedbackRequest struct {
	CandidateID     string `json:"candidate_id"`
	ProvenanceClass string `json:"provenance_class"`
	Signal          string `json:"signal"`
}

func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.svc.Record(r.Context(), req.CandidateID, req.ProvenanceClass, req.Signal)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFeedbackCandidateID),
			errors.Is(err, service.ErrInvalidProvenance),
			errors.Is(err, service.ErrInvalidSignalType):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to record feedback")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}
