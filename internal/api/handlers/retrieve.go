package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cortexmem/recall/internal/service"
	"go.uber.org/zap"
)

type RetrieveHandler struct {
	svc    *service.RetrievalService
	logger *zap.Logger
}

func NewRetrieveHandler(svc *service.RetrievalService, logger *zap.Logger) *RetrieveHandler {
	return &RetrieveHandler{svc: svc, logger: logger}
}

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

func (h *RetrieveHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.svc.Retrieve(r.Context(), req.Query, req.TopK)
	if err != nil {
		if errors.Is(err, service.ErrDimensionMismatch) {
			// Incompatible vector spaces: a deployment bug, not a query problem.
			h.logger.Error("embedding dimension mismatch", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "embedding dimension mismatch")
			return
		}
		h.logger.Error("retrieve failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "retrieve failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
