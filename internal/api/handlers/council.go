package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bernyforce/llm-council/internal/api/middleware"
	"github.com/bernyforce/llm-council/internal/service"
	"go.uber.org/zap"
)

const maxQueryBody = 1 << 20

type CouncilHandler struct {
	svc    *service.CouncilService
	logger *zap.Logger
}

func NewCouncilHandler(svc *service.CouncilService, logger *zap.Logger) *CouncilHandler {
	return &CouncilHandler{svc: svc, logger: logger}
}

type deliberateRequest struct {
	Query string `json:"query"`
}

// Deliberate runs one council session and returns the persisted transcript.
func (h *CouncilHandler) Deliberate(w http.ResponseWriter, r *http.Request) {
	var req deliberateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	sess, err := h.svc.Deliberate(r.Context(), req.Query)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrGatewayNotConfigured):
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			h.logger.Error("deliberation failed",
				zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save deliberation")
		}
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

type councilInfoResponse struct {
	Members  []string `json:"members"`
	Chairman string   `json:"chairman"`
}

// Info reports the configured council.
func (h *CouncilHandler) Info(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Council()
	writeJSON(w, http.StatusOK, councilInfoResponse{Members: c.Members, Chairman: c.Chairman})
}
