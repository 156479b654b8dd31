package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/api/shared"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/pause"
	"github.com/phrazzld/cadence/internal/platform/logger"
)

// PauseController is the part of *pause.Controller the API calls.
type PauseController interface {
	Pause(ctx context.Context, req pause.PauseRequest) (*pause.PauseResult, error)
	Resume(ctx context.Context, req pause.ResumeRequest) (*pause.ResumeResult, error)
	ManualGenerate(ctx context.Context, req pause.ManualGenerateRequest) (*materialize.Result, error)
	GetPauseStatus(ctx context.Context, definitionID uuid.UUID) (*pause.PauseStatus, error)
	GetPauseHistory(ctx context.Context, definitionID uuid.UUID) ([]*domain.PauseHistoryRecord, error)
}

var _ PauseController = (*pause.Controller)(nil)

// PauseHandler serves the pause, resume and manual generation endpoints.
type PauseHandler struct {
	controller PauseController
	loc        *time.Location
	logger     *slog.Logger
}

// NewPauseHandler creates a PauseHandler. Request dates are read in loc.
func NewPauseHandler(controller PauseController, loc *time.Location, logger *slog.Logger) *PauseHandler {
	if controller == nil {
		panic("controller cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PauseHandler{
		controller: controller,
		loc:        loc,
		logger:     logger.With(slog.String("component", "pause_handler")),
	}
}

// PauseDefinition handles POST /api/definitions/{id}/pause.
func (h *PauseHandler) PauseDefinition(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req PauseDefinitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	start, err := parseTime("start", req.Start, h.loc, false)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	end, err := parseOptionalTime("end", req.End, h.loc, true)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	res, err := h.controller.Pause(r.Context(), pause.PauseRequest{
		DefinitionID: id,
		Start:        start,
		End:          end,
		Reason:       req.Reason,
		Actor:        actor,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to pause task definition")
		return
	}

	if res.Partial {
		log.Warn("pause stored but instance cleanup failed", slog.String("definition_id", id.String()))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// ResumeDefinition handles POST /api/definitions/{id}/resume. The body is
// optional.
func (h *PauseHandler) ResumeDefinition(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req ResumeDefinitionRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	res, err := h.controller.Resume(r.Context(), pause.ResumeRequest{
		DefinitionID:   id,
		BackfillMissed: req.BackfillMissed,
		Actor:          actor,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to resume task definition")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// GenerateInstances handles POST /api/definitions/{id}/generate. Dates cover
// whole days and may lie in the past.
func (h *PauseHandler) GenerateInstances(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req GenerateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	start, err := parseTime("start", req.Start, h.loc, false)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	end, err := parseTime("end", req.End, h.loc, true)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	res, err := h.controller.ManualGenerate(r.Context(), pause.ManualGenerateRequest{
		DefinitionID: id,
		Start:        start,
		End:          end,
		Actor:        actor,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate task instances")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// GetPauseStatus handles GET /api/definitions/{id}/pause.
func (h *PauseHandler) GetPauseStatus(w http.ResponseWriter, r *http.Request) {
	_, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	status, err := h.controller.GetPauseStatus(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get pause status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// GetPauseHistory handles GET /api/definitions/{id}/pause-history.
func (h *PauseHandler) GetPauseHistory(w http.ResponseWriter, r *http.Request) {
	_, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	records, err := h.controller.GetPauseHistory(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get pause history")
		return
	}
	if records == nil {
		records = []*domain.PauseHistoryRecord{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PauseHistoryResponse{
		DefinitionID: id.String(),
		Records:      records,
	})
}
