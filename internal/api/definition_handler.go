package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/cadence/internal/api/shared"
	"github.com/phrazzld/cadence/internal/domain"
	"github.com/phrazzld/cadence/internal/domain/schedule"
	"github.com/phrazzld/cadence/internal/materialize"
	"github.com/phrazzld/cadence/internal/platform/logger"
	"github.com/phrazzld/cadence/internal/service"
)

// Regenerator runs RegenerateForWindow for one definition.
// *materialize.Materializer implements it.
type Regenerator interface {
	RegenerateForWindow(ctx context.Context, definitionID uuid.UUID, trigger schedule.Trigger) (*materialize.Result, error)
}

// DefinitionHandler serves the definition lifecycle endpoints.
type DefinitionHandler struct {
	definitions service.DefinitionService
	regenerator Regenerator
	loc         *time.Location
	logger      *slog.Logger
}

// NewDefinitionHandler creates a DefinitionHandler. Request dates are read
// in loc.
func NewDefinitionHandler(
	definitions service.DefinitionService,
	regenerator Regenerator,
	loc *time.Location,
	logger *slog.Logger,
) *DefinitionHandler {
	if definitions == nil {
		panic("definitions cannot be nil")
	}
	if regenerator == nil {
		panic("regenerator cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DefinitionHandler{
		definitions: definitions,
		regenerator: regenerator,
		loc:         loc,
		logger:      logger.With(slog.String("component", "definition_handler")),
	}
}

// CreateDefinition handles POST /api/definitions.
func (h *DefinitionHandler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := shared.EmployeeID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Employee ID not found or invalid")
		return
	}

	var req CreateDefinitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	svcReq, err := h.toCreateRequest(req, actor)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	def, err := h.definitions.Create(r.Context(), svcReq)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task definition")
		return
	}

	log.Debug("definition created via API", slog.String("definition_id", def.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, def)
}

func (h *DefinitionHandler) toCreateRequest(req CreateDefinitionRequest, actor uuid.UUID) (service.CreateDefinitionRequest, error) {
	assignee, err := uuid.Parse(req.AssignedTo)
	if err != nil {
		return service.CreateDefinitionRequest{}, ErrInvalidID
	}
	due, err := domain.ParseTimeOfDay(req.DueTime)
	if err != nil {
		return service.CreateDefinitionRequest{}, err
	}
	start, err := parseOptionalTime("start_date", req.StartDate, h.loc, false)
	if err != nil {
		return service.CreateDefinitionRequest{}, err
	}
	end, err := parseOptionalTime("end_date", req.EndDate, h.loc, true)
	if err != nil {
		return service.CreateDefinitionRequest{}, err
	}
	return service.CreateDefinitionRequest{
		Name:        req.Name,
		Description: req.Description,
		AssignedTo:  assignee,
		Rule:        req.Rule,
		DueTime:     due,
		HolidayMode: domain.HolidayMode(req.HolidayMode),
		StartDate:   start,
		EndDate:     end,
		Actor:       actor,
	}, nil
}

// GetDefinition handles GET /api/definitions/{id}.
func (h *DefinitionHandler) GetDefinition(w http.ResponseWriter, r *http.Request) {
	_, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	def, err := h.definitions.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task definition")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, def)
}

// UpdateDefinition handles PUT /api/definitions/{id}. A rule or name change
// answers with the successor definition.
func (h *DefinitionHandler) UpdateDefinition(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateDefinitionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	svcReq, err := h.toUpdateRequest(req, actor)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	res, err := h.definitions.Update(r.Context(), id, svcReq)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task definition")
		return
	}

	if res.Superseded {
		log.Info("definition superseded via API",
			slog.String("definition_id", id.String()),
			slog.String("successor_id", res.Definition.ID.String()))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

func (h *DefinitionHandler) toUpdateRequest(req UpdateDefinitionRequest, actor uuid.UUID) (service.UpdateDefinitionRequest, error) {
	out := service.UpdateDefinitionRequest{
		Name:        req.Name,
		Description: req.Description,
		Rule:        req.Rule,
		Actor:       actor,
	}
	if req.AssignedTo != nil {
		id, err := uuid.Parse(*req.AssignedTo)
		if err != nil {
			return out, ErrInvalidID
		}
		out.AssignedTo = &id
	}
	if req.DueTime != nil {
		due, err := domain.ParseTimeOfDay(*req.DueTime)
		if err != nil {
			return out, err
		}
		out.DueTime = &due
	}
	if req.HolidayMode != nil {
		mode := domain.HolidayMode(*req.HolidayMode)
		out.HolidayMode = &mode
	}
	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) == "" {
		out.ClearEndDate = true
	} else if req.EndDate != nil {
		end, err := parseTime("end_date", *req.EndDate, h.loc, true)
		if err != nil {
			return out, err
		}
		out.EndDate = &end
	}
	return out, nil
}

// RegenerateDefinition handles POST /api/definitions/{id}/regenerate. It
// materializes the current week, as a manual trigger does.
func (h *DefinitionHandler) RegenerateDefinition(w http.ResponseWriter, r *http.Request) {
	_, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	res, err := h.regenerator.RegenerateForWindow(r.Context(), id, schedule.TriggerManual)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to regenerate task instances")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// ListInstances handles GET /api/definitions/{id}/instances?from=&to=.
// Both bounds are optional and default to the current week.
func (h *DefinitionHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	_, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	from, err := parseOptionalTime("from", q.Get("from"), h.loc, false)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	to, err := parseOptionalTime("to", q.Get("to"), h.loc, true)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var fromT, toT time.Time
	if from != nil {
		fromT = *from
	}
	if to != nil {
		toT = *to
	}

	instances, err := h.definitions.ListInstances(r.Context(), id, fromT, toT)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list task instances")
		return
	}
	if instances == nil {
		instances = []*domain.TaskInstance{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, InstanceListResponse{
		DefinitionID: id.String(),
		From:         from,
		To:           to,
		Instances:    instances,
	})
}
