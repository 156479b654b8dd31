package api

import (
	"time"

	"github.com/phrazzld/cadence/internal/domain"
)

// Dates in request bodies and queries are either a calendar date
// ("2006-01-02") in the business location or an RFC 3339 timestamp.

// CreateDefinitionRequest is the body of POST /api/definitions.
type CreateDefinitionRequest struct {
	Name        string                `json:"name"         validate:"required,max=200"`
	Description string                `json:"description"  validate:"max=2000"`
	AssignedTo  string                `json:"assigned_to"  validate:"required,uuid"`
	Rule        domain.RecurrenceRule `json:"rule"`
	DueTime     string                `json:"due_time"     validate:"required"`
	HolidayMode string                `json:"holiday_mode" validate:"omitempty,oneof=ignore previous_working_day next_working_day"`
	StartDate   string                `json:"start_date"`
	EndDate     string                `json:"end_date"`
}

// UpdateDefinitionRequest is the body of PUT /api/definitions/{id}. Omitted
// fields are left unchanged; an empty end_date reopens the series.
type UpdateDefinitionRequest struct {
	Name        *string                `json:"name"         validate:"omitempty,min=1,max=200"`
	Description *string                `json:"description"  validate:"omitempty,max=2000"`
	AssignedTo  *string                `json:"assigned_to"  validate:"omitempty,uuid"`
	Rule        *domain.RecurrenceRule `json:"rule"`
	DueTime     *string                `json:"due_time"`
	HolidayMode *string                `json:"holiday_mode" validate:"omitempty,oneof=ignore previous_working_day next_working_day"`
	EndDate     *string                `json:"end_date"`
}

// PauseDefinitionRequest is the body of POST /api/definitions/{id}/pause.
// A date-only end covers the whole of that day; no end pauses
// indefinitely.
type PauseDefinitionRequest struct {
	Start  string `json:"start"  validate:"required"`
	End    string `json:"end"`
	Reason string `json:"reason" validate:"max=500"`
}

// ResumeDefinitionRequest is the optional body of
// POST /api/definitions/{id}/resume.
type ResumeDefinitionRequest struct {
	BackfillMissed bool `json:"backfill_missed"`
}

// GenerateRequest is the body of POST /api/definitions/{id}/generate.
type GenerateRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end"   validate:"required"`
}

// InstanceListResponse is returned by GET /api/definitions/{id}/instances.
type InstanceListResponse struct {
	DefinitionID string                 `json:"definition_id"`
	From         *time.Time             `json:"from,omitempty"`
	To           *time.Time             `json:"to,omitempty"`
	Instances    []*domain.TaskInstance `json:"instances"`
}

// PauseHistoryResponse is returned by GET /api/definitions/{id}/pause-history.
type PauseHistoryResponse struct {
	DefinitionID string                       `json:"definition_id"`
	Records      []*domain.PauseHistoryRecord `json:"records"`
}
