package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Definition-specific validation errors
var (
	// ErrDefinitionIDEmpty is returned when a definition ID is nil.
	ErrDefinitionIDEmpty = errors.New("definition ID cannot be empty")

	// ErrDefinitionNameEmpty is returned when a definition has no name.
	ErrDefinitionNameEmpty = errors.New("definition name cannot be empty")

	// ErrDefinitionOwnerEmpty is returned when a definition has no owner.
	ErrDefinitionOwnerEmpty = errors.New("definition owner cannot be empty")

	// ErrDefinitionAssigneeEmpty is returned when a definition has no assignee.
	ErrDefinitionAssigneeEmpty = errors.New("definition assignee cannot be empty")

	// ErrDefinitionSeriesBounds is returned when the series ends before it starts.
	ErrDefinitionSeriesBounds = errors.New("definition end date must not be before its start date")
)

// HolidayMode controls how a candidate falling on a holiday is treated.
type HolidayMode string

// Supported holiday adjustment modes.
const (
	HolidayModeIgnore             HolidayMode = "ignore"
	HolidayModePreviousWorkingDay HolidayMode = "previous_working_day"
	HolidayModeNextWorkingDay     HolidayMode = "next_working_day"
)

// Valid reports whether m is a known mode.
func (m HolidayMode) Valid() bool {
	switch m {
	case HolidayModeIgnore, HolidayModePreviousWorkingDay, HolidayModeNextWorkingDay:
		return true
	default:
		return false
	}
}

// DefinitionStatus is the lifecycle state of a definition.
type DefinitionStatus string

// Definition lifecycle states. Superseded is terminal.
const (
	DefinitionStatusActive     DefinitionStatus = "active"
	DefinitionStatusSuperseded DefinitionStatus = "superseded"
)

// TaskDefinition is the recurring template instances are materialized from.
type TaskDefinition struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`

	OwnerID    uuid.UUID `json:"owner_id"`
	AssignedTo uuid.UUID `json:"assigned_to"`

	Rule        RecurrenceRule `json:"rule"`
	DueTime     TimeOfDay      `json:"due_time"`
	HolidayMode HolidayMode    `json:"holiday_mode"`

	// StartDate anchors the series; EndDate optionally closes it.
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	Pause          *PauseWindow `json:"pause,omitempty"`
	GeneratedUntil *time.Time   `json:"generated_until,omitempty"`

	Status       DefinitionStatus `json:"status"`
	SupersededBy *uuid.UUID       `json:"superseded_by,omitempty"`
	Supersedes   *uuid.UUID       `json:"supersedes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTaskDefinition creates an active definition anchored at startDate.
// Returns an error if validation fails.
func NewTaskDefinition(
	name string,
	ownerID, assignedTo uuid.UUID,
	rule RecurrenceRule,
	dueTime TimeOfDay,
	mode HolidayMode,
	startDate time.Time,
) (*TaskDefinition, error) {
	now := time.Now().UTC()
	def := &TaskDefinition{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		OwnerID:     ownerID,
		AssignedTo:  assignedTo,
		Rule:        rule,
		DueTime:     dueTime,
		HolidayMode: mode,
		StartDate:   StartOfDay(startDate),
		Status:      DefinitionStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Validate checks identity, rule and series bounds.
func (d *TaskDefinition) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDefinitionIDEmpty
	}
	if strings.TrimSpace(d.Name) == "" {
		return ErrDefinitionNameEmpty
	}
	if d.OwnerID == uuid.Nil {
		return ErrDefinitionOwnerEmpty
	}
	if d.AssignedTo == uuid.Nil {
		return ErrDefinitionAssigneeEmpty
	}
	if err := d.Rule.Validate(); err != nil {
		return err
	}
	if err := d.DueTime.Validate(); err != nil {
		return err
	}
	if !d.HolidayMode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidHolidayMode, d.HolidayMode)
	}
	if d.EndDate != nil && d.EndDate.Before(d.StartDate) {
		return ErrDefinitionSeriesBounds
	}
	if d.Pause != nil {
		if err := d.Pause.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsActive reports whether the definition still materializes instances.
func (d *TaskDefinition) IsActive() bool {
	return d.Status == DefinitionStatusActive
}

// PauseState derives the controller state from the pause window.
func (d *TaskDefinition) PauseState() PauseState {
	switch {
	case d.Pause == nil:
		return PauseStateActive
	case d.Pause.End == nil:
		return PauseStatePausedIndefinite
	default:
		return PauseStatePausedBounded
	}
}

// AdvanceWatermark moves GeneratedUntil forward to through; it never moves back.
func (d *TaskDefinition) AdvanceWatermark(through time.Time) bool {
	if d.GeneratedUntil != nil && !through.After(*d.GeneratedUntil) {
		return false
	}
	t := through
	d.GeneratedUntil = &t
	return true
}

// InSeries reports whether t falls inside the definition's start/end bounds.
func (d *TaskDefinition) InSeries(t time.Time) bool {
	if t.Before(StartOfDay(d.StartDate.In(t.Location()))) {
		return false
	}
	if d.EndDate != nil && t.After(EndOfDay(d.EndDate.In(t.Location()))) {
		return false
	}
	return true
}

// Supersede marks d as replaced by successor and links the two.
// Callers persist both definitions.
func (d *TaskDefinition) Supersede(successor *TaskDefinition, at time.Time) {
	id := successor.ID
	prev := d.ID
	d.Status = DefinitionStatusSuperseded
	d.SupersededBy = &id
	d.UpdatedAt = at
	successor.Supersedes = &prev
}
