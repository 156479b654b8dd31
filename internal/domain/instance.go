package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Instance-specific validation errors
var (
	// ErrInstanceDefinitionEmpty is returned when an instance has no definition.
	ErrInstanceDefinitionEmpty = errors.New("instance definition ID cannot be empty")

	// ErrInstanceDueDateEmpty is returned when an instance has no due date.
	ErrInstanceDueDateEmpty = errors.New("instance due date cannot be empty")
)

// InstanceStatus is the work status of a materialized instance.
type InstanceStatus string

// Instance statuses. Completed instances are never deleted or moved.
const (
	InstanceStatusOpen      InstanceStatus = "open"
	InstanceStatusCompleted InstanceStatus = "completed"
	InstanceStatusCancelled InstanceStatus = "cancelled"
)

// TaskInstance is one materialized occurrence of a definition. At most one
// instance exists per (DefinitionID, SlotKey); the slot is the calendar day
// of DueDate, or its hour for hourly rules.
type TaskInstance struct {
	ID           uuid.UUID      `json:"id"`
	DefinitionID uuid.UUID      `json:"definition_id"`
	AssignedTo   uuid.UUID      `json:"assigned_to"`
	DueDate      time.Time      `json:"due_date"`
	SlotKey      string         `json:"slot_key"`
	Status       InstanceStatus `json:"status"`
	BatchID      uuid.UUID      `json:"batch_id"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewTaskInstance creates an open instance due at dueDate. The slot key is
// computed in dueDate's location.
func NewTaskInstance(def *TaskDefinition, dueDate time.Time, batchID uuid.UUID, now time.Time) *TaskInstance {
	return &TaskInstance{
		ID:           uuid.New(),
		DefinitionID: def.ID,
		AssignedTo:   def.AssignedTo,
		DueDate:      dueDate,
		SlotKey:      def.Rule.Granularity().Key(dueDate),
		Status:       InstanceStatusOpen,
		BatchID:      batchID,
		CreatedAt:    now,
	}
}

// Validate checks required fields.
func (i *TaskInstance) Validate() error {
	if i.DefinitionID == uuid.Nil {
		return ErrInstanceDefinitionEmpty
	}
	if i.DueDate.IsZero() || i.SlotKey == "" {
		return ErrInstanceDueDateEmpty
	}
	return nil
}

// HolidaySource says where a holiday entry comes from.
type HolidaySource string

// Holiday sources.
const (
	HolidaySourceBranch   HolidaySource = "branch"
	HolidaySourceEmployee HolidaySource = "employee"
)

// HolidayDate is a non-working day reported by the calendar oracle.
type HolidayDate struct {
	Date       time.Time     `json:"date"`
	Source     HolidaySource `json:"source"`
	IsOptional bool          `json:"is_optional"`
}

// NonWorking reports whether the holiday blocks work for the employee.
// Optional branch holidays stay working days unless the employee opted in,
// which the oracle reports as an employee-sourced entry.
func (h HolidayDate) NonWorking() bool {
	return !h.IsOptional || h.Source == HolidaySourceEmployee
}

