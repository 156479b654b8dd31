package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TypeDefinitionRegeneration requests that a definition's current window be
// materialized in the background.
const TypeDefinitionRegeneration = "definition_regeneration"

// TaskRequestEvent asks for a background task without depending on the task
// package.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent creates an event of eventType carrying payload as JSON.
func NewTaskRequestEvent(eventType string, payload interface{}) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RegenerationPayload is the payload of TypeDefinitionRegeneration events.
type RegenerationPayload struct {
	DefinitionID uuid.UUID `json:"definition_id"`
	// Trigger is the window trigger name, "manual" or "scheduled".
	Trigger string `json:"trigger"`
}

// NewRegenerationEvent builds a TypeDefinitionRegeneration event.
func NewRegenerationEvent(definitionID uuid.UUID, trigger string) (*TaskRequestEvent, error) {
	if definitionID == uuid.Nil {
		return nil, fmt.Errorf("definition ID cannot be empty")
	}
	return NewTaskRequestEvent(TypeDefinitionRegeneration, RegenerationPayload{
		DefinitionID: definitionID,
		Trigger:      trigger,
	})
}

// EventHandler processes events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to whoever is listening.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
