package task

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownTaskType is returned when no factory is registered for a
// record's type.
var ErrUnknownTaskType = errors.New("unknown task type")

// Factory rebuilds a task from its stored record.
type Factory func(rec Record) (Task, error)

// Registry maps task types to the factories that rehydrate them.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds taskType to f, replacing any previous factory.
func (r *Registry) Register(taskType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[taskType] = f
}

// Rehydrate builds the task for rec.
func (r *Registry) Rehydrate(rec Record) (Task, error) {
	r.mu.RLock()
	f, ok := r.factories[rec.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, rec.Type)
	}
	return f(rec)
}
