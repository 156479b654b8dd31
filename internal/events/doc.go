// Package events decouples services from the background task machinery.
//
// Services emit a TaskRequestEvent describing work they want done later;
// handlers registered with an EventEmitter turn those events into tasks.
// The definition service emits TypeDefinitionRegeneration when a definition
// is created or superseded.
package events
