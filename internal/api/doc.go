// Package api exposes task definitions, their instances and the pause
// controls over HTTP. Handlers decode and validate requests, call the
// definition service or pause controller, and map domain errors to status
// codes with client-safe messages.
package api
