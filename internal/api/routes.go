package api

import (
	"github.com/go-chi/chi/v5"
)

// RegisterDefinitionRoutes mounts the definition and pause endpoints on r.
// Authentication is applied by the caller.
func RegisterDefinitionRoutes(r chi.Router, definitions *DefinitionHandler, pauses *PauseHandler) {
	r.Route("/definitions", func(r chi.Router) {
		r.Post("/", definitions.CreateDefinition)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", definitions.GetDefinition)
			r.Put("/", definitions.UpdateDefinition)
			r.Post("/regenerate", definitions.RegenerateDefinition)
			r.Get("/instances", definitions.ListInstances)

			r.Get("/pause", pauses.GetPauseStatus)
			r.Post("/pause", pauses.PauseDefinition)
			r.Post("/resume", pauses.ResumeDefinition)
			r.Post("/generate", pauses.GenerateInstances)
			r.Get("/pause-history", pauses.GetPauseHistory)
		})
	})
}
