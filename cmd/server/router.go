package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/cadence/internal/api"
	apiMiddleware "github.com/phrazzld/cadence/internal/api/middleware"
)

// setupRouter builds the HTTP handler tree.
func (app *application) setupRouter() http.Handler {
	definitionHandler := api.NewDefinitionHandler(app.definitionService, app.materializer, app.loc, app.logger)
	pauseHandler := api.NewPauseHandler(app.pauseController, app.loc, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.logger)

	return newRouter(app, authMiddleware, definitionHandler, pauseHandler)
}

func newRouter(
	app *application,
	authMiddleware *apiMiddleware.AuthMiddleware,
	definitions *api.DefinitionHandler,
	pauses *api.PauseHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			api.RegisterDefinitionRoutes(r, definitions, pauses)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
