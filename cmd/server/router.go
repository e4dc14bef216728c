package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pathforge/pathforge-api/internal/api"
	apiMiddleware "github.com/pathforge/pathforge-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	pathHandler := api.NewPathHandler(app.pathService)
	healthHandler := api.NewHealthHandler(app.db, app.config.LLM.GeminiAPIKey != "")

	r.Route("/api", func(r chi.Router) {
		r.Post("/paths/generate", pathHandler.GeneratePath)
		r.Get("/paths", pathHandler.ListPaths)
		r.Get("/paths/{id}", pathHandler.GetPath)
		r.Get("/paths/slug/{slug}", pathHandler.GetPathBySlug)
		r.Delete("/paths/{id}", pathHandler.DeletePath)
		r.Get("/jobs/{id}", pathHandler.GetJob)
	})

	r.Get("/health", healthHandler.Health)

	return r
}
