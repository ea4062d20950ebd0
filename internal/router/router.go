package router

import (
	"net/http"

	"catalog-api/internal/handler"
	"catalog-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	categoryHandler *handler.CategoryHandler,
	healthHandler *handler.HealthHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Applied in order: Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.CORS,
		middleware.APIKeyAuth(apiKey, logger),
	)

	r.NotFound(handler.NotFound(logger))
	r.MethodNotAllowed(handler.MethodNotAllowed(logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.GetAll)
			r.Post("/", productHandler.Create)
			r.Get("/with-category", productHandler.GetWithCategory)
			r.Put("/bulk-update-price", productHandler.BulkUpdatePrices)
			r.Get("/paged", productHandler.GetPaged)
			r.Get("/search", productHandler.Search)
			r.Get("/{id}", productHandler.GetByID)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.GetAll)
			r.Get("/{id}", categoryHandler.GetByID)
		})
	})

	return r
}
