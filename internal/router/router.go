package router

import (
	"net/http"

	"mini-shop/internal/handler"
	"mini-shop/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	orderHandler *handler.OrderHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware applies outermost first: Recovery -> Logging -> CORS ->
	// APIKeyAuth -> UserID.
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))
	r.Use(middleware.UserID(logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", orderHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", orderHandler.GetByID)
			r.Post("/paid", orderHandler.Paid)
			r.Post("/received", orderHandler.Received)
			r.Post("/refund", orderHandler.Refund)
			r.Post("/review", orderHandler.Review)
		})
	})

	return r
}
