package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quizforge/qbank-api/internal/api"
	apiMiddleware "github.com/quizforge/qbank-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	bankHandler := api.NewBankHandler(app.bankService, app.logger)
	sseHandler := api.NewSSEHandler(
		app.broker,
		time.Duration(app.config.Server.SSEHeartbeatSeconds)*time.Second,
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/banks", bankHandler.CreateBank)
		r.Get("/banks/{id}", bankHandler.GetBank)
		r.Post("/tasks/{id}/cancel", bankHandler.CancelGeneration)
		r.Get("/progress/{id}", sseHandler.StreamProgress)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
