package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tasker-api/internal/api"
	apiMiddleware "github.com/phrazzld/tasker-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(app.metrics.Middleware)

	authCfg := app.config.Auth
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.sessionService, authCfg.CookieName, app.logger)
	userHandler := api.NewUserHandler(
		app.userService,
		api.SessionCookie{
			Name:     authMiddleware.CookieName(),
			Lifetime: time.Duration(authCfg.TokenLifetimeMinutes) * time.Minute,
			Secure:   authCfg.CookieSecure,
		},
		app.config.Avatar.MaxBytes,
		app.logger,
	)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)

	api.RegisterRoutes(r, userHandler, taskHandler, authMiddleware)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Handle("/metrics", app.metrics.Handler())

	return r
}
