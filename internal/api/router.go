package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/caption-studio/backend/internal/api/handlers"
	"github.com/caption-studio/backend/internal/api/middleware"
	"github.com/caption-studio/backend/internal/auth"
	"github.com/caption-studio/backend/internal/captions"
	"github.com/caption-studio/backend/internal/config"
	"github.com/caption-studio/backend/internal/db"
	"github.com/caption-studio/backend/internal/job"
	"github.com/caption-studio/backend/internal/storage"
)

func NewRouter(database *db.Database, jwtService *auth.JWTService, cfg *config.Config, jobQueue *job.JobQueue, fetcher *captions.Fetcher, exporter *storage.Exporter) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB, transcripts stay well under this

	// Login attempts are rate limited per IP, as are the endpoints that
	// reach out to the downloader or the completion provider
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	pipelineLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Handlers
	authHandler := handlers.NewAuthHandler(database, jwtService)
	scriptHandler := handlers.NewScriptHandler(database, jobQueue, exporter)
	modelsHandler := handlers.NewModelsHandler(database)
	jobHandler := handlers.NewJobHandler(jobQueue)
	settingsHandler := handlers.NewSettingsHandler(database)
	adminHandler := handlers.NewAdminHandler(database, pipelineLimiter, fetcher, cfg.DataPath)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		r.With(loginLimiter.Handler).Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			// Auth
			r.Get("/auth/me", authHandler.Me)

			// Models
			r.Get("/models", modelsHandler.ListModels)

			// Scripts
			r.With(pipelineLimiter.Handler).Post("/scripts", scriptHandler.CreateScript)
			r.Get("/scripts", scriptHandler.ListScripts)
			r.Get("/scripts/{videoID}", scriptHandler.GetScript)
			r.Delete("/scripts/{videoID}", scriptHandler.DeleteScript)
			r.With(pipelineLimiter.Handler).Post("/scripts/{videoID}/format", scriptHandler.FormatScript)
			r.With(pipelineLimiter.Handler).Post("/scripts/{videoID}/metadata", scriptHandler.GenerateMetadata)
			r.Get("/scripts/{videoID}/export", scriptHandler.ExportScript)
			r.Get("/exports", scriptHandler.ListExports)
			r.Get("/exports/{name}", scriptHandler.DownloadExport)

			// Jobs
			r.Get("/jobs", jobHandler.ListJobs)
			r.Get("/jobs/{id}", jobHandler.GetJob)
			r.Delete("/jobs/{id}", jobHandler.CancelJob)
			r.Post("/jobs/{id}/retry", jobHandler.RetryJob)

			// Settings hold the provider token, admins only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))

				r.Get("/settings", settingsHandler.GetSettings)
				r.Put("/settings", settingsHandler.UpdateSettings)

				r.Get("/admin/users", adminHandler.ListUsers)
				r.Post("/admin/users", adminHandler.CreateUser)
				r.Put("/admin/users/{id}", adminHandler.UpdateUser)
				r.Delete("/admin/users/{id}", adminHandler.DeleteUser)
				r.Get("/admin/stats", adminHandler.DashboardStats)
				r.Get("/admin/ratelimit", adminHandler.RateLimitStatus)
				r.Delete("/admin/ratelimit", adminHandler.RateLimitClear)
			})
		})
	})

	return r
}
