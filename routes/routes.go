package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/triage-pipeline/app"
	"github.com/upb/triage-pipeline/handlers"
	"github.com/upb/triage-pipeline/utils"
)

// requestTimeout leaves room for two model calls with retries
const requestTimeout = 120 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	readiness := handlers.ReadinessInfo{
		DirectorySize:    deps.Directory.Len(),
		ModelPathEnabled: deps.Config.Pipeline.EnableModelPath,
		ModelProvider:    deps.Config.Model.Provider,
	}
	// Untyped nils keep the probe from calling methods on nil pointers
	if deps.DB != nil {
		readiness.DB = deps.DB
	}
	if deps.MetricStore != nil {
		readiness.Store = deps.MetricStore
	}
	health := handlers.NewHealthHandler(readiness, deps.Logger)

	cases := handlers.NewCaseHandler(deps.Orchestrator, deps.MetricsRepo, deps.Logger.Named("cases"))
	providers := handlers.NewDirectoryHandler(deps.Directory, deps.Logger)

	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/providers", providers.HandleListProviders)

		r.Route("/cases", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.With(deps.RateLimiter.Limit).Post("/", cases.HandleCreateCase)
			r.Get("/{caseID}/metrics", cases.HandleCaseMetrics)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
