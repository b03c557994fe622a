// Package api exposes the garden planning service over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gardengod/gardengod/internal/api/middleware"
	"github.com/gardengod/gardengod/internal/cache"
	"github.com/gardengod/gardengod/internal/catalog"
	"github.com/gardengod/gardengod/internal/config"
	"github.com/gardengod/gardengod/internal/export"
	"github.com/gardengod/gardengod/internal/health"
	"github.com/gardengod/gardengod/internal/store"
)

// Server holds the handler dependencies and builds the router.
type Server struct {
	cfg      config.AppConfig
	catalog  *catalog.Store
	store    *store.Store
	cache    *cache.ScheduleCache // nil when Redis is not configured
	exporter *export.Exporter
	health   *health.Manager
}

// Deps bundles the Server's constructor dependencies.
type Deps struct {
	Config   config.AppConfig
	Catalog  *catalog.Store
	Store    *store.Store
	Cache    *cache.ScheduleCache
	Exporter *export.Exporter
	Health   *health.Manager
}

// New creates a Server.
func New(deps Deps) *Server {
	return &Server{
		cfg:      deps.Config,
		catalog:  deps.Catalog,
		store:    deps.Store,
		cache:    deps.Cache,
		exporter: deps.Exporter,
		health:   deps.Health,
	}
}

// Router builds the chi router with the full middleware stack and all
// routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	tracingService := ""
	if s.cfg.OTLPEndpoint != "" {
		tracingService = "gardengod"
	}

	middleware.Apply(r, middleware.StackConfig{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		EnableMetrics:    s.cfg.MetricsEnabled,
		TracingService:   tracingService,
		EnableLogging:    true,
		RateLimitEnabled: s.cfg.RateLimitEnabled,
		RateLimitRPM:     s.cfg.RateLimitRPM,
		RateLimitBurst:   s.cfg.RateLimitBurst,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/plants", s.handlePlants)
		r.Get("/plants/{id}", s.handlePlant)
		r.Get("/zones", s.handleZones)
		r.Get("/schedule/{zone}", s.handleSchedule)
		r.Post("/gardens", s.handleCreateGarden)
		r.Post("/optimize", s.handleOptimize)
		r.Post("/score", s.handleScore)

		r.Route("/saved-gardens", func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/", s.handleSaveGarden)
			r.Get("/", s.handleListGardens)
			r.Get("/{id}", s.handleGetGarden)
			r.Delete("/{id}", s.handleDeleteGarden)
			r.Post("/{id}/export", s.handleExportGarden)
		})
	})

	return r
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.Router()
}
