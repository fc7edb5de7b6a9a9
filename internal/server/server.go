// internal/server/server.go
// Package server exposes the conversational agent and the geospatial
// analysis operations over HTTP. It is the synchronous counterpart of the
// Zeebe worker fleet: both paths share the same execution code, the server
// simply calls it in-process.
package server

import (
	"context"
	"errors"
	"net/http"

	"disaster-eye-workers/internal/common/config"
	"disaster-eye-workers/internal/common/earthengine"
	"disaster-eye-workers/internal/common/llm"
	"disaster-eye-workers/internal/common/logger"
	"disaster-eye-workers/internal/common/observability"
	"disaster-eye-workers/internal/models"
	"disaster-eye-workers/internal/workflow"

	archiveanalysis "disaster-eye-workers/internal/workers/analysis/archive-analysis"
	queryhistory "disaster-eye-workers/internal/workers/analysis/query-history"
	scorevulnerability "disaster-eye-workers/internal/workers/analysis/score-vulnerability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TurnRunner runs one conversation turn through the workflow.
type TurnRunner interface {
	Run(ctx context.Context, state models.TurnState) (workflow.Result, error)
}

// GeoAnalyzer is the slice of the geospatial service the API serves from.
type GeoAnalyzer interface {
	Initialized() bool
	FloodAnalysis(ctx context.Context, lat, lng, radiusMeters float64) (*models.SARFloodAnalysis, error)
	BuildingAnalysis(ctx context.Context, lat, lng, radiusMeters float64) (*models.BuildingAnalysis, error)
	SatelliteLayers(ctx context.Context, lat, lng float64) (map[string]*earthengine.MapRef, error)
	LiveLayers(ctx context.Context, lat, lng float64) (*earthengine.LiveLayerData, error)
	TestMapLayer(ctx context.Context) (*earthengine.MapRef, error)
}

// HistoryQuerier serves archived assessments near a coordinate.
type HistoryQuerier interface {
	Execute(ctx context.Context, input *queryhistory.Input) (*queryhistory.Output, error)
}

// RegionalScorer runs the composite regional vulnerability analysis.
type RegionalScorer interface {
	Execute(ctx context.Context, input *scorevulnerability.Input) (*scorevulnerability.Output, error)
}

// Archiver persists finished assessments. The server only ever calls it off
// the request path.
type Archiver interface {
	Execute(ctx context.Context, input *archiveanalysis.Input) (*archiveanalysis.Output, error)
}

// Deps collects the server's collaborators. Archiver and Observability may
// be nil; everything else is required for the routes that use it.
type Deps struct {
	Workflow      TurnRunner
	Geo           GeoAnalyzer
	Provider      llm.Provider
	History       HistoryQuerier
	Scorer        RegionalScorer
	Archiver      Archiver
	Observability *observability.Observability
}

// Server is the HTTP API for the disaster analysis backend.
type Server struct {
	config   *config.Config
	workflow TurnRunner
	geo      GeoAnalyzer
	provider llm.Provider
	history  HistoryQuerier
	scorer   RegionalScorer
	archiver Archiver
	obs      *observability.Observability
	logger   logger.Logger

	httpServer *http.Server
}

// New assembles a server from its configuration and collaborators.
func New(cfg *config.Config, deps Deps, log logger.Logger) *Server {
	s := &Server{
		config:   cfg,
		workflow: deps.Workflow,
		geo:      deps.Geo,
		provider: deps.Provider,
		history:  deps.History,
		scorer:   deps.Scorer,
		archiver: deps.Archiver,
		obs:      deps.Observability,
		logger:   log.With(map[string]interface{}{"component": "http-server"}),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	return s
}

// Router builds the chi handler tree with the shared middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(s.config.Server.CORSOrigins))
	r.Use(middleware.Timeout(config.GetDuration(s.config.Server.RequestTimeout)))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/agent", s.handleAgent)
		r.Get("/history", s.handleHistory)

		r.Route("/earth-engine", func(r chi.Router) {
			r.Post("/query", s.handleQuery)
			r.Post("/analyze-location", s.handleAnalyzeLocation)
			r.Get("/map-layers", s.handleMapLayers)
			r.Post("/regional-analysis", s.handleRegionalAnalysis)
			r.Get("/flood-analysis", s.handleFloodAnalysis)
			r.Get("/building-analysis", s.handleBuildingAnalysis)
			r.Get("/live-layers", s.handleLiveLayers)
			r.Get("/test-map", s.handleTestMap)
		})
	})

	return r
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down", nil)
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":             "Disaster Eye Earth Engine API",
		"status":              "active",
		"timestamp":           now(),
		"earth_engine_status": s.platformInitialized(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"api_status":               "healthy",
		"earth_engine_initialized": s.platformInitialized(),
		"ai_service_available":     s.provider != nil,
		"timestamp":                now(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ready",
		"timestamp": now(),
	})
}

func (s *Server) platformInitialized() bool {
	return s.geo != nil && s.geo.Initialized()
}
