// Package server exposes masking and comparison over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/events"
	"github.com/raaihank/doc-sentinel/internal/logger"
	"github.com/raaihank/doc-sentinel/internal/privacy"
	"github.com/raaihank/doc-sentinel/internal/report"
)

// Server is the masking API server.
type Server struct {
	config    *config.Config
	logger    *logger.Logger
	engine    *privacy.Engine
	assembler *report.Assembler
	router    *mux.Router
	server    *http.Server
	hub       *events.Hub
	limiter   *ipRateLimiter
}

// New creates the API server around an existing masking engine. The hub may
// be nil when events are disabled.
func New(cfg *config.Config, log *logger.Logger, engine *privacy.Engine, hub *events.Hub) *Server {
	s := &Server{
		config: cfg,
		logger: log.WithComponent("server"),
		engine: engine,
		router: mux.NewRouter(),
		hub:    hub,
	}
	s.assembler = report.NewAssembler(engine, s.logger, report.WithWorkers(cfg.Compare.Workers))
	if cfg.Server.RateLimit.Enabled {
		s.limiter = newIPRateLimiter(cfg.Server.RateLimit)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/mask", s.handleMask).Methods("POST")
	api.HandleFunc("/compare", s.handleCompare).Methods("POST")

	if s.hub != nil && s.config.Events.Enabled {
		path := s.config.Events.Path
		if path == "" {
			path = "/ws"
		}
		s.router.HandleFunc(path, s.hub.HandleWebSocket).Methods("GET")
	}
}

// Start starts the HTTP server and the events hub.
func (s *Server) Start() error {
	s.logger.Info("Starting doc-sentinel API server",
		zap.Int("port", s.config.Server.Port),
		zap.Bool("privacy_enabled", s.config.Privacy.Enabled),
		zap.Bool("events_enabled", s.config.Events.Enabled),
	)
	if s.hub != nil {
		go s.hub.Run()
	}
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping doc-sentinel API server")
	if s.hub != nil {
		s.hub.Stop()
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"name":"doc-sentinel",
		"version":"0.1.0",
		"privacy_enabled":%t,
		"entity_types":%d,
		"ner_mode":%q
	}`, s.config.Privacy.Enabled, len(s.engine.EntityTypes()), s.config.NER.Mode)
}
