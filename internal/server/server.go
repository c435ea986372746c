// Package server provides the HTTP server and routing for the liquidity API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/aristath/fofliquidity/internal/di"
	"github.com/aristath/fofliquidity/internal/utils"
)

// Config holds server configuration
type Config struct {
	Log            zerolog.Logger
	Port           int
	DevMode        bool
	AllowedOrigins []string
	Container      *di.Container
	Jobs           *di.JobInstances
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	allowedOrigins []string
	container      *di.Container
	systemHandlers *SystemHandlers
	eventsStream   *EventsStreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		allowedOrigins: cfg.AllowedOrigins,
		container:      cfg.Container,
		systemHandlers: NewSystemHandlers(cfg.Container, cfg.Jobs, cfg.Log),
		eventsStream:   NewEventsStreamHandler(cfg.Container.EventBus, cfg.AllowedOrigins, cfg.Log),
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.DevMode)

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes. The websocket stream stays outside the
// request timeout.
func (s *Server) setupRoutes(devMode bool) {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.container.Registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/events/ws", s.eventsStream.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			if !devMode {
				r.Use(middleware.Compress(5))
			}

			s.container.LiquidityHandler.RegisterRoutes(r)
			s.container.FundsHandler.RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/backups", s.systemHandlers.HandleListBackups)
				r.Route("/jobs", func(r chi.Router) {
					r.Get("/", s.systemHandlers.HandleListJobs)
					r.Post("/liquidity-check", s.systemHandlers.HandleTriggerLiquidityCheck)
					r.Post("/backup", s.systemHandlers.HandleTriggerBackup)
				})
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth reports whether the funds database answers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.container.FundsDB.HealthCheck(ctx); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		}, s.log)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "ok",
	}, s.log)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
