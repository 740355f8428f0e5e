// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/monitoring"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/security"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"github.com/alchemorsel/fridgechef/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Handlers groups the route handlers the server mounts
type Handlers struct {
	Recipes *handlers.RecipeHandlers
	Auth    *handlers.AuthHandlers
	Account *handlers.AccountHandlers
	Chat    *handlers.ChatHandlers
}

// Server is the JSON API HTTP server
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
	router     *chi.Mux
	middleware *middleware.Middleware
	sessions   *security.SessionManager
	metrics    *monitoring.Metrics
	health     *healthcheck.HealthCheck
	handlers   Handlers
}

// NewServer creates a new API server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	mw *middleware.Middleware,
	sessions *security.SessionManager,
	metrics *monitoring.Metrics,
	health *healthcheck.HealthCheck,
	h Handlers,
) *Server {
	s := &Server{
		config:     cfg,
		logger:     logger.Named("api-server"),
		middleware: mw,
		sessions:   sessions,
		metrics:    metrics,
		health:     health,
		handlers:   h,
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     zap.NewStdLog(s.logger),
	}
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(s.middleware.RequestID)
	r.Use(s.middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.middleware.Security)
	r.Use(s.middleware.CORS())
	if s.config.Monitoring.EnableMetrics {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/health", s.health.LivenessHandler())
	r.Get("/ready", s.health.ReadinessHandler())
	if s.config.Monitoring.EnableMetrics {
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.middleware.RateLimit)

		r.Route("/auth", s.handlers.Auth.Routes)

		r.Group(func(r chi.Router) {
			r.Use(s.middleware.Authenticate(s.sessions))
			r.Route("/recipes", s.handlers.Recipes.Routes)
			r.Route("/account", s.handlers.Account.Routes)
			r.Route("/chat", s.handlers.Chat.Routes)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, errors.NewNotFoundError("Route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, errors.NewBadRequestError("Method not allowed"))
	})

	return r
}

// Handler returns the router wrapped in request tracing
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "fridgechef-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Server returns the underlying HTTP server instance
func (s *Server) Server() *http.Server {
	return s.server
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errors.ToErrorResponse(err, chimiddleware.GetReqID(r.Context())))
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
