// Package middleware provides chi-compatible HTTP middleware
// following the Chain of Responsibility pattern
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/monitoring"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// Middleware provides the configured middleware functions
type Middleware struct {
	config   *config.Config
	logger   *zap.Logger
	limiters *ipLimiters
}

// New creates a new middleware instance
func New(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		config:   cfg,
		logger:   logger.Named("http"),
		limiters: newIPLimiters(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize),
	}
}

// RequestID reuses an incoming X-Request-ID or generates one. The id is
// stored where chi's GetReqID finds it and echoed in the response.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger logs every request once. 5xx responses log at error level and
// 4xx at warn.
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("bytes", ww.BytesWritten()),
		}
		if traceID := monitoring.TraceIDFromContext(r.Context()); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		m.logger.Log(level, "HTTP request", fields...)
	})
}

// Security adds security headers for API responses
func (m *Middleware) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		if m.config.IsProduction() {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// CORS allows the configured browser origins to call the API with the
// session cookie
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   m.config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}

// writeError renders an AppError as the standard error body
func writeError(w http.ResponseWriter, r *http.Request, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode())
	_ = json.NewEncoder(w).Encode(errors.ToErrorResponse(err, chimiddleware.GetReqID(r.Context())))
}
