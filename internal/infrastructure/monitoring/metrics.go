// Package monitoring exposes Prometheus metrics for the HTTP surface and
// the chat relay
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "fridgechef"

// Metrics owns a registry and the collectors registered on it
type Metrics struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	chatEventsTotal     *prometheus.CounterVec
	chatTurnsTotal      *prometheus.CounterVec
	recipesSavedTotal   prometheus.Counter
}

// NewMetrics creates the collectors on a fresh registry
func NewMetrics(logger *zap.Logger) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		logger:   logger.Named("metrics"),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		chatEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_events_total",
				Help:      "Chat stream events applied, by event type",
			},
			[]string{"type"},
		),
		chatTurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_turns_total",
				Help:      "Finished chat turns, by outcome",
			},
			[]string{"outcome"},
		),
		recipesSavedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recipes_saved_total",
				Help:      "Total number of recipes saved to collections",
			},
		),
	}
}

var _ outbound.MetricsRecorder = (*Metrics)(nil)

// RecordChatEvent counts one applied chat event
func (m *Metrics) RecordChatEvent(eventType string) {
	m.chatEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordChatTurn counts one finished chat turn
func (m *Metrics) RecordChatTurn(outcome string) {
	m.chatTurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordRecipeSaved counts one saved recipe
func (m *Metrics) RecordRecipeSaved() {
	m.recipesSavedTotal.Inc()
}

// RecordRequest records an HTTP request
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware records every request under its chi route pattern, so path
// parameters do not explode label cardinality
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RecordRequest(r.Method, route, status, time.Since(start))
	})
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(m.logger),
	})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
