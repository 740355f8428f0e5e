// Package healthcheck provides health and readiness check functionality
// Following the Health Check API pattern for cloud-native applications
package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// defaultCheckTimeout bounds one round of checks
const defaultCheckTimeout = 10 * time.Second

// Check represents a health check
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration_ms"`
	Metadata    interface{}   `json:"metadata,omitempty"`
}

// Response represents the health check response
type Response struct {
	Status        Status        `json:"status"`
	Version       string        `json:"version"`
	Timestamp     time.Time     `json:"timestamp"`
	Checks        []Check       `json:"checks"`
	TotalDuration time.Duration `json:"total_duration_ms"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) Check
}

// HealthCheck manages health checks
type HealthCheck struct {
	version  string
	checkers map[string]Checker
	logger   *zap.Logger
	mu       sync.RWMutex
	cache    *Response
	cacheTTL time.Duration
	timeout  time.Duration
	metrics  *HealthMetrics
}

// New creates a new health check instance
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:  version,
		checkers: make(map[string]Checker),
		logger:   logger.Named("healthcheck"),
		cacheTTL: 5 * time.Second,
		timeout:  defaultCheckTimeout,
	}
}

// Register registers a health checker
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.cache = nil
}

// SetCacheTTL sets the cache TTL for health check responses. Zero disables
// caching.
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// SetMetrics records every check run in m
func (h *HealthCheck) SetMetrics(m *HealthMetrics) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metrics = m
}

// LivenessHandler answers as long as the process serves HTTP
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"version":   h.version,
			"timestamp": time.Now(),
		})
	}
}

// ReadinessHandler runs every check. Degraded dependencies keep the service
// ready; an unhealthy one answers 503.
func (h *HealthCheck) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := h.Check(r.Context())

		status := http.StatusOK
		if response.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
			h.logger.Warn("Readiness check failed", zap.Any("checks", response.Checks))
		}
		writeJSON(w, status, response)
	}
}

// Check performs all health checks concurrently
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if h.cache != nil && h.cacheTTL > 0 && time.Since(h.cache.Timestamp) < h.cacheTTL {
		cached := *h.cache
		h.mu.RUnlock()
		return cached
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		checkers[name] = c
	}
	metrics := h.metrics
	h.mu.RUnlock()

	start := time.Now()
	response := Response{
		Version:   h.version,
		Timestamp: start,
		Status:    StatusHealthy,
		Checks:    make([]Check, 0, len(checkers)),
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var wg sync.WaitGroup
	results := make(chan Check, len(checkers))
	for name, checker := range checkers {
		wg.Add(1)
		go func(n string, c Checker) {
			defer wg.Done()
			check := c.Check(checkCtx)
			check.Name = n
			results <- check
		}(name, checker)
	}
	wg.Wait()
	close(results)

	for check := range results {
		metrics.RecordCheck(check.Name, check.Status, check.Duration)
		response.Checks = append(response.Checks, check)
		switch {
		case check.Status == StatusUnhealthy:
			response.Status = StatusUnhealthy
		case check.Status == StatusDegraded && response.Status == StatusHealthy:
			response.Status = StatusDegraded
		}
	}
	sort.Slice(response.Checks, func(i, j int) bool {
		return response.Checks[i].Name < response.Checks[j].Name
	})
	response.TotalDuration = time.Since(start)
	metrics.RecordCheck("overall", response.Status, response.TotalDuration)

	h.mu.Lock()
	h.cache = &response
	h.mu.Unlock()

	return response
}

// PingFunc reports whether a dependency answers
type PingFunc func(ctx context.Context) error

// PingChecker marks a dependency unhealthy when its ping fails. Use it for
// dependencies the service cannot work without.
type PingChecker struct {
	ping PingFunc
}

// NewPingChecker creates a checker for a required dependency
func NewPingChecker(ping PingFunc) *PingChecker {
	return &PingChecker{ping: ping}
}

// Check pings the dependency
func (p *PingChecker) Check(ctx context.Context) Check {
	return runPing(ctx, p.ping, StatusUnhealthy)
}

// ExternalChecker probes an optional upstream. A failure only degrades the
// overall status.
type ExternalChecker struct {
	ping PingFunc
}

// NewExternalChecker creates a checker for an optional upstream service
func NewExternalChecker(ping PingFunc) *ExternalChecker {
	return &ExternalChecker{ping: ping}
}

// Check probes the upstream
func (e *ExternalChecker) Check(ctx context.Context) Check {
	return runPing(ctx, e.ping, StatusDegraded)
}

func runPing(ctx context.Context, ping PingFunc, onFailure Status) Check {
	start := time.Now()
	check := Check{LastChecked: start, Status: StatusHealthy}

	if err := ping(ctx); err != nil {
		check.Status = onFailure
		check.Message = err.Error()
	}
	check.Duration = time.Since(start)
	return check
}

// RedisChecker checks Redis health
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis checker
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Check performs Redis health check
func (r *RedisChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{LastChecked: start}

	pong, err := r.client.Ping(ctx).Result()
	check.Duration = time.Since(start)

	switch {
	case err != nil:
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	case pong != "PONG":
		check.Status = StatusUnhealthy
		check.Message = "Unexpected ping response"
	default:
		check.Status = StatusHealthy
		stats := r.client.PoolStats()
		check.Metadata = map[string]interface{}{
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"timeouts":    stats.Timeouts,
		}
	}
	return check
}

// MarshalJSON customizes JSON marshaling for duration
func (c Check) MarshalJSON() ([]byte, error) {
	type Alias Check
	return json.Marshal(&struct {
		Duration float64 `json:"duration_ms"`
		*Alias
	}{
		Duration: float64(c.Duration.Microseconds()) / 1000,
		Alias:    (*Alias)(&c),
	})
}

// MarshalJSON customizes JSON marshaling for response
func (r Response) MarshalJSON() ([]byte, error) {
	type Alias Response
	return json.Marshal(&struct {
		TotalDuration float64 `json:"total_duration_ms"`
		*Alias
	}{
		TotalDuration: float64(r.TotalDuration.Microseconds()) / 1000,
		Alias:         (*Alias)(&r),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
