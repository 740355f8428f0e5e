package healthcheck

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics provides Prometheus metrics for health checks
type HealthMetrics struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	healthStatus  *prometheus.GaugeVec
}

// NewHealthMetrics registers the health check collectors on reg
func NewHealthMetrics(reg prometheus.Registerer, namespace string) *HealthMetrics {
	factory := promauto.With(reg)
	return &HealthMetrics{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"check_name", "status"},
		),
		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "check_duration_seconds",
				Help:      "Duration of health checks in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"check_name"},
		),
		healthStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "status",
				Help:      "Current health status (0=unhealthy, 1=degraded, 2=healthy)",
			},
			[]string{"check_name"},
		),
	}
}

// RecordCheck records one check run. The aggregate uses the name "overall".
func (hm *HealthMetrics) RecordCheck(checkName string, status Status, duration time.Duration) {
	if hm == nil {
		return
	}
	hm.checksTotal.WithLabelValues(checkName, string(status)).Inc()
	hm.checkDuration.WithLabelValues(checkName).Observe(duration.Seconds())
	hm.healthStatus.WithLabelValues(checkName).Set(statusToFloat(status))
}

func statusToFloat(status Status) float64 {
	switch status {
	case StatusHealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}
