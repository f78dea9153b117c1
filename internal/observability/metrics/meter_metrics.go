// Package metrics exposes prometheus instruments for the metering core.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config labels every instrument with the emitting service and environment.
type Config struct {
	ServiceName string
	Environment string
}

// MeterMetrics covers admission control, the rollup worker, the anomaly
// sweep and the HTTP edge. All methods tolerate a nil receiver so wiring
// stays optional in tests.
type MeterMetrics struct {
	quotaDenied    *prometheus.CounterVec
	usageEvents    *prometheus.CounterVec
	workerRuns     *prometheus.CounterVec
	workerDuration *prometheus.HistogramVec
	tenantFailures *prometheus.CounterVec
	sweepAlerts    *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

var (
	meterMetricsOnce sync.Once
	meterMetrics     *MeterMetrics
)

func Meter() *MeterMetrics {
	return MeterWithConfig(Config{})
}

func MeterWithConfig(cfg Config) *MeterMetrics {
	meterMetricsOnce.Do(func() {
		meterMetrics = newMeterMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return meterMetrics
}

func ResetMeterMetricsForTest() {
	meterMetricsOnce = sync.Once{}
	meterMetrics = nil
}

func newMeterMetrics(registerer prometheus.Registerer, cfg Config) *MeterMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "receptionist"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	quotaDenied := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "receptionist_quota_denials_total",
			Help:        "Metered actions rejected by admission control.",
			ConstLabels: constLabels,
		},
		[]string{"event_type"},
	)

	usageEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "receptionist_usage_events_total",
			Help:        "Usage events recorded in the ledger.",
			ConstLabels: constLabels,
		},
		[]string{"event_type"},
	)

	workerRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "receptionist_worker_runs_total",
			Help:        "Completed scheduled job runs.",
			ConstLabels: constLabels,
		},
		[]string{"job", "result"}, // result: success | failed
	)

	workerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "receptionist_worker_duration_seconds",
			Help:        "Wall time of one scheduled job run.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			ConstLabels: constLabels,
		},
		[]string{"job"},
	)

	tenantFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "receptionist_worker_tenant_failures_total",
			Help:        "Per-tenant failures isolated inside scheduled jobs.",
			ConstLabels: constLabels,
		},
		[]string{"job"},
	)

	sweepAlerts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "receptionist_anomaly_alerts_total",
			Help:        "Anomaly alerts emitted by the scheduled sweep.",
			ConstLabels: constLabels,
		},
		[]string{"severity"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "receptionist_http_request_duration_seconds",
			Help:        "HTTP request latency by route and status.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "status"},
	)

	registerer.MustRegister(
		quotaDenied,
		usageEvents,
		workerRuns,
		workerDuration,
		tenantFailures,
		sweepAlerts,
		httpDuration,
	)

	return &MeterMetrics{
		quotaDenied:    quotaDenied,
		usageEvents:    usageEvents,
		workerRuns:     workerRuns,
		workerDuration: workerDuration,
		tenantFailures: tenantFailures,
		sweepAlerts:    sweepAlerts,
		httpDuration:   httpDuration,
	}
}

func (m *MeterMetrics) IncQuotaDenied(eventType string) {
	if m == nil {
		return
	}
	m.quotaDenied.WithLabelValues(eventType).Inc()
}

func (m *MeterMetrics) IncUsageEvent(eventType string) {
	if m == nil {
		return
	}
	m.usageEvents.WithLabelValues(eventType).Inc()
}

func (m *MeterMetrics) IncWorkerRun(job, result string) {
	if m == nil {
		return
	}
	m.workerRuns.WithLabelValues(job, result).Inc()
}

func (m *MeterMetrics) ObserveWorkerDuration(job string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.workerDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func (m *MeterMetrics) IncTenantFailure(job string) {
	if m == nil {
		return
	}
	m.tenantFailures.WithLabelValues(job).Inc()
}

func (m *MeterMetrics) IncSweepAlert(severity string) {
	if m == nil {
		return
	}
	m.sweepAlerts.WithLabelValues(severity).Inc()
}

func (m *MeterMetrics) ObserveHTTPRequest(endpoint, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(endpoint, status).Observe(elapsed.Seconds())
}
