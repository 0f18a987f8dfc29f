package service

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eventide/conreg-api/internal/eventconfig"
)

// MetricsService owns the Prometheus registry: HTTP metrics fed by the
// middleware, plus a badges_sold gauge refreshed in the background.
type MetricsService struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	dbDuration   *prometheus.HistogramVec
	badgesSold   prometheus.Gauge
	goroutines   prometheus.GaugeFunc
}

func NewMetricsService(logger *zap.Logger) *MetricsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &MetricsService{
		registry: registry,
		logger:   logger,
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route.",
		}, []string{"method", "route", "status"}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency by query name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		badgesSold: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "badges_sold",
			Help: "Current count of sold badges.",
		}),
		goroutines: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "app_goroutines",
			Help: "Number of running goroutines.",
		}, func() float64 { return float64(runtime.NumGoroutine()) }),
	}
	registry.MustRegister(m.httpDuration, m.httpTotal, m.dbDuration, m.badgesSold, m.goroutines)
	return m
}

// Handler serves the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	m.httpTotal.WithLabelValues(method, route, code).Inc()
}

func (m *MetricsService) ObserveDBQuery(query string, elapsed time.Duration) {
	m.dbDuration.WithLabelValues(query).Observe(elapsed.Seconds())
}

// WatchBadgesSold refreshes the badges_sold gauge until the context ends.
func (m *MetricsService) WatchBadgesSold(ctx context.Context, counts eventconfig.CountSource, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := counts.BadgesSold(ctx)
			if err != nil {
				m.logger.Warn("badges_sold gauge refresh failed", zap.Error(err))
				continue
			}
			m.badgesSold.Set(float64(n))
		}
	}
}
