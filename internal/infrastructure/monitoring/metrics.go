// Package monitoring provides Prometheus metrics for the terminal backend.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metric collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Domain
	LayoutSaves         prometheus.Counter
	FeedPolls           prometheus.Counter
	FeedErrors          prometheus.Counter
	MarketAssets        prometheus.Gauge
	Dispatches          *prometheus.CounterVec
	SwapQuotes          prometheus.Counter
	NotificationsActive prometheus.Gauge
	WSConnections       prometheus.Gauge
}

// New creates a metrics set backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		LayoutSaves: factory.NewCounter(prometheus.CounterOpts{
			Name: "layout_saves_total",
			Help: "Total window layout persistence writes",
		}),
		FeedPolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "market_feed_polls_total",
			Help: "Total market feed polls attempted",
		}),
		FeedErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "market_feed_errors_total",
			Help: "Total failed market feed polls",
		}),
		MarketAssets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "market_assets",
			Help: "Assets in the latest market snapshot",
		}),
		Dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transfer_dispatches_total",
			Help: "Transfer dispatches by outcome",
		}, []string{"outcome"}),
		SwapQuotes: factory.NewCounter(prometheus.CounterOpts{
			Name: "swap_quotes_total",
			Help: "Swap quotes computed",
		}),
		NotificationsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notifications_active",
			Help: "Notifications currently visible",
		}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Active websocket connections",
		}),
	}
}

// Handler returns the scrape endpoint for this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
