package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard_cache",
			Name:      "http_requests_total",
			Help:      "The total number of ops HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dashboard_cache",
			Name:      "http_request_duration_seconds",
			Help:      "The ops HTTP request latencies in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

// LogMetricsInitialization logs the metrics exposed on /metrics
func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"dashboard_cache_http_requests_total":   "Counter for ops HTTP requests by method, endpoint, status",
			"dashboard_cache_http_request_duration": "Histogram for ops HTTP request duration by method, endpoint",
			"dashboard_cache_*":                     "Cache statistics by backend, read at scrape time",
			"metrics_endpoint":                      "/metrics",
		}).Debug("Available Prometheus metrics")
	}
}

// metricsEndpoint serves the default Prometheus registry
func (s *Server) metricsEndpoint(c echo.Context) error {
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
