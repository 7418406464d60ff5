package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	AdminJWT *AdminJWTMiddleware
	Logging  *LoggingMiddleware
	Metrics  *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	logger *logrus.Logger,
	adminSecret string,
	adminScope string,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
	metricsSkipPaths ...string,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		AdminJWT: NewAdminJWTMiddleware(adminSecret, adminScope, logger),
		Logging:  NewLoggingMiddleware(logger),
		Metrics:  NewMetricsMiddleware(requestsTotal, requestDuration, metricsSkipPaths...),
	}
}
