package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures by operation type.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zilean_redis_errors_total",
	Help: "Total number of Redis errors by operation type",
}, []string{"operation"})

// GuardRejections counts guard-chain rejections by guard name.
var GuardRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zilean_guard_rejections_total",
	Help: "Total number of requests rejected by an authorization guard",
}, []string{"guard"})

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-instrumentation handler for the
// Prometheus middleware.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
