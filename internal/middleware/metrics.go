package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookblog_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// ReviewsSubmitted counts reviews created by readers.
	ReviewsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookblog_reviews_submitted_total",
		Help: "Total number of reviews submitted",
	})

	// ReviewsModerated counts moderation actions by resulting status.
	ReviewsModerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookblog_reviews_moderated_total",
		Help: "Total number of moderation actions by resulting status",
	}, []string{"status"})

	// LoginAttempts counts admin login attempts by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookblog_login_attempts_total",
		Help: "Total number of admin login attempts by outcome",
	}, []string{"outcome"})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide Fiber Prometheus middleware. The HTTP
// collectors join the default registry so the handler registered by RegisterAt
// also exposes the bookblog_* counters above. Later calls return the same
// instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.NewWithDefaultRegistry(serviceName)
	})
	return prom
}

// MetricsMiddleware returns the HTTP metrics handler for p.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
