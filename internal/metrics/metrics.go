// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prompteon"

var (
	ForgeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forge_requests_total",
		Help:      "Prompt forge requests by outcome.",
	}, []string{"outcome"})

	ForgeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "forge_llm_duration_seconds",
		Help:      "Latency of the upstream LLM call.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
	})

	OTPDispatch = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_dispatch_total",
		Help:      "One-time code dispatch attempts by channel and result.",
	}, []string{"channel", "result"})

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-user code limiter.",
	}, []string{"purpose"})
)

func init() {
	prometheus.MustRegister(ForgeRequests, ForgeDuration, OTPDispatch, RateLimited)
}

func ObserveForge(outcome string, llmLatency time.Duration) {
	ForgeRequests.WithLabelValues(outcome).Inc()
	if llmLatency > 0 {
		ForgeDuration.Observe(llmLatency.Seconds())
	}
}

func ObserveDispatch(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	OTPDispatch.WithLabelValues(channel, result).Inc()
}

// Handler serves the default registry through Fiber.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
