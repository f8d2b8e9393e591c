package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the checkout metrics and their prometheus registry.
type Registry struct {
	reg            *prometheus.Registry
	checkouts      *prometheus.CounterVec
	captureLatency prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by terminal outcome.",
	}, []string{"outcome"})
	captureLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_capture_seconds",
		Help:    "Payment capture call latency.",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(checkouts, captureLatency)
	return &Registry{
		reg:            r,
		checkouts:      checkouts,
		captureLatency: captureLatency,
	}
}

func (r *Registry) ObserveCheckout(outcome string) {
	r.checkouts.WithLabelValues(outcome).Inc()
}

func (r *Registry) ObserveCaptureSeconds(seconds float64) {
	r.captureLatency.Observe(seconds)
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
