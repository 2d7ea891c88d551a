package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unipay",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "unipay",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	pricingFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unipay",
			Subsystem: "pricing",
			Name:      "fallbacks_total",
			Help:      "Price lookups answered from the static fallback table.",
		},
		[]string{"reason"},
	)

	settlementWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unipay",
			Subsystem: "settlement",
			Name:      "records_total",
			Help:      "Settlement records written, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	unmatchedPurchases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "unipay",
			Subsystem: "settlement",
			Name:      "unmatched_purchases_total",
			Help:      "Purchases observed without a reward grant inside the reconcile window.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		pricingFallbacks,
		settlementWrites,
		unmatchedPurchases,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies keyed by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func PricingFallback(reason string) {
	pricingFallbacks.WithLabelValues(reason).Inc()
}

func SettlementWrite(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	settlementWrites.WithLabelValues(kind, outcome).Inc()
}

func UnmatchedPurchase() {
	unmatchedPurchases.Inc()
}
