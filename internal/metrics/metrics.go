// Package metrics holds the Prometheus collectors exported by the finance service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RatesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_rates_recorded_total",
			Help: "Exchange rate records stored, by source.",
		},
		[]string{"source"},
	)

	Conversions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_conversions_total",
			Help: "Currency conversions, by result (ok, unavailable, error).",
		},
		[]string{"result"},
	)

	DocumentRecomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_document_recomputes_total",
			Help: "Document total recomputations, by trigger.",
		},
		[]string{"trigger"},
	)

	InvariantViolations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostledger_invariant_violations_total",
		Help: "Documents rejected because stored totals disagreed with their items.",
	})

	PayoutTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_payout_transitions_total",
			Help: "Payout request status changes, by target status.",
		},
		[]string{"status"},
	)

	RateFeedFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_rate_feed_fetches_total",
			Help: "Upstream rate feed requests, by result.",
		},
		[]string{"result"},
	)

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RatesRecorded,
			Conversions,
			DocumentRecomputes,
			InvariantViolations,
			PayoutTransitions,
			RateFeedFetches,
			httpInFlight,
			httpRequestDuration,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records in-flight count and latency for every request.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		httpRequestDuration.
			WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.code)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers behind Instrument keep working.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
