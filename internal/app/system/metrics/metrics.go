// Package metrics exposes Prometheus counters for HTTP traffic and prompt
// lifecycle transitions.
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
	// httpRequestsTotal counts served requests.
	// Labels:
	//   - method: HTTP method
	//   - route: chi route pattern (e.g. "/app/p/{promptID}")
	//   - status: response status code
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptstash_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptstash_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// promptTransitionsTotal counts lifecycle operations on prompts.
	// Labels:
	//   - op: create, update, save, autosave, publish, unpublish, visibility,
	//     move, restore, delete
	//   - outcome: ok or the error kind
	promptTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptstash_prompt_operations_total",
			Help: "Total number of prompt lifecycle operations",
		},
		[]string{"op", "outcome"},
	)

	importedPromptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptstash_import_records_total",
			Help: "Prompt records processed by import",
		},
		[]string{"result"},
	)

	autosaveStaleTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promptstash_autosave_stale_total",
			Help: "Autosave requests discarded because a newer revision was already applied",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(promptTransitionsTotal)
	prometheus.MustRegister(importedPromptsTotal)
	prometheus.MustRegister(autosaveStaleTotal)
}

// RecordPromptOp records one lifecycle operation.
func RecordPromptOp(op, outcome string) {
	promptTransitionsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordImport records the outcome of an import run.
func RecordImport(imported, skipped int) {
	importedPromptsTotal.WithLabelValues("imported").Add(float64(imported))
	importedPromptsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordStaleAutosave records an autosave dropped by the revision gate.
func RecordStaleAutosave() {
	autosaveStaleTotal.Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument counts and times every request, labelled by chi route pattern
// so that IDs in paths do not explode label cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
