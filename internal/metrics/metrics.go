// Package metrics exposes Prometheus collectors for the HTTP server and
// the API procedures.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts requests by route pattern, method and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "inkwell_http_requests_total", Help: "HTTP requests by route, method and status."},
		[]string{"route", "method", "status"},
	)
	// HTTPLatency observes request duration by route pattern and method.
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "inkwell_http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"route", "method"},
	)
	// Procedures counts API procedure calls by name and result code
	// ("OK" or an error kind).
	Procedures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "inkwell_api_procedure_calls_total", Help: "API procedure calls by procedure and result code."},
		[]string{"procedure", "code"},
	)
	// Logins counts login attempts by outcome.
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "inkwell_login_attempts_total", Help: "Author login attempts by result."},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, Procedures, Logins)
}

// Middleware records request count and latency. Requests are labelled
// with the chi route pattern so path parameters do not explode the label
// space; unmatched requests use "unmatched".
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
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

		HTTPLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
