package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexstream_http_requests_total",
		Help: "Total HTTP requests served, by route and status.",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dexstream_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// metrics records per-route request counts and latency. It runs alongside
// jsonContentType/requestLogger rather than replacing them, as the innermost
// of the router's middlewares; chi's route
// pattern (not the raw path) keeps the label cardinality bounded.
func metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		route := routePattern(r)
		requestsTotal.WithLabelValues(route, strconv.Itoa(ww.status)).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// metricsHandler exposes the registered metrics for scraping.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
