package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Init registers the HTTP metrics with the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps a handler with request count, latency and in-flight gauges.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// Route shapes with one dynamic segment. Keeps metric label cardinality
// bounded regardless of how many blogs or users exist.
var canonicalRoutes = []string{
	"/api/users/:id",
	"/api/users/:id/comments/",
	"/api/users/:id/favourites",
	"/api/blogs/:id",
	"/api/blogs/:id/comments/",
	"/api/blogs/:id/comment/",
	"/api/blogs/:id/favourite",
	"/api/blogs/:id/unfavourite",
	"/api/blog/preview/:id",
	"/api/labels/:id/blogs/",
	"/auth/confirm/:token",
	"/auth/reset/:token",
	"/manage/comments/:id/disable",
	"/manage/comments/:id/enable",
	"/manage/roles/:name/permissions",
}

// CanonicalPath collapses dynamic path segments into placeholders.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(path, "/")
	for _, route := range canonicalRoutes {
		routeSegs := strings.Split(route, "/")
		if len(routeSegs) != len(segs) {
			continue
		}
		match := true
		for i, rs := range routeSegs {
			if strings.HasPrefix(rs, ":") {
				continue
			}
			if rs != segs[i] {
				match = false
				break
			}
		}
		if match {
			return route
		}
	}
	return path
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
