package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RouteUnmatched labels paths outside the API surface.
const RouteUnmatched = "unmatched"

var staticRoutes = map[string]bool{
	"/search/rooms":       true,
	"/search/rooms/count": true,
	"/health":             true,
	"/ready":              true,
	"/metrics":            true,
}

// RoutePattern maps a request path to its route so that metric and span
// names stay low-cardinality: /rooms/<id> becomes /rooms/{id}.
func RoutePattern(path string) string {
	if staticRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/rooms/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/rooms/{id}"
	}
	return RouteUnmatched
}

func skipMetrics(path string) bool {
	return path == "/health" || path == "/ready" || path == "/metrics"
}

// HTTPMetrics records duration, count and response size per route. Probes
// and scrapes are not recorded.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipMetrics(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r)

			metrics.ObserveRequest(
				r.Method,
				RoutePattern(r.URL.Path),
				strconv.Itoa(rw.status),
				time.Since(start).Seconds(),
				rw.size,
			)
		})
	}
}
