package httpx

import (
	"net/http"
	"strconv"
	"time"

	"userauth/internal/observability/metrics"
	obsmw "userauth/internal/observability/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// LogRequests logs method, route, status and latency for every request and
// feeds the HTTP metrics. Routes are labelled by their chi pattern so path
// parameters do not explode metric cardinality.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := RoutePattern(r)
		duration := time.Since(start)

		if path != "/metrics" {
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, path).Observe(duration.Seconds())
		}

		obsmw.Logger(r.Context()).Info("request",
			"method", r.Method,
			"path", path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", duration,
		)
	})
}

func RoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
