package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/scam-shield/backend/internal/metrics"
)

// Metrics records Prometheus request metrics.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := normalizePath(r.URL.Path)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses ids to keep label cardinality bounded.
func normalizePath(path string) string {
	patterns := []struct{ prefix, normalized string }{
		{"/api/chat/sessions/", "/api/chat/sessions/:id"},
		{"/api/categories/", "/api/categories/:id"},
	}
	for _, p := range patterns {
		if strings.HasPrefix(path, p.prefix) && len(path) > len(p.prefix) {
			if strings.HasSuffix(path, "/messages") {
				return p.normalized + "/messages"
			}
			return p.normalized
		}
	}
	return path
}
