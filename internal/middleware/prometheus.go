package middleware

import (
	"net/http"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/metrics"
)

// uninstrumented paths would only add scrape noise
var metricsSkip = map[string]bool{
	"/metrics": true,
	"/health":  true,
}

// Prometheus records per-request duration and count. Mount after RequestID
// and Recoverer so panicking requests still show up with their 500.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		if metricsSkip[r.URL.Path] {
			return
		}
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		metrics.RecordRequest(r.Method, path, sw.status, time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
