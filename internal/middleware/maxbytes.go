package middleware

import "net/http"

// DefaultMaxBodyBytes caps request bodies at 1 MiB. Workflow payloads are
// small JSON documents; anything bigger is a client bug or abuse.
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes wraps request bodies in http.MaxBytesReader so oversized payloads
// fail the JSON decode instead of being buffered in full.
func MaxBytes(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
