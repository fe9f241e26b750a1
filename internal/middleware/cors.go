package middleware

import (
	"net/http"
	"strings"
)

// corsMethods covers the verbs the lifecycle API actually serves.
var corsMethods = strings.Join([]string{
	http.MethodGet, http.MethodPost, http.MethodOptions,
}, ", ")

const corsHeaders = "Accept, Authorization, Content-Type"

// CORS sets CORS response headers for origins in the allow list and answers
// OPTIONS preflight. With an empty list the middleware is a no-op, which is
// the right default for same-origin deployments.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Methods", corsMethods)
					h.Set("Access-Control-Allow-Headers", corsHeaders)
					h.Set("Access-Control-Max-Age", "86400")
					h.Add("Vary", "Origin")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
