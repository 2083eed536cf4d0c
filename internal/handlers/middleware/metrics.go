package middleware

import (
	"net/http"
	"time"
)

type httpObserver interface {
	ObserveHTTP(route string, status int, duration time.Duration)
}

// Observe every request by the matched route pattern
// Must wrap http.ServeMux directly: the mux sets r.Pattern on the request it receives
func MetricsMiddleware(o httpObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			o.ObserveHTTP(r.Pattern, rw.status, time.Since(start))
		})
	}
}
