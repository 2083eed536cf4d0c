package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"github.com/nkiryanov/realit/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// Turn panic into 500 response. Panic is logged and reported to sentry
func RecoverMiddleware(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("panic", rec)
					scope.SetExtra("stack", string(debug.Stack()))
					scope.SetTag("method", r.Method)
					scope.SetTag("path", r.URL.Path)
					sentry.CaptureMessage("panic in request")
				})

				l.Error("panic recovered", "method", r.Method, "uri", r.URL.Path, "panic", rec)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
