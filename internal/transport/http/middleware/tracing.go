package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

// RouteSpanName renames the active server span to "METHOD pattern" once chi
// has matched the route, so ids in the path never reach span names.
func RouteSpanName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return
		}
		if p := rctx.RoutePattern(); p != "" {
			trace.SpanFromContext(r.Context()).SetName(r.Method + " " + p)
		}
	})
}
