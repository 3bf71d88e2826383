package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRouteSpanName_UsesRoutePattern(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	r := chi.NewRouter()
	r.Use(RouteSpanName)
	r.Get("/v1/notifications/{id}", okHandler)
	h := otelhttp.NewHandler(r, "http.server", otelhttp.WithTracerProvider(tp))

	for _, id := range []string{"01HZX", "01HZY"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/notifications/"+id, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	spans := rec.Ended()
	require.Len(t, spans, 2)
	for _, s := range spans {
		assert.Equal(t, "GET /v1/notifications/{id}", s.Name())
	}
}

func TestRouteSpanName_UnmatchedKeepsName(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	r := chi.NewRouter()
	r.Use(RouteSpanName)
	r.Get("/v1/health", okHandler)
	h := otelhttp.NewHandler(r, "http.server", otelhttp.WithTracerProvider(tp))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere/123", nil))

	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, "http.server", rec.Ended()[0].Name())
}
