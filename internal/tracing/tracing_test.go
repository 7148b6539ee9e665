package tracing_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"pos-backend/internal/config"
	"pos-backend/internal/tracing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := tracing.Init(context.Background(), &config.Config{ServiceName: "pos-backend"}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMiddlewareRecordsServerSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	app := fiber.New()
	app.Use(tracing.Middleware("pos-backend"))
	var sawSpan bool
	app.Get("/api/sales/:id", func(c *fiber.Ctx) error {
		sawSpan = trace.SpanFromContext(c.UserContext()).SpanContext().IsValid()
		return fiber.NewError(fiber.StatusNotFound, "Sale not found")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/sales/9", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.True(t, sawSpan)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/sales/9", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
}
