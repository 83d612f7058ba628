package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)

	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		provider.Shutdown(context.Background())
	})

	return recorder
}

func TestWithSpan_RecordsError(t *testing.T) {
	recorder := withRecorder(t)

	err := WithSpan(context.Background(), "db.session.close", func(ctx context.Context) error {
		assert.NotEmpty(t, GetTraceID(ctx))
		assert.NotEmpty(t, GetSpanID(ctx))
		return errors.New("boom")
	}, attribute.String("db.system", "sqlite"))

	assert.EqualError(t, err, "boom")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.session.close", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("db.system", "sqlite"))
}

func TestWithSpan_Success(t *testing.T) {
	recorder := withRecorder(t)

	err := WithSpan(context.Background(), "db.session.open", func(ctx context.Context) error {
		return nil
	})

	assert.NoError(t, err)
	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, codes.Unset, recorder.Ended()[0].Status().Code)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
}
