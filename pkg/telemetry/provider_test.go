package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), "job-sync", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.Equal(t, before, otel.GetTracerProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupRegistersProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown, err := Setup(context.Background(), "job-sync", "http://127.0.0.1:4318")
	require.NoError(t, err)

	assert.NotEqual(t, before, otel.GetTracerProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "span")
	span.End()

	// no collector is listening; shutdown may report the failed flush but must return
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}
