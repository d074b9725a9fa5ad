package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, NewTraceID(), NewTraceID())
	assert.NotEqual(t, NewRunID(), NewRunID())
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithRunID(ctx, "run-1")
	ctx = WithRunMode(ctx, "plan")
	ctx = WithRequestID(ctx, "req-1")

	tc := FromContext(ctx)
	assert.Equal(t, "trace-1", tc.TraceID)
	assert.Equal(t, "run-1", tc.RunID)
	assert.Equal(t, "plan", tc.RunMode)
	assert.Equal(t, "req-1", tc.RequestID)
}

func TestGettersOnEmptyContext(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetRunID(context.TODO()))
}

func TestNewRunContext(t *testing.T) {
	t.Run("keeps existing trace id", func(t *testing.T) {
		ctx := NewRunContext(WithTraceID(context.Background(), "parent"), "inline")
		assert.Equal(t, "parent", GetTraceID(ctx))
		assert.NotEmpty(t, GetRunID(ctx))
		assert.Equal(t, "inline", GetRunMode(ctx))
	})

	t.Run("mints trace id", func(t *testing.T) {
		ctx := NewRunContext(context.Background(), "plan")
		assert.NotEmpty(t, GetTraceID(ctx))
	})
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx := WithRunID(WithTraceID(context.Background(), "t-9"), "r-9")

	logger := LoggerFromContext(ctx, base)
	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"trace_id":"t-9"`)
	assert.Contains(t, buf.String(), `"run_id":"r-9"`)
	assert.NotContains(t, buf.String(), "request_id")
}

func TestStartSpan(t *testing.T) {
	require.NoError(t, InitOpenTelemetry("toolplan-test"))

	ctx, span := StartSpan(context.Background(), "test", "op", attribute.String("k", "v"))
	require.NotNil(t, span)
	assert.NotEmpty(t, GetTraceID(ctx))
	EndSpan(span, errors.New("boom"))
}
