package observability_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/mira-agent/internal/observability"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", observability.RequestIDFromContext(ctx))
	assert.Same(t, observability.Logger(), observability.LoggerFromContext(ctx))

	ctx = observability.WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", observability.RequestIDFromContext(ctx))
	assert.NotSame(t, observability.Logger(), observability.LoggerFromContext(ctx))
}

func TestSetLevel(t *testing.T) {
	defer observability.SetLevel("info")

	observability.SetLevel("error")
	assert.False(t, observability.Logger().Enabled(context.Background(), slog.LevelInfo))

	observability.SetLevel("bogus")
	assert.True(t, observability.Logger().Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, observability.Logger().Enabled(context.Background(), slog.LevelDebug))
}
