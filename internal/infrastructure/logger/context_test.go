package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext(t *testing.T) {
	l := zap.NewNop()
	ctx := WithContext(context.Background(), l)

	got := FromContext(ctx)
	assert.Equal(t, l, got)
}

func TestFromContext_NotFound(t *testing.T) {
	got := FromContext(context.Background())
	assert.NotNil(t, got, "should return no-op logger, not nil")
}

func TestWithRequestID(t *testing.T) {
	l := zap.NewNop()
	ctx, enriched := WithRequestID(context.Background(), l, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.NotNil(t, enriched)
	assert.Equal(t, enriched, FromContext(ctx))
}

func TestWithShipmentID(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	ctx, enriched := WithShipmentID(context.Background(), l, "S00123456")
	enriched.Info("processing")

	assert.Equal(t, "S00123456", GetShipmentID(ctx))
	entries := observed.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "S00123456", entries[0].ContextMap()["shipment_id"])
	}
}

func TestGetRequestID_NotFound(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetShipmentID_NotFound(t *testing.T) {
	assert.Empty(t, GetShipmentID(context.Background()))
}

func TestContextChaining(t *testing.T) {
	l := zap.NewNop()
	ctx := context.Background()

	ctx, _ = WithRequestID(ctx, l, "req-1")
	ctx, _ = WithShipmentID(ctx, FromContext(ctx), "S001")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "S001", GetShipmentID(ctx))
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
	got := FromContext(ctx)
	assert.NotNil(t, got)
	// Must not panic when logging.
	got.Info("ok")
}
