package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ShipmentIDKey is the context key for the shipment being processed
	ShipmentIDKey contextKey = "shipment_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enrichedLogger := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithShipmentID adds the shipment identifier to context and returns enriched
// logger. Every log line emitted while processing a document carries it.
func WithShipmentID(ctx context.Context, logger *zap.Logger, shipmentID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, ShipmentIDKey, shipmentID)
	enrichedLogger := logger.With(zap.String("shipment_id", shipmentID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetShipmentID retrieves the shipment identifier from context
func GetShipmentID(ctx context.Context) string {
	if shipmentID, ok := ctx.Value(ShipmentIDKey).(string); ok {
		return shipmentID
	}
	return ""
}
