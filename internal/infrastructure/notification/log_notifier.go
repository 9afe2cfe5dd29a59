package notification

import (
	"context"

	"go.uber.org/zap"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
)

// Ensure LogNotifier implements the processor's Notifier port
var _ shippingapp.Notifier = (*LogNotifier)(nil)

// LogNotifier writes alerts to the log. Used in development when no SNS
// topic is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier over the given logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the alert and always succeeds.
func (n *LogNotifier) Notify(ctx context.Context, subject, message string) error {
	n.logger.Warn("alert", zap.String("subject", subject), zap.String("message", message))
	return nil
}
