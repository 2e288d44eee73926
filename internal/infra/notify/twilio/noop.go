package twilio

import (
	"context"
	"log/slog"

	"github.com/respiguard/backend/internal/domain/emergency"
)

// NoopNotifier logs what would have been dispatched. Used when Twilio
// credentials are not configured.
type NoopNotifier struct {
	logger *slog.Logger
}

// NewNoopNotifier constructs the notifier.
func NewNoopNotifier(logger *slog.Logger) *NoopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopNotifier{logger: logger.With("component", "notify.noop")}
}

func (n *NoopNotifier) SendText(_ context.Context, body, phone string) string {
	n.logger.Info("text suppressed", "phone", phone, "bytes", len(body))
	return "Skipped"
}

func (n *NoopNotifier) PlaceCall(_ context.Context, script, phone string) string {
	n.logger.Info("call suppressed", "phone", phone, "bytes", len(script))
	return "Skipped"
}

var _ emergency.Notifier = (*NoopNotifier)(nil)
