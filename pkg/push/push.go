// Package push is the boundary to the external push-notification
// provider. Sends are fire-and-forget; the core only ever logs failures.
package push

import (
	"context"

	"github.com/Amm-ar/delivero-backend/pkg/logger"

	"go.uber.org/zap"
)

type Notifier interface {
	Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

// LogNotifier writes notifications to the log instead of a provider.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Send(_ context.Context, deviceToken, title, body string, data map[string]string) error {
	logger.L().Info("push notification",
		zap.String("device_token", deviceToken),
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("data", data))
	return nil
}
