package notify

import (
	"context"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

// LogPublisher renders events into the log. Used when no broker is configured.
type LogPublisher struct {
	logger     logger.Logger
	adminEmail string
}

func NewLogPublisher(logger logger.Logger, adminEmail string) *LogPublisher {
	return &LogPublisher{logger: logger, adminEmail: adminEmail}
}

func (p *LogPublisher) PublishOrderEvent(ctx context.Context, msg interfaces.OrderEventMessage) error {
	m := Render(msg, p.adminEmail)
	p.logger.Info("notification_rendered", m.Subject, "", map[string]interface{}{
		"kind": msg.Kind,
		"to":   m.To,
		"body": m.Body,
	})
	return nil
}
