package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/app/notify"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type NotificationHandler struct {
	logger     logger.Logger
	adminEmail string
	deliver    func(notify.Message)
}

// NewNotificationHandler renders every order event it receives. deliver is
// called with the rendered message; nil logs it instead.
func NewNotificationHandler(logger logger.Logger, adminEmail string, deliver func(notify.Message)) *NotificationHandler {
	h := &NotificationHandler{
		logger:     logger,
		adminEmail: adminEmail,
		deliver:    deliver,
	}
	if h.deliver == nil {
		h.deliver = h.logMessage
	}
	return h
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.OrderEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", logger.RequestID(ctx), nil, err)
		return err
	}
	if msg.Kind == "" || msg.Order.ID == 0 {
		err := fmt.Errorf("notification is missing kind or order id")
		h.logger.Error("message_invalid", "Rejected notification", logger.RequestID(ctx), nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received %s event for order %d", msg.Kind, msg.Order.ID),
		logger.RequestID(ctx), map[string]interface{}{
			"order_id": msg.Order.ID,
			"kind":     msg.Kind,
			"status":   msg.Order.Status,
		})

	h.deliver(notify.Render(msg, h.adminEmail))
	return nil
}

func (h *NotificationHandler) logMessage(m notify.Message) {
	h.logger.Info("notification_delivered", m.Subject, "", map[string]interface{}{
		"to":   m.To,
		"body": m.Body,
	})
}
