package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

// OrderEventMessage is published for every notification.
type OrderEventMessage struct {
	Kind       domain.NotificationKind `json:"kind"`
	Order      domain.Order            `json:"order"`
	OccurredAt time.Time               `json:"occurred_at"`
}

// Notifier is fire-and-forget: implementations must not block the caller on
// delivery and must swallow delivery failures.
type Notifier interface {
	Notify(ctx context.Context, kind domain.NotificationKind, order domain.Order)
}

type MessagePublisher interface {
	PublishOrderEvent(ctx context.Context, msg OrderEventMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error
