// Package notify delivers order events outside the request path. Notify only
// enqueues; worker goroutines publish, and delivery failures are logged and
// counted but never reported back to the caller.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

const publishTimeout = 5 * time.Second

type Dispatcher struct {
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	metrics   *metrics.Metrics
	workers   int
	now       func() time.Time

	mu     sync.RWMutex
	queue  chan interfaces.OrderEventMessage
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(publisher interfaces.MessagePublisher, workers, queueSize int, logger logger.Logger, metrics *metrics.Metrics) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		workers:   workers,
		now:       time.Now,
		queue:     make(chan interfaces.OrderEventMessage, queueSize),
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.logger.Info("notification_dispatcher_started", "Notification dispatcher started", "", map[string]interface{}{
		"workers":    d.workers,
		"queue_size": cap(d.queue),
	})
}

// Stop stops accepting events and waits for queued ones to be published.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Notify enqueues an event without blocking. A full queue drops the event.
func (d *Dispatcher) Notify(ctx context.Context, kind domain.NotificationKind, order domain.Order) {
	msg := interfaces.OrderEventMessage{Kind: kind, Order: order, OccurredAt: d.now().UTC()}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ctx, msg, "dispatcher stopped")
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.drop(ctx, msg, "queue full")
	}
}

func (d *Dispatcher) drop(ctx context.Context, msg interfaces.OrderEventMessage, why string) {
	d.metrics.Notifications.WithLabelValues(string(msg.Kind), "dropped").Inc()
	d.logger.Warn("notification_dropped", "Notification dropped: "+why, logger.RequestID(ctx), map[string]interface{}{
		"kind":     msg.Kind,
		"order_id": msg.Order.ID,
	})
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.publish(msg)
	}
}

func (d *Dispatcher) publish(msg interfaces.OrderEventMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("publisher panic: %v", r)
			}
		}()
		return d.publisher.PublishOrderEvent(ctx, msg)
	}()

	details := map[string]interface{}{
		"kind":     msg.Kind,
		"order_id": msg.Order.ID,
		"status":   msg.Order.Status,
	}
	if err != nil {
		d.metrics.Notifications.WithLabelValues(string(msg.Kind), "failed").Inc()
		d.logger.Error("notification_failed", "Failed to publish notification", "", details, err)
		return
	}
	d.metrics.Notifications.WithLabelValues(string(msg.Kind), "published").Inc()
	d.logger.Debug("notification_published", "Notification published", "", details)
}
