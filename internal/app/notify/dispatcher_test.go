package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []interfaces.OrderEventMessage
	err  error
	fail bool
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, msg interfaces.OrderEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		panic("broker exploded")
	}
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) kinds() []domain.NotificationKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Kind)
	}
	return out
}

func sampleOrder() domain.Order {
	return domain.Order{
		ID:       42,
		Status:   domain.StatusPending,
		Customer: domain.Customer{Name: "Ann", Email: "ann@example.com", Phone: "+100", Address: "1 Main St"},
		Items: []domain.Item{
			{Name: "Margherita", Price: decimal.RequireFromString("12.50"), Quantity: 2},
			{Name: "Tiramisu", Price: decimal.RequireFromString("17.50"), Quantity: 1},
		},
		Total: decimal.RequireFromString("42.50"),
	}
}

func TestDispatcher_PublishesQueuedEvents(t *testing.T) {
	pub := &recordingPublisher{}
	m := metrics.New()
	d := NewDispatcher(pub, 2, 16, logger.Discard(), m)
	d.Start()

	d.Notify(context.Background(), domain.NotifyConfirmed, sampleOrder())
	d.Notify(context.Background(), domain.NotifyAdminAlert, sampleOrder())
	d.Stop()

	assert.ElementsMatch(t, []domain.NotificationKind{domain.NotifyConfirmed, domain.NotifyAdminAlert}, pub.kinds())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Notifications.WithLabelValues("confirmed", "published")))
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{}
	m := metrics.New()
	d := NewDispatcher(pub, 1, 1, logger.Discard(), m)

	done := make(chan struct{})
	go func() {
		// Not started: the second event cannot fit.
		d.Notify(context.Background(), domain.NotifyStatusChanged, sampleOrder())
		d.Notify(context.Background(), domain.NotifyStatusChanged, sampleOrder())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Notifications.WithLabelValues("status_changed", "dropped")))

	d.Start()
	d.Stop()
	assert.Len(t, pub.kinds(), 1)
}

func TestDispatcher_SwallowsPublisherFailures(t *testing.T) {
	m := metrics.New()

	failing := &recordingPublisher{err: errors.New("connection reset")}
	d := NewDispatcher(failing, 1, 4, logger.Discard(), m)
	d.Start()
	d.Notify(context.Background(), domain.NotifyConfirmed, sampleOrder())
	d.Stop()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Notifications.WithLabelValues("confirmed", "failed")))

	panicking := &recordingPublisher{fail: true}
	d = NewDispatcher(panicking, 1, 4, logger.Discard(), m)
	d.Start()
	d.Notify(context.Background(), domain.NotifyConfirmed, sampleOrder())
	d.Notify(context.Background(), domain.NotifyAdminAlert, sampleOrder())
	d.Stop()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Notifications.WithLabelValues("confirmed", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Notifications.WithLabelValues("admin_alert", "failed")))
}

func TestDispatcher_NotifyAfterStopDoesNotPanic(t *testing.T) {
	d := NewDispatcher(&recordingPublisher{}, 1, 1, logger.Discard(), metrics.New())
	d.Start()
	d.Stop()
	d.Stop()

	require.NotPanics(t, func() {
		d.Notify(context.Background(), domain.NotifyConfirmed, sampleOrder())
	})
}

func TestRender(t *testing.T) {
	order := sampleOrder()

	confirmed := Render(interfaces.OrderEventMessage{Kind: domain.NotifyConfirmed, Order: order}, "admin@example.com")
	assert.Equal(t, "ann@example.com", confirmed.To)
	assert.Equal(t, "Order Confirmation - Order #42", confirmed.Subject)
	assert.Contains(t, confirmed.Body, "- Margherita (x2): $25.00")
	assert.Contains(t, confirmed.Body, "Total: $42.50")

	alert := Render(interfaces.OrderEventMessage{Kind: domain.NotifyAdminAlert, Order: order}, "admin@example.com")
	assert.Equal(t, "admin@example.com", alert.To)
	assert.Contains(t, alert.Body, "Customer: Ann (ann@example.com)")

	order.Status = domain.StatusOutForDelivery
	changed := Render(interfaces.OrderEventMessage{Kind: domain.NotifyStatusChanged, Order: order}, "admin@example.com")
	assert.Equal(t, "Order Status Update - Order #42", changed.Subject)
	assert.Contains(t, changed.Body, "updated to: OUT_FOR_DELIVERY.")
}
