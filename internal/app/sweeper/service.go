// Package sweeper promotes preparing orders to ready once their estimated
// ready time has passed. It acts as the system, not as a user, so it skips
// the authorization gate.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type Service struct {
	repo     interfaces.OrderRepository
	notifier interfaces.Notifier
	logger   logger.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	now      func() time.Time
}

func NewService(
	repo interfaces.OrderRepository,
	notifier interfaces.Notifier,
	interval time.Duration,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		interval: interval,
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run sweeps once at start, then on every tick until ctx is cancelled. A
// failed sweep is logged and the loop carries on.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper_started", "Auto-expiry sweeper started", "", map[string]interface{}{
		"interval": s.interval.String(),
	})

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper_stopped", "Auto-expiry sweeper stopped", "", nil)
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.SweepRuns.WithLabelValues("failed").Inc()
			s.logger.Error("sweep_failed", "Sweep panicked", "", nil, fmt.Errorf("panic: %v", r))
		}
	}()

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("sweep_failed", "Sweep failed", "", nil, err)
	}
}

// Sweep promotes every overdue order once and returns how many moved. Errors
// on individual orders are logged and skipped.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()

	due, err := s.repo.FindDue(ctx, domain.StatusPreparing, now)
	if err != nil {
		s.metrics.SweepRuns.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("failed to find overdue orders: %w", err)
	}

	promoted := 0
	for _, order := range due {
		if ctx.Err() != nil {
			break
		}
		if s.promote(ctx, order, now) {
			promoted++
		}
	}

	s.metrics.SweepRuns.WithLabelValues("ok").Inc()
	s.metrics.SweepPromoted.Add(float64(promoted))
	if len(due) > 0 {
		s.logger.Info("sweep_completed", "Sweep completed", "", map[string]interface{}{
			"due":      len(due),
			"promoted": promoted,
		})
	}
	return promoted, nil
}

func (s *Service) promote(ctx context.Context, order *domain.Order, now time.Time) (ok bool) {
	details := map[string]interface{}{"order_id": order.ID}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep_order_failed", "Panic while promoting order", "", details, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	updated, err := s.repo.Update(ctx, order.ID, domain.ExpiryPatch(now))
	if err != nil {
		// A staff member got there first; nothing to do.
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("sweep_order_skipped", "Order changed before the sweeper reached it", "", details)
			return false
		}
		s.logger.Error("sweep_order_failed", "Failed to promote order", "", details, err)
		return false
	}

	s.metrics.OrderTransitions.WithLabelValues(string(domain.StatusPreparing), string(domain.StatusReady)).Inc()
	s.logger.Info("order_auto_ready", "Order automatically marked ready", "", details)
	s.notifier.Notify(ctx, domain.NotifyStatusChanged, *updated.Clone())
	return true
}
