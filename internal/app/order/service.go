package order

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type Service struct {
	repo     interfaces.OrderRepository
	gate     interfaces.Gate
	notifier interfaces.Notifier
	logger   logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(
	repo interfaces.OrderRepository,
	gate interfaces.Gate,
	notifier interfaces.Notifier,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:     repo,
		gate:     gate,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PlaceOrder creates a pending order. A nil caller is a guest checkout.
func (s *Service) PlaceOrder(ctx context.Context, caller *domain.Identity, cmd interfaces.PlaceOrderCommand) (*domain.Order, error) {
	requestID := logger.RequestID(ctx)

	var userID *int64
	if caller != nil {
		err := s.gate.Authorize(ctx, interfaces.AccessRequest{
			Caller:   *caller,
			Resource: domain.ResourceOrders,
			Action:   domain.ActionCreate,
		})
		if err != nil {
			return nil, err
		}
		id := caller.UserID
		userID = &id
	}

	order, err := domain.NewOrder(cmd.Items, cmd.Customer, userID, s.now().UTC())
	if err != nil {
		s.logger.Debug("validation_failed", "Order validation failed", requestID, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", requestID, nil, err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("order_placed", "Order placed", requestID, map[string]interface{}{
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
		"guest":    userID == nil,
	})

	s.notifier.Notify(ctx, domain.NotifyConfirmed, *order.Clone())
	s.notifier.Notify(ctx, domain.NotifyAdminAlert, *order.Clone())

	return order, nil
}

// UpdateStatus moves an order along the lifecycle graph on behalf of staff.
// Customers are refused by the status whitelist; they cancel via CancelOrder.
func (s *Service) UpdateStatus(ctx context.Context, caller domain.Identity, cmd interfaces.UpdateStatusCommand) (*domain.Order, error) {
	order, err := s.load(ctx, caller, domain.ActionUpdate, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	err = s.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:       caller,
		Resource:     domain.ResourceOrders,
		Action:       domain.ActionUpdate,
		Order:        order,
		TargetStatus: cmd.Status,
	})
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, caller, order, cmd.Status, cmd.EstimatedTime)
}

// CancelOrder lets the owning customer cancel a pending order; staff roles go
// through the regular status update path with the cancelled target.
func (s *Service) CancelOrder(ctx context.Context, caller domain.Identity, id int64) (*domain.Order, error) {
	if caller.Role != domain.RoleCustomer {
		return s.UpdateStatus(ctx, caller, interfaces.UpdateStatusCommand{OrderID: id, Status: domain.StatusCancelled})
	}

	order, err := s.load(ctx, caller, domain.ActionView, id)
	if err != nil {
		return nil, err
	}

	err = s.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:       caller,
		Resource:     domain.ResourceOrders,
		Action:       domain.ActionView,
		Order:        order,
		RequireOwner: true,
	})
	if err != nil {
		return nil, err
	}

	if order.Status != domain.StatusPending {
		return nil, &domain.ConflictError{
			Current:   order.Status,
			Requested: domain.StatusCancelled,
			Message:   "only pending orders can be cancelled",
		}
	}

	return s.transition(ctx, caller, order, domain.StatusCancelled, 0)
}

// HideFromCustomer removes the order from the owner's own listings. Staff
// still see it.
func (s *Service) HideFromCustomer(ctx context.Context, caller domain.Identity, id int64) error {
	order, err := s.load(ctx, caller, domain.ActionView, id)
	if err != nil {
		return err
	}

	err = s.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:       caller,
		Resource:     domain.ResourceOrders,
		Action:       domain.ActionView,
		Order:        order,
		RequireOwner: true,
	})
	if err != nil {
		return err
	}

	if !order.Status.Deletable() {
		return notDeletable(order.Status)
	}

	if err := s.repo.HideFromCustomer(ctx, id); err != nil {
		return fmt.Errorf("failed to hide order: %w", err)
	}

	s.logger.Info("order_hidden", "Order hidden from customer", logger.RequestID(ctx), map[string]interface{}{
		"order_id": id,
		"user_id":  caller.UserID,
	})
	return nil
}

// PurgeOrder physically deletes the order. Admins may purge any order, other
// callers only their own.
func (s *Service) PurgeOrder(ctx context.Context, caller domain.Identity, id int64) error {
	order, err := s.load(ctx, caller, domain.ActionDelete, id)
	if err != nil {
		return err
	}

	err = s.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:       caller,
		Resource:     domain.ResourceOrders,
		Action:       domain.ActionDelete,
		Order:        order,
		RequireOwner: true,
		AdminBypass:  true,
	})
	if err != nil {
		return err
	}

	if !order.Status.Deletable() {
		return notDeletable(order.Status)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.logger.Info("order_purged", "Order deleted", logger.RequestID(ctx), map[string]interface{}{
		"order_id":   id,
		"deleted_by": caller.Actor(),
	})
	return nil
}

// load runs the coarse permission check before touching the store so denied
// callers learn nothing about which orders exist.
func (s *Service) load(ctx context.Context, caller domain.Identity, action string, id int64) (*domain.Order, error) {
	err := s.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:   caller,
		Resource: domain.ResourceOrders,
		Action:   action,
	})
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *Service) transition(ctx context.Context, caller domain.Identity, order *domain.Order, target domain.Status, minutes int) (*domain.Order, error) {
	requestID := logger.RequestID(ctx)

	patch, err := order.PlanTransition(target, caller, minutes, s.now().UTC())
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, order.ID, patch)
	if err != nil {
		s.logger.Warn("status_update_failed", "Order status was not updated", requestID, map[string]interface{}{
			"order_id":   order.ID,
			"from":       order.Status,
			"to":         target,
			"error":      err.Error(),
			"changed_by": patch.ChangedBy,
		})
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.metrics.OrderTransitions.WithLabelValues(string(order.Status), string(target)).Inc()
	s.logger.Info("status_changed", "Order status updated", requestID, map[string]interface{}{
		"order_id":   updated.ID,
		"from":       order.Status,
		"to":         updated.Status,
		"changed_by": patch.ChangedBy,
	})

	s.notifier.Notify(ctx, domain.NotifyStatusChanged, *updated.Clone())
	return updated, nil
}

func notDeletable(status domain.Status) error {
	return &domain.ConflictError{
		Current: status,
		Message: fmt.Sprintf("order cannot be deleted while %s", status),
	}
}
