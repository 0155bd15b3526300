package tracking

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service serves read-only order views. Customers only ever see orders they
// placed and have not hidden; other roles with orders/view see everything.
type Service struct {
	orderRepo interfaces.OrderRepository
	gate      interfaces.Gate
	logger    logger.Logger
}

func NewService(orderRepo interfaces.OrderRepository, gate interfaces.Gate, logger logger.Logger) *Service {
	return &Service{
		orderRepo: orderRepo,
		gate:      gate,
		logger:    logger,
	}
}

func (s *Service) GetOrder(ctx context.Context, caller domain.Identity, id int64) (*domain.Order, error) {
	if err := s.requireView(ctx, caller); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if caller.Role == domain.RoleCustomer {
		err := s.gate.Authorize(ctx, interfaces.AccessRequest{
			Caller:       caller,
			Resource:     domain.ResourceOrders,
			Action:       domain.ActionView,
			Order:        order,
			RequireOwner: true,
		})
		if err != nil {
			return nil, err
		}
		if order.IsDeletedByCustomer {
			return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
		}
	}

	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, caller domain.Identity, filter domain.OrderFilter) ([]*domain.Order, error) {
	if err := s.requireView(ctx, caller); err != nil {
		return nil, err
	}

	if caller.Role == domain.RoleCustomer {
		uid := caller.UserID
		filter.UserID = &uid
		filter.IncludeHidden = false
	} else {
		filter.IncludeHidden = true
	}
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) ListMyOrders(ctx context.Context, caller domain.Identity, limit, offset int) ([]*domain.Order, error) {
	if err := s.requireView(ctx, caller); err != nil {
		return nil, err
	}

	uid := caller.UserID
	if offset < 0 {
		offset = 0
	}
	orders, err := s.orderRepo.List(ctx, domain.OrderFilter{
		UserID: &uid,
		Limit:  clampLimit(limit),
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) GetOrderHistory(ctx context.Context, caller domain.Identity, id int64) ([]*domain.StatusLog, error) {
	order, err := s.GetOrder(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetStatusHistory(ctx, order.ID)
}

func (s *Service) requireView(ctx context.Context, caller domain.Identity) error {
	return s.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:   caller,
		Resource: domain.ResourceOrders,
		Action:   domain.ActionView,
	})
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}
