// Package review handles customer reviews of delivered orders and their
// moderation by staff.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type Service struct {
	reviews interfaces.ReviewRepository
	orders  interfaces.OrderRepository
	gate    interfaces.Gate
	logger  logger.Logger
	now     func() time.Time
}

func NewService(
	reviews interfaces.ReviewRepository,
	orders interfaces.OrderRepository,
	gate interfaces.Gate,
	logger logger.Logger,
) *Service {
	return &Service{
		reviews: reviews,
		orders:  orders,
		gate:    gate,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateReview records the owner's review of a delivered order. A second
// review for the same order is a conflict.
func (s *Service) CreateReview(ctx context.Context, caller domain.Identity, orderID int64, rating int, comment string) (*domain.Review, error) {
	err := s.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:   caller,
		Resource: domain.ResourceOrders,
		Action:   domain.ActionView,
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
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

	if order.Status != domain.StatusDelivered {
		return nil, &domain.ConflictError{
			Current:   order.Status,
			Requested: domain.StatusDelivered,
			Message:   "only delivered orders can be reviewed",
		}
	}

	review, err := domain.NewReview(orderID, caller.UserID, rating, comment, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.Info("review_created", "Review created", logger.RequestID(ctx), map[string]interface{}{
		"review_id": review.ID,
		"order_id":  orderID,
		"rating":    rating,
	})
	return review, nil
}

// AcceptReview marks the review accepted and replaces its menu item tags.
// Repeating the call with the same ids leaves the review unchanged.
func (s *Service) AcceptReview(ctx context.Context, caller domain.Identity, reviewID int64, menuItemIDs []int64) (*domain.Review, error) {
	err := s.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:    caller,
		Resource:  domain.ResourceOrders,
		Action:    domain.ActionView,
		StaffOnly: true,
	})
	if err != nil {
		return nil, err
	}

	for i, id := range menuItemIDs {
		if id <= 0 {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("menu_item_ids[%d]", i), Message: "menu item id must be positive"}
		}
	}

	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	review.Accept(menuItemIDs, s.now().UTC())
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.logger.Info("review_accepted", "Review accepted", logger.RequestID(ctx), map[string]interface{}{
		"review_id":     review.ID,
		"menu_item_ids": review.MenuItemIDs,
		"accepted_by":   caller.Actor(),
	})
	return review, nil
}

// GetReviewForOrder follows order visibility: customers see reviews of their
// own orders only.
func (s *Service) GetReviewForOrder(ctx context.Context, caller domain.Identity, orderID int64) (*domain.Review, error) {
	err := s.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:   caller,
		Resource: domain.ResourceOrders,
		Action:   domain.ActionView,
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, orderID)
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
	}

	review, err := s.reviews.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return review, nil
}
