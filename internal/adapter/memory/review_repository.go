package memory

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

type ReviewRepository struct {
	s *Store
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[review.OrderID]; !ok {
		return fmt.Errorf("order %d: %w", review.OrderID, domain.ErrNotFound)
	}
	for _, existing := range r.s.reviews {
		if existing.OrderID == review.OrderID {
			return &domain.ConflictError{Message: fmt.Sprintf("order %d already has a review", review.OrderID)}
		}
	}

	r.s.nextReviewID++
	review.ID = r.s.nextReviewID
	r.s.reviews[review.ID] = cloneReview(review)
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id int64) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rev, ok := r.s.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review %d: %w", id, domain.ErrNotFound)
	}
	return cloneReview(rev), nil
}

func (r *ReviewRepository) FindByOrderID(ctx context.Context, orderID int64) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rev := range r.s.reviews {
		if rev.OrderID == orderID {
			return cloneReview(rev), nil
		}
	}
	return nil, fmt.Errorf("review for order %d: %w", orderID, domain.ErrNotFound)
}

func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[review.ID]; !ok {
		return fmt.Errorf("review %d: %w", review.ID, domain.ErrNotFound)
	}
	r.s.reviews[review.ID] = cloneReview(review)
	return nil
}

func cloneReview(r *domain.Review) *domain.Review {
	c := *r
	c.MenuItemIDs = append([]int64{}, r.MenuItemIDs...)
	if r.Comment != nil {
		s := *r.Comment
		c.Comment = &s
	}
	return &c
}
