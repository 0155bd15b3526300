package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextOrderID++
	order.ID = r.s.nextOrderID
	r.s.orders[order.ID] = order.Clone()

	changedBy := "guest"
	if order.UserID != nil {
		changedBy = domain.Identity{UserID: *order.UserID}.Actor()
	}
	r.s.appendLog(order.ID, order.Status, changedBy, order)
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return o.Clone(), nil
}

func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*domain.Order{}
	for _, o := range r.s.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && !o.OwnedBy(*filter.UserID) {
			continue
		}
		if !filter.IncludeHidden && o.IsDeletedByCustomer {
			continue
		}
		out = append(out, o.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*domain.Order{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *OrderRepository) Update(ctx context.Context, id int64, patch domain.OrderPatch) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if o.Status != patch.ExpectStatus {
		return nil, &domain.ConflictError{
			Current:   o.Status,
			Requested: patch.Status,
			Message:   "order status changed concurrently",
		}
	}
	if claimTaken(o.KitchenStaffID, patch.KitchenStaffID) || claimTaken(o.DeliveryStaffID, patch.DeliveryStaffID) {
		return nil, &domain.ConflictError{
			Current:   o.Status,
			Requested: patch.Status,
			Message:   "order already claimed by another staff member",
		}
	}

	o.Apply(patch)
	r.s.appendLog(id, patch.Status, patch.ChangedBy, o)
	return o.Clone(), nil
}

func claimTaken(stored, claim *int64) bool {
	return claim != nil && stored != nil && *stored != *claim
}

func (r *OrderRepository) FindDue(ctx context.Context, status domain.Status, before time.Time) ([]*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Order
	for _, o := range r.s.orders {
		if o.Status != status || o.EstimatedReadyAt == nil || o.EstimatedReadyAt.After(before) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *OrderRepository) HideFromCustomer(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if !o.Status.Deletable() {
		return notDeletable(o.Status)
	}
	o.IsDeletedByCustomer = true
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if !o.Status.Deletable() {
		return notDeletable(o.Status)
	}

	delete(r.s.orders, id)
	delete(r.s.statusLog, id)
	for rid, rev := range r.s.reviews {
		if rev.OrderID == id {
			delete(r.s.reviews, rid)
		}
	}
	return nil
}

func notDeletable(status domain.Status) error {
	return &domain.ConflictError{
		Current: status,
		Message: fmt.Sprintf("order cannot be deleted while %s", status),
	}
}

func (r *OrderRepository) GetStatusHistory(ctx context.Context, orderID int64) ([]*domain.StatusLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	logs := r.s.statusLog[orderID]
	out := make([]*domain.StatusLog, 0, len(logs))
	for _, l := range logs {
		c := *l
		out = append(out, &c)
	}
	return out, nil
}
