// Package memory keeps orders, permissions and reviews in process memory.
// It backs the --store memory mode and the service tests, and applies the
// same conditional-write rules as the postgres repositories.
package memory

import (
	"sync"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	orders       map[int64]*domain.Order
	statusLog    map[int64][]*domain.StatusLog
	reviews      map[int64]*domain.Review
	permissions  map[string]domain.Permission
	nextOrderID  int64
	nextLogID    int64
	nextReviewID int64
}

func NewStore() *Store {
	return &Store{
		orders:      make(map[int64]*domain.Order),
		statusLog:   make(map[int64][]*domain.StatusLog),
		reviews:     make(map[int64]*domain.Review),
		permissions: make(map[string]domain.Permission),
	}
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{s: s}
}

func (s *Store) Permissions() *PermissionRepository {
	return &PermissionRepository{s: s}
}

func (s *Store) Reviews() *ReviewRepository {
	return &ReviewRepository{s: s}
}

// appendLog must be called with mu held.
func (s *Store) appendLog(orderID int64, status domain.Status, changedBy string, o *domain.Order) {
	s.nextLogID++
	s.statusLog[orderID] = append(s.statusLog[orderID], &domain.StatusLog{
		ID:        s.nextLogID,
		OrderID:   orderID,
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: o.UpdatedAt,
	})
}
