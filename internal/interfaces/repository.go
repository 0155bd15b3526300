package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

// OrderRepository is the durable order store. Lookups of unknown ids return
// an error wrapping domain.ErrNotFound.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error)
	// Update applies patch only if the stored order still satisfies the
	// patch preconditions; otherwise it returns a *domain.ConflictError and
	// leaves the row untouched.
	Update(ctx context.Context, id int64, patch domain.OrderPatch) (*domain.Order, error)
	FindDue(ctx context.Context, status domain.Status, before time.Time) ([]*domain.Order, error)
	HideFromCustomer(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	GetStatusHistory(ctx context.Context, orderID int64) ([]*domain.StatusLog, error)
}

type PermissionRepository interface {
	// Get returns domain.ErrNotFound for keys absent from the table.
	Get(ctx context.Context, role domain.Role, resource, action string) (*domain.Permission, error)
	List(ctx context.Context) ([]domain.Permission, error)
	Upsert(ctx context.Context, perms []domain.Permission) error
	InsertMissing(ctx context.Context, perms []domain.Permission) (int, error)
}

type ReviewRepository interface {
	// Create returns domain.ErrConflict when the order already has a review.
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id int64) (*domain.Review, error)
	FindByOrderID(ctx context.Context, orderID int64) (*domain.Review, error)
	Update(ctx context.Context, review *domain.Review) error
}

// PermissionCache memoizes permission decisions. Implementations must be safe
// for concurrent use; Clear wipes every entry.
type PermissionCache interface {
	Get(ctx context.Context, key string) (allowed bool, found bool, err error)
	Set(ctx context.Context, key string, allowed bool, ttl time.Duration) error
	Clear(ctx context.Context) error
	Driver() string
}
