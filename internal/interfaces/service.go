package interfaces

import (
	"context"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

// PermissionChecker answers coarse (role, resource, action) questions and
// fails closed.
type PermissionChecker interface {
	IsAllowed(ctx context.Context, role domain.Role, resource, action string) bool
}

// AccessRequest describes one authorization question. Order and
// TargetStatus are optional and enable the order-specific rules.
type AccessRequest struct {
	Caller       domain.Identity
	Resource     string
	Action       string
	Order        *domain.Order
	TargetStatus domain.Status
	// RequireOwner demands that the caller placed Order. AdminBypass lets
	// ADMIN skip that check.
	RequireOwner bool
	AdminBypass  bool
	// StaffOnly rejects CUSTOMER callers even when the coarse check passes.
	StaffOnly bool
}

// Gate authorizes state-changing and visibility-sensitive operations. Denials
// are returned as *domain.ForbiddenError.
type Gate interface {
	Authorize(ctx context.Context, req AccessRequest) error
}

type PlaceOrderCommand struct {
	Items    []domain.Item
	Customer domain.Customer
}

type UpdateStatusCommand struct {
	OrderID       int64
	Status        domain.Status
	EstimatedTime int
}

type OrderService interface {
	PlaceOrder(ctx context.Context, caller *domain.Identity, cmd PlaceOrderCommand) (*domain.Order, error)
	UpdateStatus(ctx context.Context, caller domain.Identity, cmd UpdateStatusCommand) (*domain.Order, error)
	CancelOrder(ctx context.Context, caller domain.Identity, id int64) (*domain.Order, error)
	HideFromCustomer(ctx context.Context, caller domain.Identity, id int64) error
	PurgeOrder(ctx context.Context, caller domain.Identity, id int64) error
}

type TrackingService interface {
	GetOrder(ctx context.Context, caller domain.Identity, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, caller domain.Identity, filter domain.OrderFilter) ([]*domain.Order, error)
	ListMyOrders(ctx context.Context, caller domain.Identity, limit, offset int) ([]*domain.Order, error)
	GetOrderHistory(ctx context.Context, caller domain.Identity, id int64) ([]*domain.StatusLog, error)
}

type ReviewService interface {
	CreateReview(ctx context.Context, caller domain.Identity, orderID int64, rating int, comment string) (*domain.Review, error)
	AcceptReview(ctx context.Context, caller domain.Identity, reviewID int64, menuItemIDs []int64) (*domain.Review, error)
	GetReviewForOrder(ctx context.Context, caller domain.Identity, orderID int64) (*domain.Review, error)
}

type PermissionAdminService interface {
	ListPermissions(ctx context.Context, caller domain.Identity) ([]domain.Permission, error)
	SetPermissions(ctx context.Context, caller domain.Identity, perms []domain.Permission) error
}
