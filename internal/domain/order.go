package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a restaurant order entity
type Order struct {
	ID                  int64           `json:"id"`
	Items               []Item          `json:"items"`
	Customer            Customer        `json:"customer"`
	Total               decimal.Decimal `json:"total"`
	Status              Status          `json:"status"`
	UserID              *int64          `json:"user_id,omitempty"`
	KitchenStaffID      *int64          `json:"kitchen_staff_id,omitempty"`
	DeliveryStaffID     *int64          `json:"delivery_staff_id,omitempty"`
	EstimatedReadyAt    *time.Time      `json:"estimated_ready_at,omitempty"`
	IsDeletedByCustomer bool            `json:"is_deleted_by_customer"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Item is a menu item snapshot frozen at placement time.
type Item struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

// Customer is contact info captured with the order, independent of any account.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// OrderPatch is the outcome of a validated transition. The store applies it
// only while the order is still in ExpectStatus and any claimed staff field
// is still empty or already held by the claimant.
type OrderPatch struct {
	ExpectStatus     Status
	Status           Status
	KitchenStaffID   *int64
	DeliveryStaffID  *int64
	EstimatedReadyAt *time.Time
	ChangedBy        string
	At               time.Time
}

// NewOrder creates a new pending order with business rules applied
func NewOrder(items []Item, customer Customer, userID *int64, now time.Time) (*Order, error) {
	order := &Order{
		Items:     items,
		Customer:  customer,
		Status:    StatusPending,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.CalculateTotal()
	return order, nil
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	if len(o.Items) < 1 || len(o.Items) > 20 {
		return &ValidationError{Field: "items", Message: "order must have 1-20 items"}
	}

	for i, item := range o.Items {
		field := fmt.Sprintf("items[%d]", i)
		name := strings.TrimSpace(item.Name)
		if len(name) < 1 || len(name) > 100 {
			return &ValidationError{Field: field + ".name", Message: "item name must be 1-100 characters"}
		}
		if item.Quantity < 1 || item.Quantity > 50 {
			return &ValidationError{Field: field + ".quantity", Message: "item quantity must be 1-50"}
		}
		if !item.Price.IsPositive() {
			return &ValidationError{Field: field + ".price", Message: "item price must be positive"}
		}
	}

	if strings.TrimSpace(o.Customer.Name) == "" {
		return &ValidationError{Field: "customer.name", Message: "customer name is required"}
	}
	if _, err := mail.ParseAddress(o.Customer.Email); err != nil {
		return &ValidationError{Field: "customer.email", Message: "customer email is invalid"}
	}

	return nil
}

// CalculateTotal calculates the total amount of the order
func (o *Order) CalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	o.Total = total.Round(2)
}

// OwnedBy reports whether userID placed the order. Guest orders have no owner.
func (o *Order) OwnedBy(userID int64) bool {
	return o.UserID != nil && *o.UserID == userID
}

// PlanTransition validates next against the lifecycle graph and computes the
// side effects of entering it. It does not check who is asking.
func (o *Order) PlanTransition(next Status, actor Identity, estimatedMinutes int, now time.Time) (OrderPatch, error) {
	if !next.Valid() {
		return OrderPatch{}, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", next)}
	}
	if !o.Status.CanTransitionTo(next) {
		return OrderPatch{}, &ConflictError{
			Current:   o.Status,
			Requested: next,
			Message:   fmt.Sprintf("cannot move order from %s to %s", o.Status, next),
		}
	}

	patch := OrderPatch{
		ExpectStatus: o.Status,
		Status:       next,
		ChangedBy:    actor.Actor(),
		At:           now,
	}

	switch next {
	case StatusPreparing:
		if estimatedMinutes < 1 {
			return OrderPatch{}, &ValidationError{Field: "estimated_time", Message: "estimated time in minutes is required to start preparing"}
		}
		readyAt := now.Add(time.Duration(estimatedMinutes) * time.Minute)
		patch.EstimatedReadyAt = &readyAt
		if o.KitchenStaffID == nil {
			id := actor.UserID
			patch.KitchenStaffID = &id
		}
	case StatusOutForDelivery:
		if o.DeliveryStaffID == nil {
			id := actor.UserID
			patch.DeliveryStaffID = &id
		}
	}

	return patch, nil
}

// Apply copies a patch onto the in-memory order.
func (o *Order) Apply(p OrderPatch) {
	o.Status = p.Status
	o.UpdatedAt = p.At
	if p.KitchenStaffID != nil && o.KitchenStaffID == nil {
		id := *p.KitchenStaffID
		o.KitchenStaffID = &id
	}
	if p.DeliveryStaffID != nil && o.DeliveryStaffID == nil {
		id := *p.DeliveryStaffID
		o.DeliveryStaffID = &id
	}
	if p.EstimatedReadyAt != nil {
		t := *p.EstimatedReadyAt
		o.EstimatedReadyAt = &t
	}
}

// ExpiryPatch is the system-initiated preparing -> ready move.
func ExpiryPatch(now time.Time) OrderPatch {
	return OrderPatch{
		ExpectStatus: StatusPreparing,
		Status:       StatusReady,
		ChangedBy:    SystemSweeper,
		At:           now,
	}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	c.UserID = cloneID(o.UserID)
	c.KitchenStaffID = cloneID(o.KitchenStaffID)
	c.DeliveryStaffID = cloneID(o.DeliveryStaffID)
	if o.EstimatedReadyAt != nil {
		t := *o.EstimatedReadyAt
		c.EstimatedReadyAt = &t
	}
	return &c
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status        *Status
	UserID        *int64
	IncludeHidden bool
	Limit         int
	Offset        int
}
