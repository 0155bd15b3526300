package domain

import "fmt"

type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleKitchenStaff    Role = "KITCHEN_STAFF"
	RoleDeliveryStaff   Role = "DELIVERY_STAFF"
	RoleCustomerSupport Role = "CUSTOMER_SUPPORT"
	RoleCustomer        Role = "CUSTOMER"
)

var AllRoles = []Role{RoleAdmin, RoleKitchenStaff, RoleDeliveryStaff, RoleCustomerSupport, RoleCustomer}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", s)}
	}
	return r, nil
}

// Identity is a caller already verified by the authentication layer.
type Identity struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// Actor renders the identity for status logs.
func (i Identity) Actor() string {
	return fmt.Sprintf("user:%d", i.UserID)
}

// SystemSweeper is recorded as the author of automatic transitions.
const SystemSweeper = "system:sweeper"
