package authz

import (
	"slices"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

// statusWhitelist lists the target statuses each role may set through an
// orders/update. ADMIN is unrestricted. Any other role missing from the table,
// CUSTOMER included, may set nothing: customers cancel through their own path
// whatever the permission table grants them.
var statusWhitelist = map[domain.Role][]domain.Status{
	domain.RoleKitchenStaff:    {domain.StatusPreparing, domain.StatusReady},
	domain.RoleDeliveryStaff:   {domain.StatusOutForDelivery, domain.StatusDelivered},
	domain.RoleCustomerSupport: {domain.StatusCancelled},
}

func mayTarget(role domain.Role, target domain.Status) bool {
	allowed, restricted := statusWhitelist[role]
	if !restricted {
		return role == domain.RoleAdmin
	}
	return slices.Contains(allowed, target)
}

// AllowedTargets returns the statuses role may set, nil meaning any.
func AllowedTargets(role domain.Role) []domain.Status {
	if role == domain.RoleAdmin {
		return nil
	}
	return append([]domain.Status{}, statusWhitelist[role]...)
}
