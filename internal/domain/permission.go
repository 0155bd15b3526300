package domain

import "strings"

// Resources and actions used by the permission table.
const (
	ResourceOrders      = "orders"
	ResourceMenu        = "menu"
	ResourceUsers       = "users"
	ResourceCategories  = "categories"
	ResourcePermissions = "permissions"

	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Permission is one (role, resource, action) grant. Absent keys deny.
type Permission struct {
	Role     Role   `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Allowed  bool   `json:"allowed"`
}

func PermissionKey(role Role, resource, action string) string {
	return string(role) + ":" + resource + ":" + action
}

func (p Permission) Key() string {
	return PermissionKey(p.Role, p.Resource, p.Action)
}

func (p Permission) Validate() error {
	if !p.Role.Valid() {
		return &ValidationError{Field: "role", Message: "unknown role " + string(p.Role)}
	}
	if strings.TrimSpace(p.Resource) == "" {
		return &ValidationError{Field: "resource", Message: "resource is required"}
	}
	if strings.TrimSpace(p.Action) == "" {
		return &ValidationError{Field: "action", Message: "action is required"}
	}
	return nil
}

// DefaultPermissions is the table seeded at bootstrap.
var DefaultPermissions = buildDefaults()

func buildDefaults() []Permission {
	grant := func(role Role, resource string, actions ...string) []Permission {
		out := make([]Permission, 0, len(actions))
		for _, a := range actions {
			out = append(out, Permission{Role: role, Resource: resource, Action: a, Allowed: true})
		}
		return out
	}
	crud := []string{ActionView, ActionCreate, ActionUpdate, ActionDelete}

	var perms []Permission
	perms = append(perms, grant(RoleAdmin, ResourceOrders, crud...)...)
	perms = append(perms, grant(RoleAdmin, ResourceMenu, crud...)...)
	perms = append(perms, grant(RoleAdmin, ResourceUsers, crud...)...)
	perms = append(perms, grant(RoleAdmin, ResourceCategories, crud...)...)
	perms = append(perms, grant(RoleAdmin, ResourcePermissions, ActionView, ActionUpdate)...)

	perms = append(perms, grant(RoleKitchenStaff, ResourceOrders, ActionView, ActionUpdate)...)
	perms = append(perms, grant(RoleKitchenStaff, ResourceMenu, ActionView)...)

	perms = append(perms, grant(RoleDeliveryStaff, ResourceOrders, ActionView, ActionUpdate)...)

	// orders/delete passes the coarse check only; purging still needs
	// ownership unless the caller is ADMIN.
	perms = append(perms, grant(RoleCustomerSupport, ResourceOrders, ActionView, ActionUpdate, ActionDelete)...)
	perms = append(perms, grant(RoleCustomerSupport, ResourceUsers, ActionView)...)

	perms = append(perms, grant(RoleCustomer, ResourceOrders, ActionView, ActionCreate)...)
	perms = append(perms, grant(RoleCustomer, ResourceMenu, ActionView)...)
	return perms
}
