package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type defaultTable map[string]bool

func newDefaultTable() defaultTable {
	t := defaultTable{}
	for _, p := range domain.DefaultPermissions {
		t[p.Key()] = p.Allowed
	}
	return t
}

func (t defaultTable) IsAllowed(ctx context.Context, role domain.Role, resource, action string) bool {
	return t[domain.PermissionKey(role, resource, action)]
}

func id(v int64) *int64 { return &v }

func who(userID int64, role domain.Role) domain.Identity {
	return domain.Identity{UserID: userID, Role: role}
}

func TestGate_Decide(t *testing.T) {
	pending := &domain.Order{ID: 1, Status: domain.StatusPending, UserID: id(100)}
	preparingByA := &domain.Order{ID: 2, Status: domain.StatusPreparing, UserID: id(100), KitchenStaffID: id(1)}
	deliveringByC := &domain.Order{ID: 3, Status: domain.StatusOutForDelivery, UserID: id(100), KitchenStaffID: id(1), DeliveryStaffID: id(3)}
	guest := &domain.Order{ID: 4, Status: domain.StatusDelivered}

	tests := []struct {
		name   string
		req    interfaces.AccessRequest
		reason domain.DenyReason
	}{
		{
			name: "kitchen may start preparing",
			req:  interfaces.AccessRequest{Caller: who(1, domain.RoleKitchenStaff), Resource: "orders", Action: "update", Order: pending, TargetStatus: domain.StatusPreparing},
		},
		{
			name:   "customer lacks orders update",
			req:    interfaces.AccessRequest{Caller: who(100, domain.RoleCustomer), Resource: "orders", Action: "update", Order: pending, TargetStatus: domain.StatusCancelled},
			reason: domain.DenyByRole,
		},
		{
			name:   "support may only cancel",
			req:    interfaces.AccessRequest{Caller: who(7, domain.RoleCustomerSupport), Resource: "orders", Action: "update", Order: pending, TargetStatus: domain.StatusPreparing},
			reason: domain.DenyByStatusWhitelist,
		},
		{
			name: "support cancels",
			req:  interfaces.AccessRequest{Caller: who(7, domain.RoleCustomerSupport), Resource: "orders", Action: "update", Order: preparingByA, TargetStatus: domain.StatusCancelled},
		},
		{
			name:   "kitchen may not deliver",
			req:    interfaces.AccessRequest{Caller: who(1, domain.RoleKitchenStaff), Resource: "orders", Action: "update", Order: preparingByA, TargetStatus: domain.StatusDelivered},
			reason: domain.DenyByStatusWhitelist,
		},
		{
			name:   "delivery may not start preparing",
			req:    interfaces.AccessRequest{Caller: who(3, domain.RoleDeliveryStaff), Resource: "orders", Action: "update", Order: pending, TargetStatus: domain.StatusPreparing},
			reason: domain.DenyByStatusWhitelist,
		},
		{
			name: "admin is not whitelisted",
			req:  interfaces.AccessRequest{Caller: who(9, domain.RoleAdmin), Resource: "orders", Action: "update", Order: preparingByA, TargetStatus: domain.StatusReady},
		},
		{
			name:   "second kitchen staff is excluded",
			req:    interfaces.AccessRequest{Caller: who(2, domain.RoleKitchenStaff), Resource: "orders", Action: "update", Order: preparingByA, TargetStatus: domain.StatusReady},
			reason: domain.DenyByExclusivity,
		},
		{
			name: "claimant kitchen staff continues",
			req:  interfaces.AccessRequest{Caller: who(1, domain.RoleKitchenStaff), Resource: "orders", Action: "update", Order: preparingByA, TargetStatus: domain.StatusReady},
		},
		{
			name:   "second delivery staff is excluded",
			req:    interfaces.AccessRequest{Caller: who(4, domain.RoleDeliveryStaff), Resource: "orders", Action: "update", Order: deliveringByC, TargetStatus: domain.StatusDelivered},
			reason: domain.DenyByExclusivity,
		},
		{
			name: "owner passes ownership",
			req:  interfaces.AccessRequest{Caller: who(100, domain.RoleCustomer), Resource: "orders", Action: "view", Order: pending, RequireOwner: true},
		},
		{
			name:   "other customer fails ownership",
			req:    interfaces.AccessRequest{Caller: who(101, domain.RoleCustomer), Resource: "orders", Action: "view", Order: pending, RequireOwner: true},
			reason: domain.DenyByOwnership,
		},
		{
			name:   "guest orders have no owner",
			req:    interfaces.AccessRequest{Caller: who(100, domain.RoleCustomer), Resource: "orders", Action: "view", Order: guest, RequireOwner: true},
			reason: domain.DenyByOwnership,
		},
		{
			name: "admin bypasses ownership when allowed",
			req:  interfaces.AccessRequest{Caller: who(9, domain.RoleAdmin), Resource: "orders", Action: "delete", Order: guest, RequireOwner: true, AdminBypass: true},
		},
		{
			name:   "support fails ownership on purge",
			req:    interfaces.AccessRequest{Caller: who(7, domain.RoleCustomerSupport), Resource: "orders", Action: "delete", Order: guest, RequireOwner: true, AdminBypass: true},
			reason: domain.DenyByOwnership,
		},
		{
			name:   "customers are not staff",
			req:    interfaces.AccessRequest{Caller: who(100, domain.RoleCustomer), Resource: "orders", Action: "view", StaffOnly: true},
			reason: domain.DenyByRole,
		},
		{
			name:   "unknown resource denies",
			req:    interfaces.AccessRequest{Caller: who(9, domain.RoleAdmin), Resource: "payroll", Action: "view"},
			reason: domain.DenyByRole,
		},
	}

	gate := NewGate(newDefaultTable(), logger.Discard(), metrics.New())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := gate.Decide(context.Background(), tt.req)
			if tt.reason == "" {
				assert.True(t, d.Allowed, d.Message)
				assert.NoError(t, d.Err())
				return
			}
			assert.False(t, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)

			var ferr *domain.ForbiddenError
			require.True(t, errors.As(d.Err(), &ferr))
			assert.Equal(t, tt.reason, ferr.Reason)
			assert.ErrorIs(t, d.Err(), domain.ErrForbidden)
		})
	}
}

func TestGate_ExclusivityMessage(t *testing.T) {
	gate := NewGate(newDefaultTable(), logger.Discard(), metrics.New())
	order := &domain.Order{ID: 2, Status: domain.StatusPreparing, KitchenStaffID: id(1)}

	err := gate.Authorize(context.Background(), interfaces.AccessRequest{
		Caller: who(2, domain.RoleKitchenStaff), Resource: "orders", Action: "update",
		Order: order, TargetStatus: domain.StatusReady,
	})

	var ferr *domain.ForbiddenError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "handled by another staff member", ferr.Message)
}

func TestGate_CountsDenialsByReason(t *testing.T) {
	m := metrics.New()
	gate := NewGate(newDefaultTable(), logger.Discard(), m)

	gate.Decide(context.Background(), interfaces.AccessRequest{
		Caller: who(7, domain.RoleCustomerSupport), Resource: "orders", Action: "update",
		TargetStatus: domain.StatusPreparing,
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.AuthzDecisions.WithLabelValues("orders", "update", "deny", string(domain.DenyByStatusWhitelist))))
}

func TestAllowedTargets(t *testing.T) {
	assert.Nil(t, AllowedTargets(domain.RoleAdmin))
	assert.Empty(t, AllowedTargets(domain.RoleCustomer))
	assert.False(t, mayTarget(domain.RoleCustomer, domain.StatusCancelled))
	assert.Equal(t, []domain.Status{domain.StatusCancelled}, AllowedTargets(domain.RoleCustomerSupport))
	assert.ElementsMatch(t, []domain.Status{domain.StatusPreparing, domain.StatusReady}, AllowedTargets(domain.RoleKitchenStaff))
}
