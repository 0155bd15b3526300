// Package authz decides whether a caller may perform an operation. Checks run
// in a fixed order: coarse permission, status whitelist, staff exclusivity,
// ownership. The first failing check names the deny reason.
package authz

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

const msgHandledByOther = "handled by another staff member"

type Decision struct {
	Allowed bool
	Reason  domain.DenyReason
	Message string
}

func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &domain.ForbiddenError{Reason: d.Reason, Message: d.Message}
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason domain.DenyReason, format string, args ...any) Decision {
	return Decision{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

type Gate struct {
	perms   interfaces.PermissionChecker
	logger  logger.Logger
	metrics *metrics.Metrics
}

func NewGate(perms interfaces.PermissionChecker, logger logger.Logger, metrics *metrics.Metrics) *Gate {
	return &Gate{perms: perms, logger: logger, metrics: metrics}
}

func (g *Gate) Authorize(ctx context.Context, req interfaces.AccessRequest) error {
	return g.Decide(ctx, req).Err()
}

// Decide evaluates req and records the outcome.
func (g *Gate) Decide(ctx context.Context, req interfaces.AccessRequest) Decision {
	d := g.evaluate(ctx, req)

	outcome := "allow"
	if !d.Allowed {
		outcome = "deny"
		details := map[string]interface{}{
			"user_id":  req.Caller.UserID,
			"role":     req.Caller.Role,
			"resource": req.Resource,
			"action":   req.Action,
			"reason":   d.Reason,
		}
		if req.Order != nil {
			details["order_id"] = req.Order.ID
			details["order_status"] = req.Order.Status
		}
		if req.TargetStatus != "" {
			details["target_status"] = req.TargetStatus
		}
		g.logger.Warn("authz_denied", d.Message, logger.RequestID(ctx), details)
	}
	g.metrics.AuthzDecisions.WithLabelValues(req.Resource, req.Action, outcome, string(d.Reason)).Inc()

	return d
}

func (g *Gate) evaluate(ctx context.Context, req interfaces.AccessRequest) Decision {
	caller := req.Caller

	if !g.perms.IsAllowed(ctx, caller.Role, req.Resource, req.Action) {
		return deny(domain.DenyByRole, "%s may not %s %s", caller.Role, req.Action, req.Resource)
	}
	if req.StaffOnly && caller.Role == domain.RoleCustomer {
		return deny(domain.DenyByRole, "only staff may perform this action")
	}

	if req.TargetStatus != "" {
		if !mayTarget(caller.Role, req.TargetStatus) {
			return deny(domain.DenyByStatusWhitelist, "%s may not set status to %s", caller.Role, req.TargetStatus)
		}
		if req.Order != nil && heldByAnother(caller, req.Order) {
			return deny(domain.DenyByExclusivity, msgHandledByOther)
		}
	}

	if req.RequireOwner {
		if req.AdminBypass && caller.Role == domain.RoleAdmin {
			return allow()
		}
		if req.Order == nil || !req.Order.OwnedBy(caller.UserID) {
			return deny(domain.DenyByOwnership, "order does not belong to the caller")
		}
	}

	return allow()
}

// heldByAnother reports whether the phase the order is in has been claimed by
// a different staff member of the caller's role.
func heldByAnother(caller domain.Identity, o *domain.Order) bool {
	switch {
	case caller.Role == domain.RoleKitchenStaff && o.Status == domain.StatusPreparing:
		return o.KitchenStaffID != nil && *o.KitchenStaffID != caller.UserID
	case caller.Role == domain.RoleDeliveryStaff && o.Status == domain.StatusOutForDelivery:
		return o.DeliveryStaffID != nil && *o.DeliveryStaffID != caller.UserID
	}
	return false
}
