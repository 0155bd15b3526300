package permission

import (
	"context"

	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

// Admin exposes the permission table to authenticated administrators.
type Admin struct {
	svc  *Service
	gate interfaces.Gate
}

func NewAdmin(svc *Service, gate interfaces.Gate) *Admin {
	return &Admin{svc: svc, gate: gate}
}

func (a *Admin) ListPermissions(ctx context.Context, caller domain.Identity) ([]domain.Permission, error) {
	if err := a.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:   caller,
		Resource: domain.ResourcePermissions,
		Action:   domain.ActionView,
	}); err != nil {
		return nil, err
	}
	return a.svc.List(ctx)
}

func (a *Admin) SetPermissions(ctx context.Context, caller domain.Identity, perms []domain.Permission) error {
	if err := a.gate.Authorize(ctx, interfaces.AccessRequest{
		Caller:   caller,
		Resource: domain.ResourcePermissions,
		Action:   domain.ActionUpdate,
	}); err != nil {
		return err
	}
	return a.svc.SetPermissions(ctx, perms)
}
