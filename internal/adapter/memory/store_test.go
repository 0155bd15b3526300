package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, repo *OrderRepository) *domain.Order {
	t.Helper()
	uid := int64(10)
	o, err := domain.NewOrder(
		[]domain.Item{{MenuItemID: 1, Name: "Margherita", Price: decimal.RequireFromString("9.00"), Quantity: 1}},
		domain.Customer{Name: "Ann", Email: "ann@example.com"},
		&uid, t0,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func TestOrderRepository_UpdateIsConditionalOnStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Orders()
	o := newOrder(t, repo)

	kitchen := domain.Identity{UserID: 2, Role: domain.RoleKitchenStaff}
	patch, err := o.PlanTransition(domain.StatusPreparing, kitchen, 10, t0)
	require.NoError(t, err)

	updated, err := repo.Update(ctx, o.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, updated.Status)

	// Same patch again: the stored status moved on.
	_, err = repo.Update(ctx, o.ID, patch)
	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, domain.StatusPreparing, conflict.Current)
}

func TestOrderRepository_ClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Orders()
	o := newOrder(t, repo)

	a := domain.Identity{UserID: 2, Role: domain.RoleKitchenStaff}
	b := domain.Identity{UserID: 3, Role: domain.RoleKitchenStaff}
	pa, err := o.PlanTransition(domain.StatusPreparing, a, 10, t0)
	require.NoError(t, err)
	pb, err := o.PlanTransition(domain.StatusPreparing, b, 10, t0)
	require.NoError(t, err)

	_, err = repo.Update(ctx, o.ID, pa)
	require.NoError(t, err)
	_, err = repo.Update(ctx, o.ID, pb)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), *stored.KitchenStaffID)
}

func TestOrderRepository_FindDue(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Orders()
	due := newOrder(t, repo)
	later := newOrder(t, repo)

	kitchen := domain.Identity{UserID: 2, Role: domain.RoleKitchenStaff}
	p1, _ := due.PlanTransition(domain.StatusPreparing, kitchen, 1, t0)
	p2, _ := later.PlanTransition(domain.StatusPreparing, kitchen, 60, t0)
	_, err := repo.Update(ctx, due.ID, p1)
	require.NoError(t, err)
	_, err = repo.Update(ctx, later.ID, p2)
	require.NoError(t, err)

	found, err := repo.FindDue(ctx, domain.StatusPreparing, t0.Add(5*time.Minute))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, due.ID, found[0].ID)
}

func TestOrderRepository_DeleteRequiresDeletableStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Orders()
	o := newOrder(t, repo)

	p, _ := o.PlanTransition(domain.StatusPreparing, domain.Identity{UserID: 2, Role: domain.RoleKitchenStaff}, 5, t0)
	_, err := repo.Update(ctx, o.ID, p)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, o.ID), domain.ErrConflict)
	assert.ErrorIs(t, repo.HideFromCustomer(ctx, o.ID), domain.ErrConflict)

	pending := newOrder(t, repo)
	require.NoError(t, repo.HideFromCustomer(ctx, pending.ID))
	mine := int64(10)
	visible, err := repo.List(ctx, domain.OrderFilter{UserID: &mine})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	require.NoError(t, repo.Delete(ctx, pending.ID))
	_, err = repo.FindByID(ctx, pending.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepository_HistoryRecordsEveryStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Orders()
	o := newOrder(t, repo)

	p, _ := o.PlanTransition(domain.StatusCancelled, domain.Identity{UserID: 10, Role: domain.RoleCustomer}, 0, t0.Add(time.Minute))
	_, err := repo.Update(ctx, o.ID, p)
	require.NoError(t, err)

	logs, err := repo.GetStatusHistory(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.StatusPending, logs[0].Status)
	assert.Equal(t, "user:10", logs[0].ChangedBy)
	assert.Equal(t, domain.StatusCancelled, logs[1].Status)
}

func TestReviewRepository_OnePerOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	o := newOrder(t, store.Orders())

	first, err := domain.NewReview(o.ID, 10, 5, "great", t0)
	require.NoError(t, err)
	require.NoError(t, store.Reviews().Create(ctx, first))

	second, err := domain.NewReview(o.ID, 10, 4, "", t0)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Reviews().Create(ctx, second), domain.ErrConflict)
}

func TestPermissionRepository_InsertMissingKeepsExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Permissions()

	require.NoError(t, repo.Upsert(ctx, []domain.Permission{
		{Role: domain.RoleCustomer, Resource: "orders", Action: "create", Allowed: false},
	}))

	n, err := repo.InsertMissing(ctx, []domain.Permission{
		{Role: domain.RoleCustomer, Resource: "orders", Action: "create", Allowed: true},
		{Role: domain.RoleCustomer, Resource: "orders", Action: "view", Allowed: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := repo.Get(ctx, domain.RoleCustomer, "orders", "create")
	require.NoError(t, err)
	assert.False(t, p.Allowed)

	_, err = repo.Get(ctx, domain.RoleCustomer, "menu", "delete")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
