package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/memory"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/app/authz"
	"github.com/YelzhanWeb/restaurant/internal/app/permission"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

var (
	ann     = domain.Identity{UserID: 100, Role: domain.RoleCustomer}
	bob     = domain.Identity{UserID: 101, Role: domain.RoleCustomer}
	support = domain.Identity{UserID: 7, Role: domain.RoleCustomerSupport}
)

func setup(t *testing.T) (*Service, interfaces.OrderRepository) {
	t.Helper()
	store := memory.NewStore()
	log := logger.Discard()
	m := metrics.New()

	perms := permission.NewService(store.Permissions(), permission.NewMemoryCache(nil), time.Minute, log, m)
	_, err := perms.EnsureDefaults(context.Background(), false)
	require.NoError(t, err)

	return NewService(store.Orders(), authz.NewGate(perms, log, m), log), store.Orders()
}

func seed(t *testing.T, repo interfaces.OrderRepository, owner *int64, hidden bool) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(
		[]domain.Item{{MenuItemID: 1, Name: "Soup", Price: decimal.NewFromInt(5), Quantity: 1}},
		domain.Customer{Name: "Ann", Email: "ann@example.com"},
		owner, time.Now().UTC(),
	)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), o))
	if hidden {
		require.NoError(t, repo.HideFromCustomer(context.Background(), o.ID))
	}
	return o
}

func uid(v int64) *int64 { return &v }

func TestGetOrder_CustomerVisibility(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	mine := seed(t, repo, uid(ann.UserID), false)
	hidden := seed(t, repo, uid(ann.UserID), true)
	guest := seed(t, repo, nil, false)

	got, err := svc.GetOrder(ctx, ann, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = svc.GetOrder(ctx, bob, mine.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetOrder(ctx, ann, guest.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetOrder(ctx, ann, hidden.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err = svc.GetOrder(ctx, support, hidden.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeletedByCustomer)

	_, err = svc.GetOrder(ctx, support, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrders_CustomerIsScopedToOwnOrders(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	seed(t, repo, uid(ann.UserID), false)
	seed(t, repo, uid(ann.UserID), true)
	seed(t, repo, uid(bob.UserID), false)

	// Asking for someone else's orders is silently narrowed.
	orders, err := svc.ListOrders(ctx, ann, domain.OrderFilter{UserID: uid(bob.UserID), IncludeHidden: true})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].OwnedBy(ann.UserID))

	orders, err = svc.ListOrders(ctx, support, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	mine, err := svc.ListMyOrders(ctx, ann, 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestGetOrderHistory_FollowsVisibility(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	o := seed(t, repo, uid(ann.UserID), false)

	history, err := svc.GetOrderHistory(ctx, ann, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusPending, history[0].Status)
	assert.Equal(t, "user:100", history[0].ChangedBy)

	_, err = svc.GetOrderHistory(ctx, bob, o.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultLimit, clampLimit(0))
	assert.Equal(t, defaultLimit, clampLimit(-3))
	assert.Equal(t, 5, clampLimit(5))
	assert.Equal(t, maxLimit, clampLimit(1000))
}
