package permission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/memory"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingRepo counts Get calls and can be switched into a failing mode.
type countingRepo struct {
	interfaces.PermissionRepository
	mu   sync.Mutex
	gets int
	fail bool
}

func (r *countingRepo) Get(ctx context.Context, role domain.Role, resource, action string) (*domain.Permission, error) {
	r.mu.Lock()
	r.gets++
	fail := r.fail
	r.mu.Unlock()
	if fail {
		return nil, errors.New("dial tcp: connection refused")
	}
	return r.PermissionRepository.Get(ctx, role, resource, action)
}

func (r *countingRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets
}

type fixture struct {
	svc   *Service
	repo  *countingRepo
	cache *MemoryCache
	clock *clock
	m     *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := &countingRepo{PermissionRepository: memory.NewStore().Permissions()}
	cache := NewMemoryCache(clk.Now)
	m := metrics.New()
	svc := NewService(repo, cache, time.Minute, logger.Discard(), m)

	_, err := svc.EnsureDefaults(context.Background(), false)
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, cache: cache, clock: clk, m: m}
}

func TestIsAllowed_DefaultTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, f.svc.IsAllowed(ctx, domain.RoleKitchenStaff, "orders", "update"))
	assert.True(t, f.svc.IsAllowed(ctx, domain.RoleCustomer, "orders", "create"))
	assert.False(t, f.svc.IsAllowed(ctx, domain.RoleCustomer, "orders", "delete"))
	assert.False(t, f.svc.IsAllowed(ctx, domain.RoleDeliveryStaff, "menu", "view"))
}

func TestIsAllowed_AbsentKeyDenies(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.svc.IsAllowed(context.Background(), domain.RoleAdmin, "invoices", "print"))
}

func TestIsAllowed_CachesWithinTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.IsAllowed(ctx, domain.RoleAdmin, "orders", "view"))
	require.True(t, f.svc.IsAllowed(ctx, domain.RoleAdmin, "orders", "view"))
	assert.Equal(t, 1, f.repo.calls())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.m.PermissionCache.WithLabelValues("memory", "hit")))

	f.clock.Advance(61 * time.Second)
	require.True(t, f.svc.IsAllowed(ctx, domain.RoleAdmin, "orders", "view"))
	assert.Equal(t, 2, f.repo.calls())
}

func TestSetPermissions_ClearsCacheSynchronously(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.True(t, f.svc.IsAllowed(ctx, domain.RoleKitchenStaff, "orders", "update"))
	require.Equal(t, 1, f.cache.Len())

	err := f.svc.SetPermissions(ctx, []domain.Permission{
		{Role: domain.RoleKitchenStaff, Resource: "orders", Action: "update", Allowed: false},
	})
	require.NoError(t, err)
	assert.Zero(t, f.cache.Len())

	assert.False(t, f.svc.IsAllowed(ctx, domain.RoleKitchenStaff, "orders", "update"))
}

func TestSetPermissions_RejectsInvalidEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.SetPermissions(ctx, []domain.Permission{
		{Role: domain.RoleAdmin, Resource: "orders", Action: "view", Allowed: false},
		{Role: "CHEF", Resource: "orders", Action: "view", Allowed: true},
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "permissions[1].role", verr.Field)

	// Nothing was written.
	assert.True(t, f.svc.IsAllowed(ctx, domain.RoleAdmin, "orders", "view"))
}

func TestIsAllowed_StoreFailureDeniesAndDoesNotCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.mu.Lock()
	f.repo.fail = true
	f.repo.mu.Unlock()

	assert.False(t, f.svc.IsAllowed(ctx, domain.RoleAdmin, "orders", "view"))
	assert.Zero(t, f.cache.Len())

	f.repo.mu.Lock()
	f.repo.fail = false
	f.repo.mu.Unlock()

	assert.True(t, f.svc.IsAllowed(ctx, domain.RoleAdmin, "orders", "view"))
}

func TestEnsureDefaults_DoesNotOverwriteUnlessForced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetPermissions(ctx, []domain.Permission{
		{Role: domain.RoleCustomer, Resource: "orders", Action: "create", Allowed: false},
	}))

	n, err := f.svc.EnsureDefaults(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, f.svc.IsAllowed(ctx, domain.RoleCustomer, "orders", "create"))

	_, err = f.svc.EnsureDefaults(ctx, true)
	require.NoError(t, err)
	assert.True(t, f.svc.IsAllowed(ctx, domain.RoleCustomer, "orders", "create"))
}

func TestMemoryCache_Expiry(t *testing.T) {
	clk := &clock{now: time.Unix(0, 0)}
	c := NewMemoryCache(clk.Now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", true, 10*time.Second))

	allowed, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, allowed)

	clk.Advance(10 * time.Second)
	_, found, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, c.Len())
}
