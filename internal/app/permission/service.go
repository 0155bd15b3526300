// Package permission answers "may role R do action A on resource X" from the
// permission table, memoized through a TTL cache that is wiped whenever the
// table changes.
package permission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type Service struct {
	repo    interfaces.PermissionRepository
	cache   interfaces.PermissionCache
	ttl     time.Duration
	logger  logger.Logger
	metrics *metrics.Metrics

	// gen moves on every table write; a lookup that read the store under an
	// older generation must not populate the cache.
	gen   atomic.Uint64
	setMu sync.Mutex
}

func NewService(
	repo interfaces.PermissionRepository,
	cache interfaces.PermissionCache,
	ttl time.Duration,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// IsAllowed never returns an error: cache and store failures resolve to deny.
func (s *Service) IsAllowed(ctx context.Context, role domain.Role, resource, action string) bool {
	key := domain.PermissionKey(role, resource, action)
	driver := s.cache.Driver()

	allowed, found, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.PermissionCache.WithLabelValues(driver, "error").Inc()
		s.logger.Warn("permission_cache_failed", "Permission cache read failed, falling back to store", "",
			map[string]interface{}{"key": key, "driver": driver, "error": err.Error()})
	case found:
		s.metrics.PermissionCache.WithLabelValues(driver, "hit").Inc()
		return allowed
	default:
		s.metrics.PermissionCache.WithLabelValues(driver, "miss").Inc()
	}

	gen := s.gen.Load()

	perm, err := s.repo.Get(ctx, role, resource, action)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		allowed = false
	case err != nil:
		s.logger.Error("permission_lookup_failed", "Permission store unreachable, denying", "",
			map[string]interface{}{"role": role, "resource": resource, "action": action}, err)
		return false
	default:
		allowed = perm.Allowed
	}

	s.setMu.Lock()
	if s.gen.Load() == gen {
		if err := s.cache.Set(ctx, key, allowed, s.ttl); err != nil {
			s.logger.Warn("permission_cache_failed", "Permission cache write failed", "",
				map[string]interface{}{"key": key, "driver": driver, "error": err.Error()})
		}
	}
	s.setMu.Unlock()

	return allowed
}

func (s *Service) List(ctx context.Context) ([]domain.Permission, error) {
	perms, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}

// SetPermissions upserts every entry and clears the cache before returning.
func (s *Service) SetPermissions(ctx context.Context, perms []domain.Permission) error {
	for i, p := range perms {
		if err := p.Validate(); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return &domain.ValidationError{Field: fmt.Sprintf("permissions[%d].%s", i, verr.Field), Message: verr.Message}
			}
			return err
		}
	}

	if err := s.repo.Upsert(ctx, perms); err != nil {
		return fmt.Errorf("failed to upsert permissions: %w", err)
	}

	if err := s.invalidate(ctx); err != nil {
		return err
	}

	s.logger.Info("permissions_updated", "Permission table updated and cache cleared", "",
		map[string]interface{}{"count": len(perms)})
	return nil
}

// EnsureDefaults seeds the default table. Existing rows are only overwritten
// when force is set.
func (s *Service) EnsureDefaults(ctx context.Context, force bool) (int, error) {
	if force {
		if err := s.repo.Upsert(ctx, domain.DefaultPermissions); err != nil {
			return 0, fmt.Errorf("failed to seed permissions: %w", err)
		}
		return len(domain.DefaultPermissions), s.invalidate(ctx)
	}

	n, err := s.repo.InsertMissing(ctx, domain.DefaultPermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to seed permissions: %w", err)
	}
	if n > 0 {
		return n, s.invalidate(ctx)
	}
	return 0, nil
}

func (s *Service) invalidate(ctx context.Context) error {
	s.setMu.Lock()
	s.gen.Add(1)
	s.setMu.Unlock()

	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Error("permission_cache_clear_failed", "Failed to clear permission cache", "",
			map[string]interface{}{"driver": s.cache.Driver()}, err)
		return fmt.Errorf("failed to clear permission cache: %w: %w", domain.ErrUnavailable, err)
	}
	return nil
}
