package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

type PermissionRepository struct {
	s *Store
}

func (r *PermissionRepository) Get(ctx context.Context, role domain.Role, resource, action string) (*domain.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.permissions[domain.PermissionKey(role, resource, action)]
	if !ok {
		return nil, fmt.Errorf("permission %s: %w", domain.PermissionKey(role, resource, action), domain.ErrNotFound)
	}
	return &p, nil
}

func (r *PermissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Permission, 0, len(r.s.permissions))
	for _, p := range r.s.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (r *PermissionRepository) Upsert(ctx context.Context, perms []domain.Permission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range perms {
		r.s.permissions[p.Key()] = p
	}
	return nil
}

func (r *PermissionRepository) InsertMissing(ctx context.Context, perms []domain.Permission) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inserted := 0
	for _, p := range perms {
		if _, ok := r.s.permissions[p.Key()]; ok {
			continue
		}
		r.s.permissions[p.Key()] = p
		inserted++
	}
	return inserted, nil
}
