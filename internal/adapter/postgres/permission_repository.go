package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type permissionRepository struct {
	db DB
}

func NewPermissionRepository(db DB) interfaces.PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Get(ctx context.Context, role domain.Role, resource, action string) (*domain.Permission, error) {
	query := `SELECT role, resource, action, allowed FROM permissions WHERE role = $1 AND resource = $2 AND action = $3`

	var p domain.Permission
	err := r.db.QueryRow(ctx, query, role, resource, action).Scan(&p.Role, &p.Resource, &p.Action, &p.Allowed)
	if err != nil {
		return nil, translate(err, "permission "+domain.PermissionKey(role, resource, action))
	}
	return &p, nil
}

func (r *permissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	query := `SELECT role, resource, action, allowed FROM permissions ORDER BY role, resource, action`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	perms := []domain.Permission{}
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.Role, &p.Resource, &p.Action, &p.Allowed); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// Upsert writes all entries in one transaction.
func (r *permissionRepository) Upsert(ctx context.Context, perms []domain.Permission) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO permissions (role, resource, action, allowed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (role, resource, action) DO UPDATE SET allowed = EXCLUDED.allowed
	`
	for _, p := range perms {
		if _, err := tx.Exec(ctx, query, p.Role, p.Resource, p.Action, p.Allowed); err != nil {
			return fmt.Errorf("failed to upsert permission %s: %w", p.Key(), err)
		}
	}

	return tx.Commit(ctx)
}

func (r *permissionRepository) InsertMissing(ctx context.Context, perms []domain.Permission) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO permissions (role, resource, action, allowed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (role, resource, action) DO NOTHING
	`
	inserted := 0
	for _, p := range perms {
		tag, err := tx.Exec(ctx, query, p.Role, p.Resource, p.Action, p.Allowed)
		if err != nil {
			return 0, fmt.Errorf("failed to insert permission %s: %w", p.Key(), err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit permissions: %w", err)
	}
	return inserted, nil
}
