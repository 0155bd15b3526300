package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type reviewRepository struct {
	db DB
}

func NewReviewRepository(db DB) interfaces.ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (order_id, user_id, rating, comment, is_accepted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		review.OrderID, review.UserID, review.Rating, review.Comment, review.IsAccepted,
		review.CreatedAt, review.UpdatedAt,
	).Scan(&review.ID)
	if err != nil {
		return translate(err, fmt.Sprintf("review for order %d", review.OrderID))
	}
	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id int64) (*domain.Review, error) {
	return r.findOne(ctx, `WHERE id = $1`, id, fmt.Sprintf("review %d", id))
}

func (r *reviewRepository) FindByOrderID(ctx context.Context, orderID int64) (*domain.Review, error) {
	return r.findOne(ctx, `WHERE order_id = $1`, orderID, fmt.Sprintf("review for order %d", orderID))
}

func (r *reviewRepository) findOne(ctx context.Context, where string, arg int64, what string) (*domain.Review, error) {
	query := `
		SELECT id, order_id, user_id, rating, comment, is_accepted, created_at, updated_at
		FROM reviews ` + where

	var rev domain.Review
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&rev.ID, &rev.OrderID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.IsAccepted,
		&rev.CreatedAt, &rev.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, what)
	}

	rows, err := r.db.Query(ctx,
		`SELECT menu_item_id FROM review_menu_items WHERE review_id = $1 ORDER BY menu_item_id`, rev.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review tags: %w", err)
	}
	defer rows.Close()

	rev.MenuItemIDs = []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan review tag: %w", err)
		}
		rev.MenuItemIDs = append(rev.MenuItemIDs, id)
	}
	return &rev, rows.Err()
}

// Update rewrites the review row and replaces its tag set.
func (r *reviewRepository) Update(ctx context.Context, review *domain.Review) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE reviews SET rating = $1, comment = $2, is_accepted = $3, updated_at = $4
		WHERE id = $5
	`, review.Rating, review.Comment, review.IsAccepted, review.UpdatedAt, review.ID)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("review %d: %w", review.ID, domain.ErrNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM review_menu_items WHERE review_id = $1`, review.ID); err != nil {
		return fmt.Errorf("failed to clear review tags: %w", err)
	}
	for _, id := range review.MenuItemIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO review_menu_items (review_id, menu_item_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, review.ID, id)
		if err != nil {
			return fmt.Errorf("failed to tag review: %w", err)
		}
	}

	return tx.Commit(ctx)
}
