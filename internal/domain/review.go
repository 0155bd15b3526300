package domain

import (
	"slices"
	"strings"
	"time"
)

// Review is the one-per-order customer feedback record.
type Review struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	UserID      int64     `json:"user_id"`
	Rating      int       `json:"rating"`
	Comment     *string   `json:"comment,omitempty"`
	IsAccepted  bool      `json:"is_accepted"`
	MenuItemIDs []int64   `json:"menu_item_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewReview(orderID, userID int64, rating int, comment string, now time.Time) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, &ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}
	r := &Review{
		OrderID:     orderID,
		UserID:      userID,
		Rating:      rating,
		MenuItemIDs: []int64{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c := strings.TrimSpace(comment); c != "" {
		if len(c) > 2000 {
			return nil, &ValidationError{Field: "comment", Message: "comment must not exceed 2000 characters"}
		}
		r.Comment = &c
	}
	return r, nil
}

// Accept marks the review accepted and replaces its tag set.
func (r *Review) Accept(menuItemIDs []int64, now time.Time) {
	r.IsAccepted = true
	r.MenuItemIDs = NormalizeIDs(menuItemIDs)
	r.UpdatedAt = now
}

// NormalizeIDs de-duplicates and sorts ids so equal tag sets compare equal.
func NormalizeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
