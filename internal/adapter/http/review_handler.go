package http

import (
	"net/http"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type ReviewHandler struct {
	service interfaces.ReviewService
	logger  logger.Logger
}

func NewReviewHandler(service interfaces.ReviewService, logger logger.Logger) *ReviewHandler {
	return &ReviewHandler{service: service, logger: logger}
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type AcceptReviewRequest struct {
	MenuItemIDs []int64 `json:"menu_item_ids"`
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, "review_create_failed", err)
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		failed(h.logger, w, r, "review_create_failed", err)
		return
	}
	var req CreateReviewRequest
	if err := decodeBody(r, &req); err != nil {
		failed(h.logger, w, r, "review_create_failed", err)
		return
	}

	review, err := h.service.CreateReview(r.Context(), who, orderID, req.Rating, req.Comment)
	if err != nil {
		failed(h.logger, w, r, "review_create_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, "review_get_failed", err)
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		failed(h.logger, w, r, "review_get_failed", err)
		return
	}

	review, err := h.service.GetReviewForOrder(r.Context(), who, orderID)
	if err != nil {
		failed(h.logger, w, r, "review_get_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) AcceptReview(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, "review_accept_failed", err)
		return
	}
	reviewID, err := pathID(r, "id")
	if err != nil {
		failed(h.logger, w, r, "review_accept_failed", err)
		return
	}
	var req AcceptReviewRequest
	if err := decodeBody(r, &req); err != nil {
		failed(h.logger, w, r, "review_accept_failed", err)
		return
	}

	review, err := h.service.AcceptReview(r.Context(), who, reviewID, req.MenuItemIDs)
	if err != nil {
		failed(h.logger, w, r, "review_accept_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}
