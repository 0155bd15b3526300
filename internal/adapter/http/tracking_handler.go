package http

import (
	"net/http"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TrackingHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, "order_get_failed", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		failed(h.logger, w, r, "order_get_failed", err)
		return
	}

	order, err := h.service.GetOrder(r.Context(), who, id)
	if err != nil {
		failed(h.logger, w, r, "order_get_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ListOrders accepts ?status=&limit=&offset=.
func (h *TrackingHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, "order_list_failed", err)
		return
	}

	var filter domain.OrderFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.Status(raw)
		if !status.Valid() {
			failed(h.logger, w, r, "order_list_failed", &domain.ValidationError{Field: "status", Message: "unknown status"})
			return
		}
		filter.Status = &status
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		failed(h.logger, w, r, "order_list_failed", err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		failed(h.logger, w, r, "order_list_failed", err)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), who, filter)
	if err != nil {
		failed(h.logger, w, r, "order_list_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *TrackingHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, "order_list_failed", err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		failed(h.logger, w, r, "order_list_failed", err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		failed(h.logger, w, r, "order_list_failed", err)
		return
	}

	orders, err := h.service.ListMyOrders(r.Context(), who, limit, offset)
	if err != nil {
		failed(h.logger, w, r, "order_list_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *TrackingHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, "order_history_failed", err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		failed(h.logger, w, r, "order_history_failed", err)
		return
	}

	history, err := h.service.GetOrderHistory(r.Context(), who, id)
	if err != nil {
		failed(h.logger, w, r, "order_history_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
