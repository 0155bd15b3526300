package http

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type PlaceOrderRequest struct {
	Items    []OrderItemRequest `json:"items"`
	Customer CustomerRequest    `json:"customer"`
}

type OrderItemRequest struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

type CustomerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateStatusRequest struct {
	Status        domain.Status `json:"status"`
	EstimatedTime int           `json:"estimated_time"`
}

// PlaceOrder accepts guests; a bearer token, when present, attaches the
// order to that account.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := decodeBody(r, &req); err != nil {
		failed(h.logger, w, r, "order_place_failed", err)
		return
	}

	cmd := interfaces.PlaceOrderCommand{
		Customer: domain.Customer(req.Customer),
		Items:    make([]domain.Item, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		cmd.Items = append(cmd.Items, domain.Item(it))
	}

	var who *domain.Identity
	if id, ok := identityFrom(r.Context()); ok {
		who = &id
	}

	order, err := h.service.PlaceOrder(r.Context(), who, cmd)
	if err != nil {
		failed(h.logger, w, r, "order_place_failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	who, id, ok := h.target(w, r, "order_status_update_failed")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		failed(h.logger, w, r, "order_status_update_failed", err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), who, interfaces.UpdateStatusCommand{
		OrderID:       id,
		Status:        req.Status,
		EstimatedTime: req.EstimatedTime,
	})
	if err != nil {
		failed(h.logger, w, r, "order_status_update_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	who, id, ok := h.target(w, r, "order_cancel_failed")
	if !ok {
		return
	}

	order, err := h.service.CancelOrder(r.Context(), who, id)
	if err != nil {
		failed(h.logger, w, r, "order_cancel_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// DeleteOrder hides the order from a customer's own listings; staff and
// admins remove it outright.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	who, id, ok := h.target(w, r, "order_delete_failed")
	if !ok {
		return
	}

	var err error
	if who.Role == domain.RoleCustomer {
		err = h.service.HideFromCustomer(r.Context(), who, id)
	} else {
		err = h.service.PurgeOrder(r.Context(), who, id)
	}
	if err != nil {
		failed(h.logger, w, r, "order_delete_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) target(w http.ResponseWriter, r *http.Request, action string) (domain.Identity, int64, bool) {
	who, err := caller(r)
	if err != nil {
		failed(h.logger, w, r, action, err)
		return domain.Identity{}, 0, false
	}
	id, err := pathID(r, "id")
	if err != nil {
		failed(h.logger, w, r, action, err)
		return domain.Identity{}, 0, false
	}
	return who, id, true
}

// failed logs and writes err. Expected client errors are logged at debug.
func failed(lg logger.Logger, w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnauthorized):
		lg.Debug(action, err.Error(), requestIDOf(r), map[string]interface{}{"path": r.URL.Path})
	default:
		lg.Error(action, "Request failed", requestIDOf(r), map[string]interface{}{"path": r.URL.Path}, err)
	}
	writeError(w, r, err)
}
