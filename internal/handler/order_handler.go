package handler

import (
	"net/http"

	"techtrove/internal/model"
	"techtrove/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	base
	service service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger, development bool) *OrderHandler {
	return &OrderHandler{
		base: base{
			logger:      logger.With().Str("handler", "order").Logger(),
			development: development,
		},
		service: service,
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req model.CreateOrderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.CreateOrder(r.Context(), caller, &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	page, limit, details := pageParams(r)
	if len(details) > 0 {
		h.writeServiceError(w, r, model.NewValidationError("Invalid query parameters", details...))
		return
	}

	result, err := h.service.ListOrders(r.Context(), caller, model.OrderFilter{
		Page:   page,
		Limit:  limit,
		Status: model.OrderStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListMine handles GET /api/orders/my-orders requests.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListMyOrders(r.Context(), caller)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), caller, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "order")
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), caller, id, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Cancel handles PATCH /api/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.service.CancelOrder(r.Context(), caller, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdatePayment handles PATCH /api/orders/{id}/payment requests.
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "order")
	if !ok {
		return
	}

	var req model.UpdatePaymentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.service.UpdatePaymentStatus(r.Context(), caller, id, req.PaymentStatus)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
