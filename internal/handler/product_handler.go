package handler

import (
	"net/http"
	"strings"

	"techtrove/internal/model"
	"techtrove/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	base
	service service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger, development bool) *ProductHandler {
	return &ProductHandler{
		base: base{
			logger:      logger.With().Str("handler", "product").Logger(),
			development: development,
		},
		service: service,
	}
}

// List handles GET /api/products requests.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, details := pageParams(r)
	q := r.URL.Query()

	filter := model.ProductFilter{
		Page:     page,
		Limit:    limit,
		Category: model.Category(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	filter.MinPrice, details = priceParam(q.Get("minPrice"), "minPrice", details)
	filter.MaxPrice, details = priceParam(q.Get("maxPrice"), "maxPrice", details)

	if len(details) > 0 {
		h.writeServiceError(w, r, model.NewValidationError("Invalid query parameters", details...))
		return
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func priceParam(raw, name string, details []string) (*decimal.Decimal, []string) {
	if raw == "" {
		return nil, details
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, append(details, name+" must be a non-negative number")
	}
	return &d, details
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id", "product")
	if !ok {
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req model.CreateProductRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "product")
	if !ok {
		return
	}

	var req model.UpdateProductRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.service.Update(r.Context(), caller, id, &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "product")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddReview handles POST /api/products/{id}/reviews requests.
func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "product")
	if !ok {
		return
	}

	var req model.ReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.service.AddReview(r.Context(), caller, id, &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}
