package handler

import (
	"net/http"
	"strings"

	"techtrove/internal/model"
	"techtrove/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserHandler handles profile, wishlist and admin user requests.
type UserHandler struct {
	base
	service service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.UserService, logger zerolog.Logger, development bool) *UserHandler {
	return &UserHandler{
		base: base{
			logger:      logger.With().Str("handler", "user").Logger(),
			development: development,
		},
		service: service,
	}
}

// Profile handles GET /api/users/profile requests.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	user, err := h.service.Profile(r.Context(), caller)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile requests.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req model.UpdateProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), caller, &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Wishlist handles GET /api/users/wishlist requests.
func (h *UserHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	products, err := h.service.ListWishlist(r.Context(), caller)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// AddToWishlist handles POST /api/users/wishlist requests.
func (h *UserHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req model.WishlistRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.writeServiceError(w, r, model.NewValidationError("Invalid product ID", "productId is invalid"))
		return
	}

	products, err := h.service.AddToWishlist(r.Context(), caller, productID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// RemoveFromWishlist handles DELETE /api/users/wishlist/{productId} requests.
func (h *UserHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	productID, ok := h.pathID(w, r, "productId", "product")
	if !ok {
		return
	}

	products, err := h.service.RemoveFromWishlist(r.Context(), caller, productID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// List handles GET /api/users requests.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	page, limit, details := pageParams(r)
	if len(details) > 0 {
		h.writeServiceError(w, r, model.NewValidationError("Invalid query parameters", details...))
		return
	}

	result, err := h.service.ListUsers(r.Context(), caller, model.UserFilter{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UpdateRole handles PATCH /api/users/{id}/role requests.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "user")
	if !ok {
		return
	}

	var req model.UpdateRoleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.UpdateRole(r.Context(), caller, id, req.Role)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id} requests.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id", "user")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), caller, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User removed"})
}
