package service

import (
	"context"

	"techtrove/internal/auth"
	"techtrove/internal/model"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductService defines operations for catalog management.
type ProductService interface {
	// List returns one page of products matching filter.
	List(ctx context.Context, filter model.ProductFilter) (*model.ProductPage, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	Create(ctx context.Context, caller auth.Identity, req *model.CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, caller auth.Identity, id uuid.UUID, req *model.UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error

	// AddReview records the caller's review and recomputes the product rating.
	AddReview(ctx context.Context, caller auth.Identity, productID uuid.UUID, req *model.ReviewRequest) (*model.Product, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder validates stock, captures prices and persists the order atomically.
	CreateOrder(ctx context.Context, caller auth.Identity, req *model.CreateOrderRequest) (*model.OrderResponse, error)

	GetOrder(ctx context.Context, caller auth.Identity, id uuid.UUID) (*model.Order, error)
	ListMyOrders(ctx context.Context, caller auth.Identity) ([]model.Order, error)
	ListOrders(ctx context.Context, caller auth.Identity, filter model.OrderFilter) (*model.OrderPage, error)

	// UpdateStatus moves an order forward along its fulfilment path.
	UpdateStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, status model.OrderStatus) (*model.Order, error)

	// CancelOrder cancels a pending or processing order and restores its stock.
	CancelOrder(ctx context.Context, caller auth.Identity, id uuid.UUID) (*model.Order, error)

	// UpdatePaymentStatus records the outcome of a pending payment.
	UpdatePaymentStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, status model.PaymentStatus) (*model.Order, error)
}

// UserService defines account, session and wishlist operations.
type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)

	// Profile returns the caller's own account.
	Profile(ctx context.Context, caller auth.Identity) (*model.User, error)
	UpdateProfile(ctx context.Context, caller auth.Identity, req *model.UpdateProfileRequest) (*model.User, error)

	ListWishlist(ctx context.Context, caller auth.Identity) ([]model.Product, error)
	AddToWishlist(ctx context.Context, caller auth.Identity, productID uuid.UUID) ([]model.Product, error)
	RemoveFromWishlist(ctx context.Context, caller auth.Identity, productID uuid.UUID) ([]model.Product, error)

	ListUsers(ctx context.Context, caller auth.Identity, filter model.UserFilter) (*model.UserPage, error)
	UpdateRole(ctx context.Context, caller auth.Identity, id uuid.UUID, role model.Role) (*model.User, error)
	DeleteUser(ctx context.Context, caller auth.Identity, id uuid.UUID) error
}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// normalizePage clamps page and limit into the accepted range.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func requireAdmin(caller auth.Identity) error {
	if !caller.IsAdmin() {
		return model.ErrForbidden
	}
	return nil
}
