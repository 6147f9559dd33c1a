package repository

import (
	"context"

	"techtrove/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// List returns one page of products matching filter and the total match count.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs, bypassing any cache.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// GetForUpdate reads a product from the database and locks its row until tx ends. Returns nil when absent.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Product, error)

	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, tx pgx.Tx, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DecrementStock takes qty units if at least qty remain. It reports false when stock was short.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) (bool, error)

	// IncrementStock returns qty units to stock.
	IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, qty int) error

	HasReviewed(ctx context.Context, tx pgx.Tx, productID, userID uuid.UUID) (bool, error)
	CreateReview(ctx context.Context, tx pgx.Tx, review *model.Review) error
	GetRatings(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]int, error)
	UpdateRating(ctx context.Context, tx pgx.Tx, id uuid.UUID, rating float64, numReviews int) error

	// BulkInsert inserts products in one batch within tx.
	BulkInsert(ctx context.Context, tx pgx.Tx, products []model.Product) error

	// DeleteAll removes every product within tx and reports how many were removed.
	DeleteAll(ctx context.Context, tx pgx.Tx) (int64, error)

	// Invalidate drops any cached copies of the given products. Call after commit.
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByIDForUpdate is GetByID with the order row locked until tx ends.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// List returns one page of orders, newest first, and the total match count.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)

	// ListByUser returns every order placed by userID, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.PaymentStatus) error
}

// UserRepository defines the interface for user and wishlist data access operations.
type UserRepository interface {
	// Create inserts user. Returns model.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *model.User) error

	// GetByID retrieves a user with wishlist ids. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail retrieves a user by lower-cased email. Returns nil when absent.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Update writes name, email and password hash. Returns model.ErrEmailTaken on a duplicate email.
	Update(ctx context.Context, user *model.User) error

	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter model.UserFilter) ([]model.User, int, error)

	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error
	ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
}
