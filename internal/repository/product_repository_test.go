package repository

import (
	"context"
	"testing"
	"time"

	"techtrove/internal/database"
	"techtrove/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer with the application schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping repository test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func newProduct(name string, category model.Category, price string, stock int, createdAt time.Time) model.Product {
	return model.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Stock:       stock,
		Image:       "/images/" + name + ".png",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, repo ProductRepository, products ...model.Product) {
	t.Helper()
	ctx := context.Background()
	for i := range products {
		require.NoError(t, repo.Create(ctx, &products[i]))
	}
}

func stockOf(t *testing.T, repo ProductRepository, id uuid.UUID) int {
	t.Helper()
	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func TestProductRepository_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	seedProducts(t, repo,
		newProduct("Laptop Pro", model.CategoryComputers, "1299.99", 5, now.Add(-3*time.Hour)),
		newProduct("Wireless Earbuds", model.CategoryElectronics, "99.50", 20, now.Add(-2*time.Hour)),
		newProduct("Smart Bulb", model.CategorySmartHome, "19.99", 50, now.Add(-1*time.Hour)),
		newProduct("USB-C Cable", model.CategoryAccessories, "9.99", 100, now),
	)

	minPrice := decimal.RequireFromString("10")
	maxPrice := decimal.RequireFromString("100")

	tests := []struct {
		name          string
		filter        model.ProductFilter
		expectedNames []string
		expectedTotal int
	}{
		{
			name:          "First page newest first",
			filter:        model.ProductFilter{Page: 1, Limit: 2},
			expectedNames: []string{"USB-C Cable", "Smart Bulb"},
			expectedTotal: 4,
		},
		{
			name:          "Second page",
			filter:        model.ProductFilter{Page: 2, Limit: 2},
			expectedNames: []string{"Wireless Earbuds", "Laptop Pro"},
			expectedTotal: 4,
		},
		{
			name:          "Category filter",
			filter:        model.ProductFilter{Page: 1, Limit: 10, Category: model.CategoryComputers},
			expectedNames: []string{"Laptop Pro"},
			expectedTotal: 1,
		},
		{
			name:          "Price range",
			filter:        model.ProductFilter{Page: 1, Limit: 10, MinPrice: &minPrice, MaxPrice: &maxPrice},
			expectedNames: []string{"Smart Bulb", "Wireless Earbuds"},
			expectedTotal: 2,
		},
		{
			name:          "Case-insensitive search",
			filter:        model.ProductFilter{Page: 1, Limit: 10, Search: "laptop"},
			expectedNames: []string{"Laptop Pro"},
			expectedTotal: 1,
		},
		{
			name:          "No matches",
			filter:        model.ProductFilter{Page: 1, Limit: 10, Search: "toaster"},
			expectedNames: []string{},
			expectedTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			names := make([]string, len(products))
			for i, p := range products {
				names[i] = p.Name
			}
			assert.Equal(t, tt.expectedNames, names)
			assert.Equal(t, tt.expectedTotal, total)
		})
	}
}

func TestProductRepository_CRUD(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	p := newProduct("Monitor", model.CategoryComputers, "249.00", 7, time.Now())
	require.NoError(t, repo.Create(ctx, &p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Monitor", got.Name)
	assert.True(t, decimal.RequireFromString("249.00").Equal(got.Price))
	assert.Equal(t, 7, got.Stock)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	locked, err := repo.GetForUpdate(ctx, tx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)
	locked.Price = decimal.RequireFromString("199.00")
	locked.Stock = 3
	require.NoError(t, repo.Update(ctx, tx, locked))
	require.NoError(t, tx.Commit(ctx))

	updated, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("199.00").Equal(updated.Price))
	assert.Equal(t, 3, updated.Stock)

	byIDs, err := repo.GetByIDs(ctx, []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)

	require.NoError(t, repo.Delete(ctx, p.ID))

	missing, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, repo.Delete(ctx, p.ID), model.ErrProductNotFound)
	ghost := newProduct("Ghost", model.CategoryComputers, "1.00", 1, time.Now())
	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()
	absent, err := repo.GetForUpdate(ctx, tx, ghost.ID)
	require.NoError(t, err)
	assert.Nil(t, absent)
	assert.ErrorIs(t, repo.Update(ctx, tx, &ghost), model.ErrProductNotFound)
}

func TestProductRepository_LockedUpdateKeepsConcurrentDecrement(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	p := newProduct("Webcam", model.CategoryAccessories, "59.00", 5, time.Now())
	seedProducts(t, repo, p)

	editTx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = editTx.Rollback(ctx) }()

	locked, err := repo.GetForUpdate(ctx, editTx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)

	// The buyer blocks on the row lock until the edit commits.
	bought := make(chan error, 1)
	go func() {
		tx, err := repo.BeginTx(ctx)
		if err != nil {
			bought <- err
			return
		}
		ok, err := repo.DecrementStock(ctx, tx, p.ID, 1)
		if err != nil || !ok {
			_ = tx.Rollback(ctx)
			bought <- assert.AnError
			return
		}
		bought <- tx.Commit(ctx)
	}()

	locked.Name = "Webcam HD"
	locked.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(ctx, editTx, locked))
	require.NoError(t, editTx.Commit(ctx))

	require.NoError(t, <-bought)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Webcam HD", got.Name)
	assert.Equal(t, 4, got.Stock)
}

func TestProductRepository_StockCompareAndSwap(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	p := newProduct("Headphones", model.CategoryElectronics, "10.00", 5, time.Now())
	seedProducts(t, repo, p)

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	ok, err := repo.DecrementStock(ctx, tx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, tx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok, "only 2 left, 3 requested")

	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, 2, stockOf(t, repo, p.ID))

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.IncrementStock(ctx, tx, p.ID, 3))
	require.NoError(t, repo.IncrementStock(ctx, tx, uuid.New(), 1))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, 5, stockOf(t, repo, p.ID))
}

func TestProductRepository_ConcurrentDecrementNeverOversells(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	p := newProduct("Limited Edition", model.CategoryElectronics, "50.00", 3, time.Now())
	seedProducts(t, repo, p)

	const buyers = 8
	results := make(chan bool, buyers)
	for i := 0; i < buyers; i++ {
		go func() {
			tx, err := repo.BeginTx(ctx)
			if err != nil {
				results <- false
				return
			}
			ok, err := repo.DecrementStock(ctx, tx, p.ID, 1)
			if err != nil || !ok {
				_ = tx.Rollback(ctx)
				results <- false
				return
			}
			results <- tx.Commit(ctx) == nil
		}()
	}

	succeeded := 0
	for i := 0; i < buyers; i++ {
		if <-results {
			succeeded++
		}
	}

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 0, stockOf(t, repo, p.ID))
}

func TestProductRepository_Reviews(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	users := NewUserRepository(pool, zerolog.Nop())
	ctx := context.Background()

	p := newProduct("Keyboard", model.CategoryAccessories, "79.00", 10, time.Now())
	seedProducts(t, repo, p)

	reviewer := newUser("reviewer@example.com")
	require.NoError(t, users.Create(ctx, &reviewer))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	reviewed, err := repo.HasReviewed(ctx, tx, p.ID, reviewer.ID)
	require.NoError(t, err)
	assert.False(t, reviewed)

	require.NoError(t, repo.CreateReview(ctx, tx, &model.Review{
		ID: uuid.New(), ProductID: p.ID, UserID: reviewer.ID, Rating: 4, Comment: "Solid", CreatedAt: time.Now(),
	}))

	reviewed, err = repo.HasReviewed(ctx, tx, p.ID, reviewer.ID)
	require.NoError(t, err)
	assert.True(t, reviewed)

	ratings, err := repo.GetRatings(ctx, tx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ratings)

	require.NoError(t, repo.UpdateRating(ctx, tx, p.ID, 4, 1))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 1, got.NumReviews)

	again, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = again.Rollback(ctx) }()
	err = repo.CreateReview(ctx, again, &model.Review{
		ID: uuid.New(), ProductID: p.ID, UserID: reviewer.ID, Rating: 1, Comment: "Changed my mind", CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, model.ErrAlreadyReviewed)
}

func TestProductRepository_BulkInsertAndDeleteAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	now := time.Now()
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.BulkInsert(ctx, tx, []model.Product{
		newProduct("A", model.CategoryElectronics, "1.00", 1, now),
		newProduct("B", model.CategoryElectronics, "2.00", 2, now),
	}))
	require.NoError(t, tx.Commit(ctx))

	_, total, err := repo.List(ctx, model.ProductFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	removed, err := repo.DeleteAll(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, int64(2), removed)
}

func TestProductRepository_ErrorPaths(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	pool.Close()

	t.Run("List with closed pool", func(t *testing.T) {
		products, total, err := repo.List(ctx, model.ProductFilter{Page: 1, Limit: 10})
		require.Error(t, err)
		assert.Nil(t, products)
		assert.Zero(t, total)
	})

	t.Run("GetByID with closed pool", func(t *testing.T) {
		product, err := repo.GetByID(ctx, uuid.New())
		require.Error(t, err)
		assert.Nil(t, product)
	})

	t.Run("BeginTx with closed pool", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.Error(t, err)
		assert.Nil(t, tx)
	})
}
