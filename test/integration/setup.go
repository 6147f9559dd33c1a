// Package integration exercises the HTTP API against real PostgreSQL and Redis containers.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"techtrove/internal/auth"
	"techtrove/internal/cache"
	"techtrove/internal/database"
	"techtrove/internal/handler"
	"techtrove/internal/model"
	"techtrove/internal/payment"
	"techtrove/internal/repository"
	"techtrove/internal/router"
	"techtrove/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a migrated test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SetupTestCache starts a Redis container and returns a cache client for it.
func SetupTestCache(t *testing.T) *cache.RedisCache {
	t.Helper()

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis url: %v", err)
	}

	c, err := cache.NewRedisCache(ctx, url, "techtrove-it")
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}

// CleanupDB removes all rows from the application tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE order_items, orders, reviews, wishlist_items, products, users CASCADE")
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// fakeGateway records payment calls and returns deterministic intents.
type fakeGateway struct {
	mu       sync.Mutex
	created  []int64
	refunded []string
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, _ string, _ map[string]string) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, amount)
	n := len(g.created)
	return &payment.Intent{
		ID:           fmt.Sprintf("pi_test_%d", n),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", n),
		Status:       "requires_payment_method",
	}, nil
}

func (g *fakeGateway) CancelIntent(context.Context, string) error {
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunded = append(g.refunded, intentID)
	return nil
}

func (g *fakeGateway) refunds() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.refunded...)
}

// TestServer is the full HTTP stack wired to the test database.
type TestServer struct {
	Handler  http.Handler
	DB       *TestDB
	Products repository.ProductRepository
	Payments *fakeGateway
}

// setupTestServer wires the API exactly like cmd/api, with a fake payment provider.
// A non-nil productCache enables the read-through product cache.
func setupTestServer(t *testing.T, testDB *TestDB, productCache cache.Cache) *TestServer {
	t.Helper()

	logger := zerolog.Nop()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	if productCache != nil {
		productRepo = repository.NewCachedProductRepository(productRepo, productCache, time.Minute, logger)
	}
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	userRepo := repository.NewUserRepository(testDB.Pool, logger)

	payments := &fakeGateway{}
	tokens := auth.NewTokenManager("integration-secret", time.Hour)

	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, payments, "usd", logger)
	userService := service.NewUserService(userRepo, tokens, logger)

	mux := router.New(router.Handlers{
		Auth:    handler.NewAuthHandler(userService, logger, true),
		Product: handler.NewProductHandler(productService, logger, true),
		Order:   handler.NewOrderHandler(orderService, logger, true),
		User:    handler.NewUserHandler(userService, logger, true),
	}, tokens, router.Options{CORSOrigin: "*", Development: true}, logger)

	return &TestServer{
		Handler:  mux,
		DB:       testDB,
		Products: productRepo,
		Payments: payments,
	}
}

// do sends a JSON request with an optional bearer token.
func (s *TestServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

// decode reads the JSON body of w into T.
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

// register creates a customer through the API and returns their token and id.
func (s *TestServer) register(t *testing.T, name, email string) (string, uuid.UUID) {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/auth/register", "", model.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[model.AuthResponse](t, w)
	return resp.Token, resp.User.ID
}

// registerAdmin creates a user, promotes them in the database and logs in again
// so the token carries the admin role.
func (s *TestServer) registerAdmin(t *testing.T, email string) string {
	t.Helper()

	_, id := s.register(t, "Admin", email)
	_, err := s.DB.Pool.Exec(context.Background(), "UPDATE users SET role = 'admin' WHERE id = $1", id)
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/auth/login", "", model.LoginRequest{Email: email, Password: "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.AuthResponse](t, w).Token
}

// seedProduct inserts a product directly through the repository.
func (s *TestServer) seedProduct(t *testing.T, name, price string, stock int) model.Product {
	t.Helper()

	now := time.Now().UTC()
	p := model.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    model.CategoryElectronics,
		Stock:       stock,
		Image:       "/images/test.png",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.Products.Create(context.Background(), &p))
	return p
}

// stockOf reads the current stock through the public API.
func (s *TestServer) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()

	w := s.do(t, http.MethodGet, "/api/products/"+id.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[model.Product](t, w).Stock
}

// orderCount counts persisted orders directly in the database.
func (s *TestServer) orderCount(t *testing.T) int {
	t.Helper()

	var n int
	require.NoError(t, s.DB.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM orders").Scan(&n))
	return n
}

func orderBody(method model.PaymentMethod, items ...model.OrderItemRequest) model.CreateOrderRequest {
	return model.CreateOrderRequest{
		Items: items,
		ShippingAddress: model.ShippingAddress{
			Street:  "1 Market St",
			City:    "San Francisco",
			State:   "CA",
			ZipCode: "94105",
			Country: "US",
		},
		PaymentMethod: method,
	}
}

func line(p model.Product, qty int) model.OrderItemRequest {
	return model.OrderItemRequest{ProductID: p.ID.String(), Quantity: qty}
}
