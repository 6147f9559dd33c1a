package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"techtrove/internal/auth"
	"techtrove/internal/handler"
	"techtrove/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires handlers without services. Every case below is answered
// before a service would be called.
func newTestRouter(t *testing.T) (http.Handler, *auth.TokenManager) {
	t.Helper()
	logger := zerolog.Nop()
	tokens := auth.NewTokenManager("router-test-secret", time.Hour)

	h := Handlers{
		Auth:    handler.NewAuthHandler(nil, logger, false),
		Product: handler.NewProductHandler(nil, logger, false),
		Order:   handler.NewOrderHandler(nil, logger, false),
		User:    handler.NewUserHandler(nil, logger, false),
	}
	return New(h, tokens, Options{CORSOrigin: "http://localhost:5173"}, logger), tokens
}

func bearer(t *testing.T, tokens *auth.TokenManager, role model.Role) string {
	t.Helper()
	token, err := tokens.Issue(&model.User{ID: uuid.New(), Email: string(role) + "@example.com", Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter(t *testing.T) {
	router, tokens := newTestRouter(t)
	userToken := bearer(t, tokens, model.RoleUser)
	adminToken := bearer(t, tokens, model.RoleAdmin)
	id := uuid.New().String()

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		body           string
		expectedStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, path: "/api/orders", expectedStatus: http.StatusNoContent},
		{name: "unknown route", method: http.MethodGet, path: "/api/nothing", expectedStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, path: "/api/products/" + id, token: adminToken, expectedStatus: http.StatusMethodNotAllowed},

		{name: "public product lookup reaches handler", method: http.MethodGet, path: "/api/products/bad-id", expectedStatus: http.StatusBadRequest},
		{name: "public product list reaches handler", method: http.MethodGet, path: "/api/products?limit=abc", expectedStatus: http.StatusBadRequest},
		{name: "register reaches handler", method: http.MethodPost, path: "/api/auth/register", body: "{", expectedStatus: http.StatusBadRequest},

		{name: "me needs token", method: http.MethodGet, path: "/api/auth/me", expectedStatus: http.StatusUnauthorized},
		{name: "review needs token", method: http.MethodPost, path: "/api/products/" + id + "/reviews", expectedStatus: http.StatusUnauthorized},
		{name: "review with token reaches handler", method: http.MethodPost, path: "/api/products/" + id + "/reviews", token: userToken, body: "{", expectedStatus: http.StatusBadRequest},
		{name: "create product needs admin", method: http.MethodPost, path: "/api/products", token: userToken, expectedStatus: http.StatusForbidden},
		{name: "update product needs admin", method: http.MethodPut, path: "/api/products/" + id, token: userToken, expectedStatus: http.StatusForbidden},
		{name: "delete product needs admin", method: http.MethodDelete, path: "/api/products/" + id, token: userToken, expectedStatus: http.StatusForbidden},
		{name: "admin create reaches handler", method: http.MethodPost, path: "/api/products", token: adminToken, body: "{", expectedStatus: http.StatusBadRequest},

		{name: "orders need token", method: http.MethodPost, path: "/api/orders", expectedStatus: http.StatusUnauthorized},
		{name: "my orders need token", method: http.MethodGet, path: "/api/orders/my-orders", expectedStatus: http.StatusUnauthorized},
		{name: "order lookup reaches handler", method: http.MethodGet, path: "/api/orders/bad-id", token: userToken, expectedStatus: http.StatusBadRequest},
		{name: "cancel reaches handler", method: http.MethodPatch, path: "/api/orders/bad-id/cancel", token: userToken, expectedStatus: http.StatusBadRequest},
		{name: "all orders need admin", method: http.MethodGet, path: "/api/orders", token: userToken, expectedStatus: http.StatusForbidden},
		{name: "status update needs admin", method: http.MethodPatch, path: "/api/orders/" + id + "/status", token: userToken, expectedStatus: http.StatusForbidden},
		{name: "payment update needs admin", method: http.MethodPatch, path: "/api/orders/" + id + "/payment", token: userToken, expectedStatus: http.StatusForbidden},
		{name: "admin orders reach handler", method: http.MethodGet, path: "/api/orders?page=x", token: adminToken, expectedStatus: http.StatusBadRequest},

		{name: "profile needs token", method: http.MethodGet, path: "/api/users/profile", expectedStatus: http.StatusUnauthorized},
		{name: "wishlist remove reaches handler", method: http.MethodDelete, path: "/api/users/wishlist/bad-id", token: userToken, expectedStatus: http.StatusBadRequest},
		{name: "user list needs admin", method: http.MethodGet, path: "/api/users", token: userToken, expectedStatus: http.StatusForbidden},
		{name: "role change needs admin", method: http.MethodPatch, path: "/api/users/" + id + "/role", token: userToken, expectedStatus: http.StatusForbidden},
		{name: "user delete needs admin", method: http.MethodDelete, path: "/api/users/" + id, token: userToken, expectedStatus: http.StatusForbidden},
		{name: "admin user delete reaches handler", method: http.MethodDelete, path: "/api/users/bad-id", token: adminToken, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("Authorization", tt.token)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
