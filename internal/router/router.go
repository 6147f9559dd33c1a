package router

import (
	"net/http"

	"techtrove/internal/handler"
	"techtrove/internal/middleware"
	"techtrove/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	User    *handler.UserHandler
}

// Options configures cross-cutting router behaviour.
type Options struct {
	CORSOrigin  string
	Development bool
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, tokens middleware.TokenParser, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS
	r.Use(middleware.Recovery(logger, opts.Development))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.CORSOrigin))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})

	authenticate := middleware.Authenticate(tokens, logger)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(authenticate).Get("/me", h.Auth.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.List)
			r.Get("/{id}", h.Product.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/{id}/reviews", h.Product.AddReview)

				r.With(adminOnly).Post("/", h.Product.Create)
				r.With(adminOnly).Put("/{id}", h.Product.Update)
				r.With(adminOnly).Delete("/{id}", h.Product.Delete)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Order.Create)
			r.Get("/my-orders", h.Order.ListMine)
			r.Get("/{id}", h.Order.GetByID)
			r.Patch("/{id}/cancel", h.Order.Cancel)

			r.With(adminOnly).Get("/", h.Order.List)
			r.With(adminOnly).Patch("/{id}/status", h.Order.UpdateStatus)
			r.With(adminOnly).Patch("/{id}/payment", h.Order.UpdatePayment)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/profile", h.User.Profile)
			r.Put("/profile", h.User.UpdateProfile)
			r.Get("/wishlist", h.User.Wishlist)
			r.Post("/wishlist", h.User.AddToWishlist)
			r.Delete("/wishlist/{productId}", h.User.RemoveFromWishlist)

			r.With(adminOnly).Get("/", h.User.List)
			r.With(adminOnly).Patch("/{id}/role", h.User.UpdateRole)
			r.With(adminOnly).Delete("/{id}", h.User.Delete)
		})
	})

	return r
}
