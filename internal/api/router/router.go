package router

import (
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	m "github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

const requestTimeout = 30 * time.Second

type Options struct {
	TokenMaker     token.Maker
	Limiter        ratelimit.Limiter
	Logger         *zerolog.Logger
	AllowedOrigins []string
}

func SetupRouter(server *api.Server, opts Options) *chi.Mux {
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewTokenBucket(nil)
	}
	r := chi.NewRouter()

	// 全局中間件
	r.Use(middleware.RealIP)
	r.Use(m.RequestIdMiddleware)
	r.Use(m.LoggerMiddleware(opts.Logger))
	r.Use(m.RecoverMiddleware(opts.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", constants.IdempotencyKeyHeader, constants.RequestIDHeader},
		ExposedHeaders:   []string{constants.RequestIDHeader},
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(m.AuthPayloadMiddleware(opts.TokenMaker))

	orderLimit := m.RateLimitMiddleware(opts.Limiter, constants.RateLimitScopeOrder, opts.Logger)
	paymentLimit := m.RateLimitMiddleware(opts.Limiter, constants.RateLimitScopePayment, opts.Logger)
	adminOnly := m.RequireRole(model.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", server.HealthHandler.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", server.AuthHandler.Register)
			r.Post("/login", server.AuthHandler.Login)
			r.With(m.AuthMiddleware).Get("/profile", server.AuthHandler.Profile)
			r.With(m.AuthMiddleware).Put("/profile", server.AuthHandler.UpdateProfile)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", server.ProductHandler.List)
			r.Get("/featured", server.ProductHandler.Featured)
			r.Get("/{id}", server.ProductHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(m.AuthMiddleware, adminOnly)
				r.Post("/", server.ProductHandler.Create)
				r.Put("/{id}", server.ProductHandler.Update)
				r.Delete("/{id}", server.ProductHandler.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(m.AuthMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", server.CartHandler.Get)
				r.Delete("/", server.CartHandler.Clear)
				r.Post("/items", server.CartHandler.AddItem)
				r.Patch("/items", server.CartHandler.UpdateItem)
				r.Delete("/items", server.CartHandler.RemoveItem)
				r.With(orderLimit).Post("/checkout", server.CartHandler.Checkout)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", server.WishlistHandler.Get)
				r.Post("/", server.WishlistHandler.Add)
				r.Delete("/{productId}", server.WishlistHandler.Remove)
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(orderLimit).Post("/", server.OrderHandler.Create)
				r.Get("/", server.OrderHandler.List)
				r.Get("/{id}", server.OrderHandler.Get)
				r.Post("/{id}/cancel", server.OrderHandler.Cancel)
			})

			r.With(paymentLimit).Post("/payment/create-intent", server.PaymentHandler.CreateIntent)

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)
				r.Patch("/orders/{id}/status", server.OrderHandler.UpdateStatus)
				r.Patch("/orders/{id}/payment-status", server.OrderHandler.UpdatePaymentStatus)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.ErrorJSON(w, apperr.NotFound("route not found"))
	})
	return r
}

// PrintRoutes 啟動時列出路由
func PrintRoutes(r chi.Routes, logger *zerolog.Logger) error {
	return chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
		return nil
	})
}
