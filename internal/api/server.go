package api

import "github.com/RoyceAzure/lab/storefront/internal/api/handler"

type Server struct {
	AuthHandler     *handler.AuthHandler
	ProductHandler  *handler.ProductHandler
	CartHandler     *handler.CartHandler
	WishlistHandler *handler.WishlistHandler
	OrderHandler    *handler.OrderHandler
	PaymentHandler  *handler.PaymentHandler
	HealthHandler   *handler.HealthHandler
}

func NewServer(
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	cartHandler *handler.CartHandler,
	wishlistHandler *handler.WishlistHandler,
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	return &Server{
		AuthHandler:     authHandler,
		ProductHandler:  productHandler,
		CartHandler:     cartHandler,
		WishlistHandler: wishlistHandler,
		OrderHandler:    orderHandler,
		PaymentHandler:  paymentHandler,
		HealthHandler:   healthHandler,
	}
}
