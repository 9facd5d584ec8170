package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

type CartHandler struct {
	cartService  service.ICartService
	orderService service.IOrderService
	calc         pricing.Calculator
}

func NewCartHandler(cartService service.ICartService, orderService service.IOrderService, calc pricing.Calculator) *CartHandler {
	if cartService == nil || orderService == nil {
		panic("cartService and orderService cannot be nil")
	}
	return &CartHandler{cartService: cartService, orderService: orderService, calc: calc}
}

func (h *CartHandler) write(w http.ResponseWriter, c *cart.Cart) {
	response.SuccessJSON(w, dto.NewCartResponse(c, h.calc))
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.cartService.GetCart(r.Context(), util.GetUserIDFromContext(r.Context()))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	h.write(w, c)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	c, err := h.cartService.AddItem(r.Context(), util.GetUserIDFromContext(r.Context()), service.CartItemParams{
		ProductID: req.ProductID,
		Size:      req.Size,
		Color:     req.Color,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	h.write(w, c)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	c, err := h.cartService.SetQuantity(r.Context(), util.GetUserIDFromContext(r.Context()), service.CartItemParams{
		ProductID: req.ProductID,
		Size:      req.Size,
		Color:     req.Color,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	h.write(w, c)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req dto.CartKeyDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	c, err := h.cartService.RemoveItem(r.Context(), util.GetUserIDFromContext(r.Context()), req.Key())
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	h.write(w, c)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.Clear(r.Context(), util.GetUserIDFromContext(r.Context())); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout POST /cart/checkout 以購物車內容下單
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	order, replayed, err := h.orderService.Checkout(r.Context(), service.CheckoutParams{
		UserID:          util.GetUserIDFromContext(r.Context()),
		ShippingAddress: req.ShippingAddress.ToModel(),
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		IdempotencyKey:  r.Header.Get(constants.IdempotencyKeyHeader),
	})
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	writeOrder(w, order, replayed)
}
