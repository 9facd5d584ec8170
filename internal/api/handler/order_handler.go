package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderService service.IOrderService
}

func NewOrderHandler(orderService service.IOrderService) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{orderService: orderService}
}

// writeOrder 新建 201，冪等重送 200
func writeOrder(w http.ResponseWriter, order *model.Order, replayed bool) {
	if replayed {
		response.SuccessJSON(w, order)
		return
	}
	response.CreatedJSON(w, order)
}

// Create POST /orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	order, replayed, err := h.orderService.PlaceOrder(r.Context(), service.PlaceOrderParams{
		UserID:          util.GetUserIDFromContext(r.Context()),
		Items:           req.CartItems(),
		ShippingAddress: req.ShippingAddress.ToModel(),
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		ClientTotals:    req.ClientTotals(),
		IdempotencyKey:  r.Header.Get(constants.IdempotencyKeyHeader),
	})
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	writeOrder(w, order, replayed)
}

// List GET /orders 新到舊
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrders(r.Context(), util.GetUserIDFromContext(r.Context()))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, orders)
}

// Get GET /orders/{id} 非本人訂單回 404
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "id"), util.GetUserIDFromContext(r.Context()))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, order)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.CancelOrder(r.Context(), chi.URLParam(r, "id"), util.GetUserIDFromContext(r.Context()))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, order)
}

// UpdateStatus PATCH /admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOrderStatusDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	order, err := h.orderService.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), model.OrderStatus(req.Status))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, order)
}

// UpdatePaymentStatus PATCH /admin/orders/{id}/payment-status
func (h *OrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePaymentStatusDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	order, err := h.orderService.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), model.PaymentStatus(req.Status))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, order)
}
