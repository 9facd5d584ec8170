package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

type OrderItemDTO struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CreateOrderDTO 金額欄位僅供比對
type CreateOrderDTO struct {
	Items           []OrderItemDTO     `json:"items" validate:"dive"`
	ShippingAddress ShippingAddressDTO `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" validate:"required,oneof=card upi netbanking cod"`
	Subtotal        *decimal.Decimal   `json:"subtotal"`
	Shipping        *decimal.Decimal   `json:"shipping"`
	Total           *decimal.Decimal   `json:"total"`
}

func (d CreateOrderDTO) CartItems() []model.CartItem {
	items := make([]model.CartItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, model.CartItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Color:     it.Color,
		})
	}
	return items
}

func (d CreateOrderDTO) ClientTotals() checkout.ClientTotals {
	return checkout.ClientTotals{Subtotal: d.Subtotal, Shipping: d.Shipping, Total: d.Total}
}

type UpdateOrderStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

type UpdatePaymentStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed refunded"`
}

type CreateIntentDTO struct {
	Amount *decimal.Decimal `json:"amount" validate:"required,decimal_lte=999999.99"`
}

type CreateIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}
