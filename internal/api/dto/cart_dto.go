package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

type CartItemDTO struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type CartKeyDTO struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (d CartKeyDTO) Key() model.CartKey {
	return model.CartKey{ProductID: d.ProductID, Size: d.Size, Color: d.Color}
}

type ShippingAddressDTO struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

func (d ShippingAddressDTO) ToModel() model.ShippingAddress {
	return model.ShippingAddress{
		Name:    d.Name,
		Phone:   d.Phone,
		Street:  d.Street,
		City:    d.City,
		State:   d.State,
		Pincode: d.Pincode,
	}
}

// CheckoutDTO 地址欄位交給訂單本身驗證，錯誤欄位名稱為 shippingAddress.<field>
type CheckoutDTO struct {
	ShippingAddress ShippingAddressDTO `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" validate:"required,oneof=card upi netbanking cod"`
}

type CartResponse struct {
	Items                []model.CartItem `json:"items"`
	Count                int              `json:"count"`
	Subtotal             decimal.Decimal  `json:"subtotal"`
	Shipping             decimal.Decimal  `json:"shipping"`
	Tax                  decimal.Decimal  `json:"tax"`
	Total                decimal.Decimal  `json:"total"`
	AmountToFreeShipping decimal.Decimal  `json:"amountToFreeShipping"`
}

func NewCartResponse(c *cart.Cart, calc pricing.Calculator) CartResponse {
	totals := c.Totals()
	return CartResponse{
		Items:                c.Items(),
		Count:                c.Count(),
		Subtotal:             totals.Subtotal,
		Shipping:             totals.Shipping,
		Tax:                  totals.Tax,
		Total:                totals.Total,
		AmountToFreeShipping: calc.AmountToFreeShipping(totals.Subtotal),
	}
}

type WishlistDTO struct {
	ProductID string `json:"productId" validate:"required"`
}
