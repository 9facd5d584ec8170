package model

import (
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
)

// CartKey 購物車項目的識別鍵，相同鍵的項目會合併數量
type CartKey struct {
	ProductID string
	Size      string
	Color     string
}

type CartItem struct {
	ProductID     string           `json:"productId"`
	Name          string           `json:"name"`
	Image         string           `json:"image"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Quantity      int              `json:"quantity"`
	Size          string           `json:"size"`
	Color         string           `json:"color"`
}

// NewCartItem 建立並驗證購物車項目
func NewCartItem(productID, name, image string, price decimal.Decimal, discountPrice *decimal.Decimal, quantity int, size, color string) (CartItem, error) {
	item := CartItem{
		ProductID:     strings.TrimSpace(productID),
		Name:          name,
		Image:         image,
		Price:         price,
		DiscountPrice: discountPrice,
		Quantity:      quantity,
		Size:          size,
		Color:         color,
	}
	if err := item.Validate(); err != nil {
		return CartItem{}, err
	}
	return item, nil
}

func (c CartItem) Key() CartKey {
	return CartKey{ProductID: c.ProductID, Size: c.Size, Color: c.Color}
}

func (c CartItem) Matches(key CartKey) bool {
	return c.Key() == key
}

// EffectivePrice 有效折扣價(>0)優先，否則為原價
func (c CartItem) EffectivePrice() decimal.Decimal {
	if c.DiscountPrice != nil && c.DiscountPrice.IsPositive() {
		return *c.DiscountPrice
	}
	return c.Price
}

func (c CartItem) Validate() error {
	var fields []apperr.FieldError
	if c.ProductID == "" {
		fields = append(fields, apperr.FieldError{Field: "productId", Message: "required"})
	}
	if c.Price.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: "price", Message: "must not be negative"})
	}
	if c.DiscountPrice != nil && c.DiscountPrice.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: "discountPrice", Message: "must not be negative"})
	}
	if c.Quantity < 1 {
		fields = append(fields, apperr.FieldError{Field: "quantity", Message: "must be at least 1"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid cart item", fields...)
	}
	return nil
}

// WishlistItem 收藏清單項目，以商品為單位去重
type WishlistItem struct {
	ProductID     string           `json:"productId"`
	Name          string           `json:"name"`
	Image         string           `json:"image"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
}
