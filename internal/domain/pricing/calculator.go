package pricing

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

var (
	DefaultFreeShippingThreshold = decimal.NewFromInt(999)
	DefaultFlatShippingFee       = decimal.NewFromInt(99)
)

// TaxRule 稅額計算的擴充點，預設不課稅
type TaxRule interface {
	Tax(subtotal decimal.Decimal) decimal.Decimal
}

type TaxRuleFunc func(subtotal decimal.Decimal) decimal.Decimal

func (f TaxRuleFunc) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return f(subtotal)
}

var NoTax TaxRule = TaxRuleFunc(func(decimal.Decimal) decimal.Decimal { return decimal.Zero })

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Calculator 純函數計價，不做任何 I/O
type Calculator struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRule               TaxRule
}

type Option func(*Calculator)

func WithFreeShippingThreshold(threshold decimal.Decimal) Option {
	return func(c *Calculator) {
		c.FreeShippingThreshold = threshold
	}
}

func WithFlatShippingFee(fee decimal.Decimal) Option {
	return func(c *Calculator) {
		c.FlatShippingFee = fee
	}
}

func WithTaxRule(rule TaxRule) Option {
	return func(c *Calculator) {
		c.TaxRule = rule
	}
}

func NewCalculator(opts ...Option) Calculator {
	c := Calculator{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
		TaxRule:               NoTax,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Subtotal = Σ(有效單價 × 數量)
func (c Calculator) Subtotal(items []model.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.EffectivePrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// Shipping 小計嚴格大於門檻才免運，等於門檻仍收運費
func (c Calculator) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(c.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.FlatShippingFee
}

// Calculate 空購物車不收運費
func (c Calculator) Calculate(items []model.CartItem) Totals {
	if len(items) == 0 {
		return Totals{Subtotal: decimal.Zero, Shipping: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	}
	subtotal := c.Subtotal(items)
	shipping := c.Shipping(subtotal)
	tax := decimal.Zero
	if c.TaxRule != nil {
		tax = c.TaxRule.Tax(subtotal)
	}
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// AmountToFreeShipping 距離免運還差多少，已免運回傳 0
func (c Calculator) AmountToFreeShipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(c.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.FreeShippingThreshold.Sub(subtotal)
}
