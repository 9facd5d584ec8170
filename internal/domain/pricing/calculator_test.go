package pricing

import (
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCalculateMixedDiscountScenario(t *testing.T) {
	items := []model.CartItem{
		{ProductID: "p1", Price: dec(500), Quantity: 2},
		{ProductID: "p2", Price: dec(400), DiscountPrice: decPtr(300), Quantity: 1},
	}

	totals := NewCalculator().Calculate(items)

	require.True(t, totals.Subtotal.Equal(dec(1300)), totals.Subtotal.String())
	require.True(t, totals.Shipping.IsZero())
	require.True(t, totals.Tax.IsZero())
	require.True(t, totals.Total.Equal(dec(1300)))
}

func TestShippingThresholdBoundary(t *testing.T) {
	c := NewCalculator()

	testCases := []struct {
		name     string
		subtotal decimal.Decimal
		want     decimal.Decimal
	}{
		{"below", dec(500), dec(99)},
		{"exactly threshold pays fee", dec(999), dec(99)},
		{"one paisa above", decimal.RequireFromString("999.01"), decimal.Zero},
		{"above", dec(1000), decimal.Zero},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, c.Shipping(tc.subtotal).Equal(tc.want))
		})
	}
}

func TestZeroOrMissingDiscountFallsBackToListPrice(t *testing.T) {
	zero := decimal.Zero
	items := []model.CartItem{
		{ProductID: "p1", Price: dec(250), DiscountPrice: &zero, Quantity: 2},
		{ProductID: "p2", Price: dec(100), Quantity: 3},
	}
	require.True(t, NewCalculator().Subtotal(items).Equal(dec(800)))
}

func TestTotalAlwaysEqualsSumOfParts(t *testing.T) {
	c := NewCalculator(WithTaxRule(TaxRuleFunc(func(subtotal decimal.Decimal) decimal.Decimal {
		return subtotal.Mul(decimal.RequireFromString("0.05")).Round(2)
	})))

	carts := [][]model.CartItem{
		{{ProductID: "a", Price: dec(10), Quantity: 1}},
		{{ProductID: "a", Price: decimal.RequireFromString("333.33"), Quantity: 3}},
		{{ProductID: "a", Price: dec(999), Quantity: 1}, {ProductID: "b", Price: dec(1), DiscountPrice: decPtr(1), Quantity: 7}},
	}
	for _, items := range carts {
		totals := c.Calculate(items)
		require.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Shipping).Add(totals.Tax)))
		require.True(t, totals.Subtotal.Equal(c.Subtotal(items)))
	}
}

func TestCustomShippingPolicy(t *testing.T) {
	c := NewCalculator(WithFreeShippingThreshold(dec(2000)), WithFlatShippingFee(dec(49)))
	totals := c.Calculate([]model.CartItem{{ProductID: "a", Price: dec(1500), Quantity: 1}})
	require.True(t, totals.Shipping.Equal(dec(49)))
	require.True(t, totals.Total.Equal(dec(1549)))
	require.True(t, c.AmountToFreeShipping(dec(1500)).Equal(dec(500)))
}

func TestEmptyCartHasNoCharges(t *testing.T) {
	totals := NewCalculator().Calculate(nil)
	require.True(t, totals.Total.IsZero())
	require.True(t, totals.Shipping.IsZero())
}
