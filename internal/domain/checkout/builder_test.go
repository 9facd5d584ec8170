package checkout

import (
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(pricing.NewCalculator(),
		WithIDGenerator(func() string { return "order-1" }),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func address() model.ShippingAddress {
	return model.ShippingAddress{
		Name:    "Asha Rao",
		Phone:   "9876543210",
		Street:  "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	}
}

func scenarioItems() []model.CartItem {
	discount := decimal.NewFromInt(300)
	return []model.CartItem{
		{ProductID: "p1", Name: "Jeans", Price: decimal.NewFromInt(500), Quantity: 2, Size: "M", Color: "Blue"},
		{ProductID: "p2", Name: "Shirt", Price: decimal.NewFromInt(400), DiscountPrice: &discount, Quantity: 1, Size: "L", Color: "White"},
	}
}

func TestBuildSnapshotsItemsAndTotals(t *testing.T) {
	items := scenarioItems()
	order, err := newTestBuilder().Build(items, address(), model.PaymentMethodUPI, "u-1")
	require.NoError(t, err)

	require.Equal(t, "order-1", order.OrderID)
	require.Equal(t, "u-1", order.UserID)
	require.Equal(t, model.OrderStatusPending, order.OrderStatus)
	require.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	require.True(t, order.Subtotal.Equal(decimal.NewFromInt(1300)))
	require.True(t, order.Shipping.IsZero())
	require.True(t, order.Total.Equal(decimal.NewFromInt(1300)))
	require.Equal(t, fixedNow, order.CreatedAt)
	require.Nil(t, order.DeliveredAt)

	require.Len(t, order.OrderItems, 2)
	require.True(t, order.OrderItems[1].Price.Equal(decimal.NewFromInt(300)))
	require.Equal(t, 1, order.OrderItems[1].Position)
	require.Equal(t, "L", order.OrderItems[1].Size)

	// 購物車之後的異動不影響訂單快照
	items[0].Quantity = 10
	items[0].Price = decimal.NewFromInt(1)
	require.Equal(t, 2, order.OrderItems[0].Quantity)
	require.True(t, order.OrderItems[0].Price.Equal(decimal.NewFromInt(500)))
}

func TestBuildChargesShippingAtThreshold(t *testing.T) {
	items := []model.CartItem{{ProductID: "p1", Price: decimal.NewFromInt(999), Quantity: 1}}
	order, err := newTestBuilder().Build(items, address(), model.PaymentMethodCOD, "u-1")
	require.NoError(t, err)
	require.True(t, order.Shipping.Equal(decimal.NewFromInt(99)))
	require.True(t, order.Total.Equal(decimal.NewFromInt(1098)))
}

func TestBuildRejectsEmptyCart(t *testing.T) {
	_, err := newTestBuilder().Build(nil, address(), model.PaymentMethodCard, "u-1")
	require.True(t, apperr.IsCode(err, apperr.ValidationCode))
	require.Contains(t, err.Error(), "empty cart")
}

func TestBuildRejectsEachMissingAddressField(t *testing.T) {
	blanks := map[string]func(*model.ShippingAddress){
		"shippingAddress.name":    func(a *model.ShippingAddress) { a.Name = "" },
		"shippingAddress.phone":   func(a *model.ShippingAddress) { a.Phone = "" },
		"shippingAddress.street":  func(a *model.ShippingAddress) { a.Street = "  " },
		"shippingAddress.city":    func(a *model.ShippingAddress) { a.City = "" },
		"shippingAddress.state":   func(a *model.ShippingAddress) { a.State = "" },
		"shippingAddress.pincode": func(a *model.ShippingAddress) { a.Pincode = "" },
	}
	for field, blank := range blanks {
		t.Run(field, func(t *testing.T) {
			addr := address()
			blank(&addr)
			_, err := newTestBuilder().Build(scenarioItems(), addr, model.PaymentMethodCard, "u-1")
			require.True(t, apperr.IsCode(err, apperr.ValidationCode))
			require.Equal(t, []apperr.FieldError{{Field: field, Message: "required"}}, apperr.FieldsOf(err))
		})
	}
}

func TestBuildRejectsUnknownPaymentMethod(t *testing.T) {
	_, err := newTestBuilder().Build(scenarioItems(), address(), "paypal", "u-1")
	require.True(t, apperr.IsCode(err, apperr.ValidationCode))
	require.Equal(t, "paymentMethod", apperr.FieldsOf(err)[0].Field)
}

func TestBuildRejectsBadLineItem(t *testing.T) {
	items := scenarioItems()
	items[1].Quantity = 0
	_, err := newTestBuilder().Build(items, address(), model.PaymentMethodCard, "u-1")
	require.Equal(t, "items[1].quantity", apperr.FieldsOf(err)[0].Field)
}

func TestBuildRequiresOwner(t *testing.T) {
	_, err := newTestBuilder().Build(scenarioItems(), address(), model.PaymentMethodCard, " ")
	require.True(t, apperr.IsCode(err, apperr.ValidationCode))
}

func TestVerifyClientTotals(t *testing.T) {
	order, err := newTestBuilder().Build(scenarioItems(), address(), model.PaymentMethodCard, "u-1")
	require.NoError(t, err)

	require.NoError(t, VerifyClientTotals(order, ClientTotals{}))

	subtotal := decimal.NewFromInt(1300)
	zero := decimal.Zero
	require.NoError(t, VerifyClientTotals(order, ClientTotals{Subtotal: &subtotal, Shipping: &zero, Total: &subtotal}))

	wrongShipping := decimal.NewFromInt(99)
	wrongTotal := decimal.NewFromInt(1399)
	err = VerifyClientTotals(order, ClientTotals{Subtotal: &subtotal, Shipping: &wrongShipping, Total: &wrongTotal})
	require.True(t, apperr.IsCode(err, apperr.ValidationCode))
	fields := apperr.FieldsOf(err)
	require.Len(t, fields, 2)
	require.Equal(t, "shipping", fields[0].Field)
	require.Equal(t, "total", fields[1].Field)
}
