package checkout

import (
	"strconv"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Builder 把購物車內容組成訂單草稿，不做任何 I/O，也不修改購物車
type Builder struct {
	calc  pricing.Calculator
	newID func() string
	now   func() time.Time
}

type BuilderOption func(*Builder)

func WithIDGenerator(f func() string) BuilderOption {
	return func(b *Builder) {
		b.newID = f
	}
}

func WithClock(f func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = f
	}
}

func NewBuilder(calc pricing.Calculator, opts ...BuilderOption) *Builder {
	b := &Builder{
		calc:  calc,
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build 驗證順序: 擁有者、空購物車、品項、地址、付款方式
func (b *Builder) Build(items []model.CartItem, addr model.ShippingAddress, method model.PaymentMethod, ownerID string) (*model.Order, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperr.Validation("order owner is required", apperr.FieldError{Field: "user", Message: "required"})
	}
	if len(items) == 0 {
		return nil, apperr.Validation("empty cart", apperr.FieldError{Field: "items", Message: "must contain at least one item"})
	}

	var fields []apperr.FieldError
	for i, item := range items {
		if err := item.Validate(); err != nil {
			for _, f := range apperr.FieldsOf(err) {
				fields = append(fields, apperr.FieldError{Field: itemField(i, f.Field), Message: f.Message})
			}
		}
	}
	if err := addr.Validate(); err != nil {
		fields = append(fields, apperr.FieldsOf(err)...)
	}
	if !method.Valid() {
		fields = append(fields, apperr.FieldError{Field: "paymentMethod", Message: "must be one of card, upi, netbanking, cod"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid order", fields...)
	}

	totals := b.calc.Calculate(items)
	now := b.now()
	order := &model.Order{
		OrderID:         b.newID(),
		UserID:          ownerID,
		OrderItems:      make([]model.OrderItem, 0, len(items)),
		ShippingAddress: trimAddress(addr),
		PaymentMethod:   method,
		PaymentStatus:   model.PaymentStatusPending,
		OrderStatus:     model.OrderStatusPending,
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i, item := range items {
		// 以下單當下的有效單價快照，之後商品改價不影響訂單
		order.OrderItems = append(order.OrderItems, model.OrderItem{
			OrderID:   order.OrderID,
			Position:  i,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.EffectivePrice(),
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}
	if err := order.CheckInvariants(); err != nil {
		return nil, err
	}
	return order, nil
}

// ClientTotals 用戶端送來的金額僅供比對，以伺服器計算為準
type ClientTotals struct {
	Subtotal *decimal.Decimal
	Shipping *decimal.Decimal
	Total    *decimal.Decimal
}

// VerifyClientTotals 有提供的欄位必須與訂單一致
func VerifyClientTotals(order *model.Order, client ClientTotals) error {
	var fields []apperr.FieldError
	check := func(name string, got *decimal.Decimal, want decimal.Decimal) {
		if got != nil && !got.Equal(want) {
			fields = append(fields, apperr.FieldError{Field: name, Message: "does not match server computed " + want.StringFixed(2)})
		}
	}
	check("subtotal", client.Subtotal, order.Subtotal)
	check("shipping", client.Shipping, order.Shipping)
	check("total", client.Total, order.Total)
	if len(fields) > 0 {
		return apperr.Validation("order totals mismatch", fields...)
	}
	return nil
}

func trimAddress(a model.ShippingAddress) model.ShippingAddress {
	return model.ShippingAddress{
		Name:    strings.TrimSpace(a.Name),
		Phone:   strings.TrimSpace(a.Phone),
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Pincode: strings.TrimSpace(a.Pincode),
	}
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}
