package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodCOD        PaymentMethod = "cod"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetBanking, PaymentMethodCOD:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

/*
訂單狀態轉換:

	pending -> confirmed -> processing -> shipped -> delivered
	delivered 之前任何狀態都可以 -> cancelled
*/
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded},
	PaymentStatusCompleted: {PaymentStatusRefunded},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ShippingAddress 下單當下的地址快照
type ShippingAddress struct {
	Name    string `gorm:"not null;type:varchar(100)" json:"name"`
	Phone   string `gorm:"not null;type:varchar(20)" json:"phone"`
	Street  string `gorm:"not null;type:varchar(255)" json:"street"`
	City    string `gorm:"not null;type:varchar(100)" json:"city"`
	State   string `gorm:"not null;type:varchar(100)" json:"state"`
	Pincode string `gorm:"not null;type:varchar(20)" json:"pincode"`
}

// Validate 所有欄位皆為必填
func (a ShippingAddress) Validate() error {
	var fields []apperr.FieldError
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			fields = append(fields, apperr.FieldError{Field: "shippingAddress." + name, Message: "required"})
		}
	}
	check("name", a.Name)
	check("phone", a.Phone)
	check("street", a.Street)
	check("city", a.City)
	check("state", a.State)
	check("pincode", a.Pincode)
	if len(fields) > 0 {
		return apperr.Validation("invalid shipping address", fields...)
	}
	return nil
}

type Order struct {
	OrderID         string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string          `gorm:"not null;type:varchar(64);index;uniqueIndex:idx_orders_user_idem" json:"user"`
	OrderItems      []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `gorm:"not null;type:varchar(20)" json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `gorm:"not null;type:varchar(20);default:pending" json:"paymentStatus"`
	PaymentID       string          `gorm:"type:varchar(255)" json:"paymentId,omitempty"`
	Subtotal        decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"subtotal"`
	Shipping        decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"shipping"`
	Tax             decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"tax"`
	Total           decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"total"`
	OrderStatus     OrderStatus     `gorm:"not null;type:varchar(20);default:pending" json:"orderStatus"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	IdempotencyKey  *string         `gorm:"type:varchar(128);uniqueIndex:idx_orders_user_idem" json:"-"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem 下單當下的商品快照，不再關聯商品的即時資料
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	OrderID   string          `gorm:"not null;type:varchar(64);index" json:"-"`
	Position  int             `gorm:"not null" json:"-"`
	ProductID string          `gorm:"not null;type:varchar(64)" json:"product"`
	Name      string          `gorm:"type:varchar(255)" json:"name"`
	Image     string          `gorm:"type:text" json:"image"`
	Price     decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Size      string          `gorm:"type:varchar(20)" json:"size"`
	Color     string          `gorm:"type:varchar(50)" json:"color"`
}

func (i OrderItem) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CheckInvariants 寫入前檢查: 至少一項、數量>=1、金額非負、total = subtotal + shipping + tax
func (o *Order) CheckInvariants() error {
	if o.UserID == "" {
		return apperr.Validation("order owner is required", apperr.FieldError{Field: "user", Message: "required"})
	}
	if len(o.OrderItems) == 0 {
		return apperr.Validation("empty cart")
	}
	for i, item := range o.OrderItems {
		if item.Quantity < 1 {
			return apperr.Validation("invalid line item", apperr.FieldError{Field: fieldIndex("items", i, "quantity"), Message: "must be at least 1"})
		}
		if item.Price.IsNegative() {
			return apperr.Validation("invalid line item", apperr.FieldError{Field: fieldIndex("items", i, "price"), Message: "must not be negative"})
		}
	}
	amounts := []struct {
		name string
		v    decimal.Decimal
	}{{"subtotal", o.Subtotal}, {"shipping", o.Shipping}, {"tax", o.Tax}, {"total", o.Total}}
	for _, a := range amounts {
		if a.v.IsNegative() {
			return apperr.Validation("invalid order amount", apperr.FieldError{Field: a.name, Message: "must not be negative"})
		}
	}
	if !o.Total.Equal(o.Subtotal.Add(o.Shipping).Add(o.Tax)) {
		return apperr.Validation("invalid order amount", apperr.FieldError{Field: "total", Message: "must equal subtotal + shipping + tax"})
	}
	if !o.PaymentMethod.Valid() {
		return apperr.Validation("invalid payment method", apperr.FieldError{Field: "paymentMethod", Message: "must be one of card, upi, netbanking, cod"})
	}
	return o.ShippingAddress.Validate()
}

// TransitionTo 變更訂單狀態，進入 delivered 時記錄送達時間
func (o *Order) TransitionTo(next OrderStatus, now time.Time) error {
	if !next.Valid() {
		return apperr.Validation("invalid order status", apperr.FieldError{Field: "orderStatus", Message: "unknown status " + string(next)})
	}
	if !o.OrderStatus.CanTransitionTo(next) {
		return apperr.Newf(apperr.ConflictCode, "order status cannot change from %s to %s", o.OrderStatus, next)
	}
	o.OrderStatus = next
	if next == OrderStatusDelivered {
		t := now
		o.DeliveredAt = &t
	}
	return nil
}

func (o *Order) SetPaymentStatus(next PaymentStatus) error {
	if !next.Valid() {
		return apperr.Validation("invalid payment status", apperr.FieldError{Field: "paymentStatus", Message: "unknown status " + string(next)})
	}
	if !o.PaymentStatus.CanTransitionTo(next) {
		return apperr.Newf(apperr.ConflictCode, "payment status cannot change from %s to %s", o.PaymentStatus, next)
	}
	o.PaymentStatus = next
	return nil
}

func fieldIndex(prefix string, i int, name string) string {
	return prefix + "[" + strconv.Itoa(i) + "]." + name
}
