package mongo_repo

import (
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// orderDocument 訂單在 mongo 中的樣子，品項與地址內嵌
type orderDocument struct {
	ID              string               `bson:"_id"`
	UserID          string               `bson:"userId"`
	Items           []orderItemDocument  `bson:"items"`
	ShippingAddress addressDocument      `bson:"shippingAddress"`
	PaymentMethod   string               `bson:"paymentMethod"`
	PaymentStatus   string               `bson:"paymentStatus"`
	PaymentID       string               `bson:"paymentId,omitempty"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	Shipping        primitive.Decimal128 `bson:"shipping"`
	Tax             primitive.Decimal128 `bson:"tax"`
	Total           primitive.Decimal128 `bson:"total"`
	OrderStatus     string               `bson:"orderStatus"`
	DeliveredAt     *time.Time           `bson:"deliveredAt,omitempty"`
	IdempotencyKey  *string              `bson:"idempotencyKey,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

type orderItemDocument struct {
	ProductID string               `bson:"product"`
	Name      string               `bson:"name"`
	Image     string               `bson:"image"`
	Price     primitive.Decimal128 `bson:"price"`
	Quantity  int                  `bson:"quantity"`
	Size      string               `bson:"size"`
	Color     string               `bson:"color"`
}

type addressDocument struct {
	Name    string `bson:"name"`
	Phone   string `bson:"phone"`
	Street  string `bson:"street"`
	City    string `bson:"city"`
	State   string `bson:"state"`
	Pincode string `bson:"pincode"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("invalid amount %s: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored amount %s: %w", v.String(), err)
	}
	return d, nil
}

func newOrderDocument(o *model.Order) (*orderDocument, error) {
	doc := &orderDocument{
		ID:             o.OrderID,
		UserID:         o.UserID,
		Items:          make([]orderItemDocument, 0, len(o.OrderItems)),
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  string(o.PaymentStatus),
		PaymentID:      o.PaymentID,
		OrderStatus:    string(o.OrderStatus),
		DeliveredAt:    o.DeliveredAt,
		IdempotencyKey: o.IdempotencyKey,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		ShippingAddress: addressDocument{
			Name:    o.ShippingAddress.Name,
			Phone:   o.ShippingAddress.Phone,
			Street:  o.ShippingAddress.Street,
			City:    o.ShippingAddress.City,
			State:   o.ShippingAddress.State,
			Pincode: o.ShippingAddress.Pincode,
		},
	}
	var err error
	amounts := []struct {
		dst *primitive.Decimal128
		src decimal.Decimal
	}{
		{&doc.Subtotal, o.Subtotal},
		{&doc.Shipping, o.Shipping},
		{&doc.Tax, o.Tax},
		{&doc.Total, o.Total},
	}
	for _, a := range amounts {
		if *a.dst, err = toDecimal128(a.src); err != nil {
			return nil, err
		}
	}
	for _, item := range o.OrderItems {
		price, err := toDecimal128(item.Price)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, orderItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     price,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}
	return doc, nil
}

func (doc *orderDocument) toModel() (*model.Order, error) {
	o := &model.Order{
		OrderID:        doc.ID,
		UserID:         doc.UserID,
		OrderItems:     make([]model.OrderItem, 0, len(doc.Items)),
		PaymentMethod:  model.PaymentMethod(doc.PaymentMethod),
		PaymentStatus:  model.PaymentStatus(doc.PaymentStatus),
		PaymentID:      doc.PaymentID,
		OrderStatus:    model.OrderStatus(doc.OrderStatus),
		DeliveredAt:    doc.DeliveredAt,
		IdempotencyKey: doc.IdempotencyKey,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		ShippingAddress: model.ShippingAddress{
			Name:    doc.ShippingAddress.Name,
			Phone:   doc.ShippingAddress.Phone,
			Street:  doc.ShippingAddress.Street,
			City:    doc.ShippingAddress.City,
			State:   doc.ShippingAddress.State,
			Pincode: doc.ShippingAddress.Pincode,
		},
	}
	var err error
	amounts := []struct {
		dst *decimal.Decimal
		src primitive.Decimal128
	}{
		{&o.Subtotal, doc.Subtotal},
		{&o.Shipping, doc.Shipping},
		{&o.Tax, doc.Tax},
		{&o.Total, doc.Total},
	}
	for _, a := range amounts {
		if *a.dst, err = fromDecimal128(a.src); err != nil {
			return nil, err
		}
	}
	for i, item := range doc.Items {
		price, err := fromDecimal128(item.Price)
		if err != nil {
			return nil, err
		}
		o.OrderItems = append(o.OrderItems, model.OrderItem{
			OrderID:   doc.ID,
			Position:  i,
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     price,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}
	return o, nil
}
