package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderEventPlaced        OrderEventType = "order.placed"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
)

// OrderEvent 訂單事件內容，key 為訂單 id 確保同一張訂單進同一個 partition
type OrderEvent struct {
	Type           OrderEventType      `json:"type"`
	OrderID        string              `json:"orderId"`
	UserID         string              `json:"userId"`
	OrderStatus    model.OrderStatus   `json:"orderStatus"`
	PaymentStatus  model.PaymentStatus `json:"paymentStatus"`
	PreviousStatus model.OrderStatus   `json:"previousStatus,omitempty"`
	PaymentMethod  model.PaymentMethod `json:"paymentMethod"`
	Total          decimal.Decimal     `json:"total"`
	ItemCount      int                 `json:"itemCount"`
	OccurredAt     time.Time           `json:"occurredAt"`
}

type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *model.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *model.Order, previous model.OrderStatus) error
}

type OrderEventProducer struct {
	writer Writer
	now    func() time.Time
}

func NewOrderEventProducer(writer Writer) *OrderEventProducer {
	return &OrderEventProducer{writer: writer, now: time.Now}
}

func (p *OrderEventProducer) PublishOrderPlaced(ctx context.Context, order *model.Order) error {
	return p.publish(ctx, p.newEvent(OrderEventPlaced, order, ""))
}

func (p *OrderEventProducer) PublishOrderStatusChanged(ctx context.Context, order *model.Order, previous model.OrderStatus) error {
	return p.publish(ctx, p.newEvent(OrderEventStatusChanged, order, previous))
}

func (p *OrderEventProducer) Close() error {
	return p.writer.Close()
}

func (p *OrderEventProducer) newEvent(t OrderEventType, order *model.Order, previous model.OrderStatus) OrderEvent {
	count := 0
	for _, item := range order.OrderItems {
		count += item.Quantity
	}
	return OrderEvent{
		Type:           t,
		OrderID:        order.OrderID,
		UserID:         order.UserID,
		OrderStatus:    order.OrderStatus,
		PaymentStatus:  order.PaymentStatus,
		PreviousStatus: previous,
		PaymentMethod:  order.PaymentMethod,
		Total:          order.Total,
		ItemCount:      count,
		OccurredAt:     p.now().UTC(),
	}
}

func (p *OrderEventProducer) publish(ctx context.Context, evt OrderEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", evt.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event for order %s: %w", evt.Type, evt.OrderID, err)
	}
	return nil
}

// NopPublisher 未設定 KAFKA_BROKERS 時使用
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, *model.Order) error { return nil }

func (NopPublisher) PublishOrderStatusChanged(context.Context, *model.Order, model.OrderStatus) error {
	return nil
}

var (
	_ OrderEventPublisher = (*OrderEventProducer)(nil)
	_ OrderEventPublisher = NopPublisher{}
)
