package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"gorm.io/gorm"
)

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateOrder 訂單與品項在同一個交易內寫入
func (s *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	if err := order.CheckInvariants(); err != nil {
		return err
	}
	for i := range order.OrderItems {
		order.OrderItems[i].OrderID = order.OrderID
		order.OrderItems[i].Position = i
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	return translate(err, repository.ErrOrderNotExist, "failed to create order")
}

// GetOrderByOwner 他人的訂單視同不存在
func (s *OrderRepo) GetOrderByOwner(ctx context.Context, orderID, ownerID string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems", preloadItems).
		Where("order_id = ? AND user_id = ?", orderID, ownerID).
		First(&order).Error
	if err != nil {
		return nil, translate(err, repository.ErrOrderNotExist, "failed to get order")
	}
	return &order, nil
}

func (s *OrderRepo) GetOrderByIdempotencyKey(ctx context.Context, ownerID, key string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems", preloadItems).
		Where("user_id = ? AND idempotency_key = ?", ownerID, key).
		First(&order).Error
	if err != nil {
		return nil, translate(err, repository.ErrOrderNotExist, "failed to get order")
	}
	return &order, nil
}

// GetOrdersByOwner 新的在前
func (s *OrderRepo) GetOrdersByOwner(ctx context.Context, ownerID string) ([]model.Order, error) {
	orders := []model.Order{}
	err := s.db.WithContext(ctx).
		Preload("OrderItems", preloadItems).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("order_id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, translate(err, repository.ErrOrderNotExist, "failed to list orders")
	}
	return orders, nil
}

func (s *OrderRepo) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems", preloadItems).
		First(&order, "order_id = ?", orderID).Error
	if err != nil {
		return nil, translate(err, repository.ErrOrderNotExist, "failed to get order")
	}
	return &order, nil
}

// UpdateOrderStatus 條件寫入，狀態已被改掉時回傳 ErrOrderStatusConflict
func (s *OrderRepo) UpdateOrderStatus(ctx context.Context, order *model.Order, previous model.OrderStatus) error {
	order.UpdatedAt = time.Now()
	fields := map[string]any{
		"order_status": order.OrderStatus,
		"updated_at":   order.UpdatedAt,
	}
	if order.OrderStatus == model.OrderStatusDelivered && order.DeliveredAt != nil {
		fields["delivered_at"] = order.DeliveredAt
	}
	res := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_id = ? AND order_status = ?", order.OrderID, previous).
		Updates(fields)
	return s.checkUpdated(ctx, res, order.OrderID)
}

func (s *OrderRepo) UpdatePaymentStatus(ctx context.Context, order *model.Order, previous model.PaymentStatus) error {
	order.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_id = ? AND payment_status = ?", order.OrderID, previous).
		Updates(map[string]any{
			"payment_status": order.PaymentStatus,
			"updated_at":     order.UpdatedAt,
		})
	return s.checkUpdated(ctx, res, order.OrderID)
}

// checkUpdated 沒有更新到任何一筆時，區分訂單不存在與狀態衝突
func (s *OrderRepo) checkUpdated(ctx context.Context, res *gorm.DB, orderID string) error {
	if res.Error != nil {
		return translate(res.Error, repository.ErrOrderNotExist, "failed to update order")
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Order{}).Where("order_id = ?", orderID).Count(&n).Error
	if err != nil {
		return translate(err, repository.ErrOrderNotExist, "failed to update order")
	}
	if n == 0 {
		return repository.ErrOrderNotExist
	}
	return repository.ErrOrderStatusConflict
}

var _ repository.IOrderRepository = (*OrderRepo)(nil)
