package mongo_repo

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const OrderCollection = "orders"

// OrderRepo 以文件資料庫保存訂單，ORDER_STORE=mongo 時使用
type OrderRepo struct {
	coll *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{coll: db.Collection(OrderCollection)}
}

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// EnsureIndexes 冪等性
func (r *OrderRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$type": "string"}}),
		},
	})
	return err
}

func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrOrderNotExist
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicateKey
	default:
		return apperr.Persistence(msg, err)
	}
}

func (r *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	if err := order.CheckInvariants(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	doc, err := newOrderDocument(order)
	if err != nil {
		return apperr.Persistence("failed to encode order", err)
	}
	_, err = r.coll.InsertOne(ctx, doc)
	return translate(err, "failed to create order")
}

func (r *OrderRepo) findOne(ctx context.Context, filter bson.M) (*model.Order, error) {
	var doc orderDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "failed to get order")
	}
	order, err := doc.toModel()
	if err != nil {
		return nil, apperr.Persistence("failed to decode order", err)
	}
	return order, nil
}

// GetOrderByOwner 他人的訂單視同不存在
func (r *OrderRepo) GetOrderByOwner(ctx context.Context, orderID, ownerID string) (*model.Order, error) {
	return r.findOne(ctx, bson.M{"_id": orderID, "userId": ownerID})
}

func (r *OrderRepo) GetOrderByIdempotencyKey(ctx context.Context, ownerID, key string) (*model.Order, error) {
	return r.findOne(ctx, bson.M{"userId": ownerID, "idempotencyKey": key})
}

func (r *OrderRepo) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	return r.findOne(ctx, bson.M{"_id": orderID})
}

// GetOrdersByOwner 新的在前
func (r *OrderRepo) GetOrdersByOwner(ctx context.Context, ownerID string) ([]model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, translate(err, "failed to list orders")
	}
	defer cur.Close(ctx)

	orders := []model.Order{}
	for cur.Next(ctx) {
		var doc orderDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, apperr.Persistence("failed to decode order", err)
		}
		order, err := doc.toModel()
		if err != nil {
			return nil, apperr.Persistence("failed to decode order", err)
		}
		orders = append(orders, *order)
	}
	if err := cur.Err(); err != nil {
		return nil, translate(err, "failed to list orders")
	}
	return orders, nil
}

// UpdateOrderStatus 以目前狀態作為過濾條件，狀態已被改掉時回傳 ErrOrderStatusConflict
func (r *OrderRepo) UpdateOrderStatus(ctx context.Context, order *model.Order, previous model.OrderStatus) error {
	order.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"orderStatus": string(order.OrderStatus),
		"updatedAt":   order.UpdatedAt,
	}
	if order.OrderStatus == model.OrderStatusDelivered && order.DeliveredAt != nil {
		set["deliveredAt"] = *order.DeliveredAt
	}
	filter := bson.M{"_id": order.OrderID, "orderStatus": string(previous)}
	return r.conditionalUpdate(ctx, order.OrderID, filter, set)
}

func (r *OrderRepo) UpdatePaymentStatus(ctx context.Context, order *model.Order, previous model.PaymentStatus) error {
	order.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"paymentStatus": string(order.PaymentStatus),
		"updatedAt":     order.UpdatedAt,
	}
	filter := bson.M{"_id": order.OrderID, "paymentStatus": string(previous)}
	return r.conditionalUpdate(ctx, order.OrderID, filter, set)
}

func (r *OrderRepo) conditionalUpdate(ctx context.Context, orderID string, filter, set bson.M) error {
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return translate(err, "failed to update order")
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": orderID})
	if err != nil {
		return translate(err, "failed to update order")
	}
	if n == 0 {
		return repository.ErrOrderNotExist
	}
	return repository.ErrOrderStatusConflict
}

var _ repository.IOrderRepository = (*OrderRepo)(nil)
