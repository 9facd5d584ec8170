package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	mock_producer "github.com/RoyceAzure/lab/storefront/internal/infra/producer/mock"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrderServiceTestSuite struct {
	suite.Suite
	ctx          context.Context
	orderRepo    *db.OrderRepo
	productRepo  *db.ProductRepo
	cartStorage  *redis_repo.SnapshotRepo
	idem         *redis_repo.IdempotencyRepo
	writer       *mock_producer.MockWriter
	published    []kafka.Message
	cartService  *CartService
	orderService *OrderService
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	dao := newTestDbDao(suite.T())
	suite.orderRepo = db.NewOrderRepo(dao)
	suite.productRepo = db.NewProductRepo(dao)
	seedCatalog(suite.T(), suite.productRepo)

	_, client := newTestRedis(suite.T())
	suite.cartStorage = redis_repo.NewSnapshotRepo(client, time.Hour)
	suite.idem = redis_repo.NewIdempotencyRepo(client, time.Hour)

	ctrl := gomock.NewController(suite.T())
	suite.writer = mock_producer.NewMockWriter(ctrl)
	suite.published = nil
	suite.writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msgs ...kafka.Message) error {
			suite.published = append(suite.published, msgs...)
			return nil
		}).AnyTimes()

	calc := pricing.NewCalculator()
	suite.cartService = NewCartService(suite.cartStorage, suite.productRepo, calc, testLogger)
	suite.orderService = NewOrderService(suite.orderRepo, suite.productRepo, suite.cartStorage, calc, testLogger,
		WithIdempotencyStore(suite.idem),
		WithEventPublisher(producer.NewOrderEventProducer(suite.writer)),
	)
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (suite *OrderServiceTestSuite) placeParams(key string) PlaceOrderParams {
	return PlaceOrderParams{
		UserID: "u-1",
		Items: []model.CartItem{
			{ProductID: "p-jeans", Quantity: 2, Size: "M", Color: "Blue"},
			{ProductID: "p-shirt", Quantity: 1, Size: "M", Color: "White"},
		},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   model.PaymentMethodCOD,
		IdempotencyKey:  key,
	}
}

func (suite *OrderServiceTestSuite) eventTypes() []string {
	var types []string
	for _, m := range suite.published {
		types = append(types, string(m.Headers[0].Value))
	}
	return types
}

func (suite *OrderServiceTestSuite) TestPlaceOrderRepricesFromCatalog() {
	arg := suite.placeParams("")
	// 用戶端送來的價格不採用
	arg.Items[0].Price = price(1)
	arg.ClientTotals = checkout.ClientTotals{Subtotal: pricePtr(1300), Shipping: pricePtr(0), Total: pricePtr(1300)}

	order, replayed, err := suite.orderService.PlaceOrder(suite.ctx, arg)
	suite.Require().NoError(err)
	suite.False(replayed)
	suite.True(order.Subtotal.Equal(price(1300)))
	suite.True(order.Shipping.IsZero())
	suite.True(order.Total.Equal(price(1300)))
	suite.Equal("Slim Jeans", order.OrderItems[0].Name)
	suite.True(order.OrderItems[1].Price.Equal(price(300)))
	suite.Equal(model.OrderStatusPending, order.OrderStatus)

	stored, err := suite.orderService.GetOrder(suite.ctx, order.OrderID, "u-1")
	suite.Require().NoError(err)
	suite.True(stored.Total.Equal(price(1300)))
	suite.Equal([]string{string(producer.OrderEventPlaced)}, suite.eventTypes())
}

func (suite *OrderServiceTestSuite) TestPlaceOrderRejectsMismatchedTotals() {
	arg := suite.placeParams("")
	arg.ClientTotals = checkout.ClientTotals{Shipping: pricePtr(99), Total: pricePtr(1399)}

	_, _, err := suite.orderService.PlaceOrder(suite.ctx, arg)
	suite.True(apperr.IsCode(err, apperr.ValidationCode))
	var names []string
	for _, f := range apperr.FieldsOf(err) {
		names = append(names, f.Field)
	}
	suite.Equal([]string{"shipping", "total"}, names)

	orders, err := suite.orderService.ListOrders(suite.ctx, "u-1")
	suite.Require().NoError(err)
	suite.Empty(orders)
	suite.Empty(suite.published)
}

func (suite *OrderServiceTestSuite) TestPlaceOrderValidatesLineItemsAgainstCatalog() {
	arg := suite.placeParams("")
	arg.Items = []model.CartItem{
		{ProductID: "missing", Quantity: 1},
		{ProductID: "p-jeans", Quantity: 2, Size: "XL", Color: "Blue"},
		{ProductID: "p-jeans", Quantity: 2, Size: "L", Color: "Blue"},
	}
	_, _, err := suite.orderService.PlaceOrder(suite.ctx, arg)
	suite.True(apperr.IsCode(err, apperr.ValidationCode))
	var names []string
	for _, f := range apperr.FieldsOf(err) {
		names = append(names, f.Field)
	}
	suite.Equal([]string{"items[0].productId", "items[1].size", "items[2].quantity"}, names)
}

func (suite *OrderServiceTestSuite) TestPlaceOrderMergesDuplicateLines() {
	arg := suite.placeParams("")
	// 牛仔褲 M 庫存 5，分兩行各 3 件合計超過庫存
	arg.Items = []model.CartItem{
		{ProductID: "p-jeans", Quantity: 3, Size: "M", Color: "Blue"},
		{ProductID: "p-shirt", Quantity: 1, Size: "M", Color: "White"},
		{ProductID: "p-jeans", Quantity: 3, Size: "M", Color: "Blue"},
	}
	_, _, err := suite.orderService.PlaceOrder(suite.ctx, arg)
	suite.True(apperr.IsCode(err, apperr.ValidationCode))
	suite.Require().Len(apperr.FieldsOf(err), 1)
	suite.Equal("items[0].quantity", apperr.FieldsOf(err)[0].Field)

	arg.Items[0].Quantity = 2
	arg.Items[2].Quantity = 2
	order, _, err := suite.orderService.PlaceOrder(suite.ctx, arg)
	suite.Require().NoError(err)
	suite.Require().Len(order.OrderItems, 2)
	suite.Equal("p-jeans", order.OrderItems[0].ProductID)
	suite.Equal(4, order.OrderItems[0].Quantity)
	suite.Equal("p-shirt", order.OrderItems[1].ProductID)
	suite.True(order.Subtotal.Equal(price(2300)))
}

func (suite *OrderServiceTestSuite) TestPlaceOrderEmptyAndMissingAddress() {
	arg := suite.placeParams("")
	arg.Items = nil
	_, _, err := suite.orderService.PlaceOrder(suite.ctx, arg)
	suite.True(apperr.IsCode(err, apperr.ValidationCode))

	arg = suite.placeParams("")
	arg.ShippingAddress.Pincode = ""
	_, _, err = suite.orderService.PlaceOrder(suite.ctx, arg)
	suite.True(apperr.IsCode(err, apperr.ValidationCode))
	suite.Equal("shippingAddress.pincode", apperr.FieldsOf(err)[0].Field)
}

func (suite *OrderServiceTestSuite) TestPlaceOrderReplaysIdempotencyKey() {
	first, replayed, err := suite.orderService.PlaceOrder(suite.ctx, suite.placeParams("k-1"))
	suite.Require().NoError(err)
	suite.False(replayed)

	second, replayed, err := suite.orderService.PlaceOrder(suite.ctx, suite.placeParams("k-1"))
	suite.Require().NoError(err)
	suite.True(replayed)
	suite.Equal(first.OrderID, second.OrderID)

	orders, err := suite.orderService.ListOrders(suite.ctx, "u-1")
	suite.Require().NoError(err)
	suite.Len(orders, 1)
	suite.Len(suite.published, 1)

	// 不同使用者可以使用相同的 key
	other := suite.placeParams("k-1")
	other.UserID = "u-2"
	third, replayed, err := suite.orderService.PlaceOrder(suite.ctx, other)
	suite.Require().NoError(err)
	suite.False(replayed)
	suite.NotEqual(first.OrderID, third.OrderID)
}

func (suite *OrderServiceTestSuite) TestPlaceOrderInFlightKeyConflicts() {
	_, err := suite.idem.Reserve(suite.ctx, idempotencyScopeOrder, "u-1", "k-busy")
	suite.Require().NoError(err)

	_, _, err = suite.orderService.PlaceOrder(suite.ctx, suite.placeParams("k-busy"))
	suite.True(apperr.IsCode(err, apperr.ConflictCode))
}

func (suite *OrderServiceTestSuite) TestPlaceOrderFailureReleasesKey() {
	arg := suite.placeParams("k-retry")
	arg.PaymentMethod = "paypal"
	_, _, err := suite.orderService.PlaceOrder(suite.ctx, arg)
	suite.True(apperr.IsCode(err, apperr.ValidationCode))

	order, replayed, err := suite.orderService.PlaceOrder(suite.ctx, suite.placeParams("k-retry"))
	suite.Require().NoError(err)
	suite.False(replayed)
	suite.NotEmpty(order.OrderID)
}

func (suite *OrderServiceTestSuite) TestIdempotencyFallsBackToDatabase() {
	svc := NewOrderService(suite.orderRepo, suite.productRepo, suite.cartStorage, pricing.NewCalculator(), testLogger)

	first, _, err := svc.PlaceOrder(suite.ctx, suite.placeParams("k-db"))
	suite.Require().NoError(err)
	second, replayed, err := svc.PlaceOrder(suite.ctx, suite.placeParams("k-db"))
	suite.Require().NoError(err)
	suite.True(replayed)
	suite.Equal(first.OrderID, second.OrderID)
}

func (suite *OrderServiceTestSuite) TestCheckoutClearsCart() {
	_, err := suite.cartService.AddItem(suite.ctx, "u-1", CartItemParams{ProductID: "p-jeans", Size: "M", Color: "Blue", Quantity: 2})
	suite.Require().NoError(err)
	_, err = suite.cartService.AddItem(suite.ctx, "u-1", CartItemParams{ProductID: "p-shirt", Size: "M", Color: "White", Quantity: 1})
	suite.Require().NoError(err)

	order, replayed, err := suite.orderService.Checkout(suite.ctx, CheckoutParams{
		UserID:          "u-1",
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   model.PaymentMethodUPI,
		IdempotencyKey:  "k-cart",
	})
	suite.Require().NoError(err)
	suite.False(replayed)
	suite.True(order.Total.Equal(price(1300)))

	c, err := suite.cartService.GetCart(suite.ctx, "u-1")
	suite.Require().NoError(err)
	suite.True(c.IsEmpty())

	// 重送不會因為購物車已清空而失敗
	again, replayed, err := suite.orderService.Checkout(suite.ctx, CheckoutParams{
		UserID:          "u-1",
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   model.PaymentMethodUPI,
		IdempotencyKey:  "k-cart",
	})
	suite.Require().NoError(err)
	suite.True(replayed)
	suite.Equal(order.OrderID, again.OrderID)
}

func (suite *OrderServiceTestSuite) TestCheckoutEmptyCartKeepsNothing() {
	_, _, err := suite.orderService.Checkout(suite.ctx, CheckoutParams{
		UserID:          "u-1",
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   model.PaymentMethodCOD,
	})
	suite.True(apperr.IsCode(err, apperr.ValidationCode))
}

func (suite *OrderServiceTestSuite) TestGetOrderOfAnotherUserIsNotFound() {
	order, _, err := suite.orderService.PlaceOrder(suite.ctx, suite.placeParams(""))
	suite.Require().NoError(err)

	_, err = suite.orderService.GetOrder(suite.ctx, order.OrderID, "u-2")
	suite.True(apperr.IsCode(err, apperr.NotFoundCode))
	_, err = suite.orderService.CancelOrder(suite.ctx, order.OrderID, "u-2")
	suite.True(apperr.IsCode(err, apperr.NotFoundCode))
}

func (suite *OrderServiceTestSuite) TestListOrdersNewestFirst() {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewOrderService(suite.orderRepo, suite.productRepo, suite.cartStorage, pricing.NewCalculator(), testLogger,
		WithOrderClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}))

	var ids []string
	for i := 0; i < 3; i++ {
		o, _, err := svc.PlaceOrder(suite.ctx, suite.placeParams(""))
		suite.Require().NoError(err)
		ids = append(ids, o.OrderID)
	}
	orders, err := svc.ListOrders(suite.ctx, "u-1")
	suite.Require().NoError(err)
	suite.Require().Len(orders, 3)
	suite.Equal(ids[2], orders[0].OrderID)
	suite.Equal(ids[0], orders[2].OrderID)
}

func (suite *OrderServiceTestSuite) TestStatusLifecycle() {
	order, _, err := suite.orderService.PlaceOrder(suite.ctx, suite.placeParams(""))
	suite.Require().NoError(err)

	_, err = suite.orderService.UpdateOrderStatus(suite.ctx, order.OrderID, model.OrderStatusShipped)
	suite.True(apperr.IsCode(err, apperr.ConflictCode))

	for _, next := range []model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusDelivered} {
		order, err = suite.orderService.UpdateOrderStatus(suite.ctx, order.OrderID, next)
		suite.Require().NoError(err)
	}
	suite.NotNil(order.DeliveredAt)

	stored, err := suite.orderService.GetOrder(suite.ctx, order.OrderID, "u-1")
	suite.Require().NoError(err)
	suite.Equal(model.OrderStatusDelivered, stored.OrderStatus)
	suite.NotNil(stored.DeliveredAt)

	_, err = suite.orderService.CancelOrder(suite.ctx, order.OrderID, "u-1")
	suite.True(apperr.IsCode(err, apperr.ConflictCode))

	suite.Len(suite.published, 5)
	suite.Equal(string(producer.OrderEventStatusChanged), suite.eventTypes()[4])
}

func (suite *OrderServiceTestSuite) TestCancelAndPaymentStatus() {
	order, _, err := suite.orderService.PlaceOrder(suite.ctx, suite.placeParams(""))
	suite.Require().NoError(err)

	order, err = suite.orderService.CancelOrder(suite.ctx, order.OrderID, "u-1")
	suite.Require().NoError(err)
	suite.Equal(model.OrderStatusCancelled, order.OrderStatus)

	order, err = suite.orderService.UpdatePaymentStatus(suite.ctx, order.OrderID, model.PaymentStatusFailed)
	suite.Require().NoError(err)
	suite.Equal(model.PaymentStatusFailed, order.PaymentStatus)

	_, err = suite.orderService.UpdatePaymentStatus(suite.ctx, order.OrderID, model.PaymentStatusCompleted)
	suite.True(apperr.IsCode(err, apperr.ConflictCode))

	_, err = suite.orderService.UpdateOrderStatus(suite.ctx, "missing", model.OrderStatusConfirmed)
	suite.True(apperr.IsCode(err, apperr.NotFoundCode))
}

type failingPublisher struct {
	calls atomic.Int32
}

func (p *failingPublisher) PublishOrderPlaced(context.Context, *model.Order) error {
	p.calls.Add(1)
	return errors.New("broker down")
}

func (p *failingPublisher) PublishOrderStatusChanged(context.Context, *model.Order, model.OrderStatus) error {
	p.calls.Add(1)
	return errors.New("broker down")
}

func TestPublishFailureDoesNotFailOrder(t *testing.T) {
	dao := newTestDbDao(t)
	productRepo := db.NewProductRepo(dao)
	seedCatalog(t, productRepo)
	pub := &failingPublisher{}
	svc := NewOrderService(db.NewOrderRepo(dao), productRepo, cart.NewMemoryStorage(), pricing.NewCalculator(), testLogger,
		WithEventPublisher(pub))

	order, _, err := svc.PlaceOrder(context.Background(), PlaceOrderParams{
		UserID:          "u-1",
		Items:           []model.CartItem{{ProductID: "p-jeans", Quantity: 1, Size: "M", Color: "Blue"}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   model.PaymentMethodCard,
	})
	require.NoError(t, err)
	require.True(t, order.Shipping.Equal(price(99)))
	require.True(t, order.Total.Equal(price(599)))

	_, err = svc.CancelOrder(context.Background(), order.OrderID, "u-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, pub.calls.Load())
}

func newStatusTestService(t *testing.T) (*OrderService, *db.OrderRepo, *db.ProductRepo) {
	t.Helper()
	dao := newTestDbDao(t)
	productRepo := db.NewProductRepo(dao)
	seedCatalog(t, productRepo)
	orderRepo := db.NewOrderRepo(dao)
	svc := NewOrderService(orderRepo, productRepo, cart.NewMemoryStorage(), pricing.NewCalculator(), testLogger)
	return svc, orderRepo, productRepo
}

// placeShippedOrder 已付款、已出貨
func placeShippedOrder(t *testing.T, svc *OrderService) *model.Order {
	t.Helper()
	ctx := context.Background()
	order, _, err := svc.PlaceOrder(ctx, PlaceOrderParams{
		UserID:          "u-1",
		Items:           []model.CartItem{{ProductID: "p-jeans", Quantity: 1, Size: "M", Color: "Blue"}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   model.PaymentMethodCard,
	})
	require.NoError(t, err)
	for _, next := range []model.OrderStatus{model.OrderStatusConfirmed, model.OrderStatusProcessing, model.OrderStatusShipped} {
		order, err = svc.UpdateOrderStatus(ctx, order.OrderID, next)
		require.NoError(t, err)
	}
	order, err = svc.UpdatePaymentStatus(ctx, order.OrderID, model.PaymentStatusCompleted)
	require.NoError(t, err)
	return order
}

func TestConcurrentCancelAndDeliverOnlyOneWins(t *testing.T) {
	svc, _, _ := newStatusTestService(t)
	ctx := context.Background()
	order := placeShippedOrder(t, svc)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, errs[0] = svc.UpdateOrderStatus(ctx, order.OrderID, model.OrderStatusDelivered)
	}()
	go func() {
		defer wg.Done()
		<-start
		_, errs[1] = svc.CancelOrder(ctx, order.OrderID, "u-1")
	}()
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, apperr.IsCode(err, apperr.ConflictCode), err)
	}
	require.Equal(t, 1, succeeded)

	stored, err := svc.GetOrder(ctx, order.OrderID, "u-1")
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusCompleted, stored.PaymentStatus)
	if errs[0] == nil {
		require.Equal(t, model.OrderStatusDelivered, stored.OrderStatus)
		require.NotNil(t, stored.DeliveredAt)
	} else {
		require.Equal(t, model.OrderStatusCancelled, stored.OrderStatus)
		require.Nil(t, stored.DeliveredAt)
	}
}

// staleOrderRepo 讀取時回傳固定的舊快照，模擬讀取與寫入之間被其他請求插隊
type staleOrderRepo struct {
	*db.OrderRepo
	snapshot model.Order
}

func (r *staleOrderRepo) GetOrderByOwner(context.Context, string, string) (*model.Order, error) {
	o := r.snapshot
	return &o, nil
}

func (r *staleOrderRepo) GetOrderByID(context.Context, string) (*model.Order, error) {
	o := r.snapshot
	return &o, nil
}

func TestStaleCancelAfterDeliveryConflicts(t *testing.T) {
	svc, orderRepo, productRepo := newStatusTestService(t)
	ctx := context.Background()
	order := placeShippedOrder(t, svc)

	stale := &staleOrderRepo{OrderRepo: orderRepo, snapshot: *order}
	staleSvc := NewOrderService(stale, productRepo, cart.NewMemoryStorage(), pricing.NewCalculator(), testLogger)

	_, err := svc.UpdateOrderStatus(ctx, order.OrderID, model.OrderStatusDelivered)
	require.NoError(t, err)

	_, err = staleSvc.CancelOrder(ctx, order.OrderID, "u-1")
	require.True(t, apperr.IsCode(err, apperr.ConflictCode))

	// 快照的付款狀態是 completed，退款仍可寫入，且不影響訂單狀態
	refunded, err := staleSvc.UpdatePaymentStatus(ctx, order.OrderID, model.PaymentStatusRefunded)
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusRefunded, refunded.PaymentStatus)

	stored, err := svc.GetOrder(ctx, order.OrderID, "u-1")
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusDelivered, stored.OrderStatus)
	require.Equal(t, model.PaymentStatusRefunded, stored.PaymentStatus)
	require.NotNil(t, stored.DeliveredAt)

	// 快照的付款狀態已過期
	_, err = staleSvc.UpdatePaymentStatus(ctx, order.OrderID, model.PaymentStatusRefunded)
	require.True(t, apperr.IsCode(err, apperr.ConflictCode))
}
