package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/rs/zerolog"
)

const idempotencyScopeOrder = "order"

var ErrOrderInFlight = apperr.Conflict("a request with this idempotency key is still in progress")

// IdempotencyStore 冪等鍵預留/完成/釋放
type IdempotencyStore interface {
	Reserve(ctx context.Context, scope, owner, key string) (redis_repo.Reservation, error)
	Complete(ctx context.Context, scope, owner, key, result string) error
	Release(ctx context.Context, scope, owner, key string) error
}

type IOrderService interface {
	// PlaceOrder 以傳入的品項建立訂單
	//
	// 參數:
	//   - arg.Items: 只取商品、尺寸、顏色、數量，價格與顯示欄位一律以商品目錄為準
	//   - arg.ClientTotals: 前端顯示的金額，僅用來比對
	//   - arg.IdempotencyKey: 可為空
	//
	// 返回值:
	//   - *model.Order: 新建立的訂單，或同一冪等鍵先前建立的訂單
	//   - bool: true 表示為重送，訂單先前已建立
	//
	// 錯誤:
	//   - 400: 空購物車、品項/地址/付款方式不合法、金額與伺服器計算不符
	//   - 409: 同一冪等鍵仍在處理中
	//   - 500: 寫入失敗
	PlaceOrder(ctx context.Context, arg PlaceOrderParams) (*model.Order, bool, error)
	// Checkout 以使用者目前的購物車下單，成功後清空購物車
	Checkout(ctx context.Context, arg CheckoutParams) (*model.Order, bool, error)
	// ListOrders 新到舊
	ListOrders(ctx context.Context, userID string) ([]model.Order, error)
	// GetOrder 他人的訂單與不存在的訂單一樣回傳 404
	GetOrder(ctx context.Context, orderID, userID string) (*model.Order, error)
	// CancelOrder 擁有者在送達前取消，否則 409
	CancelOrder(ctx context.Context, orderID, userID string) (*model.Order, error)
	// UpdateOrderStatus 管理者變更訂單狀態，非法轉換 409
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
	// UpdatePaymentStatus 管理者變更付款狀態，非法轉換 409
	UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) (*model.Order, error)
}

type PlaceOrderParams struct {
	UserID          string
	Items           []model.CartItem
	ShippingAddress model.ShippingAddress
	PaymentMethod   model.PaymentMethod
	ClientTotals    checkout.ClientTotals
	IdempotencyKey  string
}

type CheckoutParams struct {
	UserID          string
	ShippingAddress model.ShippingAddress
	PaymentMethod   model.PaymentMethod
	IdempotencyKey  string
}

type OrderService struct {
	orderRepo   repository.IOrderRepository
	productRepo repository.IProductRepository
	cartStorage cart.Storage
	idem        IdempotencyStore
	publisher   producer.OrderEventPublisher
	builder     *checkout.Builder
	calc        pricing.Calculator
	locks       *userLocks
	now         func() time.Time
	logger      zerolog.Logger
}

type OrderServiceOption func(*OrderService)

// WithIdempotencyStore 未設定時只靠資料庫的唯一索引去重
func WithIdempotencyStore(store IdempotencyStore) OrderServiceOption {
	return func(s *OrderService) {
		s.idem = store
	}
}

func WithEventPublisher(p producer.OrderEventPublisher) OrderServiceOption {
	return func(s *OrderService) {
		s.publisher = p
	}
}

func WithOrderBuilder(b *checkout.Builder) OrderServiceOption {
	return func(s *OrderService) {
		s.builder = b
	}
}

func WithOrderClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) {
		s.now = now
	}
}

func NewOrderService(
	orderRepo repository.IOrderRepository,
	productRepo repository.IProductRepository,
	cartStorage cart.Storage,
	calc pricing.Calculator,
	logger zerolog.Logger,
	opts ...OrderServiceOption,
) *OrderService {
	s := &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartStorage: cartStorage,
		publisher:   producer.NopPublisher{},
		calc:        calc,
		locks:       &userLocks{},
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = checkout.NewBuilder(calc, checkout.WithClock(s.now))
	}
	return s
}

func (s *OrderService) PlaceOrder(ctx context.Context, arg PlaceOrderParams) (*model.Order, bool, error) {
	return s.place(ctx, arg.UserID, arg.IdempotencyKey, func() (*model.Order, error) {
		order, err := s.draft(ctx, arg.UserID, arg.Items, arg.ShippingAddress, arg.PaymentMethod)
		if err != nil {
			return nil, err
		}
		if err := checkout.VerifyClientTotals(order, arg.ClientTotals); err != nil {
			return nil, err
		}
		return order, nil
	})
}

func (s *OrderService) Checkout(ctx context.Context, arg CheckoutParams) (*model.Order, bool, error) {
	unlock := s.locks.lock(arg.UserID)
	defer unlock()

	c, err := cart.Load(ctx, constants.CartKey(arg.UserID), s.cartStorage, s.calc)
	if err != nil && !errors.Is(err, cart.ErrCorruptSnapshot) {
		return nil, false, err
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", arg.UserID).Msg("discard corrupt cart snapshot")
	}

	order, replayed, err := s.place(ctx, arg.UserID, arg.IdempotencyKey, func() (*model.Order, error) {
		return s.draft(ctx, arg.UserID, c.Items(), arg.ShippingAddress, arg.PaymentMethod)
	})
	if err != nil || replayed {
		return order, replayed, err
	}
	if err := c.Clear(ctx); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", arg.UserID).
			Str("order_id", order.OrderID).
			Msg("failed to clear cart after checkout")
	}
	return order, false, nil
}

// place 冪等鍵流程: 預留 -> 建立 -> 完成，失敗時釋放
func (s *OrderService) place(ctx context.Context, userID, idemKey string, build func() (*model.Order, error)) (*model.Order, bool, error) {
	reserved := false
	if idemKey != "" {
		existing, ok, err := s.reserve(ctx, userID, idemKey)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, true, nil
		}
		reserved = ok
	}

	order, err := build()
	if err == nil {
		if idemKey != "" {
			key := idemKey
			order.IdempotencyKey = &key
		}
		err = s.orderRepo.CreateOrder(ctx, order)
		if errors.Is(err, repository.ErrDuplicateKey) && idemKey != "" {
			// 其他執行個體已用同一把 key 建立
			if existing, lookupErr := s.orderRepo.GetOrderByIdempotencyKey(ctx, userID, idemKey); lookupErr == nil {
				s.complete(ctx, userID, idemKey, existing.OrderID, reserved)
				return existing, true, nil
			}
		}
	}
	if err != nil {
		if reserved {
			if relErr := s.idem.Release(ctx, idempotencyScopeOrder, userID, idemKey); relErr != nil {
				s.logger.Warn().Err(relErr).Str("user_id", userID).Msg("failed to release idempotency key")
			}
		}
		if apperr.IsCode(err, apperr.PersistenceCode) {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create order")
		}
		return nil, false, err
	}

	s.complete(ctx, userID, idemKey, order.OrderID, reserved)
	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to publish order placed event")
	}
	return order, false, nil
}

// reserve 回傳先前已建立的訂單，或是否成功預留
// Redis 無法使用時退回資料庫查詢，唯一索引仍會擋住重複建立
func (s *OrderService) reserve(ctx context.Context, userID, idemKey string) (*model.Order, bool, error) {
	if s.idem != nil {
		res, err := s.idem.Reserve(ctx, idempotencyScopeOrder, userID, idemKey)
		switch {
		case errors.Is(err, redis_repo.ErrKeyInFlight):
			return nil, false, ErrOrderInFlight
		case err != nil:
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("idempotency store unavailable, fall back to database")
		case res.Done:
			order, err := s.orderRepo.GetOrderByOwner(ctx, res.Result, userID)
			if err != nil {
				return nil, false, err
			}
			return order, false, nil
		default:
			return nil, true, nil
		}
	}

	order, err := s.orderRepo.GetOrderByIdempotencyKey(ctx, userID, idemKey)
	if err == nil {
		return order, false, nil
	}
	if !errors.Is(err, repository.ErrOrderNotExist) {
		return nil, false, err
	}
	return nil, false, nil
}

func (s *OrderService) complete(ctx context.Context, userID, idemKey, orderID string, reserved bool) {
	if !reserved {
		return
	}
	if err := s.idem.Complete(ctx, idempotencyScopeOrder, userID, idemKey, orderID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Str("order_id", orderID).Msg("failed to complete idempotency key")
	}
}

// draft 依商品目錄重新取得價格與顯示欄位後組成訂單
func (s *OrderService) draft(ctx context.Context, userID string, items []model.CartItem, addr model.ShippingAddress, method model.PaymentMethod) (*model.Order, error) {
	lines := mergeLines(items)
	priced := make([]model.CartItem, 0, len(lines))
	var fields []apperr.FieldError
	for _, line := range lines {
		i, item := line.index, line.item
		if item.ProductID == "" {
			// 交給 Builder 回報欄位錯誤
			priced = append(priced, item)
			continue
		}
		product, err := s.productRepo.GetProductByID(ctx, item.ProductID)
		if errors.Is(err, repository.ErrProductNotExist) {
			fields = append(fields, apperr.FieldError{Field: fmt.Sprintf("items[%d].productId", i), Message: "product not found"})
			continue
		}
		if err != nil {
			return nil, err
		}
		stock, err := checkVariant(product, item.Size, item.Color)
		if err == nil {
			err = checkStock(stock, item.Quantity)
		}
		if err != nil {
			for _, f := range apperr.FieldsOf(err) {
				fields = append(fields, apperr.FieldError{Field: fmt.Sprintf("items[%d].%s", i, f.Field), Message: f.Message})
			}
			continue
		}
		priced = append(priced, model.CartItem{
			ProductID:     product.ProductID,
			Name:          product.Name,
			Image:         product.PrimaryImage(),
			Price:         product.Price,
			DiscountPrice: product.DiscountPrice,
			Quantity:      item.Quantity,
			Size:          item.Size,
			Color:         item.Color,
		})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid line items", fields...)
	}
	return s.builder.Build(priced, addr, method, userID)
}

type draftLine struct {
	index int
	item  model.CartItem
}

// mergeLines 同一 (product, size, color) 合併數量，保留第一次出現的位置
// 不合法的品項原樣保留，交給後續驗證回報
func mergeLines(items []model.CartItem) []draftLine {
	lines := make([]draftLine, 0, len(items))
	seen := make(map[model.CartKey]int, len(items))
	for i, item := range items {
		if item.ProductID != "" && item.Quantity >= 1 {
			if j, ok := seen[item.Key()]; ok {
				lines[j].item.Quantity += item.Quantity
				continue
			}
			seen[item.Key()] = len(lines)
		}
		lines = append(lines, draftLine{index: i, item: item})
	}
	return lines
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]model.Order, error) {
	return s.orderRepo.GetOrdersByOwner(ctx, userID)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*model.Order, error) {
	return s.orderRepo.GetOrderByOwner(ctx, orderID, userID)
}

func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByOwner(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return s.changeStatus(ctx, order, model.OrderStatusCancelled)
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.changeStatus(ctx, order, status)
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	previous := order.PaymentStatus
	if err := order.SetPaymentStatus(status); err != nil {
		return nil, err
	}
	order.UpdatedAt = s.now()
	if err := s.orderRepo.UpdatePaymentStatus(ctx, order, previous); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) changeStatus(ctx context.Context, order *model.Order, next model.OrderStatus) (*model.Order, error) {
	previous := order.OrderStatus
	now := s.now()
	if err := order.TransitionTo(next, now); err != nil {
		return nil, err
	}
	order.UpdatedAt = now
	// 讀取後狀態若已被其他請求改掉，寫入會回 409，不覆蓋對方
	if err := s.orderRepo.UpdateOrderStatus(ctx, order, previous); err != nil {
		return nil, err
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, order, previous); err != nil {
		s.logger.Error().Err(err).
			Str("order_id", order.OrderID).
			Str("status", string(next)).
			Msg("failed to publish order status changed event")
	}
	return order, nil
}
