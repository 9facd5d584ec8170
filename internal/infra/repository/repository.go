package repository

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotExist   = apperr.NotFound("order not found")
	ErrUserNotExist    = apperr.NotFound("user not found")
	ErrProductNotExist = apperr.NotFound("product not found")
	ErrDuplicateKey    = apperr.Conflict("duplicate record")

	// ErrOrderStatusConflict 寫入時狀態已被其他請求改掉
	ErrOrderStatusConflict = apperr.Conflict("order status changed by another request, reload and retry")
)

// IOrderRepository 訂單儲存，查詢一律限定擁有者
//
// 非擁有者查詢與訂單不存在的結果相同，都是 ErrOrderNotExist
type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByOwner(ctx context.Context, orderID, ownerID string) (*model.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, ownerID, key string) (*model.Order, error)
	GetOrdersByOwner(ctx context.Context, ownerID string) ([]model.Order, error)
	// 以下為後台使用，不限擁有者
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	// UpdateOrderStatus 只在目前狀態仍為 previous 時寫入 order_status，delivered_at 只在進入 delivered 時寫入
	UpdateOrderStatus(ctx context.Context, order *model.Order, previous model.OrderStatus) error
	// UpdatePaymentStatus 只在目前付款狀態仍為 previous 時寫入 payment_status
	UpdatePaymentStatus(ctx context.Context, order *model.Order, previous model.PaymentStatus) error
}

type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, user *model.User) error
}

const (
	SortNewest    = "-createdAt"
	SortPriceAsc  = "price"
	SortPriceDesc = "-price"
	SortRating    = "-rating"
)

// ProductFilter 商品列表查詢條件，Page 從 1 開始
type ProductFilter struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	Page     int
	Limit    int
}

type ProductPage struct {
	Products    []model.Product `json:"products"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Total       int64           `json:"total"`
}

type IProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, productID string) (*model.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error)
	ListFeaturedProducts(ctx context.Context, limit int) ([]model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

func ValidSort(s string) bool {
	switch s {
	case "", SortNewest, SortPriceAsc, SortPriceDesc, SortRating:
		return true
	}
	return false
}
