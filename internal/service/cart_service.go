package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/rs/zerolog"
)

type ICartService interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
	// AddItem 依商品目錄快照顯示欄位，尺寸/顏色必須存在且庫存足夠合併後的數量
	AddItem(ctx context.Context, userID string, arg CartItemParams) (*cart.Cart, error)
	SetQuantity(ctx context.Context, userID string, arg CartItemParams) (*cart.Cart, error)
	RemoveItem(ctx context.Context, userID string, key model.CartKey) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type CartItemParams struct {
	ProductID string
	Size      string
	Color     string
	Quantity  int
}

func (p CartItemParams) Key() model.CartKey {
	return model.CartKey{ProductID: p.ProductID, Size: p.Size, Color: p.Color}
}

type CartService struct {
	storage     cart.Storage
	productRepo repository.IProductRepository
	calc        pricing.Calculator
	locks       *userLocks
	logger      zerolog.Logger
}

func NewCartService(storage cart.Storage, productRepo repository.IProductRepository, calc pricing.Calculator, logger zerolog.Logger) *CartService {
	return &CartService{
		storage:     storage,
		productRepo: productRepo,
		calc:        calc,
		locks:       &userLocks{},
		logger:      logger,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	return s.load(ctx, userID)
}

func (s *CartService) AddItem(ctx context.Context, userID string, arg CartItemParams) (*cart.Cart, error) {
	if arg.Quantity < 1 {
		return nil, apperr.Validation("invalid cart item", apperr.FieldError{Field: "quantity", Message: "must be at least 1"})
	}
	product, err := s.productRepo.GetProductByID(ctx, arg.ProductID)
	if err != nil {
		return nil, err
	}
	stock, err := checkVariant(product, arg.Size, arg.Color)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(stock, c.QuantityOf(arg.Key())+arg.Quantity); err != nil {
		return nil, err
	}
	if err := c.Add(ctx, product, arg.Size, arg.Color, arg.Quantity); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) SetQuantity(ctx context.Context, userID string, arg CartItemParams) (*cart.Cart, error) {
	if arg.Quantity < 1 {
		return nil, apperr.Validation("invalid cart item", apperr.FieldError{Field: "quantity", Message: "must be at least 1"})
	}
	// 商品已下架時仍允許調整數量，結帳時再擋
	product, err := s.productRepo.GetProductByID(ctx, arg.ProductID)
	if err != nil && !errors.Is(err, repository.ErrProductNotExist) {
		return nil, err
	}
	if product != nil {
		if stock, ok := product.SizeStockOf(arg.Size); ok {
			if err := checkStock(stock, arg.Quantity); err != nil {
				return nil, err
			}
		}
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.SetQuantity(ctx, arg.Key(), arg.Quantity); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, key model.CartKey) (*cart.Cart, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.Remove(ctx, key); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	return c.Clear(ctx)
}

// load 快照損毀時記錄後以空購物車繼續
func (s *CartService) load(ctx context.Context, userID string) (*cart.Cart, error) {
	c, err := cart.Load(ctx, constants.CartKey(userID), s.storage, s.calc)
	if errors.Is(err, cart.ErrCorruptSnapshot) {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("discard corrupt cart snapshot")
		return c, nil
	}
	return c, err
}

// checkVariant 回傳該尺寸的庫存，-1 表示不限
func checkVariant(p *model.Product, size, color string) (int, error) {
	stock, ok := p.SizeStockOf(size)
	if !ok {
		return 0, apperr.Validation("size not available", apperr.FieldError{Field: "size", Message: fmt.Sprintf("%q is not offered", size)})
	}
	if !p.HasColor(color) {
		return 0, apperr.Validation("color not available", apperr.FieldError{Field: "color", Message: fmt.Sprintf("%q is not offered", color)})
	}
	return stock, nil
}

func checkStock(stock, want int) error {
	if stock >= 0 && want > stock {
		return apperr.Validation("insufficient stock", apperr.FieldError{Field: "quantity", Message: fmt.Sprintf("only %d left in stock", stock)})
	}
	return nil
}
