package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/rs/zerolog"
)

type IWishlistService interface {
	GetWishlist(ctx context.Context, userID string) ([]model.WishlistItem, error)
	Add(ctx context.Context, userID, productID string) ([]model.WishlistItem, error)
	Remove(ctx context.Context, userID, productID string) ([]model.WishlistItem, error)
}

type WishlistService struct {
	storage     cart.Storage
	productRepo repository.IProductRepository
	locks       *userLocks
	logger      zerolog.Logger
}

func NewWishlistService(storage cart.Storage, productRepo repository.IProductRepository, logger zerolog.Logger) *WishlistService {
	return &WishlistService{
		storage:     storage,
		productRepo: productRepo,
		locks:       &userLocks{},
		logger:      logger,
	}
}

func (s *WishlistService) GetWishlist(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return w.Items(), nil
}

// Add 已收藏時不重複加入
func (s *WishlistService) Add(ctx context.Context, userID, productID string) ([]model.WishlistItem, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := w.Add(ctx, product); err != nil {
		return nil, err
	}
	return w.Items(), nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID string) ([]model.WishlistItem, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := w.Remove(ctx, productID); err != nil {
		return nil, err
	}
	return w.Items(), nil
}

func (s *WishlistService) load(ctx context.Context, userID string) (*cart.Wishlist, error) {
	w, err := cart.LoadWishlist(ctx, constants.WishlistKey(userID), s.storage)
	if errors.Is(err, cart.ErrCorruptSnapshot) {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("discard corrupt wishlist snapshot")
		return w, nil
	}
	return w, err
}
