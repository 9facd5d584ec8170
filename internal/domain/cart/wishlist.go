package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
)

// Wishlist 收藏清單，以商品 id 去重
type Wishlist struct {
	key     string
	items   []model.WishlistItem
	storage Storage
}

func NewWishlist(key string, storage Storage) *Wishlist {
	return &Wishlist{key: key, storage: storage}
}

func LoadWishlist(ctx context.Context, key string, storage Storage) (*Wishlist, error) {
	w := NewWishlist(key, storage)
	b, err := storage.Load(ctx, key)
	if errors.Is(err, ErrSnapshotNotFound) {
		return w, nil
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load wishlist", err)
	}
	if err := json.Unmarshal(b, &w.items); err != nil {
		w.items = nil
		return w, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	return w, nil
}

// Add 已收藏則不重複加入，回傳是否真的新增
func (w *Wishlist) Add(ctx context.Context, p *model.Product) (bool, error) {
	if p == nil || p.ProductID == "" {
		return false, apperr.Validation("product is required", apperr.FieldError{Field: "productId", Message: "required"})
	}
	if w.Contains(p.ProductID) {
		return false, nil
	}
	w.items = append(w.items, model.WishlistItem{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Image:         p.PrimaryImage(),
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
	})
	return true, w.persist(ctx)
}

func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	for i, item := range w.items {
		if item.ProductID == productID {
			w.items = append(w.items[:i], w.items[i+1:]...)
			return w.persist(ctx)
		}
	}
	return nil
}

func (w *Wishlist) Contains(productID string) bool {
	for _, item := range w.items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func (w *Wishlist) Items() []model.WishlistItem {
	out := make([]model.WishlistItem, len(w.items))
	copy(out, w.items)
	return out
}

func (w *Wishlist) persist(ctx context.Context) error {
	b, err := json.Marshal(w.items)
	if err != nil {
		return apperr.Persistence("failed to encode wishlist", err)
	}
	if err := w.storage.Save(ctx, w.key, b); err != nil {
		return apperr.Persistence("failed to save wishlist", err)
	}
	return nil
}
