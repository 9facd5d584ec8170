package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
)

var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// Cart 購物車聚合，同一個 (product, size, color) 只會有一筆
//
// 單一擁有者、同步操作，不做任何鎖
type Cart struct {
	key     string
	items   []model.CartItem
	calc    pricing.Calculator
	storage Storage
}

func New(key string, storage Storage, calc pricing.Calculator) *Cart {
	return &Cart{key: key, storage: storage, calc: calc}
}

// Load 依鍵讀回快照，沒有快照時回傳空購物車
// 快照損毀時回傳空購物車以及 ErrCorruptSnapshot，呼叫端決定是否繼續
func Load(ctx context.Context, key string, storage Storage, calc pricing.Calculator) (*Cart, error) {
	c := New(key, storage, calc)
	b, err := storage.Load(ctx, key)
	if errors.Is(err, ErrSnapshotNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load cart", err)
	}
	var items []model.CartItem
	if err := json.Unmarshal(b, &items); err != nil {
		return c, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return c, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
		}
	}
	c.items = items
	return c, nil
}

func (c *Cart) Key() string {
	return c.key
}

// Add 鍵相同時累加數量，否則以商品當下的顯示欄位建立快照
func (c *Cart) Add(ctx context.Context, p *model.Product, size, color string, quantity int) error {
	if p == nil {
		return apperr.Validation("product is required", apperr.FieldError{Field: "productId", Message: "required"})
	}
	item, err := model.NewCartItem(p.ProductID, p.Name, p.PrimaryImage(), p.Price, p.DiscountPrice, quantity, size, color)
	if err != nil {
		return err
	}
	return c.AddItem(ctx, item)
}

func (c *Cart) AddItem(ctx context.Context, item model.CartItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if i := c.indexOf(item.Key()); i >= 0 {
		c.items[i].Quantity += item.Quantity
	} else {
		c.items = append(c.items, item)
	}
	return c.persist(ctx)
}

// Remove 找不到時不視為錯誤
func (c *Cart) Remove(ctx context.Context, key model.CartKey) error {
	i := c.indexOf(key)
	if i < 0 {
		return nil
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return c.persist(ctx)
}

// SetQuantity 數量必須 >= 1，移除請用 Remove
func (c *Cart) SetQuantity(ctx context.Context, key model.CartKey, quantity int) error {
	if quantity < 1 {
		return apperr.Validation("invalid quantity", apperr.FieldError{Field: "quantity", Message: "must be at least 1"})
	}
	i := c.indexOf(key)
	if i < 0 {
		return apperr.NotFound("cart item not found")
	}
	c.items[i].Quantity = quantity
	return c.persist(ctx)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.items = nil
	return c.persist(ctx)
}

// Items 回傳副本，外部修改不影響購物車
func (c *Cart) Items() []model.CartItem {
	out := make([]model.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) QuantityOf(key model.CartKey) int {
	if i := c.indexOf(key); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// Count 商品件數總和
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

func (c *Cart) Totals() pricing.Totals {
	return c.calc.Calculate(c.items)
}

func (c *Cart) indexOf(key model.CartKey) int {
	for i, item := range c.items {
		if item.Matches(key) {
			return i
		}
	}
	return -1
}

// persist 每次異動後整份寫回，寫入失敗時記憶體中的狀態保留
func (c *Cart) persist(ctx context.Context) error {
	if c.storage == nil {
		return nil
	}
	if len(c.items) == 0 {
		if err := c.storage.Delete(ctx, c.key); err != nil {
			return apperr.Persistence("failed to save cart", err)
		}
		return nil
	}
	b, err := json.Marshal(c.items)
	if err != nil {
		return apperr.Persistence("failed to encode cart", err)
	}
	if err := c.storage.Save(ctx, c.key, b); err != nil {
		return apperr.Persistence("failed to save cart", err)
	}
	return nil
}
