package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/redis/go-redis/v9"
)

// SnapshotRepo 購物車、收藏清單的快照，每個鍵一個 JSON 字串
type SnapshotRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotRepo ttl 為 0 表示不過期
func NewSnapshotRepo(client *redis.Client, ttl time.Duration) *SnapshotRepo {
	return &SnapshotRepo{client: client, ttl: ttl}
}

func (r *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}
	return b, nil
}

// Save 每次寫入都會重設過期時間
func (r *SnapshotRepo) Save(ctx context.Context, key string, snapshot []byte) error {
	if err := r.client.Set(ctx, key, snapshot, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}
	return nil
}

func (r *SnapshotRepo) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

var _ cart.Storage = (*SnapshotRepo)(nil)
