package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

var (
	ErrKeyInFlight = errors.New("idempotency key in flight")
)

// Reservation Done 為 false 表示已取得這把 key，true 時 Result 為先前完成的結果
type Reservation struct {
	Done   bool
	Result string
}

// IdempotencyRepo 以 SETNX 預留冪等鍵
//
//	idem:<scope>:<owner>:<key> = "pending" | <result>
type IdempotencyRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyRepo(client *redis.Client, ttl time.Duration) *IdempotencyRepo {
	return &IdempotencyRepo{client: client, ttl: ttl}
}

func generateIdempotencyKey(scope, owner, key string) string {
	return fmt.Sprintf("idem:%s:%s:%s", scope, owner, key)
}

// Reserve 仍在處理中回傳 ErrKeyInFlight
//
// 讀取時 key 剛好過期只重搶一次，仍搶不到時視為處理中
func (r *IdempotencyRepo) Reserve(ctx context.Context, scope, owner, key string) (Reservation, error) {
	k := generateIdempotencyKey(scope, owner, key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.client.SetNX(ctx, k, pendingMarker, r.ttl).Result()
		if err != nil {
			return Reservation{}, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if ok {
			return Reservation{}, nil
		}
		v, err := r.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return Reservation{}, fmt.Errorf("failed to read idempotency key: %w", err)
		}
		if v == pendingMarker {
			return Reservation{}, ErrKeyInFlight
		}
		return Reservation{Done: true, Result: v}, nil
	}
	return Reservation{}, ErrKeyInFlight
}

// Complete 記錄結果，之後的重送直接回傳
func (r *IdempotencyRepo) Complete(ctx context.Context, scope, owner, key, result string) error {
	if err := r.client.Set(ctx, generateIdempotencyKey(scope, owner, key), result, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Release 失敗時釋放，讓用戶端可以用同一把 key 重試
func (r *IdempotencyRepo) Release(ctx context.Context, scope, owner, key string) error {
	luaScript := `
		if redis.call('GET', KEYS[1]) == ARGV[1] then
			return redis.call('DEL', KEYS[1])
		end
		return 0
	`
	k := generateIdempotencyKey(scope, owner, key)
	if err := r.client.Eval(ctx, luaScript, []string{k}, pendingMarker).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
