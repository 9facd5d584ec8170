package redis_repo

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	repo := NewSnapshotRepo(client, time.Hour)

	_, err := repo.Load(ctx, "cart:u-1")
	require.ErrorIs(t, err, cart.ErrSnapshotNotFound)

	require.NoError(t, repo.Save(ctx, "cart:u-1", []byte(`[]`)))
	b, err := repo.Load(ctx, "cart:u-1")
	require.NoError(t, err)
	require.Equal(t, `[]`, string(b))
	require.Equal(t, time.Hour, mr.TTL("cart:u-1"))

	require.NoError(t, repo.Delete(ctx, "cart:u-1"))
	require.False(t, mr.Exists("cart:u-1"))
}

func TestSnapshotRepoExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	repo := NewSnapshotRepo(client, time.Minute)

	require.NoError(t, repo.Save(ctx, "wishlist:u-1", []byte(`[]`)))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Load(ctx, "wishlist:u-1")
	require.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}

// 模擬重新啟動: 用新的 client 讀回同一份購物車
func TestCartSurvivesRestartThroughRedis(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	calc := pricing.NewCalculator()

	c := cart.New("cart:u-1", NewSnapshotRepo(client, 0), calc)
	product := &model.Product{ProductID: "p-1", Name: "Tee", Price: decimal.NewFromInt(250)}
	require.NoError(t, c.Add(ctx, product, "M", "Red", 2))
	require.NoError(t, c.Add(ctx, product, "L", "Red", 1))

	reloaded, err := cart.Load(ctx, "cart:u-1", NewSnapshotRepo(client, 0), calc)
	require.NoError(t, err)
	require.Equal(t, c.Count(), reloaded.Count())
	require.Len(t, reloaded.Items(), 2)
	require.True(t, reloaded.Totals().Total.Equal(c.Totals().Total))
}
