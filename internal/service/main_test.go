package service

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testLogger = zerolog.Nop()

func newTestDbDao(t *testing.T) *db.DbDao {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), db.NewGormConfig())
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	dao := db.NewDbDao(conn)
	require.NoError(t, dao.InitMigrate())
	return dao
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func pricePtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// seedCatalog 牛仔褲 500、襯衫原價 400 特價 300
func seedCatalog(t *testing.T, repo *db.ProductRepo) (jeans, shirt *model.Product) {
	t.Helper()
	jeans = &model.Product{
		ProductID:   "p-jeans",
		Name:        "Slim Jeans",
		Description: "denim",
		Price:       price(500),
		Category:    model.CategoryMen,
		Subcategory: "Jeans",
		Images:      []model.ProductImage{{URL: "https://img/jeans.jpg"}},
		Sizes:       []model.SizeStock{{Size: "M", Stock: 5}, {Size: "L", Stock: 1}},
		Colors:      []model.ColorOption{{Name: "Blue", Stock: 6}},
	}
	shirt = &model.Product{
		ProductID:     "p-shirt",
		Name:          "Linen Shirt",
		Description:   "linen",
		Price:         price(400),
		DiscountPrice: pricePtr(300),
		Category:      model.CategoryMen,
		Subcategory:   "Shirts",
		Images:        []model.ProductImage{{URL: "https://img/shirt.jpg"}},
		Sizes:         []model.SizeStock{{Size: "M", Stock: 3}},
		Colors:        []model.ColorOption{{Name: "White", Stock: 3}, {Name: "Blue", Stock: 1}},
		Featured:      true,
	}
	ctx := context.Background()
	require.NoError(t, repo.CreateProduct(ctx, jeans))
	require.NoError(t, repo.CreateProduct(ctx, shirt))
	return jeans, shirt
}

func testShippingAddress() model.ShippingAddress {
	return model.ShippingAddress{
		Name:    "Asha Rao",
		Phone:   "9876543210",
		Street:  "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	}
}
