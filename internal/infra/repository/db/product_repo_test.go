package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ProductRepoTestSuite struct {
	suite.Suite
	ctx         context.Context
	productRepo *ProductRepo
}

func (suite *ProductRepoTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.productRepo = NewProductRepo(newTestDbDao(suite.T()))
}

func TestProductRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProductRepoTestSuite))
}

// createTestProducts 價格 100, 200 ... 依序建立，越後面越新
func (suite *ProductRepoTestSuite) createTestProducts(count int, category string) []*model.Product {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	products := make([]*model.Product, count)
	for i := 0; i < count; i++ {
		p := &model.Product{
			ProductID:   fmt.Sprintf("%s-%02d", category, i+1),
			Name:        fmt.Sprintf("Product %d", i+1),
			Description: "desc",
			Price:       decimal.NewFromInt(int64((i + 1) * 100)),
			Category:    category,
			Sizes:       []model.SizeStock{{Size: "M", Stock: 3}},
			Colors:      []model.ColorOption{{Name: "Black", Hex: "#000", Stock: 3}},
			Images:      []model.ProductImage{{URL: "https://img/p.jpg"}},
			Featured:    i%2 == 0,
			Rating:      model.Rating{Average: float64(i), Count: i},
		}
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(suite.T(), suite.productRepo.CreateProduct(suite.ctx, p))
		products[i] = p
	}
	return products
}

func (suite *ProductRepoTestSuite) TestGetProductRoundTripsJSONColumns() {
	suite.createTestProducts(1, model.CategoryMen)

	got, err := suite.productRepo.GetProductByID(suite.ctx, "Men-01")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), []model.SizeStock{{Size: "M", Stock: 3}}, got.Sizes)
	require.Equal(suite.T(), "Black", got.Colors[0].Name)
	require.Equal(suite.T(), "https://img/p.jpg", got.PrimaryImage())

	_, err = suite.productRepo.GetProductByID(suite.ctx, "missing")
	require.ErrorIs(suite.T(), err, repository.ErrProductNotExist)
}

func (suite *ProductRepoTestSuite) TestListPaginatesAndFilters() {
	suite.createTestProducts(15, model.CategoryMen)
	suite.createTestProducts(3, model.CategoryWomen)

	page, err := suite.productRepo.ListProducts(suite.ctx, repository.ProductFilter{Category: model.CategoryMen})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(15), page.Total)
	require.Equal(suite.T(), 2, page.TotalPages)
	require.Equal(suite.T(), 1, page.CurrentPage)
	require.Len(suite.T(), page.Products, DefaultPageSize)
	require.Equal(suite.T(), "Men-15", page.Products[0].ProductID)

	page, err = suite.productRepo.ListProducts(suite.ctx, repository.ProductFilter{Category: model.CategoryMen, Page: 2})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), page.Products, 3)

	lo := decimal.NewFromInt(200)
	hi := decimal.NewFromInt(400)
	page, err = suite.productRepo.ListProducts(suite.ctx, repository.ProductFilter{
		Category: model.CategoryMen, MinPrice: &lo, MaxPrice: &hi, Sort: repository.SortPriceAsc,
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), page.Products, 3)
	require.True(suite.T(), page.Products[0].Price.Equal(lo))
	require.True(suite.T(), page.Products[2].Price.Equal(hi))

	page, err = suite.productRepo.ListProducts(suite.ctx, repository.ProductFilter{Sort: repository.SortPriceDesc, Limit: 1})
	require.NoError(suite.T(), err)
	require.True(suite.T(), page.Products[0].Price.Equal(decimal.NewFromInt(1500)))
	require.Equal(suite.T(), 18, page.TotalPages)
}

func (suite *ProductRepoTestSuite) TestFeatured() {
	suite.createTestProducts(5, model.CategoryAccessories)

	featured, err := suite.productRepo.ListFeaturedProducts(suite.ctx, 8)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), featured, 3)
	for _, p := range featured {
		require.True(suite.T(), p.Featured)
	}
}

func (suite *ProductRepoTestSuite) TestUpdateAndDelete() {
	products := suite.createTestProducts(1, model.CategoryFootwear)
	p := products[0]
	p.Name = "Renamed"
	p.Featured = false
	p.Sizes = []model.SizeStock{{Size: "L", Stock: 1}}
	require.NoError(suite.T(), suite.productRepo.UpdateProduct(suite.ctx, p))

	got, err := suite.productRepo.GetProductByID(suite.ctx, p.ProductID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "Renamed", got.Name)
	require.False(suite.T(), got.Featured)
	require.Equal(suite.T(), "L", got.Sizes[0].Size)

	require.NoError(suite.T(), suite.productRepo.DeleteProduct(suite.ctx, p.ProductID))
	_, err = suite.productRepo.GetProductByID(suite.ctx, p.ProductID)
	require.ErrorIs(suite.T(), err, repository.ErrProductNotExist)
	require.ErrorIs(suite.T(), suite.productRepo.DeleteProduct(suite.ctx, p.ProductID), repository.ErrProductNotExist)

	missing := &model.Product{ProductID: "missing", Name: "x", Description: "x", Category: model.CategoryMen}
	require.ErrorIs(suite.T(), suite.productRepo.UpdateProduct(suite.ctx, missing), repository.ErrProductNotExist)
}
