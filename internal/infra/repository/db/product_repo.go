package db

import (
	"context"
	"math"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

type ProductRepo struct {
	dbDao *DbDao
}

func NewProductRepo(dbDao *DbDao) *ProductRepo {
	return &ProductRepo{dbDao: dbDao}
}

func (s *ProductRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	err := s.dbDao.WithContext(ctx).Create(product).Error
	return translate(err, repository.ErrProductNotExist, "failed to create product")
}

func (s *ProductRepo) GetProductByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := s.dbDao.WithContext(ctx).First(&product, "product_id = ?", productID).Error
	if err != nil {
		return nil, translate(err, repository.ErrProductNotExist, "failed to get product")
	}
	return &product, nil
}

func sortClause(sort string) string {
	switch sort {
	case repository.SortPriceAsc:
		return "price ASC"
	case repository.SortPriceDesc:
		return "price DESC"
	case repository.SortRating:
		return "rating_average DESC"
	default:
		return "created_at DESC"
	}
}

// ListProducts 分頁查詢，page 小於 1 視為 1
func (s *ProductRepo) ListProducts(ctx context.Context, filter repository.ProductFilter) (*repository.ProductPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	query := s.dbDao.WithContext(ctx).Model(&model.Product{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, translate(err, repository.ErrProductNotExist, "failed to count products")
	}

	products := []model.Product{}
	err := query.
		Order(sortClause(filter.Sort)).
		Order("product_id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, translate(err, repository.ErrProductNotExist, "failed to list products")
	}

	return &repository.ProductPage{
		Products:    products,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
		Total:       total,
	}, nil
}

func (s *ProductRepo) ListFeaturedProducts(ctx context.Context, limit int) ([]model.Product, error) {
	products := []model.Product{}
	err := s.dbDao.WithContext(ctx).
		Where("featured = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, translate(err, repository.ErrProductNotExist, "failed to list featured products")
	}
	return products, nil
}

func (s *ProductRepo) UpdateProduct(ctx context.Context, product *model.Product) error {
	res := s.dbDao.WithContext(ctx).
		Model(&model.Product{}).
		Where("product_id = ?", product.ProductID).
		Select("*").
		Omit("product_id", "created_at", "deleted_at").
		Updates(product)
	if res.Error != nil {
		return translate(res.Error, repository.ErrProductNotExist, "failed to update product")
	}
	if res.RowsAffected == 0 {
		return repository.ErrProductNotExist
	}
	return nil
}

// DeleteProduct 軟刪除，既有訂單的快照不受影響
func (s *ProductRepo) DeleteProduct(ctx context.Context, productID string) error {
	res := s.dbDao.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.Product{})
	if res.Error != nil {
		return translate(res.Error, repository.ErrProductNotExist, "failed to delete product")
	}
	if res.RowsAffected == 0 {
		return repository.ErrProductNotExist
	}
	return nil
}

var _ repository.IProductRepository = (*ProductRepo)(nil)
