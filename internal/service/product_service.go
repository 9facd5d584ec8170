package service

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/google/uuid"
)

type IProductService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) (*repository.ProductPage, error)
	GetFeaturedProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type ProductService struct {
	productRepo repository.IProductRepository
}

func NewProductService(productRepo repository.IProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) (*repository.ProductPage, error) {
	var fields []apperr.FieldError
	if filter.Category != "" && !model.ValidCategory(filter.Category) {
		fields = append(fields, apperr.FieldError{Field: "category", Message: "unknown category"})
	}
	if !repository.ValidSort(filter.Sort) {
		fields = append(fields, apperr.FieldError{Field: "sort", Message: "must be one of -createdAt, price, -price, -rating"})
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		fields = append(fields, apperr.FieldError{Field: "minPrice", Message: "must not exceed maxPrice"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid product query", fields...)
	}
	if filter.Limit <= 0 {
		filter.Limit = constants.DefaultPagingSize
	}
	return s.productRepo.ListProducts(ctx, filter)
}

func (s *ProductService) GetFeaturedProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.ListFeaturedProducts(ctx, constants.FeaturedProductSize)
}

func (s *ProductService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	return s.productRepo.GetProductByID(ctx, productID)
}

func (s *ProductService) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.ProductID = uuid.NewString()
	if err := s.productRepo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return s.productRepo.GetProductByID(ctx, product.ProductID)
}

func (s *ProductService) DeleteProduct(ctx context.Context, productID string) error {
	return s.productRepo.DeleteProduct(ctx, productID)
}

func validateProduct(p *model.Product) error {
	var fields []apperr.FieldError
	if strings.TrimSpace(p.Name) == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "required"})
	}
	if strings.TrimSpace(p.Description) == "" {
		fields = append(fields, apperr.FieldError{Field: "description", Message: "required"})
	}
	if p.Price.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: "price", Message: "must not be negative"})
	}
	if p.DiscountPrice != nil && p.DiscountPrice.IsNegative() {
		fields = append(fields, apperr.FieldError{Field: "discountPrice", Message: "must not be negative"})
	}
	if !model.ValidCategory(p.Category) {
		fields = append(fields, apperr.FieldError{Field: "category", Message: "unknown category"})
	}
	if !model.ValidSubcategory(p.Subcategory) {
		fields = append(fields, apperr.FieldError{Field: "subcategory", Message: "unknown subcategory"})
	}
	for _, s := range p.Sizes {
		if !model.ValidSize(s.Size) || s.Stock < 0 {
			fields = append(fields, apperr.FieldError{Field: "sizes", Message: "unknown size or negative stock"})
			break
		}
	}
	for _, c := range p.Colors {
		if strings.TrimSpace(c.Name) == "" || c.Stock < 0 {
			fields = append(fields, apperr.FieldError{Field: "colors", Message: "color name required and stock must not be negative"})
			break
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid product", fields...)
	}
	return nil
}
