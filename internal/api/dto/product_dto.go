package dto

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/shopspring/decimal"
)

type ProductDTO struct {
	Name             string               `json:"name" validate:"required,max=100"`
	Description      string               `json:"description" validate:"required"`
	Price            *decimal.Decimal     `json:"price" validate:"required"`
	DiscountPrice    *decimal.Decimal     `json:"discountPrice"`
	Images           []model.ProductImage `json:"images" validate:"omitempty,dive"`
	Category         string               `json:"category" validate:"required"`
	Subcategory      string               `json:"subcategory"`
	Sizes            []model.SizeStock    `json:"sizes" validate:"omitempty,dive"`
	Colors           []model.ColorOption  `json:"colors" validate:"omitempty,dive"`
	Material         string               `json:"material" validate:"max=100"`
	CareInstructions string               `json:"careInstructions"`
	Featured         bool                 `json:"featured"`
}

func (d ProductDTO) ToModel(productID string) *model.Product {
	p := &model.Product{
		ProductID:        productID,
		Name:             strings.TrimSpace(d.Name),
		Description:      d.Description,
		DiscountPrice:    d.DiscountPrice,
		Images:           d.Images,
		Category:         d.Category,
		Subcategory:      d.Subcategory,
		Sizes:            d.Sizes,
		Colors:           d.Colors,
		Material:         d.Material,
		CareInstructions: d.CareInstructions,
		Featured:         d.Featured,
	}
	if d.Price != nil {
		p.Price = *d.Price
	}
	return p
}

// ParseProductQuery 解析 GET /products 的查詢參數
func ParseProductQuery(q url.Values) (repository.ProductFilter, error) {
	filter := repository.ProductFilter{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	}
	var fields []apperr.FieldError
	parseMoney := func(name string) *decimal.Decimal {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fields = append(fields, apperr.FieldError{Field: name, Message: "must be a number"})
			return nil
		}
		return &d
	}
	parseInt := func(name string, min int) int {
		raw := q.Get(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < min {
			fields = append(fields, apperr.FieldError{Field: name, Message: "must be an integer >= " + strconv.Itoa(min)})
			return 0
		}
		return n
	}
	filter.MinPrice = parseMoney("minPrice")
	filter.MaxPrice = parseMoney("maxPrice")
	filter.Page = parseInt("page", 1)
	filter.Limit = parseInt("limit", 1)
	if len(fields) > 0 {
		return filter, apperr.Validation("invalid product query", fields...)
	}
	return filter, nil
}
