package model

import (
	"github.com/shopspring/decimal"
)

const (
	CategoryMen         = "Men"
	CategoryWomen       = "Women"
	CategoryAccessories = "Accessories"
	CategoryFootwear    = "Footwear"
)

var Categories = []string{CategoryMen, CategoryWomen, CategoryAccessories, CategoryFootwear}

var Subcategories = []string{"Shirts", "T-Shirts", "Jeans", "Kurtas", "Dresses", "Ethnic Wear", "Bags", "Jewelry", "Sneakers", "Sandals"}

var Sizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

type ProductImage struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type SizeStock struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

type ColorOption struct {
	Name  string `json:"name"`
	Hex   string `json:"hex,omitempty"`
	Stock int    `json:"stock"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Product struct {
	ProductID        string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name             string           `gorm:"not null;type:varchar(100)" json:"name"`
	Description      string           `gorm:"not null;type:text" json:"description"`
	Price            decimal.Decimal  `gorm:"not null;type:decimal(12,2);index" json:"price"`
	DiscountPrice    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"discountPrice,omitempty"`
	Images           []ProductImage   `gorm:"serializer:json" json:"images"`
	Category         string           `gorm:"not null;type:varchar(50);index" json:"category"`
	Subcategory      string           `gorm:"type:varchar(50)" json:"subcategory,omitempty"`
	Sizes            []SizeStock      `gorm:"serializer:json" json:"sizes"`
	Colors           []ColorOption    `gorm:"serializer:json" json:"colors"`
	Material         string           `gorm:"type:varchar(100)" json:"material,omitempty"`
	CareInstructions string           `gorm:"type:text" json:"careInstructions,omitempty"`
	Featured         bool             `gorm:"not null;default:false;index" json:"featured"`
	Rating           Rating           `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	BaseModel
}

// PrimaryImage 第一張圖，購物車快照使用
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// TotalStock 各尺寸庫存總和
func (p *Product) TotalStock() int {
	total := 0
	for _, s := range p.Sizes {
		total += s.Stock
	}
	return total
}

// DiscountPercentage 四捨五入到整數百分比
func (p *Product) DiscountPercentage() int64 {
	if p.DiscountPrice == nil || !p.DiscountPrice.IsPositive() || !p.Price.IsPositive() {
		return 0
	}
	return p.Price.Sub(*p.DiscountPrice).Div(p.Price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// SizeStockOf 回傳該尺寸庫存，商品未提供該尺寸時 ok 為 false
// 商品未設定任何尺寸時視為單一尺寸，以 ok=true 與 -1 表示不檢查
func (p *Product) SizeStockOf(size string) (stock int, ok bool) {
	if len(p.Sizes) == 0 {
		return -1, size == ""
	}
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock, true
		}
	}
	return 0, false
}

// HasColor 商品未設定顏色時只接受空字串
func (p *Product) HasColor(color string) bool {
	if len(p.Colors) == 0 {
		return color == ""
	}
	for _, c := range p.Colors {
		if c.Name == color {
			return true
		}
	}
	return false
}

func ValidCategory(c string) bool {
	return contains(Categories, c)
}

func ValidSubcategory(c string) bool {
	return c == "" || contains(Subcategories, c)
}

func ValidSize(s string) bool {
	return contains(Sizes, s)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
