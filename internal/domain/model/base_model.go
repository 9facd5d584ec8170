package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// 金額以 JSON number 輸出，與前端約定一致
	decimal.MarshalJSONWithoutQuotes = true
}

// BaseModel 提供時間戳與軟刪除欄位，供 User/Product 使用
// Order 不可刪除，因此不嵌入
type BaseModel struct {
	CreatedAt time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
