package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"not null"`
	Description   string          `json:"description" gorm:"type:text"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	CategoryID    *uint           `json:"category_id"`
	Stock         int             `json:"stock" gorm:"not null;default:0"`
	MinStock      int             `json:"min_stock" gorm:"not null;default:0"`
	CostPrice     decimal.Decimal `json:"cost_price" gorm:"type:decimal(12,2);not null;default:0"`
	ImageRef      string          `json:"image_ref"`
	IsActive      bool            `json:"is_active" gorm:"not null;default:true"`
	HasVariations bool            `json:"has_variations" gorm:"not null;default:false"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsLow reports whether the product sits at or below its reorder level.
func (p Product) IsLow() bool {
	return p.Stock <= p.MinStock
}

// ProductVariation has its own stock column; it never shares stock with
// the parent product.
type ProductVariation struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	ProductID uint            `json:"product_id" gorm:"index;not null"`
	Name      string          `json:"name" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock     int             `json:"stock" gorm:"not null;default:0"`
	CostPrice decimal.Decimal `json:"cost_price" gorm:"type:decimal(12,2);not null;default:0"`
	IsActive  bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time       `json:"created_at"`
}
