package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntry audits stock increases only. Decreases caused by orders are
// not recorded here.
type StockEntry struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	ProductID   uint            `json:"product_id" gorm:"index;not null"`
	VariationID *uint           `json:"variation_id"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitCost    decimal.Decimal `json:"unit_cost" gorm:"type:decimal(12,2);not null"`
	TotalCost   decimal.Decimal `json:"total_cost" gorm:"type:decimal(12,2);not null"`
	Supplier    *string         `json:"supplier"`
	Notes       *string         `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
}
