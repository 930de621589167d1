package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem keeps UnitPrice as the price at the time the line was added.
type OrderItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     uint            `json:"order_id" gorm:"index;not null"`
	ProductID   uint            `json:"product_id" gorm:"index;not null"`
	VariationID *uint           `json:"variation_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Notes       string          `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
