package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is written once when an order is paid and never updated.
type Sale struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	OrderID       uint            `json:"order_id" gorm:"index;not null"`
	UserID        uint            `json:"user_id" gorm:"index;not null"`
	PaymentMethod PaymentMethod   `json:"payment_method" gorm:"type:varchar(16);not null"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Discount      decimal.Decimal `json:"discount" gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
}

type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentMpesa   PaymentMethod = "mpesa"
	PaymentEmola   PaymentMethod = "emola"
	PaymentCard    PaymentMethod = "card"
	PaymentPonto24 PaymentMethod = "ponto24"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentMpesa, PaymentEmola, PaymentCard, PaymentPonto24:
		return true
	}
	return false
}
