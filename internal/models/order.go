package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	TableID      *uint           `json:"table_id" gorm:"index"`
	CustomerName *string         `json:"customer_name"`
	Status       OrderStatus     `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	TotalAmount  decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null;default:0"`
	Notes        string          `json:"notes" gorm:"type:text"`
	Version      int             `json:"version" gorm:"not null;default:0"`
	CreatedAt    time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// IsCounter reports whether the order was rung up at the counter.
func (o Order) IsCounter() bool {
	return o.TableID == nil
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCanceled  OrderStatus = "canceled"
)

// ActiveOrderStatuses are the non-terminal statuses that keep a table occupied.
var ActiveOrderStatuses = []OrderStatus{OrderPending, OrderPreparing, OrderReady}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPreparing, OrderCanceled},
	OrderPreparing: {OrderReady, OrderCanceled},
	OrderReady:     {OrderDelivered, OrderCanceled},
	OrderDelivered: nil,
	OrderCanceled:  nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCanceled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
