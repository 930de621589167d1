package models

import "time"

type Table struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	Number         int         `json:"number" gorm:"uniqueIndex;not null"`
	Capacity       int         `json:"capacity" gorm:"not null"`
	Status         TableStatus `json:"status" gorm:"type:varchar(16);not null;default:'free'"`
	CurrentOrderID *uint       `json:"current_order_id"`
	CreatedAt      time.Time   `json:"created_at"`
}

type TableStatus string

const (
	TableFree     TableStatus = "free"
	TableOccupied TableStatus = "occupied"
	TableReserved TableStatus = "reserved"
	TableCleaning TableStatus = "cleaning"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableFree, TableOccupied, TableReserved, TableCleaning:
		return true
	}
	return false
}

// ManuallySet reports statuses that automatic recomputation never clears.
func (s TableStatus) ManuallySet() bool {
	return s == TableReserved || s == TableCleaning
}
