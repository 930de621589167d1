package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles every repository over one *gorm.DB handle so that a
// whole command can run against the same transaction.
type Repositories struct {
	db *gorm.DB

	Products     ProductRepository
	Tables       TableRepository
	Orders       OrderRepository
	OrderItems   OrderItemRepository
	Sales        SaleRepository
	StockEntries StockEntryRepository
	Users        UserRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Products:     NewProductRepository(db),
		Tables:       NewTableRepository(db),
		Orders:       NewOrderRepository(db),
		OrderItems:   NewOrderItemRepository(db),
		Sales:        NewSaleRepository(db),
		StockEntries: NewStockEntryRepository(db),
		Users:        NewUserRepository(db),
	}
}

func (r *Repositories) WithContext(ctx context.Context) *Repositories {
	return New(r.db.WithContext(ctx))
}

// Transaction runs fn inside a single database transaction. Returning an
// error from fn rolls back every statement issued through tx.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
