// Package testutil opens throwaway databases and seeds catalog rows for
// package tests.
package testutil

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"restaurant_pos/internal/database"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
)

// OpenDB returns a migrated in-memory sqlite database private to the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps every statement, inside or outside a
	// transaction, on the same sqlite handle.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func Product(t *testing.T, db *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		CostPrice: decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		Stock:     stock,
		IsActive:  true,
	}
	if err := repository.NewProductRepository(db).Create(p); err != nil {
		t.Fatalf("product %s: %v", name, err)
	}
	return p
}

func Variation(t *testing.T, db *gorm.DB, productID uint, name, price string, stock int) *models.ProductVariation {
	t.Helper()
	v := &models.ProductVariation{
		ProductID: productID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		IsActive:  true,
	}
	if err := repository.NewProductRepository(db).CreateVariation(v); err != nil {
		t.Fatalf("variation %s: %v", name, err)
	}
	return v
}

func Table(t *testing.T, db *gorm.DB, number int) *models.Table {
	t.Helper()
	table := &models.Table{Number: number, Capacity: 4, Status: models.TableFree}
	if err := repository.NewTableRepository(db).Create(table); err != nil {
		t.Fatalf("table %d: %v", number, err)
	}
	return table
}

func User(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Name: username, PasswordHash: "x", Role: string(models.Staff), IsActive: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("user %s: %v", username, err)
	}
	return u
}

// Stock reads the current stock of a product.
func Stock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, productID).Error; err != nil {
		t.Fatalf("load product %d: %v", productID, err)
	}
	return p.Stock
}
