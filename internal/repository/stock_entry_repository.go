package repository

import (
	"time"

	"gorm.io/gorm"

	"restaurant_pos/internal/models"
)

type StockEntryFilter struct {
	ProductID *uint
	From      *time.Time
	To        *time.Time
}

type StockEntryRepository interface {
	Create(entry *models.StockEntry) error
	List(filter StockEntryFilter) ([]models.StockEntry, error)
	CountByProduct(productID uint) (int64, error)
}

type stockEntryRepository struct {
	db *gorm.DB
}

func NewStockEntryRepository(db *gorm.DB) StockEntryRepository {
	return &stockEntryRepository{db: db}
}

func (r *stockEntryRepository) Create(entry *models.StockEntry) error {
	return r.db.Create(entry).Error
}

func (r *stockEntryRepository) List(filter StockEntryFilter) ([]models.StockEntry, error) {
	var entries []models.StockEntry
	query := r.db.Model(&models.StockEntry{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	err := query.Order("created_at DESC, id DESC").Find(&entries).Error
	return entries, err
}

func (r *stockEntryRepository) CountByProduct(productID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.StockEntry{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}
