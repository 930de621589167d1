package repository

import (
	"time"

	"gorm.io/gorm"

	"restaurant_pos/internal/models"
)

type SaleRepository interface {
	Create(sale *models.Sale) error
	GetByOrderID(orderID uint) (*models.Sale, error)
	GetByDateRange(startDate, endDate time.Time) ([]models.Sale, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(sale *models.Sale) error {
	return r.db.Create(sale).Error
}

func (r *saleRepository) GetByOrderID(orderID uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.Where("order_id = ?", orderID).First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) GetByDateRange(startDate, endDate time.Time) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.Where("created_at >= ? AND created_at < ?", startDate, endDate).Order("created_at ASC").Find(&sales).Error
	return sales, err
}
