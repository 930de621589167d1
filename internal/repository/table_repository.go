package repository

import (
	"errors"

	"gorm.io/gorm"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
)

type TableRepository interface {
	Create(table *models.Table) error
	GetByID(id uint) (*models.Table, error)
	GetAll() ([]models.Table, error)
	UpdateStatus(id uint, status models.TableStatus, currentOrderID *uint) error
}

type tableRepository struct {
	db *gorm.DB
}

func NewTableRepository(db *gorm.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) Create(table *models.Table) error {
	if table.Status == "" {
		table.Status = models.TableFree
	}
	return r.db.Create(table).Error
}

func (r *tableRepository) GetByID(id uint) (*models.Table, error) {
	var table models.Table
	err := r.db.First(&table, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrTableNotFound
		}
		return nil, err
	}
	return &table, nil
}

func (r *tableRepository) GetAll() ([]models.Table, error) {
	var tables []models.Table
	err := r.db.Order("number ASC").Find(&tables).Error
	return tables, err
}

func (r *tableRepository) UpdateStatus(id uint, status models.TableStatus, currentOrderID *uint) error {
	res := r.db.Model(&models.Table{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":           status,
		"current_order_id": currentOrderID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrTableNotFound
	}
	return nil
}
