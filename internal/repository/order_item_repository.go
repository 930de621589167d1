package repository

import (
	"gorm.io/gorm"

	"restaurant_pos/internal/models"
)

type OrderItemRepository interface {
	Create(orderItem *models.OrderItem) error
	GetByOrderID(orderID uint) ([]models.OrderItem, error)
	UpdateQuantity(id uint, quantity int) error
	UpdateLine(id uint, quantity int, notes string) error
	Delete(id uint) error
}

type orderItemRepository struct {
	db *gorm.DB
}

func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) Create(orderItem *models.OrderItem) error {
	return r.db.Create(orderItem).Error
}

func (r *orderItemRepository) GetByOrderID(orderID uint) ([]models.OrderItem, error) {
	var orderItems []models.OrderItem
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&orderItems).Error
	if err != nil {
		return nil, err
	}
	return orderItems, nil
}

func (r *orderItemRepository) UpdateQuantity(id uint, quantity int) error {
	return r.db.Model(&models.OrderItem{}).Where("id = ?", id).Update("quantity", quantity).Error
}

// UpdateLine writes quantity and notes together.
func (r *orderItemRepository) UpdateLine(id uint, quantity int, notes string) error {
	return r.db.Model(&models.OrderItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity": quantity,
		"notes":    notes,
	}).Error
}

func (r *orderItemRepository) Delete(id uint) error {
	return r.db.Delete(&models.OrderItem{}, id).Error
}
