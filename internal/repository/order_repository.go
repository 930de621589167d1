package repository

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
)

// OrderFilter narrows order listings. Zero values are ignored.
type OrderFilter struct {
	TableID   *uint
	Status    models.OrderStatus
	From      *time.Time
	To        *time.Time
	TableOnly bool
	Active    bool
}

type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	GetWithItems(id uint) (*models.Order, error)
	UpdateTotal(order *models.Order, total decimal.Decimal) error
	UpdateStatus(order *models.Order, status models.OrderStatus) error
	Delete(id uint) error
	GetActiveByTable(tableID uint) ([]models.Order, error)
	List(filter OrderFilter) ([]models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	return r.db.Omit(clause.Associations).Create(order).Error
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate locks the order row for the rest of the transaction on
// stores that support row locks.
func (r *orderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetWithItems(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateTotal writes the recomputed total only if nobody else has touched the
// order since it was read.
func (r *orderRepository) UpdateTotal(order *models.Order, total decimal.Decimal) error {
	now := time.Now()
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"total_amount": total,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConcurrentModification
	}
	order.TotalAmount = total
	order.Version++
	order.UpdatedAt = now
	return nil
}

func (r *orderRepository) UpdateStatus(order *models.Order, status models.OrderStatus) error {
	now := time.Now()
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":     status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConcurrentModification
	}
	order.Status = status
	order.Version++
	order.UpdatedAt = now
	return nil
}

// Delete removes the order together with its items.
func (r *orderRepository) Delete(id uint) error {
	if err := r.db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	res := r.db.Delete(&models.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) GetActiveByTable(tableID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("table_id = ? AND status IN ?", tableID, models.ActiveOrderStatuses).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) List(filter OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.TableID != nil {
		query = query.Where("table_id = ?", *filter.TableID)
	}
	if filter.TableOnly {
		query = query.Where("table_id IS NOT NULL")
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else if filter.Active {
		query = query.Where("status IN ?", models.ActiveOrderStatuses)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	err := query.Order("created_at ASC, id ASC").Find(&orders).Error
	return orders, err
}
