package repository

import (
	"errors"

	"gorm.io/gorm"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
)

type ProductRepository interface {
	Create(product *models.Product) error
	CreateVariation(variation *models.ProductVariation) error
	GetByID(id uint) (*models.Product, error)
	GetVariation(productID, variationID uint) (*models.ProductVariation, error)
	DecrementStock(id uint, quantity int) (bool, error)
	IncrementStock(id uint, quantity int) error
	DecrementVariationStock(variationID uint, quantity int) (bool, error)
	IncrementVariationStock(variationID uint, quantity int) error
	ListLowStock() ([]models.Product, error)
	ListStockedWithoutEntries() ([]models.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepository) CreateVariation(variation *models.ProductVariation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(variation).Error; err != nil {
			return err
		}
		return tx.Model(&models.Product{}).Where("id = ?", variation.ProductID).
			Update("has_variations", true).Error
	})
}

func (r *productRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetVariation(productID, variationID uint) (*models.ProductVariation, error) {
	var variation models.ProductVariation
	err := r.db.Where("id = ? AND product_id = ?", variationID, productID).First(&variation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrProductNotFound
		}
		return nil, err
	}
	return &variation, nil
}

// DecrementStock subtracts quantity only when enough stock remains. The check
// and the write are one statement, so two terminals cannot both take the last
// unit. It returns false when nothing was updated.
func (r *productRepository) DecrementStock(id uint, quantity int) (bool, error) {
	res := r.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepository) IncrementStock(id uint, quantity int) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) DecrementVariationStock(variationID uint, quantity int) (bool, error) {
	res := r.db.Model(&models.ProductVariation{}).
		Where("id = ? AND stock >= ?", variationID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepository) IncrementVariationStock(variationID uint, quantity int) error {
	res := r.db.Model(&models.ProductVariation{}).
		Where("id = ?", variationID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) ListLowStock() ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("stock <= min_stock AND is_active = ?", true).Order("stock ASC, name ASC").Find(&products).Error
	return products, err
}

// ListStockedWithoutEntries returns products holding stock that never had a
// stock entry recorded.
func (r *productRepository) ListStockedWithoutEntries() ([]models.Product, error) {
	var products []models.Product
	err := r.db.
		Where("stock > 0 AND NOT EXISTS (SELECT 1 FROM stock_entries WHERE stock_entries.product_id = products.id)").
		Order("id ASC").
		Find(&products).Error
	return products, err
}
