package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
)

// DefaultLowStockThreshold is the remaining quantity under which an add is
// reported as low stock.
const DefaultLowStockThreshold = 2

const backfillNote = "Retroactive entry for product registered without stock history"

// StockRef addresses either a product (VariationID == 0) or one of its
// variations.
type StockRef struct {
	ProductID   uint `json:"product_id"`
	VariationID uint `json:"variation_id,omitempty"`
}

func (r StockRef) IsVariation() bool {
	return r.VariationID != 0
}

func (r StockRef) variationPtr() *uint {
	if r.VariationID == 0 {
		return nil
	}
	id := r.VariationID
	return &id
}

func refOf(item models.OrderItem) StockRef {
	ref := StockRef{ProductID: item.ProductID}
	if item.VariationID != nil {
		ref.VariationID = *item.VariationID
	}
	return ref
}

// StockLevel classifies the stock left after a successful reservation.
type StockLevel string

const (
	StockOK       StockLevel = "ok"
	StockLow      StockLevel = "low"
	StockLastUnit StockLevel = "last_unit"
)

func ClassifyRemaining(remaining, threshold int) StockLevel {
	switch {
	case remaining == 0:
		return StockLastUnit
	case remaining < threshold:
		return StockLow
	default:
		return StockOK
	}
}

// CatalogItem is what the order side needs to know about a sellable product
// or variation.
type CatalogItem struct {
	Ref       StockRef
	Name      string
	UnitPrice decimal.Decimal
	CostPrice decimal.Decimal
	Stock     int
	MinStock  int
	Active    bool
}

// StockLedger owns stock counts. It works on whatever repository scope it
// was built with, so callers decide the transaction boundary.
type StockLedger struct {
	repos     *repository.Repositories
	threshold int
}

func NewStockLedger(repos *repository.Repositories, threshold int) *StockLedger {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &StockLedger{repos: repos, threshold: threshold}
}

// Lookup resolves a reference against the catalog.
func (l *StockLedger) Lookup(ref StockRef) (*CatalogItem, error) {
	product, err := l.repos.Products.GetByID(ref.ProductID)
	if err != nil {
		return nil, err
	}
	if !ref.IsVariation() {
		return &CatalogItem{
			Ref:       ref,
			Name:      product.Name,
			UnitPrice: product.Price,
			CostPrice: product.CostPrice,
			Stock:     product.Stock,
			MinStock:  product.MinStock,
			Active:    product.IsActive,
		}, nil
	}

	variation, err := l.repos.Products.GetVariation(ref.ProductID, ref.VariationID)
	if err != nil {
		return nil, err
	}
	return &CatalogItem{
		Ref:       ref,
		Name:      fmt.Sprintf("%s (%s)", product.Name, variation.Name),
		UnitPrice: variation.Price,
		CostPrice: variation.CostPrice,
		Stock:     variation.Stock,
		MinStock:  product.MinStock,
		Active:    product.IsActive && variation.IsActive,
	}, nil
}

// Reserve takes quantity units out of stock, or fails with a StockError and
// changes nothing.
func (l *StockLedger) Reserve(ref StockRef, quantity int) (StockLevel, error) {
	if quantity < 0 {
		return "", apperr.ErrInvalidQuantity
	}
	item, err := l.Lookup(ref)
	if err != nil {
		return "", err
	}
	if quantity == 0 {
		return ClassifyRemaining(item.Stock, l.threshold), nil
	}
	if item.Stock < quantity {
		return "", &apperr.StockError{ProductName: item.Name, Requested: quantity, Available: item.Stock}
	}

	var applied bool
	if ref.IsVariation() {
		applied, err = l.repos.Products.DecrementVariationStock(ref.VariationID, quantity)
	} else {
		applied, err = l.repos.Products.DecrementStock(ref.ProductID, quantity)
	}
	if err != nil {
		return "", fmt.Errorf("failed to reserve stock: %w", err)
	}
	if !applied {
		// Stock moved between the read and the conditional write.
		return "", apperr.ErrConcurrentModification
	}
	return ClassifyRemaining(item.Stock-quantity, l.threshold), nil
}

// Release puts quantity units back. There is no upper bound.
func (l *StockLedger) Release(ref StockRef, quantity int) error {
	if quantity < 0 {
		return apperr.ErrInvalidQuantity
	}
	if quantity == 0 {
		return nil
	}
	var err error
	if ref.IsVariation() {
		err = l.repos.Products.IncrementVariationStock(ref.VariationID, quantity)
	} else {
		err = l.repos.Products.IncrementStock(ref.ProductID, quantity)
	}
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return nil
}

// RecordIncrease adds stock and writes the matching audit entry.
func (l *StockLedger) RecordIncrease(ref StockRef, quantity int, unitCost decimal.Decimal, supplier, notes *string) (*models.StockEntry, error) {
	if quantity < 0 || unitCost.IsNegative() {
		return nil, apperr.ErrInvalidQuantity
	}
	if quantity == 0 {
		return nil, nil
	}
	if _, err := l.Lookup(ref); err != nil {
		return nil, err
	}
	if err := l.Release(ref, quantity); err != nil {
		return nil, err
	}

	entry := &models.StockEntry{
		ProductID:   ref.ProductID,
		VariationID: ref.variationPtr(),
		Quantity:    quantity,
		UnitCost:    unitCost,
		TotalCost:   unitCost.Mul(decimal.NewFromInt(int64(quantity))),
		Supplier:    supplier,
		Notes:       notes,
	}
	if err := l.repos.StockEntries.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to record stock entry: %w", err)
	}
	return entry, nil
}

// BackfillMissingEntries writes one retroactive entry for every product that
// holds stock but has no entry at all. The stock column is left alone since
// the units are already counted. Running it again finds nothing to do.
func (l *StockLedger) BackfillMissingEntries() ([]models.StockEntry, error) {
	products, err := l.repos.Products.ListStockedWithoutEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to list products without entries: %w", err)
	}

	notes := backfillNote
	created := make([]models.StockEntry, 0, len(products))
	for _, product := range products {
		entry := models.StockEntry{
			ProductID: product.ID,
			Quantity:  product.Stock,
			UnitCost:  product.CostPrice,
			TotalCost: product.CostPrice.Mul(decimal.NewFromInt(int64(product.Stock))),
			Notes:     &notes,
		}
		if err := l.repos.StockEntries.Create(&entry); err != nil {
			return nil, fmt.Errorf("failed to backfill product %d: %w", product.ID, err)
		}
		log.WithFields(log.Fields{"product_id": product.ID, "quantity": product.Stock}).Info("Backfilled stock entry")
		created = append(created, entry)
	}
	return created, nil
}

func (l *StockLedger) IsLow(ref StockRef) (bool, error) {
	item, err := l.Lookup(ref)
	if err != nil {
		return false, err
	}
	return item.Stock <= item.MinStock, nil
}
