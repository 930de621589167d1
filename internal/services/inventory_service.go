package services

import (
	"context"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
)

type PurchaseRequest struct {
	ProductID   uint            `json:"product_id" binding:"required"`
	VariationID uint            `json:"variation_id"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Supplier    *string         `json:"supplier"`
	Notes       *string         `json:"notes"`
}

// InventoryService is the stock side used by back-office screens:
// purchases, the audit trail and low-stock listings.
type InventoryService interface {
	RecordPurchase(ctx context.Context, req PurchaseRequest) (*models.StockEntry, error)
	Backfill(ctx context.Context) ([]models.StockEntry, error)
	ListStockEntries(ctx context.Context, filter repository.StockEntryFilter) ([]models.StockEntry, error)
	LowStock(ctx context.Context) ([]models.Product, error)
}

type inventoryService struct {
	repos     *repository.Repositories
	threshold int
}

func NewInventoryService(repos *repository.Repositories, threshold int) InventoryService {
	return &inventoryService{repos: repos, threshold: threshold}
}

func (s *inventoryService) RecordPurchase(ctx context.Context, req PurchaseRequest) (*models.StockEntry, error) {
	var entry *models.StockEntry
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		ref := StockRef{ProductID: req.ProductID, VariationID: req.VariationID}
		entry, err = NewStockLedger(tx, s.threshold).RecordIncrease(ref, req.Quantity, req.UnitCost, req.Supplier, req.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	if entry != nil {
		log.WithFields(log.Fields{
			"product_id": entry.ProductID,
			"quantity":   entry.Quantity,
			"total_cost": entry.TotalCost.StringFixed(2),
		}).Info("Stock purchase recorded")
	}
	return entry, nil
}

func (s *inventoryService) Backfill(ctx context.Context) ([]models.StockEntry, error) {
	var created []models.StockEntry
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		created, err = NewStockLedger(tx, s.threshold).BackfillMissingEntries()
		return err
	})
	if err != nil {
		return nil, err
	}
	log.WithField("entries", len(created)).Info("Stock entry backfill finished")
	return created, nil
}

func (s *inventoryService) ListStockEntries(ctx context.Context, filter repository.StockEntryFilter) ([]models.StockEntry, error) {
	return s.repos.WithContext(ctx).StockEntries.List(filter)
}

func (s *inventoryService) LowStock(ctx context.Context) ([]models.Product, error) {
	return s.repos.WithContext(ctx).Products.ListLowStock()
}
