package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
)

type PaymentRequest struct {
	UserID         uint                 `json:"user_id"`
	Method         models.PaymentMethod `json:"payment_method"`
	AmountTendered *decimal.Decimal     `json:"amount_tendered,omitempty"`
}

// Receipt is what the terminal shows after a successful payment.
type Receipt struct {
	Sale         models.Sale     `json:"sale"`
	Change       decimal.Decimal `json:"change"`
	OrderDeleted bool            `json:"order_deleted"`
	TableID      *uint           `json:"table_id,omitempty"`
}

// PaymentFinalizer turns a committed order into a sale. It must run inside
// the caller's transaction: if the sale insert fails nothing else happens.
type PaymentFinalizer struct {
	repos   *repository.Repositories
	tracker *TableTracker
}

func NewPaymentFinalizer(repos *repository.Repositories, tracker *TableTracker) *PaymentFinalizer {
	return &PaymentFinalizer{repos: repos, tracker: tracker}
}

// Finalize picks the counter or table path from the order itself.
func (p *PaymentFinalizer) Finalize(orderID uint, req PaymentRequest) (*Receipt, error) {
	order, err := p.repos.Orders.GetByIDForUpdate(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsCounter() {
		return p.finalizeCounter(order, req)
	}
	return p.finalizeTable(order, req)
}

func (p *PaymentFinalizer) FinalizeCounter(orderID uint, req PaymentRequest) (*Receipt, error) {
	order, err := p.repos.Orders.GetByIDForUpdate(orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCounter() {
		return nil, apperr.ErrInvalidTransition
	}
	return p.finalizeCounter(order, req)
}

func (p *PaymentFinalizer) FinalizeTable(orderID uint, req PaymentRequest) (*Receipt, error) {
	order, err := p.repos.Orders.GetByIDForUpdate(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsCounter() {
		return nil, apperr.ErrInvalidTransition
	}
	return p.finalizeTable(order, req)
}

// finalizeCounter records the sale and removes the order. Stock was taken
// when each item was added.
func (p *PaymentFinalizer) finalizeCounter(order *models.Order, req PaymentRequest) (*Receipt, error) {
	if order.Status.IsTerminal() {
		return nil, apperr.ErrOrderTerminal
	}
	items, err := p.repos.OrderItems.GetByOrderID(order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	if len(items) == 0 {
		return nil, apperr.ErrEmptyDraft
	}
	change, err := validatePayment(order, req)
	if err != nil {
		return nil, err
	}

	sale, err := p.writeSale(order, req)
	if err != nil {
		return nil, err
	}
	if err := p.repos.Orders.Delete(order.ID); err != nil {
		return nil, fmt.Errorf("failed to remove paid counter order: %w", err)
	}

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"sale_id":  sale.ID,
		"method":   req.Method,
		"total":    sale.TotalAmount.StringFixed(2),
	}).Info("Counter order paid")
	return &Receipt{Sale: *sale, Change: change, OrderDeleted: true}, nil
}

func (p *PaymentFinalizer) finalizeTable(order *models.Order, req PaymentRequest) (*Receipt, error) {
	if order.Status.IsTerminal() {
		return nil, apperr.ErrOrderTerminal
	}
	if order.Status != models.OrderReady {
		return nil, apperr.ErrOrderNotReady
	}
	change, err := validatePayment(order, req)
	if err != nil {
		return nil, err
	}

	sale, err := p.writeSale(order, req)
	if err != nil {
		return nil, err
	}
	if err := p.repos.Orders.UpdateStatus(order, models.OrderDelivered); err != nil {
		return nil, fmt.Errorf("failed to mark order delivered: %w", err)
	}
	if _, err := p.tracker.Recompute(*order.TableID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"table_id": *order.TableID,
		"sale_id":  sale.ID,
		"method":   req.Method,
		"total":    sale.TotalAmount.StringFixed(2),
	}).Info("Table order paid")
	return &Receipt{Sale: *sale, Change: change, TableID: order.TableID}, nil
}

func (p *PaymentFinalizer) writeSale(order *models.Order, req PaymentRequest) (*models.Sale, error) {
	sale := &models.Sale{
		OrderID:       order.ID,
		UserID:        req.UserID,
		PaymentMethod: req.Method,
		TotalAmount:   order.TotalAmount,
		Discount:      decimal.Zero,
	}
	if err := p.repos.Sales.Create(sale); err != nil {
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}
	return sale, nil
}

// validatePayment checks the method and, for cash, the tendered amount. It
// returns the change due.
func validatePayment(order *models.Order, req PaymentRequest) (decimal.Decimal, error) {
	if !req.Method.Valid() {
		return decimal.Zero, apperr.ErrInvalidPaymentMethod
	}
	if req.Method != models.PaymentCash {
		return decimal.Zero, nil
	}
	if req.AmountTendered == nil || req.AmountTendered.LessThan(order.TotalAmount) {
		return decimal.Zero, apperr.ErrInsufficientPayment
	}
	return req.AmountTendered.Sub(order.TotalAmount), nil
}
