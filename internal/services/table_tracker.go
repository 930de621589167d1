package services

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
)

// TableTracker derives a table's occupancy from its active orders. It is
// only called for table orders.
type TableTracker struct {
	repos *repository.Repositories
}

func NewTableTracker(repos *repository.Repositories) *TableTracker {
	return &TableTracker{repos: repos}
}

// Recompute marks the table occupied while any of its orders is pending,
// preparing or ready. Without active orders a reserved or cleaning table
// keeps its status and anything else goes back to free.
func (t *TableTracker) Recompute(tableID uint) (*models.Table, error) {
	table, err := t.repos.Tables.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	active, err := t.repos.Orders.GetActiveByTable(tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active orders: %w", err)
	}

	status := table.Status
	var current *uint
	switch {
	case len(active) > 0:
		status = models.TableOccupied
		id := active[0].ID
		current = &id
	case table.Status.ManuallySet():
	default:
		status = models.TableFree
	}

	if status == table.Status && samePtr(current, table.CurrentOrderID) {
		return table, nil
	}
	if err := t.repos.Tables.UpdateStatus(tableID, status, current); err != nil {
		return nil, fmt.Errorf("failed to update table status: %w", err)
	}
	log.WithFields(log.Fields{
		"table_id": tableID,
		"from":     table.Status,
		"to":       status,
	}).Debug("Table status recomputed")

	table.Status = status
	table.CurrentOrderID = current
	return table, nil
}

// OccupyOnSend runs when a new order reaches the kitchen. Only a free table
// flips to occupied; an occupied one gets its current order refreshed and a
// reserved or cleaning table is left as staff set it.
func (t *TableTracker) OccupyOnSend(tableID uint) (*models.Table, error) {
	table, err := t.repos.Tables.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	if table.Status != models.TableFree && table.Status != models.TableOccupied {
		log.WithFields(log.Fields{"table_id": tableID, "status": table.Status}).Debug("Table status kept on send")
		return table, nil
	}
	return t.Recompute(tableID)
}

// SetManual applies a status set by staff, such as reserving a table or
// marking it for cleaning. Occupied is never set by hand, and a table with
// active orders keeps its derived status.
func (t *TableTracker) SetManual(tableID uint, status models.TableStatus) (*models.Table, error) {
	if !status.Valid() || status == models.TableOccupied {
		return nil, apperr.ErrInvalidTransition
	}
	table, err := t.repos.Tables.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	active, err := t.repos.Orders.GetActiveByTable(tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active orders: %w", err)
	}
	if len(active) > 0 {
		return nil, apperr.ErrTableHasOrders
	}
	if err := t.repos.Tables.UpdateStatus(tableID, status, nil); err != nil {
		return nil, fmt.Errorf("failed to update table status: %w", err)
	}
	table.Status = status
	table.CurrentOrderID = nil
	return table, nil
}

func samePtr(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
