package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
)

// CatalogLookup resolves a product or variation to its current catalog data.
type CatalogLookup interface {
	Lookup(ref StockRef) (*CatalogItem, error)
}

// OrderItemSet is the line list of one order. A draft lives in memory only,
// a committed set is backed by order_items and the stock ledger.
type OrderItemSet interface {
	AddOrIncrement(ref StockRef, delta int, notes string) (StockLevel, error)
	ChangeQuantity(ref StockRef, delta int) (StockLevel, error)
	Remove(ref StockRef) error
	Lines() []models.OrderItem
	Total() decimal.Decimal
}

// lineList holds the list editing rules shared by both set kinds.
type lineList struct {
	lines []models.OrderItem
}

func (l *lineList) index(ref StockRef) int {
	for i := range l.lines {
		if refOf(l.lines[i]) == ref {
			return i
		}
	}
	return -1
}

func (l *lineList) quantityOf(ref StockRef) int {
	if i := l.index(ref); i >= 0 {
		return l.lines[i].Quantity
	}
	return 0
}

// addOrIncrement bumps an existing line or appends a new one priced at the
// catalog price. It returns the index of the touched line.
func (l *lineList) addOrIncrement(item *CatalogItem, delta int, notes string) int {
	if i := l.index(item.Ref); i >= 0 {
		l.lines[i].Quantity += delta
		if notes != "" {
			l.lines[i].Notes = notes
		}
		return i
	}
	l.lines = append(l.lines, models.OrderItem{
		ProductID:   item.Ref.ProductID,
		VariationID: item.Ref.variationPtr(),
		Name:        item.Name,
		Quantity:    delta,
		UnitPrice:   item.UnitPrice,
		Notes:       notes,
	})
	return len(l.lines) - 1
}

// change applies delta to a line. A line that would drop below one unit is
// removed instead. It returns the line as it was before the change.
func (l *lineList) change(ref StockRef, delta int) (before models.OrderItem, removed bool, err error) {
	i := l.index(ref)
	if i < 0 {
		return models.OrderItem{}, false, apperr.ErrItemNotInOrder
	}
	before = l.lines[i]
	if before.Quantity+delta < 1 {
		l.lines = append(l.lines[:i], l.lines[i+1:]...)
		return before, true, nil
	}
	l.lines[i].Quantity += delta
	return before, false, nil
}

func (l *lineList) remove(ref StockRef) (models.OrderItem, error) {
	i := l.index(ref)
	if i < 0 {
		return models.OrderItem{}, apperr.ErrItemNotInOrder
	}
	line := l.lines[i]
	l.lines = append(l.lines[:i], l.lines[i+1:]...)
	return line, nil
}

func (l *lineList) snapshot() []models.OrderItem {
	out := make([]models.OrderItem, len(l.lines))
	copy(out, l.lines)
	return out
}

// total is always summed from scratch.
func (l *lineList) total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

func sellable(catalog CatalogLookup, ref StockRef) (*CatalogItem, error) {
	item, err := catalog.Lookup(ref)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, apperr.ErrProductInactive
	}
	return item, nil
}

// DraftItemSet is the unsent cart of a table order. Nothing is reserved yet,
// so every increase is checked against live stock minus what the draft
// already holds.
type DraftItemSet struct {
	list      lineList
	catalog   CatalogLookup
	threshold int
}

func NewDraftItemSet(catalog CatalogLookup, lines []models.OrderItem, threshold int) *DraftItemSet {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	set := &DraftItemSet{catalog: catalog, threshold: threshold}
	set.list.lines = append(set.list.lines, lines...)
	return set
}

func (d *DraftItemSet) AddOrIncrement(ref StockRef, delta int, notes string) (StockLevel, error) {
	if delta < 1 {
		return "", apperr.ErrInvalidQuantity
	}
	item, err := sellable(d.catalog, ref)
	if err != nil {
		return "", err
	}
	wanted := d.list.quantityOf(ref) + delta
	if wanted > item.Stock {
		return "", &apperr.StockError{ProductName: item.Name, Requested: wanted, Available: item.Stock}
	}
	d.list.addOrIncrement(item, delta, notes)
	return ClassifyRemaining(item.Stock-wanted, d.threshold), nil
}

func (d *DraftItemSet) ChangeQuantity(ref StockRef, delta int) (StockLevel, error) {
	if delta > 0 {
		if d.list.index(ref) < 0 {
			return "", apperr.ErrItemNotInOrder
		}
		return d.AddOrIncrement(ref, delta, "")
	}
	if delta == 0 {
		return StockOK, nil
	}
	if _, _, err := d.list.change(ref, delta); err != nil {
		return "", err
	}
	return StockOK, nil
}

func (d *DraftItemSet) Remove(ref StockRef) error {
	_, err := d.list.remove(ref)
	return err
}

func (d *DraftItemSet) Lines() []models.OrderItem {
	return d.list.snapshot()
}

func (d *DraftItemSet) Total() decimal.Decimal {
	return d.list.total()
}

// committedItemSet edits the items of a stored order. Every method reserves
// or releases the stock delta, writes the item row and re-persists the order
// total; callers run it inside one transaction so the three land together.
type committedItemSet struct {
	list   lineList
	order  *models.Order
	repos  *repository.Repositories
	ledger *StockLedger
}

func newCommittedItemSet(repos *repository.Repositories, ledger *StockLedger, order *models.Order) (*committedItemSet, error) {
	if order.Status.IsTerminal() {
		return nil, apperr.ErrOrderTerminal
	}
	items, err := repos.OrderItems.GetByOrderID(order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	set := &committedItemSet{order: order, repos: repos, ledger: ledger}
	set.list.lines = items
	return set, nil
}

func (c *committedItemSet) AddOrIncrement(ref StockRef, delta int, notes string) (StockLevel, error) {
	if delta < 1 {
		return "", apperr.ErrInvalidQuantity
	}
	item, err := sellable(c.ledger, ref)
	if err != nil {
		return "", err
	}
	level, err := c.ledger.Reserve(ref, delta)
	if err != nil {
		return "", err
	}

	i := c.list.addOrIncrement(item, delta, notes)
	line := &c.list.lines[i]
	if line.ID == 0 {
		line.OrderID = c.order.ID
		if err := c.repos.OrderItems.Create(line); err != nil {
			return "", fmt.Errorf("failed to add order item: %w", err)
		}
	} else if err := c.repos.OrderItems.UpdateLine(line.ID, line.Quantity, line.Notes); err != nil {
		return "", fmt.Errorf("failed to update order item: %w", err)
	}
	return level, c.persistTotal()
}

func (c *committedItemSet) ChangeQuantity(ref StockRef, delta int) (StockLevel, error) {
	if delta > 0 {
		if c.list.index(ref) < 0 {
			return "", apperr.ErrItemNotInOrder
		}
		return c.AddOrIncrement(ref, delta, "")
	}
	if delta == 0 {
		return StockOK, nil
	}

	before, removed, err := c.list.change(ref, delta)
	if err != nil {
		return "", err
	}
	if removed {
		if err := c.ledger.Release(ref, before.Quantity); err != nil {
			return "", err
		}
		if err := c.repos.OrderItems.Delete(before.ID); err != nil {
			return "", fmt.Errorf("failed to delete order item: %w", err)
		}
	} else {
		if err := c.ledger.Release(ref, -delta); err != nil {
			return "", err
		}
		if err := c.repos.OrderItems.UpdateQuantity(before.ID, before.Quantity+delta); err != nil {
			return "", fmt.Errorf("failed to update order item: %w", err)
		}
	}
	return StockOK, c.persistTotal()
}

func (c *committedItemSet) Remove(ref StockRef) error {
	line, err := c.list.remove(ref)
	if err != nil {
		return err
	}
	if err := c.ledger.Release(ref, line.Quantity); err != nil {
		return err
	}
	if err := c.repos.OrderItems.Delete(line.ID); err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	return c.persistTotal()
}

// commitDraft moves draft lines onto the order, keeping the prices captured
// when they were added to the draft. A product deactivated since then
// fails the whole commit.
func (c *committedItemSet) commitDraft(lines []models.OrderItem) ([]StockAlert, error) {
	var alerts []StockAlert
	for _, draft := range lines {
		ref := refOf(draft)
		if _, err := sellable(c.ledger, ref); err != nil {
			return nil, err
		}
		level, err := c.ledger.Reserve(ref, draft.Quantity)
		if err != nil {
			return nil, err
		}
		if level != StockOK {
			alerts = append(alerts, StockAlert{Ref: ref, Name: draft.Name, Level: level})
		}
		line := models.OrderItem{
			OrderID:     c.order.ID,
			ProductID:   draft.ProductID,
			VariationID: draft.VariationID,
			Name:        draft.Name,
			Quantity:    draft.Quantity,
			UnitPrice:   draft.UnitPrice,
			Notes:       draft.Notes,
		}
		if err := c.repos.OrderItems.Create(&line); err != nil {
			return nil, fmt.Errorf("failed to add order item: %w", err)
		}
		c.list.lines = append(c.list.lines, line)
	}
	return alerts, c.persistTotal()
}

// releaseAll returns every line's stock, used by cancel and discard.
func (c *committedItemSet) releaseAll() error {
	for _, line := range c.list.lines {
		if err := c.ledger.Release(refOf(line), line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (c *committedItemSet) persistTotal() error {
	if err := c.repos.Orders.UpdateTotal(c.order, c.list.total()); err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
	}
	return nil
}

func (c *committedItemSet) Lines() []models.OrderItem {
	return c.list.snapshot()
}

func (c *committedItemSet) Total() decimal.Decimal {
	return c.list.total()
}
