package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
)

// UserDirectory resolves the staff member a sale is attributed to.
type UserDirectory interface {
	ActiveUser(id uint) (*models.User, error)
}

// ItemResult is returned by every item command.
type ItemResult struct {
	Level   StockLevel         `json:"stock_level"`
	OrderID *uint              `json:"order_id,omitempty"`
	Lines   []models.OrderItem `json:"lines"`
	Total   decimal.Decimal    `json:"total"`
}

type TableSelection struct {
	Table        *models.Table  `json:"table"`
	ActiveOrders []models.Order `json:"active_orders"`
	NeedsChoice  bool           `json:"needs_choice"`
}

// OrderController runs the order lifecycle for POS terminals. Each command
// that touches stored state runs in one transaction; events and stock
// alerts go out only after it commits.
type OrderController struct {
	repos     *repository.Repositories
	sessions  SessionStore
	users     UserDirectory
	events    OrderEventPublisher
	alerts    StockAlerter
	threshold int
}

func NewOrderController(repos *repository.Repositories, sessions SessionStore, users UserDirectory, events OrderEventPublisher, alerts StockAlerter, threshold int) *OrderController {
	if events == nil {
		events = NewNoopEventPublisher()
	}
	if alerts == nil {
		alerts = NewNoopStockAlerter()
	}
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &OrderController{
		repos:     repos,
		sessions:  sessions,
		users:     users,
		events:    events,
		alerts:    alerts,
		threshold: threshold,
	}
}

// txScope is the set of collaborators bound to one transaction.
type txScope struct {
	repos    *repository.Repositories
	ledger   *StockLedger
	tracker  *TableTracker
	payments *PaymentFinalizer
}

func (c *OrderController) inTx(ctx context.Context, fn func(s *txScope) error) error {
	return c.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		tracker := NewTableTracker(tx)
		return fn(&txScope{
			repos:    tx,
			ledger:   NewStockLedger(tx, c.threshold),
			tracker:  tracker,
			payments: NewPaymentFinalizer(tx, tracker),
		})
	})
}

func (c *OrderController) saveSession(ctx context.Context, session *Session) error {
	if err := c.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// dropStaleCounterOrder detaches a counter order that another terminal has
// already closed, so the next item starts a new one.
func (c *OrderController) dropStaleCounterOrder(ctx context.Context, session *Session) error {
	if !session.CounterMode() || session.OrderID == nil {
		return nil
	}
	orderID := *session.OrderID
	order, err := c.repos.WithContext(ctx).Orders.GetByID(orderID)
	switch {
	case errors.Is(err, apperr.ErrOrderNotFound):
	case err != nil:
		return err
	case !order.Status.IsTerminal():
		return nil
	}
	log.WithField("order_id", orderID).Warn("Counter order closed elsewhere, detaching session")
	session.resetOrder()
	return c.saveSession(ctx, session)
}

func (c *OrderController) notify(ctx context.Context, alerts []StockAlert, events ...OrderEvent) {
	for _, event := range events {
		c.events.Publish(ctx, event)
	}
	if len(alerts) > 0 {
		c.alerts.Notify(ctx, alerts)
	}
}

// Sessions

func (c *OrderController) CreateSession(ctx context.Context, userID uint) (*Session, error) {
	session := NewSession(userID)
	if err := c.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (c *OrderController) GetSession(ctx context.Context, id string) (*Session, error) {
	return c.sessions.Get(ctx, id)
}

// CloseSession ends a terminal session. An unpaid counter order is
// discarded; stored table orders are left for other terminals.
func (c *OrderController) CloseSession(ctx context.Context, session *Session) error {
	if err := c.dropStaleCounterOrder(ctx, session); err != nil {
		return err
	}
	if session.CounterMode() && session.OrderID != nil {
		if err := c.DiscardCounterOrder(ctx, session); err != nil && !errors.Is(err, apperr.ErrOrderNotFound) {
			return err
		}
	}
	return c.sessions.Delete(ctx, session.ID)
}

// UseCounter switches the terminal to counter sales. An unsent table draft
// is dropped.
func (c *OrderController) UseCounter(ctx context.Context, session *Session) error {
	if err := c.dropStaleCounterOrder(ctx, session); err != nil {
		return err
	}
	if session.CounterMode() {
		return nil
	}
	session.TableID = nil
	session.resetOrder()
	return c.saveSession(ctx, session)
}

// SelectTable points the terminal at a table. When the table already has
// active orders no order is started; the caller must resume one of them or
// explicitly start a new one.
func (c *OrderController) SelectTable(ctx context.Context, session *Session, tableID uint) (*TableSelection, error) {
	repos := c.repos.WithContext(ctx)
	table, err := repos.Tables.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	active, err := repos.Orders.GetActiveByTable(tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active orders: %w", err)
	}

	if err := c.dropStaleCounterOrder(ctx, session); err != nil {
		return nil, err
	}
	if session.CounterMode() && session.OrderID != nil {
		if err := c.DiscardCounterOrder(ctx, session); err != nil && !errors.Is(err, apperr.ErrOrderNotFound) {
			return nil, err
		}
	}

	session.TableID = &tableID
	session.resetOrder()
	session.AwaitingChoice = len(active) > 0
	if err := c.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return &TableSelection{Table: table, ActiveOrders: active, NeedsChoice: len(active) > 0}, nil
}

// ResumeOrder continues editing a stored table order.
func (c *OrderController) ResumeOrder(ctx context.Context, session *Session, orderID uint) (*models.Order, error) {
	order, err := c.repos.WithContext(ctx).Orders.GetWithItems(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsCounter() {
		return nil, apperr.ErrCounterOrder
	}
	if order.Status.IsTerminal() {
		return nil, apperr.ErrOrderTerminal
	}
	if session.TableID != nil && *session.TableID != *order.TableID {
		return nil, apperr.ErrOrderNotFound
	}

	session.TableID = order.TableID
	session.resetOrder()
	session.OrderID = &order.ID
	if err := c.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return order, nil
}

// StartNewTableOrder opens an empty draft for the selected table, alongside
// any orders already running there.
func (c *OrderController) StartNewTableOrder(ctx context.Context, session *Session) error {
	if session.TableID == nil {
		return apperr.ErrNoTableSelected
	}
	session.resetOrder()
	return c.saveSession(ctx, session)
}

// Item commands

// AddItem adds quantity units of a product to whatever the terminal is
// working on. Counter sales commit immediately, creating the order on the
// first item. Table drafts only change the session.
func (c *OrderController) AddItem(ctx context.Context, session *Session, ref StockRef, quantity int, notes string) (*ItemResult, error) {
	if err := c.dropStaleCounterOrder(ctx, session); err != nil {
		return nil, err
	}
	if session.AwaitingChoice {
		return nil, apperr.ErrTableHasOrders
	}
	if quantity < 1 {
		return nil, apperr.ErrInvalidQuantity
	}
	if session.HasDraft() {
		return c.editDraft(ctx, session, func(set OrderItemSet) (StockLevel, error) {
			return set.AddOrIncrement(ref, quantity, notes)
		})
	}
	return c.editCommitted(ctx, session, ref, session.CounterMode(), func(set OrderItemSet) (StockLevel, error) {
		return set.AddOrIncrement(ref, quantity, notes)
	})
}

// ChangeItemQuantity applies a signed delta to a line. A line that would
// drop below one unit is removed.
func (c *OrderController) ChangeItemQuantity(ctx context.Context, session *Session, ref StockRef, delta int) (*ItemResult, error) {
	if err := c.dropStaleCounterOrder(ctx, session); err != nil {
		return nil, err
	}
	if session.AwaitingChoice {
		return nil, apperr.ErrTableHasOrders
	}
	if session.HasDraft() {
		return c.editDraft(ctx, session, func(set OrderItemSet) (StockLevel, error) {
			return set.ChangeQuantity(ref, delta)
		})
	}
	return c.editCommitted(ctx, session, ref, false, func(set OrderItemSet) (StockLevel, error) {
		return set.ChangeQuantity(ref, delta)
	})
}

func (c *OrderController) RemoveItem(ctx context.Context, session *Session, ref StockRef) (*ItemResult, error) {
	if err := c.dropStaleCounterOrder(ctx, session); err != nil {
		return nil, err
	}
	if session.AwaitingChoice {
		return nil, apperr.ErrTableHasOrders
	}
	remove := func(set OrderItemSet) (StockLevel, error) {
		return StockOK, set.Remove(ref)
	}
	if session.HasDraft() {
		return c.editDraft(ctx, session, remove)
	}
	return c.editCommitted(ctx, session, ref, false, remove)
}

func (c *OrderController) editDraft(ctx context.Context, session *Session, edit func(OrderItemSet) (StockLevel, error)) (*ItemResult, error) {
	ledger := NewStockLedger(c.repos.WithContext(ctx), c.threshold)
	draft := NewDraftItemSet(ledger, session.Draft, c.threshold)
	level, err := edit(draft)
	if err != nil {
		return nil, err
	}
	session.Draft = draft.Lines()
	if err := c.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return &ItemResult{Level: level, Lines: session.Draft, Total: draft.Total()}, nil
}

func (c *OrderController) editCommitted(ctx context.Context, session *Session, ref StockRef, createCounter bool, edit func(OrderItemSet) (StockLevel, error)) (*ItemResult, error) {
	if session.OrderID == nil && !createCounter {
		return nil, apperr.ErrNoActiveOrder
	}

	var (
		order   *models.Order
		result  ItemResult
		created bool
	)
	err := c.inTx(ctx, func(s *txScope) error {
		var err error
		if session.OrderID == nil {
			order = &models.Order{Status: models.OrderPending, TotalAmount: decimal.Zero}
			if err := s.repos.Orders.Create(order); err != nil {
				return fmt.Errorf("failed to create counter order: %w", err)
			}
			created = true
		} else if order, err = s.repos.Orders.GetByIDForUpdate(*session.OrderID); err != nil {
			return err
		}

		set, err := newCommittedItemSet(s.repos, s.ledger, order)
		if err != nil {
			return err
		}
		level, err := edit(set)
		if err != nil {
			return err
		}
		result = ItemResult{Level: level, OrderID: &order.ID, Lines: set.Lines(), Total: set.Total()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var events []OrderEvent
	if created {
		session.OrderID = &order.ID
		if err := c.saveSession(ctx, session); err != nil {
			return nil, err
		}
		log.WithField("order_id", order.ID).Info("Counter order created")
		events = append(events, newOrderEvent(EventOrderCreated, order))
	}
	events = append(events, newOrderEvent(EventOrderUpdated, order))

	var alerts []StockAlert
	if result.Level == StockLow || result.Level == StockLastUnit {
		for _, line := range result.Lines {
			if refOf(line) == ref {
				alerts = append(alerts, StockAlert{Ref: ref, Name: line.Name, Level: result.Level})
				break
			}
		}
	}
	c.notify(ctx, alerts, events...)
	return &result, nil
}

// SendToKitchen commits the table draft: the order row, its items, one
// reservation per line and the table status all land in one transaction.
func (c *OrderController) SendToKitchen(ctx context.Context, session *Session) (*models.Order, error) {
	if session.TableID == nil {
		return nil, apperr.ErrNoTableSelected
	}
	if session.AwaitingChoice {
		return nil, apperr.ErrTableHasOrders
	}
	if !session.HasDraft() || len(session.Draft) == 0 {
		return nil, apperr.ErrEmptyDraft
	}

	tableID := *session.TableID
	var (
		order  *models.Order
		alerts []StockAlert
	)
	err := c.inTx(ctx, func(s *txScope) error {
		if _, err := s.repos.Tables.GetByID(tableID); err != nil {
			return err
		}
		order = &models.Order{TableID: &tableID, Status: models.OrderPending, TotalAmount: decimal.Zero}
		if err := s.repos.Orders.Create(order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		set, err := newCommittedItemSet(s.repos, s.ledger, order)
		if err != nil {
			return err
		}
		if alerts, err = set.commitDraft(session.Draft); err != nil {
			return err
		}
		order.Items = set.Lines()
		_, err = s.tracker.OccupyOnSend(tableID)
		return err
	})
	if err != nil {
		return nil, err
	}

	session.resetOrder()
	session.OrderID = &order.ID
	if err := c.saveSession(ctx, session); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"table_id": tableID,
		"items":    len(order.Items),
		"total":    order.TotalAmount.StringFixed(2),
	}).Info("Order sent to kitchen")
	c.notify(ctx, alerts, newOrderEvent(EventOrderCreated, order), newOrderEvent(EventOrderSent, order))
	return order, nil
}

// Order commands

// AdvanceStatus moves a table order along pending, preparing and ready.
// Delivery only happens through payment and cancellation through Cancel.
func (c *OrderController) AdvanceStatus(ctx context.Context, orderID uint, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() || next == models.OrderDelivered || next == models.OrderCanceled {
		return nil, apperr.ErrInvalidTransition
	}

	var order *models.Order
	err := c.inTx(ctx, func(s *txScope) error {
		var err error
		if order, err = s.repos.Orders.GetByIDForUpdate(orderID); err != nil {
			return err
		}
		if order.IsCounter() {
			return apperr.ErrCounterOrder
		}
		if order.Status.IsTerminal() {
			return apperr.ErrOrderTerminal
		}
		if !order.Status.CanTransitionTo(next) {
			return apperr.ErrInvalidTransition
		}
		return s.repos.Orders.UpdateStatus(order, next)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"order_id": order.ID, "status": order.Status}).Info("Order status changed")
	c.notify(ctx, nil, newOrderEvent(EventOrderStatusChanged, order))
	return order, nil
}

// CancelOrder returns every line's stock and marks the order canceled.
func (c *OrderController) CancelOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := c.inTx(ctx, func(s *txScope) error {
		var err error
		if order, err = s.repos.Orders.GetByIDForUpdate(orderID); err != nil {
			return err
		}
		set, err := newCommittedItemSet(s.repos, s.ledger, order)
		if err != nil {
			return err
		}
		if err := set.releaseAll(); err != nil {
			return err
		}
		if err := s.repos.Orders.UpdateStatus(order, models.OrderCanceled); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
		if order.TableID != nil {
			_, err = s.tracker.Recompute(*order.TableID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"order_id": order.ID, "table_id": order.TableID}).Info("Order canceled")
	c.notify(ctx, nil, newOrderEvent(EventOrderCanceled, order))
	return order, nil
}

// Cancel cancels what the terminal is working on. An unsent draft is simply
// dropped.
func (c *OrderController) Cancel(ctx context.Context, session *Session) (*models.Order, error) {
	if err := c.dropStaleCounterOrder(ctx, session); err != nil {
		return nil, err
	}
	if session.HasDraft() {
		session.resetOrder()
		return nil, c.saveSession(ctx, session)
	}
	if session.OrderID == nil {
		return nil, apperr.ErrNoActiveOrder
	}
	order, err := c.CancelOrder(ctx, *session.OrderID)
	if err != nil {
		return nil, err
	}
	session.resetOrder()
	return order, c.saveSession(ctx, session)
}

// PayOrder finalizes a stored order into a sale attributed to the user in
// req.
func (c *OrderController) PayOrder(ctx context.Context, orderID uint, req PaymentRequest) (*Receipt, error) {
	if c.users != nil {
		if _, err := c.users.ActiveUser(req.UserID); err != nil {
			return nil, err
		}
	}

	var (
		receipt *Receipt
		order   *models.Order
	)
	err := c.inTx(ctx, func(s *txScope) error {
		var err error
		if receipt, err = s.payments.Finalize(orderID, req); err != nil {
			return err
		}
		order = &models.Order{
			ID:          orderID,
			TableID:     receipt.TableID,
			Status:      models.OrderDelivered,
			TotalAmount: receipt.Sale.TotalAmount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.notify(ctx, nil, newOrderEvent(EventOrderPaid, order))
	return receipt, nil
}

// Pay finalizes the terminal's current order. The session user is used
// when req carries none.
func (c *OrderController) Pay(ctx context.Context, session *Session, req PaymentRequest) (*Receipt, error) {
	if err := c.dropStaleCounterOrder(ctx, session); err != nil {
		return nil, err
	}
	if session.OrderID == nil {
		if session.HasDraft() && len(session.Draft) > 0 {
			return nil, apperr.ErrOrderNotReady
		}
		return nil, apperr.ErrNoActiveOrder
	}
	if req.UserID == 0 {
		req.UserID = session.UserID
	}
	receipt, err := c.PayOrder(ctx, *session.OrderID, req)
	if err != nil {
		return nil, err
	}
	session.resetOrder()
	return receipt, c.saveSession(ctx, session)
}

// DiscardCounterOrder drops an unpaid counter order: stock comes back and
// the order and its items are deleted.
func (c *OrderController) DiscardCounterOrder(ctx context.Context, session *Session) error {
	if !session.CounterMode() || session.OrderID == nil {
		return apperr.ErrNoActiveOrder
	}
	orderID := *session.OrderID

	var order *models.Order
	err := c.inTx(ctx, func(s *txScope) error {
		var err error
		if order, err = s.repos.Orders.GetByIDForUpdate(orderID); err != nil {
			return err
		}
		if !order.IsCounter() {
			return apperr.ErrInvalidTransition
		}
		set, err := newCommittedItemSet(s.repos, s.ledger, order)
		if err != nil {
			return err
		}
		if err := set.releaseAll(); err != nil {
			return err
		}
		return s.repos.Orders.Delete(order.ID)
	})
	if err != nil {
		return err
	}

	log.WithField("order_id", orderID).Info("Counter order discarded")
	c.notify(ctx, nil, newOrderEvent(EventOrderDiscarded, order))
	session.resetOrder()
	return c.saveSession(ctx, session)
}

// Queries

func (c *OrderController) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return c.repos.WithContext(ctx).Orders.GetWithItems(orderID)
}

func (c *OrderController) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	return c.repos.WithContext(ctx).Orders.List(filter)
}

// KitchenQueue lists table orders still being worked on. Counter orders
// never show up here.
func (c *OrderController) KitchenQueue(ctx context.Context) ([]models.Order, error) {
	return c.repos.WithContext(ctx).Orders.List(repository.OrderFilter{TableOnly: true, Active: true})
}

func (c *OrderController) ListTables(ctx context.Context) ([]models.Table, error) {
	return c.repos.WithContext(ctx).Tables.GetAll()
}

// SetTableStatus records a manual table status (free, reserved, cleaning).
func (c *OrderController) SetTableStatus(ctx context.Context, tableID uint, status models.TableStatus) (*models.Table, error) {
	var table *models.Table
	err := c.inTx(ctx, func(s *txScope) error {
		var err error
		table, err = s.tracker.SetManual(tableID, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"table_id": tableID, "status": status}).Info("Table status set")
	return table, nil
}

func (c *OrderController) ActiveOrdersForTable(ctx context.Context, tableID uint) ([]models.Order, error) {
	repos := c.repos.WithContext(ctx)
	if _, err := repos.Tables.GetByID(tableID); err != nil {
		return nil, err
	}
	return repos.Orders.GetActiveByTable(tableID)
}
