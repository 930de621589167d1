package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
	"restaurant_pos/internal/testutil"
)

type recordingPublisher struct {
	events []OrderEvent
}

func (r *recordingPublisher) Publish(_ context.Context, event OrderEvent) {
	r.events = append(r.events, event)
}

func (r *recordingPublisher) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingAlerter struct {
	alerts []StockAlert
}

func (r *recordingAlerter) Notify(_ context.Context, alerts []StockAlert) {
	r.alerts = append(r.alerts, alerts...)
}

type harness struct {
	ctx     context.Context
	db      *gorm.DB
	repos   *repository.Repositories
	ctrl    *OrderController
	events  *recordingPublisher
	alerts  *recordingAlerter
	cashier *models.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	events := &recordingPublisher{}
	alerts := &recordingAlerter{}
	return &harness{
		ctx:     context.Background(),
		db:      db,
		repos:   repos,
		ctrl:    NewOrderController(repos, NewMemorySessionStore(), NewUserService(repos.Users), events, alerts, DefaultLowStockThreshold),
		events:  events,
		alerts:  alerts,
		cashier: testutil.User(t, db, "cashier"),
	}
}

func (h *harness) session(t *testing.T) *Session {
	t.Helper()
	s, err := h.ctrl.CreateSession(h.ctx, h.cashier.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func (h *harness) order(t *testing.T, id uint) *models.Order {
	t.Helper()
	o, err := h.repos.Orders.GetWithItems(id)
	if err != nil {
		t.Fatalf("load order %d: %v", id, err)
	}
	return o
}

func (h *harness) table(t *testing.T, id uint) *models.Table {
	t.Helper()
	table, err := h.repos.Tables.GetByID(id)
	if err != nil {
		t.Fatalf("load table %d: %v", id, err)
	}
	return table
}

func (h *harness) saleCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(&models.Sale{}).Count(&n).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	return n
}

// sentTableOrder builds a table order through the terminal flow and returns it.
func (h *harness) sentTableOrder(t *testing.T, tableID uint, lines map[uint]int) *models.Order {
	t.Helper()
	s := h.session(t)
	if _, err := h.ctrl.SelectTable(h.ctx, s, tableID); err != nil {
		t.Fatalf("select table: %v", err)
	}
	if s.AwaitingChoice {
		if err := h.ctrl.StartNewTableOrder(h.ctx, s); err != nil {
			t.Fatalf("new order: %v", err)
		}
	}
	for productID, qty := range lines {
		if _, err := h.ctrl.AddItem(h.ctx, s, StockRef{ProductID: productID}, qty, ""); err != nil {
			t.Fatalf("draft add %d: %v", productID, err)
		}
	}
	order, err := h.ctrl.SendToKitchen(h.ctx, s)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	return order
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertTotalMatchesItems checks the stored total against its stored items.
func assertTotalMatchesItems(t *testing.T, h *harness, orderID uint) {
	t.Helper()
	o := h.order(t, orderID)
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal())
	}
	if !o.TotalAmount.Equal(sum) {
		t.Fatalf("order %d total %s, items sum to %s", orderID, o.TotalAmount, sum)
	}
}
