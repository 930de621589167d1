package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
	"restaurant_pos/internal/testutil"
)

func TestDecrementStockIsConditional(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	p := testutil.Product(t, db, "Cola", "2.00", 3)

	ok, err := repos.Products.DecrementStock(p.ID, 2)
	if err != nil || !ok {
		t.Fatalf("decrement 2 of 3: ok=%v err=%v", ok, err)
	}
	ok, err = repos.Products.DecrementStock(p.ID, 2)
	if err != nil || ok {
		t.Fatalf("decrement 2 of 1 should not apply: ok=%v err=%v", ok, err)
	}
	if got := testutil.Stock(t, db, p.ID); got != 1 {
		t.Fatalf("stock %d want 1", got)
	}
	if err := repos.Products.IncrementStock(999, 1); !errors.Is(err, apperr.ErrProductNotFound) {
		t.Fatalf("increment unknown: %v", err)
	}
}

func TestOrderVersionConflict(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	order := &models.Order{}
	if err := repos.Orders.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.Status != models.OrderPending {
		t.Fatalf("status %s want pending", order.Status)
	}

	first, _ := repos.Orders.GetByID(order.ID)
	stale, _ := repos.Orders.GetByID(order.ID)
	if err := repos.Orders.UpdateTotal(first, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repos.Orders.UpdateTotal(stale, decimal.NewFromInt(20)); !errors.Is(err, apperr.ErrConcurrentModification) {
		t.Fatalf("stale update: %v", err)
	}
	if err := repos.Orders.UpdateStatus(stale, models.OrderCanceled); !errors.Is(err, apperr.ErrConcurrentModification) {
		t.Fatalf("stale status update: %v", err)
	}

	stored, _ := repos.Orders.GetByID(order.ID)
	if !stored.TotalAmount.Equal(decimal.NewFromInt(10)) || stored.Version != 1 {
		t.Fatalf("unexpected stored order: %+v", stored)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	p := testutil.Product(t, db, "Cola", "2.00", 3)
	boom := errors.New("boom")

	err := repos.Transaction(context.Background(), func(tx *repository.Repositories) error {
		if _, err := tx.Products.DecrementStock(p.ID, 3); err != nil {
			return err
		}
		if err := tx.Orders.Create(&models.Order{}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := testutil.Stock(t, db, p.ID); got != 3 {
		t.Fatalf("stock %d want 3", got)
	}
	var n int64
	db.Model(&models.Order{}).Count(&n)
	if n != 0 {
		t.Fatalf("order survived rollback")
	}
}

func TestOrderDeleteRemovesItems(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	p := testutil.Product(t, db, "Cola", "2.00", 3)
	order := &models.Order{}
	if err := repos.Orders.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}
	item := &models.OrderItem{OrderID: order.ID, ProductID: p.ID, Name: "Cola", Quantity: 1, UnitPrice: p.Price}
	if err := repos.OrderItems.Create(item); err != nil {
		t.Fatalf("item: %v", err)
	}

	if err := repos.Orders.Delete(order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, err := repos.OrderItems.GetByOrderID(order.ID)
	if err != nil || len(items) != 0 {
		t.Fatalf("items %d err %v", len(items), err)
	}
	if err := repos.Orders.Delete(order.ID); !errors.Is(err, apperr.ErrOrderNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestOrderListFilters(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	t1 := testutil.Table(t, db, 1)
	t2 := testutil.Table(t, db, 2)

	orders := []*models.Order{
		{TableID: &t1.ID, Status: models.OrderPending},
		{TableID: &t1.ID, Status: models.OrderDelivered},
		{TableID: &t2.ID, Status: models.OrderReady},
		{Status: models.OrderPending},
	}
	for _, o := range orders {
		if err := repos.Orders.Create(o); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cases := []struct {
		name   string
		filter repository.OrderFilter
		want   int
	}{
		{"all", repository.OrderFilter{}, 4},
		{"table", repository.OrderFilter{TableID: &t1.ID}, 2},
		{"table only", repository.OrderFilter{TableOnly: true}, 3},
		{"kitchen", repository.OrderFilter{TableOnly: true, Active: true}, 2},
		{"status", repository.OrderFilter{Status: models.OrderPending}, 2},
		{"status wins over active", repository.OrderFilter{Status: models.OrderDelivered, Active: true}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repos.Orders.List(tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d orders want %d", len(got), tc.want)
			}
		})
	}

	future := time.Now().Add(time.Hour)
	got, err := repos.Orders.List(repository.OrderFilter{From: &future})
	if err != nil || len(got) != 0 {
		t.Fatalf("future range: %d err %v", len(got), err)
	}

	active, err := repos.Orders.GetActiveByTable(t1.ID)
	if err != nil || len(active) != 1 || active[0].ID != orders[0].ID {
		t.Fatalf("active for table: %+v err %v", active, err)
	}
}

func TestListStockedWithoutEntries(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	legacy := testutil.Product(t, db, "Legacy", "1.00", 5)
	testutil.Product(t, db, "Empty", "1.00", 0)
	tracked := testutil.Product(t, db, "Tracked", "1.00", 5)
	entry := &models.StockEntry{ProductID: tracked.ID, Quantity: 5, UnitCost: decimal.NewFromInt(1), TotalCost: decimal.NewFromInt(5)}
	if err := repos.StockEntries.Create(entry); err != nil {
		t.Fatalf("entry: %v", err)
	}

	got, err := repos.Products.ListStockedWithoutEntries()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != legacy.ID {
		t.Fatalf("unexpected products: %+v", got)
	}
}

func TestTableLookup(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	if _, err := repos.Tables.GetByID(77); !errors.Is(err, apperr.ErrTableNotFound) {
		t.Fatalf("expected table not found, got %v", err)
	}
}
