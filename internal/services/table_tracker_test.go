package services

import (
	"errors"
	"testing"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
	"restaurant_pos/internal/testutil"
)

func createTableOrder(t *testing.T, repos *repository.Repositories, tableID uint, status models.OrderStatus) *models.Order {
	t.Helper()
	o := &models.Order{TableID: &tableID, Status: status}
	if err := repos.Orders.Create(o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func TestRecomputeOccupiedPointsAtNewestActiveOrder(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	table := testutil.Table(t, db, 1)
	createTableOrder(t, repos, table.ID, models.OrderPending)
	newest := createTableOrder(t, repos, table.ID, models.OrderPreparing)
	createTableOrder(t, repos, table.ID, models.OrderDelivered)

	got, err := NewTableTracker(repos).Recompute(table.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got.Status != models.TableOccupied {
		t.Fatalf("status %s want occupied", got.Status)
	}
	if got.CurrentOrderID == nil || *got.CurrentOrderID != newest.ID {
		t.Fatalf("current order %v want %d", got.CurrentOrderID, newest.ID)
	}
}

func TestRecomputeFreesTableWithoutActiveOrders(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	table := testutil.Table(t, db, 2)
	o := createTableOrder(t, repos, table.ID, models.OrderCanceled)
	if err := repos.Tables.UpdateStatus(table.ID, models.TableOccupied, &o.ID); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	got, err := NewTableTracker(repos).Recompute(table.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got.Status != models.TableFree || got.CurrentOrderID != nil {
		t.Fatalf("expected free with no current order, got %s %v", got.Status, got.CurrentOrderID)
	}
	stored, _ := repos.Tables.GetByID(table.ID)
	if stored.Status != models.TableFree || stored.CurrentOrderID != nil {
		t.Fatalf("stored table not freed: %+v", stored)
	}
}

func TestRecomputeLeavesManualStatuses(t *testing.T) {
	for _, status := range []models.TableStatus{models.TableReserved, models.TableCleaning} {
		t.Run(string(status), func(t *testing.T) {
			db := testutil.OpenDB(t)
			repos := repository.New(db)
			table := testutil.Table(t, db, 3)
			if err := repos.Tables.UpdateStatus(table.ID, status, nil); err != nil {
				t.Fatalf("set status: %v", err)
			}
			got, err := NewTableTracker(repos).Recompute(table.ID)
			if err != nil {
				t.Fatalf("recompute: %v", err)
			}
			if got.Status != status {
				t.Fatalf("status %s want %s", got.Status, status)
			}
		})
	}
}

func TestRecomputeReservedTableWithActiveOrderBecomesOccupied(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	table := testutil.Table(t, db, 4)
	if err := repos.Tables.UpdateStatus(table.ID, models.TableReserved, nil); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	createTableOrder(t, repos, table.ID, models.OrderPending)

	got, err := NewTableTracker(repos).Recompute(table.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got.Status != models.TableOccupied {
		t.Fatalf("status %s want occupied", got.Status)
	}
}

func TestRecomputeUnknownTable(t *testing.T) {
	db := testutil.OpenDB(t)
	if _, err := NewTableTracker(repository.New(db)).Recompute(42); !errors.Is(err, apperr.ErrTableNotFound) {
		t.Fatalf("expected table not found, got %v", err)
	}
}

func TestSetManualStatus(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	tracker := NewTableTracker(repos)
	free := testutil.Table(t, db, 5)
	busy := testutil.Table(t, db, 6)
	createTableOrder(t, repos, busy.ID, models.OrderPending)

	got, err := tracker.SetManual(free.ID, models.TableReserved)
	if err != nil || got.Status != models.TableReserved {
		t.Fatalf("reserve: %v %v", got, err)
	}
	if _, err := tracker.SetManual(free.ID, models.TableOccupied); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("manual occupied: %v", err)
	}
	if _, err := tracker.SetManual(free.ID, "closed"); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("unknown status: %v", err)
	}
	if _, err := tracker.SetManual(busy.ID, models.TableCleaning); !errors.Is(err, apperr.ErrTableHasOrders) {
		t.Fatalf("table with orders: %v", err)
	}
	if _, err := tracker.SetManual(99, models.TableFree); !errors.Is(err, apperr.ErrTableNotFound) {
		t.Fatalf("unknown table: %v", err)
	}
}

func TestOccupyOnSend(t *testing.T) {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	tracker := NewTableTracker(repos)
	free := testutil.Table(t, db, 7)
	cleaning := testutil.Table(t, db, 8)
	if err := repos.Tables.UpdateStatus(cleaning.ID, models.TableCleaning, nil); err != nil {
		t.Fatalf("cleaning: %v", err)
	}

	first := createTableOrder(t, repos, free.ID, models.OrderPending)
	got, err := tracker.OccupyOnSend(free.ID)
	if err != nil {
		t.Fatalf("occupy: %v", err)
	}
	if got.Status != models.TableOccupied || got.CurrentOrderID == nil || *got.CurrentOrderID != first.ID {
		t.Fatalf("unexpected table: %+v", got)
	}

	second := createTableOrder(t, repos, free.ID, models.OrderPending)
	got, err = tracker.OccupyOnSend(free.ID)
	if err != nil {
		t.Fatalf("occupy again: %v", err)
	}
	if got.Status != models.TableOccupied || *got.CurrentOrderID != second.ID {
		t.Fatalf("current order not refreshed: %+v", got)
	}

	createTableOrder(t, repos, cleaning.ID, models.OrderPending)
	got, err = tracker.OccupyOnSend(cleaning.ID)
	if err != nil {
		t.Fatalf("occupy cleaning: %v", err)
	}
	if got.Status != models.TableCleaning || got.CurrentOrderID != nil {
		t.Fatalf("cleaning table changed: %+v", got)
	}
}
