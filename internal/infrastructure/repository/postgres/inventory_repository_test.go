package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

func newInventoryRepoWithMock(t *testing.T) (*InventoryRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &InventoryRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCurrentInventoryScansLatestSnapshot(t *testing.T) {
	repo, mock, done := newInventoryRepoWithMock(t)
	defer done()

	cols := []string{
		"product_id", "location_id", "qty_on_hand", "unit_cost", "inventory_value",
		"reorder_point", "safety_stock_target", "stock_status", "days_of_supply", "days_since_last_movement",
	}
	mock.ExpectQuery("FROM inventory_snapshot").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("P-1", "WH-1", 80.0, 12.5, 1000.0, 100.0, 50.0, "low", 4.0, 2).
			AddRow("P-2", "", 0.0, 5.0, 0.0, 20.0, 10.0, "stockout", 0.0, 30))

	items, err := repo.CurrentInventory(context.Background())
	if err != nil {
		t.Fatalf("CurrentInventory() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	want := domain.InventoryItem{
		ProductID: "P-1", LocationID: "WH-1", QtyOnHand: 80, UnitCost: 12.5, Value: 1000,
		ReorderPoint: 100, SafetyTarget: 50, StockStatus: "low", DaysOfSupply: 4, DaysIdle: 2,
	}
	if items[0] != want {
		t.Fatalf("unexpected item: %+v", items[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInventorySummary(t *testing.T) {
	repo, mock, done := newInventoryRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`stock_status IN \('overstock', 'overstocked'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"skus", "units", "value", "stockouts", "overstocked"}).
			AddRow(int64(120), 5400.0, 182000.0, int64(3), int64(7)))

	block, err := repo.InventorySummary(context.Background())
	if err != nil {
		t.Fatalf("InventorySummary() error = %v", err)
	}
	if block.UniqueSKUs != 120 || block.TotalValue != 182000 || block.Stockouts != 3 || block.Overstocked != 7 {
		t.Fatalf("unexpected block: %+v", block)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCurrentInventoryPropagatesQueryError(t *testing.T) {
	repo, mock, done := newInventoryRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM inventory_snapshot").
		WillReturnError(context.DeadlineExceeded)

	if _, err := repo.CurrentInventory(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
