package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// InventoryRepository reads the inventory snapshot. Point-in-time analyses
// use only the rows at the latest snapshot date.
type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) CurrentInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT product_id,
       COALESCE(location_id, ''),
       COALESCE(qty_on_hand, 0),
       COALESCE(unit_cost, 0),
       COALESCE(inventory_value, COALESCE(qty_on_hand, 0) * COALESCE(unit_cost, 0)),
       COALESCE(reorder_point, 0),
       COALESCE(safety_stock_target, 0),
       COALESCE(stock_status, ''),
       COALESCE(days_of_supply, 0),
       COALESCE(days_since_last_movement, 0)
FROM inventory_snapshot
WHERE snapshot_date = (SELECT MAX(snapshot_date) FROM inventory_snapshot)
ORDER BY product_id, location_id
`)
	if err != nil {
		return nil, fmt.Errorf("query current inventory: %w", err)
	}
	defer rows.Close()

	var out []domain.InventoryItem
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(
			&it.ProductID, &it.LocationID, &it.QtyOnHand, &it.UnitCost, &it.Value,
			&it.ReorderPoint, &it.SafetyTarget, &it.StockStatus, &it.DaysOfSupply, &it.DaysIdle,
		); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *InventoryRepository) InventorySummary(ctx context.Context) (*domain.InventoryBlock, error) {
	var block domain.InventoryBlock
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(DISTINCT product_id),
       COALESCE(SUM(qty_on_hand), 0),
       COALESCE(SUM(COALESCE(inventory_value, COALESCE(qty_on_hand, 0) * COALESCE(unit_cost, 0))), 0),
       COUNT(*) FILTER (WHERE COALESCE(qty_on_hand, 0) <= 0),
       COUNT(*) FILTER (WHERE stock_status IN ('overstock', 'overstocked'))
FROM inventory_snapshot
WHERE snapshot_date = (SELECT MAX(snapshot_date) FROM inventory_snapshot)
`).Scan(&block.UniqueSKUs, &block.TotalUnits, &block.TotalValue, &block.Stockouts, &block.Overstocked)
	if err != nil {
		return nil, fmt.Errorf("inventory summary: %w", err)
	}
	return &block, nil
}
