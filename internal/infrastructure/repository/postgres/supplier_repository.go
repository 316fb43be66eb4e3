package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// SupplierRepository reads the supplier master and purchase-order aggregates.
// SupplyLinks is the relational source for the graph mirror and the fallback
// for network analyses.
type SupplierRepository struct {
	db *sql.DB
}

func NewSupplierRepository(db *sql.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Suppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT supplier_id, supplier_name, COALESCE(country, ''),
       COALESCE(avg_lead_time_days, 0), COALESCE(on_time_delivery_rate, 0),
       COALESCE(quality_rejection_rate, 0), COALESCE(contracted_payment_days, 0),
       COALESCE(risk_score, 0)
FROM suppliers
ORDER BY supplier_id
`)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	var out []domain.Supplier
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(
			&s.SupplierID, &s.SupplierName, &s.Country,
			&s.AvgLeadTimeDays, &s.OnTimeRate, &s.RejectionRate, &s.ContractPayDays, &s.Rating,
		); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SupplierRepository) SupplierOrderStats(ctx context.Context) ([]domain.SupplierOrderStat, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT supplier_id,
       COUNT(*),
       COALESCE(SUM(COALESCE(total_po_value, qty_ordered * COALESCE(unit_cost, 0))), 0)
FROM purchase_orders
GROUP BY supplier_id
ORDER BY supplier_id
`)
	if err != nil {
		return nil, fmt.Errorf("query supplier order stats: %w", err)
	}
	defer rows.Close()

	var out []domain.SupplierOrderStat
	for rows.Next() {
		var s domain.SupplierOrderStat
		if err := rows.Scan(&s.SupplierID, &s.Orders, &s.TotalValue); err != nil {
			return nil, fmt.Errorf("scan supplier order stat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SupplyLinks derives distinct supplier→product pairs from purchase orders,
// carrying the supplier's name and lead time when the master is loaded.
func (r *SupplierRepository) SupplyLinks(ctx context.Context) ([]domain.SupplyLink, error) {
	var hasSuppliers bool
	if err := r.db.QueryRowContext(ctx, `SELECT to_regclass('suppliers') IS NOT NULL`).Scan(&hasSuppliers); err != nil {
		return nil, fmt.Errorf("check suppliers table: %w", err)
	}
	query := `
SELECT DISTINCT supplier_id, '' AS supplier_name, product_id, 0::double precision AS lead_time
FROM purchase_orders
ORDER BY supplier_id, product_id
`
	if hasSuppliers {
		query = `
SELECT DISTINCT po.supplier_id, COALESCE(s.supplier_name, ''), po.product_id,
       COALESCE(s.avg_lead_time_days, 0)
FROM purchase_orders po
LEFT JOIN suppliers s ON s.supplier_id = po.supplier_id
ORDER BY po.supplier_id, po.product_id
`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query supply links: %w", err)
	}
	defer rows.Close()

	var out []domain.SupplyLink
	for rows.Next() {
		var l domain.SupplyLink
		if err := rows.Scan(&l.SupplierID, &l.SupplierName, &l.ProductID, &l.LeadTime); err != nil {
			return nil, fmt.Errorf("scan supply link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SupplierRepository) SupplierSummary(ctx context.Context) (*domain.SupplierBlock, error) {
	var block domain.SupplierBlock
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(AVG(avg_lead_time_days), 0),
       COALESCE(AVG(on_time_delivery_rate), 0)
FROM suppliers
`).Scan(&block.Count, &block.AvgLeadTime, &block.AvgOTDRate)
	if err != nil {
		return nil, fmt.Errorf("supplier summary: %w", err)
	}
	return &block, nil
}
