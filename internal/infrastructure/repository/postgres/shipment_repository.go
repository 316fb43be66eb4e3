package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// ShipmentRepository rolls up the shipments table.
type ShipmentRepository struct {
	db *sql.DB
}

func NewShipmentRepository(db *sql.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

func (r *ShipmentRepository) ShipmentsByStatus(ctx context.Context, status string) ([]domain.ShipmentStatusGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT COALESCE(status, 'unknown'),
       COUNT(*),
       COALESCE(SUM(qty_shipped), 0),
       COALESCE(SUM(freight_cost), 0),
       COALESCE(AVG(delay_days), 0)
FROM shipments
WHERE ($1 = '' OR status = $1)
GROUP BY status
ORDER BY 1
`, status)
	if err != nil {
		return nil, fmt.Errorf("query shipments by status: %w", err)
	}
	defer rows.Close()

	var out []domain.ShipmentStatusGroup
	for rows.Next() {
		var g domain.ShipmentStatusGroup
		if err := rows.Scan(&g.Status, &g.Count, &g.TotalQty, &g.TotalFreight, &g.AvgDelayDays); err != nil {
			return nil, fmt.Errorf("scan shipment group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *ShipmentRepository) InTransitShipments(ctx context.Context, limit int) ([]domain.Shipment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT shipment_id, supplier_id, product_id, ship_date, expected_arrival_date,
       COALESCE(qty_shipped, 0), COALESCE(carrier, '')
FROM shipments
WHERE status = 'in_transit'
ORDER BY expected_arrival_date NULLS LAST, shipment_id
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query in-transit shipments: %w", err)
	}
	defer rows.Close()

	var out []domain.Shipment
	for rows.Next() {
		var s domain.Shipment
		var shipDate, expected sql.NullTime
		if err := rows.Scan(&s.ShipmentID, &s.SupplierID, &s.ProductID, &shipDate, &expected, &s.QtyShipped, &s.Carrier); err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		if shipDate.Valid {
			t := shipDate.Time
			s.ShipDate = &t
		}
		if expected.Valid {
			t := expected.Time
			s.ExpectedArrival = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
