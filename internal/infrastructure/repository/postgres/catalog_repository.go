package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// CatalogRepository reads the product and customer masters.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const productColumns = `
product_id, product_name, COALESCE(category, ''), COALESCE(unit_cost, 0),
COALESCE(unit_price, 0), lead_time_days, economic_order_qty,
COALESCE(abc_class, ''), COALESCE(xyz_class, '')
`

func (r *CatalogRepository) Products(ctx context.Context, category, abcClass string) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s
FROM products
WHERE ($1 = '' OR category = $1)
  AND ($2 = '' OR abc_class = $2)
ORDER BY product_id
`, productColumns), category, abcClass)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return scanProducts(rows)
}

func (r *CatalogRepository) ProductsByID(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT %s
FROM products
WHERE product_id = ANY($1)
`, productColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("query products by id: %w", err)
	}
	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Product, len(products))
	for _, p := range products {
		out[p.ProductID] = p
	}
	return out, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer rows.Close()
	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		var leadTime sql.NullInt64
		var eoq sql.NullFloat64
		if err := rows.Scan(
			&p.ProductID, &p.ProductName, &p.Category, &p.UnitCost,
			&p.UnitPrice, &leadTime, &eoq, &p.ABCClass, &p.XYZClass,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if leadTime.Valid {
			lt := int(leadTime.Int64)
			p.LeadTimeDays = &lt
		}
		if eoq.Valid {
			e := eoq.Float64
			p.EOQ = &e
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ProductsHaveClasses reports whether any product carries a pre-populated
// ABC class, which makes the master authoritative for classification.
func (r *CatalogRepository) ProductsHaveClasses(ctx context.Context) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE abc_class IS NOT NULL AND abc_class <> ''`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check product classes: %w", err)
	}
	return n > 0, nil
}

func (r *CatalogRepository) CustomerSummary(ctx context.Context) (*domain.CustomerBlock, error) {
	var block domain.CustomerBlock
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(ytd_revenue), 0),
       COALESCE(AVG(avg_days_to_pay), 0)
FROM customers
`).Scan(&block.Count, &block.TotalRevenue, &block.AvgDaysToPay)
	if err != nil {
		return nil, fmt.Errorf("customer summary: %w", err)
	}
	return &block, nil
}
