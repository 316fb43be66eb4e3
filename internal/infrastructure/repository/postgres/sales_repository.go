package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// SalesRepository aggregates sales_transactions.
type SalesRepository struct {
	db *sql.DB
}

func NewSalesRepository(db *sql.DB) *SalesRepository {
	return &SalesRepository{db: db}
}

func (r *SalesRepository) SalesTotals(ctx context.Context) (*domain.SalesTotals, error) {
	var t domain.SalesTotals
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(total_revenue), 0),
       COALESCE(SUM(total_cost), 0),
       COALESCE(SUM(COALESCE(gross_profit, total_revenue - COALESCE(total_cost, 0))), 0),
       COUNT(*),
       COUNT(DISTINCT product_id),
       COUNT(DISTINCT transaction_date)
FROM sales_transactions
`).Scan(&t.Revenue, &t.Cost, &t.GrossProfit, &t.Transactions, &t.UniqueProducts, &t.DistinctDays)
	if err != nil {
		return nil, fmt.Errorf("sales totals: %w", err)
	}
	return &t, nil
}

const productSalesQuery = `
WITH daily AS (
	SELECT product_id, transaction_date, SUM(qty_sold) AS qty
	FROM sales_transactions
	GROUP BY product_id, transaction_date
)
SELECT s.product_id,
       COALESCE(SUM(s.qty_sold), 0),
       COALESCE(SUM(s.total_revenue), 0),
       COALESCE(SUM(s.total_cost), 0),
       COALESCE(SUM(COALESCE(s.gross_profit, s.total_revenue - COALESCE(s.total_cost, 0))), 0),
       COUNT(DISTINCT s.transaction_date),
       COALESCE(d.qty_mean, 0),
       COALESCE(d.qty_stddev, 0),
       MAX(s.transaction_date)
FROM sales_transactions s
JOIN (
	SELECT product_id, AVG(qty) AS qty_mean, COALESCE(STDDEV_POP(qty), 0) AS qty_stddev
	FROM daily
	GROUP BY product_id
) d ON d.product_id = s.product_id
%s
GROUP BY s.product_id, d.qty_mean, d.qty_stddev
ORDER BY s.product_id
`

func (r *SalesRepository) ProductSales(ctx context.Context) ([]domain.ProductSalesStat, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(productSalesQuery, ""))
	if err != nil {
		return nil, fmt.Errorf("query product sales: %w", err)
	}
	return scanProductSales(rows)
}

func (r *SalesRepository) ProductSalesFor(ctx context.Context, productIDs []string) ([]domain.ProductSalesStat, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(productSalesQuery, "WHERE s.product_id = ANY($1)"), productIDs)
	if err != nil {
		return nil, fmt.Errorf("query product sales: %w", err)
	}
	return scanProductSales(rows)
}

func scanProductSales(rows *sql.Rows) ([]domain.ProductSalesStat, error) {
	defer rows.Close()
	var out []domain.ProductSalesStat
	for rows.Next() {
		var s domain.ProductSalesStat
		var lastSale sql.NullTime
		if err := rows.Scan(
			&s.ProductID, &s.TotalQty, &s.Revenue, &s.Cost, &s.GrossProfit,
			&s.SaleDays, &s.QtyMean, &s.QtyStdDev, &lastSale,
		); err != nil {
			return nil, fmt.Errorf("scan product sales: %w", err)
		}
		if lastSale.Valid {
			t := lastSale.Time
			s.LastSaleDate = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SalesRepository) DailySales(ctx context.Context, productID string) ([]domain.DailyQuantity, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT transaction_date, SUM(qty_sold)
FROM sales_transactions
WHERE product_id = $1
GROUP BY transaction_date
ORDER BY transaction_date
`, productID)
	if err != nil {
		return nil, fmt.Errorf("query daily sales: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyQuantity
	for rows.Next() {
		var d domain.DailyQuantity
		if err := rows.Scan(&d.Date, &d.Qty); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MonthlySales buckets demand by calendar month across all years. An empty
// product id aggregates the whole catalogue.
func (r *SalesRepository) MonthlySales(ctx context.Context, productID string) ([]domain.MonthlyQuantity, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT EXTRACT(MONTH FROM transaction_date)::int,
       COALESCE(SUM(qty_sold), 0),
       COALESCE(SUM(total_revenue), 0)
FROM sales_transactions
WHERE ($1 = '' OR product_id = $1)
GROUP BY 1
ORDER BY 1
`, productID)
	if err != nil {
		return nil, fmt.Errorf("query monthly sales: %w", err)
	}
	defer rows.Close()

	var out []domain.MonthlyQuantity
	for rows.Next() {
		var m domain.MonthlyQuantity
		if err := rows.Scan(&m.Month, &m.Qty, &m.Revenue); err != nil {
			return nil, fmt.Errorf("scan monthly sales: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SalesRepository) RevenueByPeriod(ctx context.Context, granularity string) ([]domain.PeriodRevenue, error) {
	var format string
	switch granularity {
	case "day":
		format = "YYYY-MM-DD"
	case "week":
		format = "IYYY-IW"
	case "quarter":
		format = "YYYY-\"Q\"Q"
	default:
		format = "YYYY-MM"
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT to_char(transaction_date, $1),
       COALESCE(SUM(total_revenue), 0),
       COALESCE(SUM(qty_sold), 0),
       COUNT(DISTINCT product_id)
FROM sales_transactions
GROUP BY 1
ORDER BY 1
`, format)
	if err != nil {
		return nil, fmt.Errorf("query revenue by period: %w", err)
	}
	defer rows.Close()

	var out []domain.PeriodRevenue
	for rows.Next() {
		var p domain.PeriodRevenue
		if err := rows.Scan(&p.Period, &p.Revenue, &p.Units, &p.UniqueSKUs); err != nil {
			return nil, fmt.Errorf("scan period revenue: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RevenueByCustomer joins the customer master when its table exists; without
// it names stay blank. A non-positive limit returns everything.
func (r *SalesRepository) RevenueByCustomer(ctx context.Context, limit int) ([]domain.CustomerRevenue, error) {
	var hasCustomers bool
	if err := r.db.QueryRowContext(ctx, `SELECT to_regclass('customers') IS NOT NULL`).Scan(&hasCustomers); err != nil {
		return nil, fmt.Errorf("check customers table: %w", err)
	}

	query := `
SELECT customer_id, '' AS customer_name, COALESCE(SUM(total_revenue), 0), COUNT(DISTINCT product_id)
FROM sales_transactions
WHERE customer_id IS NOT NULL
GROUP BY customer_id
ORDER BY 3 DESC, customer_id
`
	if hasCustomers {
		query = `
SELECT s.customer_id,
       COALESCE(MAX(c.customer_name), ''),
       COALESCE(SUM(s.total_revenue), 0),
       COUNT(DISTINCT s.product_id)
FROM sales_transactions s
LEFT JOIN customers c ON c.customer_id = s.customer_id
WHERE s.customer_id IS NOT NULL
GROUP BY s.customer_id
ORDER BY 3 DESC, s.customer_id
`
	}

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("query revenue by customer: %w", err)
	}
	defer rows.Close()

	var out []domain.CustomerRevenue
	for rows.Next() {
		var c domain.CustomerRevenue
		if err := rows.Scan(&c.CustomerID, &c.CustomerName, &c.Revenue, &c.UniqueProducts); err != nil {
			return nil, fmt.Errorf("scan customer revenue: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
