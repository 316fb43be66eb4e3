package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// LedgerRepository reads the AR and AP ledgers. Name columns come from the
// customer/supplier masters when those tables exist and stay blank otherwise.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) hasTable(ctx context.Context, table string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return exists, nil
}

func (r *LedgerRepository) Receivables(ctx context.Context) ([]domain.ReceivableEntry, error) {
	hasCustomers, err := r.hasTable(ctx, "customers")
	if err != nil {
		return nil, err
	}
	query := `
SELECT invoice_id, customer_id, '' AS customer_name, '' AS segment,
       COALESCE(invoice_amount, 0), days_to_pay, COALESCE(aging_bucket, ''),
       paid_date IS NOT NULL, COALESCE(dispute_flag, false), COALESCE(write_off_flag, false)
FROM ar_ledger
ORDER BY invoice_id
`
	if hasCustomers {
		query = `
SELECT a.invoice_id, a.customer_id, COALESCE(c.customer_name, ''), COALESCE(c.segment, ''),
       COALESCE(a.invoice_amount, 0), a.days_to_pay, COALESCE(a.aging_bucket, ''),
       a.paid_date IS NOT NULL, COALESCE(a.dispute_flag, false), COALESCE(a.write_off_flag, false)
FROM ar_ledger a
LEFT JOIN customers c ON c.customer_id = a.customer_id
ORDER BY a.invoice_id
`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query receivables: %w", err)
	}
	defer rows.Close()

	var out []domain.ReceivableEntry
	for rows.Next() {
		var e domain.ReceivableEntry
		var amount float64
		var days sql.NullFloat64
		if err := rows.Scan(
			&e.InvoiceID, &e.CustomerID, &e.CustomerName, &e.Segment,
			&amount, &days, &e.AgingBucket, &e.Paid, &e.Disputed, &e.WrittenOff,
		); err != nil {
			return nil, fmt.Errorf("scan receivable: %w", err)
		}
		e.Amount = decimal.NewFromFloat(amount)
		if days.Valid {
			d := days.Float64
			e.DaysToPay = &d
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *LedgerRepository) Payables(ctx context.Context) ([]domain.PayableEntry, error) {
	hasSuppliers, err := r.hasTable(ctx, "suppliers")
	if err != nil {
		return nil, err
	}
	query := `
SELECT invoice_id, supplier_id, '' AS supplier_name, NULL::bigint AS contracted_payment_days,
       COALESCE(invoice_amount, 0), actual_days_to_pay, COALESCE(early_payment_discount, 0)
FROM ap_ledger
ORDER BY invoice_id
`
	if hasSuppliers {
		query = `
SELECT p.invoice_id, p.supplier_id, COALESCE(s.supplier_name, ''), s.contracted_payment_days,
       COALESCE(p.invoice_amount, 0), p.actual_days_to_pay, COALESCE(p.early_payment_discount, 0)
FROM ap_ledger p
LEFT JOIN suppliers s ON s.supplier_id = p.supplier_id
ORDER BY p.invoice_id
`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query payables: %w", err)
	}
	defer rows.Close()

	var out []domain.PayableEntry
	for rows.Next() {
		var e domain.PayableEntry
		var amount float64
		var days sql.NullFloat64
		var contract sql.NullInt64
		if err := rows.Scan(
			&e.InvoiceID, &e.SupplierID, &e.SupplierName, &contract,
			&amount, &days, &e.EarlyDiscount,
		); err != nil {
			return nil, fmt.Errorf("scan payable: %w", err)
		}
		e.Amount = decimal.NewFromFloat(amount)
		if days.Valid {
			d := days.Float64
			e.ActualDays = &d
		}
		if contract.Valid {
			c := int(contract.Int64)
			e.ContractDays = &c
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *LedgerRepository) ARSummary(ctx context.Context) (*domain.ARBlock, error) {
	var block domain.ARBlock
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE COALESCE(is_overdue, false)),
       COALESCE(SUM(invoice_amount) FILTER (WHERE COALESCE(write_off_flag, false)), 0)
FROM ar_ledger
`).Scan(&block.TotalInvoices, &block.Overdue, &block.WriteOffAmount)
	if err != nil {
		return nil, fmt.Errorf("ar summary: %w", err)
	}
	return &block, nil
}

func (r *LedgerRepository) POSummary(ctx context.Context) (*domain.POBlock, error) {
	var block domain.POBlock
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(qty_ordered), 0),
       COALESCE(SUM(COALESCE(total_po_value, qty_ordered * COALESCE(unit_cost, 0))), 0)
FROM purchase_orders
`).Scan(&block.Count, &block.TotalQty, &block.TotalValue)
	if err != nil {
		return nil, fmt.Errorf("po summary: %w", err)
	}
	return &block, nil
}
