package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// QueryRunner executes ad-hoc read queries on behalf of the query gate. The
// gate owns the denylist; this type owns execution and the row cap.
type QueryRunner struct {
	db *sql.DB
}

func NewQueryRunner(db *sql.DB) *QueryRunner {
	return &QueryRunner{db: db}
}

// RunQuery reads up to maxRows rows into generic records. One extra row is
// fetched to detect truncation.
func (r *QueryRunner) RunQuery(ctx context.Context, query string, maxRows int) (*domain.QueryResult, error) {
	if maxRows <= 0 {
		maxRows = 100
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &domain.QueryResult{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		if len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}
		values := make([]any, len(columns))
		dests := make([]any, len(columns))
		for i := range values {
			dests[i] = &values[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan query row: %w", err)
		}
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query rows: %w", err)
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

// normalizeValue makes driver values JSON-friendly.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}
