package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// ColumnReader pulls one numeric column for anomaly scanning. Identifiers
// are resolved through the schema registry; the caller has already validated
// the column against the category's numeric allow-list.
type ColumnReader struct {
	db *sql.DB
}

func NewColumnReader(db *sql.DB) *ColumnReader {
	return &ColumnReader{db: db}
}

func (r *ColumnReader) NumericColumn(ctx context.Context, cat domain.Category, column string) ([]domain.LabeledValue, error) {
	schema, ok := domain.SchemaFor(cat)
	if !ok {
		return nil, fmt.Errorf("no schema for category %s", cat)
	}
	if !schema.HasColumn(column) {
		return nil, fmt.Errorf("column %s not declared for %s", column, cat.Table())
	}
	label := labelColumn(schema)

	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s IS NOT NULL`, label, column, cat.Table(), column)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query column %s.%s: %w", cat.Table(), column, err)
	}
	defer rows.Close()

	var out []domain.LabeledValue
	for rows.Next() {
		var v domain.LabeledValue
		if err := rows.Scan(&v.Label, &v.Value); err != nil {
			return nil, fmt.Errorf("scan labeled value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// labelColumn picks the row identifier for anomaly output: the first declared
// text column, which by schema convention is the table's id column.
func labelColumn(schema domain.TableSchema) string {
	for _, c := range schema.Columns {
		if c.Type == domain.ColText {
			return c.Name
		}
	}
	return schema.Columns[0].Name
}
