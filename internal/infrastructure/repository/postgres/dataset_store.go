package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

const insertBatchSize = 200

// DatasetStore owns dataset table lifecycle: wholesale replacement on upload,
// presence checks, quality profiling and the upload-history log. All table
// and column identifiers interpolated into SQL come from the embedded schema
// registry, never from caller input.
type DatasetStore struct {
	db *sql.DB
}

func NewDatasetStore(db *sql.DB) *DatasetStore {
	return &DatasetStore{db: db}
}

func (s *DatasetStore) HasTable(ctx context.Context, cat domain.Category) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, cat.Table()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", cat.Table(), err)
	}
	return exists, nil
}

func (s *DatasetStore) RowCount(ctx context.Context, cat domain.Category) (int64, error) {
	var n int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, cat.Table())
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows of %s: %w", cat.Table(), err)
	}
	return n, nil
}

// ReplaceDataset drops and recreates the category table inside one
// transaction, then loads the typed rows in batches. Uploaded columns outside
// the declared schema are ignored; absent optional columns load as NULL.
func (s *DatasetStore) ReplaceDataset(ctx context.Context, ds *domain.Dataset) (int64, error) {
	schema, ok := domain.SchemaFor(ds.Category)
	if !ok {
		return 0, fmt.Errorf("no schema for category %s", ds.Category)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	table := ds.Category.Table()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
		return 0, fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createTableDDL(table, schema)); err != nil {
		return 0, fmt.Errorf("create %s: %w", table, err)
	}

	var written int64
	for start := 0; start < len(ds.Rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(ds.Rows) {
			end = len(ds.Rows)
		}
		n, err := insertBatch(ctx, tx, table, schema, ds.Rows[start:end])
		if err != nil {
			return 0, err
		}
		written += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace tx: %w", err)
	}
	return written, nil
}

func createTableDDL(table string, schema domain.TableSchema) string {
	cols := make([]string, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		cols = append(cols, fmt.Sprintf("\t%s %s", c.Name, sqlType(c.Type)))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", table, strings.Join(cols, ",\n"))
}

func sqlType(t domain.ColumnType) string {
	switch t {
	case domain.ColNumeric:
		return "DOUBLE PRECISION"
	case domain.ColInteger:
		return "BIGINT"
	case domain.ColDate:
		return "DATE"
	case domain.ColBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func insertBatch(ctx context.Context, tx *sql.Tx, table string, schema domain.TableSchema, rows []map[string]string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	names := schema.ColumnNames()
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(names, ", "))

	args := make([]any, 0, len(rows)*len(names))
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, col := range schema.Columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", len(args)+1)
			v, err := typedValue(row[col.Name], col)
			if err != nil {
				return 0, fmt.Errorf("row %d column %s: %w", i+1, col.Name, err)
			}
			args = append(args, v)
		}
		sb.WriteString(")")
	}

	res, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// typedValue converts one cell to the driver value for its declared column
// type. Empty cells become NULL.
func typedValue(raw string, col domain.ColumnSpec) (any, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}
	switch col.Type {
	case domain.ColNumeric:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("not numeric: %q", v)
		}
		return f, nil
	case domain.ColInteger:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			// Spreadsheets often round-trip integers as "14.0".
			f, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil {
				return nil, fmt.Errorf("not an integer: %q", v)
			}
			return int64(f), nil
		}
		return i, nil
	case domain.ColDate:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "01/02/2006"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("not a date: %q", v)
	case domain.ColBoolean:
		switch strings.ToLower(v) {
		case "true", "t", "yes", "y", "1":
			return true, nil
		case "false", "f", "no", "n", "0":
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean: %q", v)
	default:
		return v, nil
	}
}

func (s *DatasetStore) RecordUpload(ctx context.Context, rec domain.UploadRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO dataset_uploads (id, category, filename, uploaded_at, row_count, status)
VALUES ($1,$2,$3,$4,$5,$6)
`, rec.ID, string(rec.Category), rec.Filename, rec.UploadedAt, rec.RowCount, rec.Status)
	if err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

func (s *DatasetStore) UploadHistory(ctx context.Context, limit int) ([]domain.UploadRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, category, filename, uploaded_at, row_count, status
FROM dataset_uploads
ORDER BY uploaded_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query upload history: %w", err)
	}
	defer rows.Close()

	var out []domain.UploadRecord
	for rows.Next() {
		var rec domain.UploadRecord
		var cat string
		if err := rows.Scan(&rec.ID, &cat, &rec.Filename, &rec.UploadedAt, &rec.RowCount, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan upload record: %w", err)
		}
		rec.Category = domain.Category(cat)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TableProfile computes per-column null counts and the whole-row duplicate
// count for the data quality report.
func (s *DatasetStore) TableProfile(ctx context.Context, cat domain.Category) (domain.TableProfile, error) {
	schema, ok := domain.SchemaFor(cat)
	if !ok {
		return domain.TableProfile{}, fmt.Errorf("no schema for category %s", cat)
	}
	names := schema.ColumnNames()

	selects := make([]string, 0, len(names)+2)
	selects = append(selects, "COUNT(*)")
	selects = append(selects, fmt.Sprintf("COUNT(*) - COUNT(DISTINCT (%s))", strings.Join(names, ", ")))
	for _, name := range names {
		selects = append(selects, fmt.Sprintf("SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END)", name))
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), cat.Table())

	dests := make([]any, 0, len(names)+2)
	var rowCount, dupes int64
	nulls := make([]sql.NullInt64, len(names))
	dests = append(dests, &rowCount, &dupes)
	for i := range nulls {
		dests = append(dests, &nulls[i])
	}
	if err := s.db.QueryRowContext(ctx, query).Scan(dests...); err != nil {
		return domain.TableProfile{}, fmt.Errorf("profile %s: %w", cat.Table(), err)
	}

	profile := domain.TableProfile{
		Rows:          rowCount,
		Columns:       len(names),
		DuplicateRows: dupes,
	}
	for i, n := range nulls {
		if n.Valid && n.Int64 > 0 {
			if profile.NullCounts == nil {
				profile.NullCounts = map[string]int64{}
			}
			profile.NullCounts[names[i]] = n.Int64
		}
	}
	return profile, nil
}

// DropAll removes every dataset table that exists and clears the upload log.
func (s *DatasetStore) DropAll(ctx context.Context) ([]string, error) {
	var dropped []string
	for _, cat := range domain.AllCategories {
		exists, err := s.HasTable(ctx, cat)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, cat.Table())); err != nil {
			return nil, fmt.Errorf("drop %s: %w", cat.Table(), err)
		}
		dropped = append(dropped, cat.Table())
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dataset_uploads`); err != nil {
		return nil, fmt.Errorf("clear upload history: %w", err)
	}
	return dropped, nil
}
