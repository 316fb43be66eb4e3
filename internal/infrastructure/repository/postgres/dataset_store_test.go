package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*DatasetStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DatasetStore{db: db}, mock, func() { _ = db.Close() }
}

func TestHasTable(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT to_regclass").
		WithArgs("sales_transactions").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.HasTable(context.Background(), domain.CategorySales)
	if err != nil {
		t.Fatalf("HasTable() error = %v", err)
	}
	if !ok {
		t.Fatal("expected table present")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceDatasetDropsCreatesAndInserts(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS sales_transactions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE sales_transactions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO sales_transactions").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	ds := &domain.Dataset{
		Category: domain.CategorySales,
		Filename: "q1.csv",
		Columns:  []string{"transaction_date", "product_id", "qty_sold", "total_revenue"},
		Rows: []map[string]string{
			{"transaction_date": "2026-01-05", "product_id": "P-1", "qty_sold": "3", "total_revenue": "30"},
			{"transaction_date": "2026-01-06", "product_id": "P-2", "qty_sold": "1", "total_revenue": "15"},
		},
	}
	written, err := store.ReplaceDataset(context.Background(), ds)
	if err != nil {
		t.Fatalf("ReplaceDataset() error = %v", err)
	}
	if written != 2 {
		t.Fatalf("expected 2 rows written, got %d", written)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceDatasetRollsBackOnBadCell(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS sales_transactions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE sales_transactions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ds := &domain.Dataset{
		Category: domain.CategorySales,
		Columns:  []string{"transaction_date", "product_id", "qty_sold", "total_revenue"},
		Rows: []map[string]string{
			{"transaction_date": "2026-01-05", "product_id": "P-1", "qty_sold": "three", "total_revenue": "30"},
		},
	}
	if _, err := store.ReplaceDataset(context.Background(), ds); err == nil {
		t.Fatal("expected error for non-numeric qty_sold")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordUploadAndHistory(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	uploadedAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO dataset_uploads").
		WithArgs("u-1", "sales_transactions", "q1.csv", uploadedAt, int64(2), "replaced").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.RecordUpload(context.Background(), domain.UploadRecord{
		ID:         "u-1",
		Category:   domain.CategorySales,
		Filename:   "q1.csv",
		UploadedAt: uploadedAt,
		RowCount:   2,
		Status:     "replaced",
	})
	if err != nil {
		t.Fatalf("RecordUpload() error = %v", err)
	}

	mock.ExpectQuery("SELECT id, category, filename, uploaded_at, row_count, status").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "filename", "uploaded_at", "row_count", "status"}).
			AddRow("u-1", "sales_transactions", "q1.csv", uploadedAt, int64(2), "replaced"))

	history, err := store.UploadHistory(context.Background(), 5)
	if err != nil {
		t.Fatalf("UploadHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].Category != domain.CategorySales {
		t.Fatalf("unexpected history: %+v", history)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTypedValueConversions(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		colType domain.ColumnType
		want    any
		wantErr bool
	}{
		{"empty is null", "", domain.ColNumeric, nil, false},
		{"numeric", "3.5", domain.ColNumeric, 3.5, false},
		{"bad numeric", "three", domain.ColNumeric, nil, true},
		{"integer", "14", domain.ColInteger, int64(14), false},
		{"spreadsheet integer", "14.0", domain.ColInteger, int64(14), false},
		{"bool yes", "Yes", domain.ColBoolean, true, false},
		{"bool zero", "0", domain.ColBoolean, false, false},
		{"bad bool", "maybe", domain.ColBoolean, nil, true},
		{"text passthrough", "P-1", domain.ColText, "P-1", false},
		{"bad date", "yesterday", domain.ColDate, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := typedValue(tc.raw, domain.ColumnSpec{Name: "c", Type: tc.colType})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("typedValue(%q) error = %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("typedValue(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestTypedValueDateLayouts(t *testing.T) {
	got, err := typedValue("2026-01-05", domain.ColumnSpec{Name: "d", Type: domain.ColDate})
	if err != nil {
		t.Fatalf("typedValue() error = %v", err)
	}
	ts, ok := got.(time.Time)
	if !ok || ts.Year() != 2026 || ts.Month() != time.January || ts.Day() != 5 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestTableProfileCountsNulls(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	schema, _ := domain.SchemaFor(domain.CategorySales)
	names := schema.ColumnNames()

	cols := append([]string{"rows", "dupes"}, names...)
	row := make([]driver.Value, 0, len(cols))
	row = append(row, int64(50), int64(3))
	for _, name := range names {
		if name == "customer_id" {
			row = append(row, int64(5))
		} else {
			row = append(row, int64(0))
		}
	}
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	profile, err := store.TableProfile(context.Background(), domain.CategorySales)
	if err != nil {
		t.Fatalf("TableProfile() error = %v", err)
	}
	if profile.Rows != 50 || profile.DuplicateRows != 3 || profile.Columns != len(names) {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.NullCounts["customer_id"] != 5 {
		t.Fatalf("expected null count for customer_id, got %+v", profile.NullCounts)
	}
	if _, ok := profile.NullCounts["product_id"]; ok {
		t.Fatal("zero null counts must be omitted")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDropAllSkipsAbsentTables(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	for _, cat := range domain.AllCategories {
		present := cat == domain.CategorySales
		mock.ExpectQuery("SELECT to_regclass").
			WithArgs(cat.Table()).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(present))
		if present {
			mock.ExpectExec("DROP TABLE IF EXISTS " + cat.Table()).
				WillReturnResult(sqlmock.NewResult(0, 0))
		}
	}
	mock.ExpectExec("DELETE FROM dataset_uploads").
		WillReturnResult(sqlmock.NewResult(0, 0))

	dropped, err := store.DropAll(context.Background())
	if err != nil {
		t.Fatalf("DropAll() error = %v", err)
	}
	if len(dropped) != 1 || dropped[0] != "sales_transactions" {
		t.Fatalf("unexpected dropped tables: %v", dropped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
