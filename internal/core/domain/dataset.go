package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category identifies one of the nine interlinked datasets. Each category
// maps to exactly one table in the tabular store; presence of that table is
// the unit of data availability.
type Category string

const (
	CategoryProducts       Category = "products"
	CategoryCustomers      Category = "customers"
	CategorySuppliers      Category = "suppliers"
	CategoryInventory      Category = "inventory_snapshot"
	CategorySales          Category = "sales_transactions"
	CategoryPurchaseOrders Category = "purchase_orders"
	CategoryARLedger       Category = "ar_ledger"
	CategoryAPLedger       Category = "ap_ledger"
	CategoryShipments      Category = "shipments"
)

// AllCategories lists every dataset category in upload-status order.
var AllCategories = []Category{
	CategoryProducts,
	CategoryCustomers,
	CategorySuppliers,
	CategoryInventory,
	CategorySales,
	CategoryPurchaseOrders,
	CategoryARLedger,
	CategoryAPLedger,
	CategoryShipments,
}

// GraphMirroredCategories are synced to the graph store after upload.
var GraphMirroredCategories = []Category{CategorySuppliers, CategoryPurchaseOrders}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllCategories {
		if c == known {
			return c, nil
		}
	}
	return "", WrapError(ErrInvalidInput, "parse category", fmt.Errorf("unknown dataset category %q", s))
}

func (c Category) Table() string { return string(c) }

func (c Category) MirroredToGraph() bool {
	for _, g := range GraphMirroredCategories {
		if c == g {
			return true
		}
	}
	return false
}

// Dataset is a parsed upload: a flat column list plus string-valued rows.
// Typing happens when the tabular store writes the rows against the
// category's declared schema.
type Dataset struct {
	Category Category
	Filename string
	Columns  []string
	Rows     []map[string]string
}

// MissingRequiredColumns reports declared required columns absent from the
// upload. Column matching is case-insensitive.
func (d *Dataset) MissingRequiredColumns() []string {
	schema, ok := SchemaFor(d.Category)
	if !ok {
		return nil
	}
	have := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		have[strings.ToLower(strings.TrimSpace(c))] = true
	}
	var missing []string
	for _, col := range schema.Columns {
		if col.Required && !have[col.Name] {
			missing = append(missing, col.Name)
		}
	}
	return missing
}

// UploadRecord is one line of the upload-history log.
type UploadRecord struct {
	ID         string    `json:"id"`
	Category   Category  `json:"category"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	RowCount   int64     `json:"row_count"`
	Status     string    `json:"status"`
}

// UploadReceipt is returned to the upload caller.
type UploadReceipt struct {
	Category    Category `json:"file_category"`
	Filename    string   `json:"filename"`
	RowCount    int      `json:"row_count"`
	ColumnCount int      `json:"column_count"`
	Destination string   `json:"destination"`
	GraphSynced bool     `json:"graph_synced"`
	Message     string   `json:"message"`
}

// TableStatus describes one category's presence in the tabular store.
type TableStatus struct {
	Category    Category `json:"category"`
	Uploaded    bool     `json:"uploaded"`
	RowCount    int64    `json:"row_count,omitempty"`
	Destination string   `json:"destination,omitempty"`
}

// TableProfile carries per-table quality facts for the data quality report.
type TableProfile struct {
	Rows          int64            `json:"rows"`
	Columns       int              `json:"columns"`
	NullCounts    map[string]int64 `json:"null_counts,omitempty"`
	DuplicateRows int64            `json:"duplicate_rows"`
}

// QualityScore is 100 minus 5 per column carrying nulls and 2 per duplicate
// row (duplicates capped at 10), floored at zero.
func (p TableProfile) QualityScore() int {
	dupes := p.DuplicateRows
	if dupes > 10 {
		dupes = 10
	}
	score := 100 - 5*len(p.NullCounts) - 2*int(dupes)
	if score < 0 {
		score = 0
	}
	return score
}
