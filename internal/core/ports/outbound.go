package ports

import (
	"context"
	"io"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

// FileParser turns an uploaded CSV or XLSX stream into a header row and
// string-valued data rows. The tabular store types the values afterwards.
type FileParser interface {
	Parse(filename string, r io.Reader) (columns []string, rows []map[string]string, err error)
}

// UploadArchive retains the raw bytes of accepted uploads for audit.
type UploadArchive interface {
	Save(ctx context.Context, key string, r io.Reader) error
}

// DatasetStore manages table lifecycle and availability in the tabular store.
type DatasetStore interface {
	HasTable(ctx context.Context, cat domain.Category) (bool, error)
	RowCount(ctx context.Context, cat domain.Category) (int64, error)
	ReplaceDataset(ctx context.Context, ds *domain.Dataset) (int64, error)
	RecordUpload(ctx context.Context, rec domain.UploadRecord) error
	UploadHistory(ctx context.Context, limit int) ([]domain.UploadRecord, error)
	TableProfile(ctx context.Context, cat domain.Category) (domain.TableProfile, error)
	DropAll(ctx context.Context) ([]string, error)
}

// InventoryReader reads the current inventory snapshot (rows at the maximum
// snapshot date only).
type InventoryReader interface {
	CurrentInventory(ctx context.Context) ([]domain.InventoryItem, error)
	InventorySummary(ctx context.Context) (*domain.InventoryBlock, error)
}

// SalesReader reads sales_transactions aggregates.
type SalesReader interface {
	SalesTotals(ctx context.Context) (*domain.SalesTotals, error)
	ProductSales(ctx context.Context) ([]domain.ProductSalesStat, error)
	ProductSalesFor(ctx context.Context, productIDs []string) ([]domain.ProductSalesStat, error)
	DailySales(ctx context.Context, productID string) ([]domain.DailyQuantity, error)
	MonthlySales(ctx context.Context, productID string) ([]domain.MonthlyQuantity, error)
	RevenueByPeriod(ctx context.Context, granularity string) ([]domain.PeriodRevenue, error)
	RevenueByCustomer(ctx context.Context, limit int) ([]domain.CustomerRevenue, error)
}

// LedgerReader reads AR/AP ledger rows.
type LedgerReader interface {
	Receivables(ctx context.Context) ([]domain.ReceivableEntry, error)
	Payables(ctx context.Context) ([]domain.PayableEntry, error)
}

// SupplierReader reads the supplier master and purchase-order aggregates,
// including the relational fallbacks for graph queries.
type SupplierReader interface {
	Suppliers(ctx context.Context) ([]domain.Supplier, error)
	SupplierOrderStats(ctx context.Context) ([]domain.SupplierOrderStat, error)
	SupplyLinks(ctx context.Context) ([]domain.SupplyLink, error)
	SupplierSummary(ctx context.Context) (*domain.SupplierBlock, error)
}

// ProductReader reads the product master.
type ProductReader interface {
	Products(ctx context.Context, category, abcClass string) ([]domain.Product, error)
	ProductsByID(ctx context.Context, ids []string) (map[string]domain.Product, error)
	ProductsHaveClasses(ctx context.Context) (bool, error)
}

// CustomerReader reads the customer master.
type CustomerReader interface {
	CustomerSummary(ctx context.Context) (*domain.CustomerBlock, error)
}

// ShipmentReader reads shipment rollups.
type ShipmentReader interface {
	ShipmentsByStatus(ctx context.Context, status string) ([]domain.ShipmentStatusGroup, error)
	InTransitShipments(ctx context.Context, limit int) ([]domain.Shipment, error)
}

// LedgerSummaryReader feeds the dashboard's AR and PO blocks.
type LedgerSummaryReader interface {
	ARSummary(ctx context.Context) (*domain.ARBlock, error)
	POSummary(ctx context.Context) (*domain.POBlock, error)
}

// ColumnReader pulls one numeric column for anomaly scanning. Table and
// column identifiers are validated against the schema registry before use.
type ColumnReader interface {
	NumericColumn(ctx context.Context, cat domain.Category, column string) ([]domain.LabeledValue, error)
}

// QueryRunner executes a gated ad-hoc read query, capped at maxRows.
type QueryRunner interface {
	RunQuery(ctx context.Context, sql string, maxRows int) (*domain.QueryResult, error)
}

// GraphStore mirrors supplier→product relationships and answers network
// queries. Implementations must upsert idempotently and upsert nodes before
// edges.
type GraphStore interface {
	UpsertSuppliers(ctx context.Context, nodes []domain.SupplierNode) error
	UpsertSupplyLinks(ctx context.Context, links []domain.SupplyLink) error
	Network(ctx context.Context) ([]domain.SupplyLink, error)
	SingleSourceProducts(ctx context.Context, limit int) ([]domain.SingleSourceRisk, error)
	ProductsOfSupplier(ctx context.Context, supplierID string) (string, []string, error)
	SuppliersOfProduct(ctx context.Context, productID string) ([]domain.RankedSupplier, error)
	AlternativeSuppliers(ctx context.Context, productID string, limit int) ([]domain.RankedSupplier, error)
	LeadTimeRanking(ctx context.Context) ([]domain.LeadTimeEntry, error)
	Stats(ctx context.Context) (domain.GraphStats, error)
	Reset(ctx context.Context) error
}

// EventPublisher announces dataset replacements to interested consumers.
// Publishing is fire-and-forget; failures must not fail the upload.
type EventPublisher interface {
	PublishDatasetReplaced(ctx context.Context, cat domain.Category, rowCount int64) error
}

// AnalysisMetrics records per-analysis outcomes for observability.
type AnalysisMetrics interface {
	RecordAnalysis(name, outcome string, seconds float64)
}
