package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

type fakeStore struct {
	tables   map[domain.Category]int64
	records  []domain.UploadRecord
	history  []domain.UploadRecord
	profiles map[domain.Category]domain.TableProfile
	dropped  []string

	replaced   *domain.Dataset
	written    int64
	replaceErr error
	recordErr  error
}

func (f *fakeStore) HasTable(_ context.Context, cat domain.Category) (bool, error) {
	_, ok := f.tables[cat]
	return ok, nil
}

func (f *fakeStore) RowCount(_ context.Context, cat domain.Category) (int64, error) {
	return f.tables[cat], nil
}

func (f *fakeStore) ReplaceDataset(_ context.Context, ds *domain.Dataset) (int64, error) {
	if f.replaceErr != nil {
		return 0, f.replaceErr
	}
	f.replaced = ds
	if f.written > 0 {
		return f.written, nil
	}
	return int64(len(ds.Rows)), nil
}

func (f *fakeStore) RecordUpload(_ context.Context, rec domain.UploadRecord) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) UploadHistory(_ context.Context, limit int) ([]domain.UploadRecord, error) {
	if limit > 0 && limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeStore) TableProfile(_ context.Context, cat domain.Category) (domain.TableProfile, error) {
	return f.profiles[cat], nil
}

func (f *fakeStore) DropAll(context.Context) ([]string, error) {
	return f.dropped, nil
}

// newAvail builds a resolver that reports the given categories as uploaded
// and populated.
func newAvail(cats ...domain.Category) *AvailabilityResolver {
	tables := make(map[domain.Category]int64, len(cats))
	for _, cat := range cats {
		tables[cat] = 1
	}
	return NewAvailabilityResolver(&fakeStore{tables: tables})
}

type fakeInventory struct {
	items   []domain.InventoryItem
	summary *domain.InventoryBlock
	err     error
}

func (f *fakeInventory) CurrentInventory(context.Context) ([]domain.InventoryItem, error) {
	return f.items, f.err
}

func (f *fakeInventory) InventorySummary(context.Context) (*domain.InventoryBlock, error) {
	return f.summary, f.err
}

type fakeSales struct {
	totals       *domain.SalesTotals
	productSales []domain.ProductSalesStat
	daily        map[string][]domain.DailyQuantity
	monthly      map[string][]domain.MonthlyQuantity
	periods      []domain.PeriodRevenue
	customers    []domain.CustomerRevenue
	err          error
}

func (f *fakeSales) SalesTotals(context.Context) (*domain.SalesTotals, error) {
	return f.totals, f.err
}

func (f *fakeSales) ProductSales(context.Context) ([]domain.ProductSalesStat, error) {
	return f.productSales, f.err
}

func (f *fakeSales) ProductSalesFor(_ context.Context, ids []string) ([]domain.ProductSalesStat, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.ProductSalesStat
	for _, s := range f.productSales {
		if want[s.ProductID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSales) DailySales(_ context.Context, productID string) ([]domain.DailyQuantity, error) {
	return f.daily[productID], f.err
}

func (f *fakeSales) MonthlySales(_ context.Context, productID string) ([]domain.MonthlyQuantity, error) {
	return f.monthly[productID], f.err
}

func (f *fakeSales) RevenueByPeriod(context.Context, string) ([]domain.PeriodRevenue, error) {
	return f.periods, f.err
}

func (f *fakeSales) RevenueByCustomer(context.Context, int) ([]domain.CustomerRevenue, error) {
	return f.customers, f.err
}

type fakeLedgers struct {
	receivables []domain.ReceivableEntry
	payables    []domain.PayableEntry
	arBlock     *domain.ARBlock
	poBlock     *domain.POBlock
	err         error
}

func (f *fakeLedgers) Receivables(context.Context) ([]domain.ReceivableEntry, error) {
	return f.receivables, f.err
}

func (f *fakeLedgers) Payables(context.Context) ([]domain.PayableEntry, error) {
	return f.payables, f.err
}

func (f *fakeLedgers) ARSummary(context.Context) (*domain.ARBlock, error) {
	return f.arBlock, f.err
}

func (f *fakeLedgers) POSummary(context.Context) (*domain.POBlock, error) {
	return f.poBlock, f.err
}

type fakeProducts struct {
	products   []domain.Product
	byID       map[string]domain.Product
	hasClasses bool
	err        error
}

func (f *fakeProducts) Products(context.Context, string, string) ([]domain.Product, error) {
	return f.products, f.err
}

func (f *fakeProducts) ProductsByID(context.Context, []string) (map[string]domain.Product, error) {
	return f.byID, f.err
}

func (f *fakeProducts) ProductsHaveClasses(context.Context) (bool, error) {
	return f.hasClasses, f.err
}

type fakeCustomers struct {
	block *domain.CustomerBlock
	err   error
}

func (f *fakeCustomers) CustomerSummary(context.Context) (*domain.CustomerBlock, error) {
	return f.block, f.err
}

type fakeSuppliers struct {
	suppliers   []domain.Supplier
	orderStats  []domain.SupplierOrderStat
	links       []domain.SupplyLink
	block       *domain.SupplierBlock
	err         error
	supplierErr error // Suppliers() only
}

func (f *fakeSuppliers) Suppliers(context.Context) ([]domain.Supplier, error) {
	if f.supplierErr != nil {
		return nil, f.supplierErr
	}
	return f.suppliers, f.err
}

func (f *fakeSuppliers) SupplierOrderStats(context.Context) ([]domain.SupplierOrderStat, error) {
	return f.orderStats, f.err
}

func (f *fakeSuppliers) SupplyLinks(context.Context) ([]domain.SupplyLink, error) {
	return f.links, f.err
}

func (f *fakeSuppliers) SupplierSummary(context.Context) (*domain.SupplierBlock, error) {
	return f.block, f.err
}

type fakeGraph struct {
	err error

	ops          []string
	nodes        []domain.SupplierNode
	links        []domain.SupplyLink
	network      []domain.SupplyLink
	singles      []domain.SingleSourceRisk
	supplierName string
	products     []string
	ranked       []domain.RankedSupplier
	alternatives []domain.RankedSupplier
	leadTimes    []domain.LeadTimeEntry
	stats        domain.GraphStats
}

func (f *fakeGraph) UpsertSuppliers(_ context.Context, nodes []domain.SupplierNode) error {
	if f.err != nil {
		return f.err
	}
	f.ops = append(f.ops, "suppliers")
	f.nodes = nodes
	return nil
}

func (f *fakeGraph) UpsertSupplyLinks(_ context.Context, links []domain.SupplyLink) error {
	if f.err != nil {
		return f.err
	}
	f.ops = append(f.ops, "links")
	f.links = links
	return nil
}

func (f *fakeGraph) Network(context.Context) ([]domain.SupplyLink, error) {
	return f.network, f.err
}

func (f *fakeGraph) SingleSourceProducts(context.Context, int) ([]domain.SingleSourceRisk, error) {
	return f.singles, f.err
}

func (f *fakeGraph) ProductsOfSupplier(context.Context, string) (string, []string, error) {
	return f.supplierName, f.products, f.err
}

func (f *fakeGraph) SuppliersOfProduct(context.Context, string) ([]domain.RankedSupplier, error) {
	return f.ranked, f.err
}

func (f *fakeGraph) AlternativeSuppliers(context.Context, string, int) ([]domain.RankedSupplier, error) {
	return f.alternatives, f.err
}

func (f *fakeGraph) LeadTimeRanking(context.Context) ([]domain.LeadTimeEntry, error) {
	return f.leadTimes, f.err
}

func (f *fakeGraph) Stats(context.Context) (domain.GraphStats, error) {
	return f.stats, f.err
}

func (f *fakeGraph) Reset(context.Context) error {
	return f.err
}

type fakeShipments struct {
	groups    []domain.ShipmentStatusGroup
	inTransit []domain.Shipment
	err       error
}

func (f *fakeShipments) ShipmentsByStatus(context.Context, string) ([]domain.ShipmentStatusGroup, error) {
	return f.groups, f.err
}

func (f *fakeShipments) InTransitShipments(context.Context, int) ([]domain.Shipment, error) {
	return f.inTransit, f.err
}

type fakeColumns struct {
	values []domain.LabeledValue
	err    error
}

func (f *fakeColumns) NumericColumn(context.Context, domain.Category, string) ([]domain.LabeledValue, error) {
	return f.values, f.err
}

type fakeRunner struct {
	result  *domain.QueryResult
	err     error
	gotSQL  string
	gotMax  int
	wasUsed bool
}

func (f *fakeRunner) RunQuery(_ context.Context, sql string, maxRows int) (*domain.QueryResult, error) {
	f.wasUsed = true
	f.gotSQL = sql
	f.gotMax = maxRows
	return f.result, f.err
}

type fakeEvents struct {
	published []domain.Category
	err       error
}

func (f *fakeEvents) PublishDatasetReplaced(_ context.Context, cat domain.Category, _ int64) error {
	f.published = append(f.published, cat)
	return f.err
}

type fakeMetrics struct {
	outcomes map[string]string
}

func (f *fakeMetrics) RecordAnalysis(name, outcome string, _ float64) {
	if f.outcomes == nil {
		f.outcomes = map[string]string{}
	}
	f.outcomes[name] = outcome
}

type fakeParser struct {
	columns []string
	rows    []map[string]string
	err     error
}

func (f *fakeParser) Parse(string, io.Reader) ([]string, []map[string]string, error) {
	return f.columns, f.rows, f.err
}

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) Save(_ context.Context, key string, _ io.Reader) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

func daysAgo(now time.Time, days int) *time.Time {
	t := now.AddDate(0, 0, -days)
	return &t
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
