package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

// DataOpsEngine answers the data-operations analyses (upload status, schema
// and quality introspection, shipment and catalogue views) and implements the
// admin surface over both stores.
type DataOpsEngine struct {
	store     ports.DatasetStore
	graph     ports.GraphStore
	avail     *AvailabilityResolver
	inventory ports.InventoryReader
	sales     ports.SalesReader
	suppliers ports.SupplierReader
	customers ports.CustomerReader
	ledgers   ports.LedgerSummaryReader
	shipments ports.ShipmentReader
	products  ports.ProductReader
	log       *slog.Logger
}

func NewDataOpsEngine(
	store ports.DatasetStore,
	graph ports.GraphStore,
	avail *AvailabilityResolver,
	inventory ports.InventoryReader,
	sales ports.SalesReader,
	suppliers ports.SupplierReader,
	customers ports.CustomerReader,
	ledgers ports.LedgerSummaryReader,
	shipments ports.ShipmentReader,
	products ports.ProductReader,
	log *slog.Logger,
) *DataOpsEngine {
	return &DataOpsEngine{
		store:     store,
		graph:     graph,
		avail:     avail,
		inventory: inventory,
		sales:     sales,
		suppliers: suppliers,
		customers: customers,
		ledgers:   ledgers,
		shipments: shipments,
		products:  products,
		log:       log,
	}
}

// Dashboard builds one block per present dataset and skips the rest. An
// entirely empty store yields just a message.
func (e *DataOpsEngine) Dashboard(ctx context.Context) (*domain.DashboardOverview, error) {
	out := &domain.DashboardOverview{}
	any := false

	if ok, err := e.avail.Available(ctx, domain.CategorySales); err != nil {
		return nil, err
	} else if ok {
		totals, err := e.sales.SalesTotals(ctx)
		if err != nil {
			return nil, err
		}
		out.Revenue = &domain.RevenueBlock{
			TotalRevenue:   round2(totals.Revenue),
			TotalCost:      round2(totals.Cost),
			GrossProfit:    round2(totals.GrossProfit),
			Transactions:   totals.Transactions,
			UniqueProducts: totals.UniqueProducts,
		}
		any = true
	}

	if ok, err := e.avail.Available(ctx, domain.CategoryInventory); err != nil {
		return nil, err
	} else if ok {
		block, err := e.inventory.InventorySummary(ctx)
		if err != nil {
			return nil, err
		}
		out.Inventory = block
		any = true
	}

	if ok, err := e.avail.Available(ctx, domain.CategorySuppliers); err != nil {
		return nil, err
	} else if ok {
		block, err := e.suppliers.SupplierSummary(ctx)
		if err != nil {
			return nil, err
		}
		out.Suppliers = block
		any = true
	}

	if ok, err := e.avail.Available(ctx, domain.CategoryCustomers); err != nil {
		return nil, err
	} else if ok {
		block, err := e.customers.CustomerSummary(ctx)
		if err != nil {
			return nil, err
		}
		out.Customers = block
		any = true
	}

	if ok, err := e.avail.Available(ctx, domain.CategoryARLedger); err != nil {
		return nil, err
	} else if ok {
		block, err := e.ledgers.ARSummary(ctx)
		if err != nil {
			return nil, err
		}
		out.Receivables = block
		any = true
	}

	if ok, err := e.avail.Available(ctx, domain.CategoryPurchaseOrders); err != nil {
		return nil, err
	} else if ok {
		block, err := e.ledgers.POSummary(ctx)
		if err != nil {
			return nil, err
		}
		out.PurchaseOrders = block
		any = true
	}

	if !any {
		out.Message = "No datasets uploaded yet. Upload data to populate the dashboard."
	}
	return out, nil
}

// DataQuality profiles every present table: null counts, duplicate rows and
// the derived 0-100 score.
func (e *DataOpsEngine) DataQuality(ctx context.Context) (*domain.DataQualityReport, error) {
	report := &domain.DataQualityReport{Tables: map[string]domain.TableQuality{}}
	for _, cat := range domain.AllCategories {
		ok, err := e.avail.Available(ctx, cat)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		profile, err := e.store.TableProfile(ctx, cat)
		if err != nil {
			return nil, err
		}
		report.Tables[cat.Table()] = domain.TableQuality{
			Rows:          profile.Rows,
			Columns:       profile.Columns,
			NullCounts:    profile.NullCounts,
			DuplicateRows: profile.DuplicateRows,
			QualityScore:  profile.QualityScore(),
		}
	}
	if len(report.Tables) == 0 {
		report.Tables = nil
		report.Message = "No datasets uploaded yet."
	}
	return report, nil
}

// UploadStatus reports one line per category, loaded or not.
func (e *DataOpsEngine) UploadStatus(ctx context.Context) (*domain.UploadStatusReport, error) {
	report := &domain.UploadStatusReport{}
	for _, cat := range domain.AllCategories {
		status := domain.TableStatus{Category: cat}
		ok, err := e.store.HasTable(ctx, cat)
		if err != nil {
			return nil, err
		}
		if ok {
			rows, err := e.store.RowCount(ctx, cat)
			if err != nil {
				return nil, err
			}
			status.Uploaded = true
			status.RowCount = rows
			status.Destination = cat.Table()
		}
		report.Files = append(report.Files, status)
	}
	return report, nil
}

// SchemaInfo describes one category's expected columns and current row count.
func (e *DataOpsEngine) SchemaInfo(ctx context.Context, table string) (*domain.SchemaInfo, error) {
	cat, err := domain.ParseCategory(table)
	if err != nil {
		return nil, err
	}
	schema, ok := domain.SchemaFor(cat)
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "schema_info", fmt.Errorf("no schema for %s", table))
	}
	info := &domain.SchemaInfo{Table: cat.Table(), Columns: schema.Columns}
	present, err := e.store.HasTable(ctx, cat)
	if err != nil {
		return nil, err
	}
	if present {
		info.Rows, err = e.store.RowCount(ctx, cat)
		if err != nil {
			return nil, err
		}
	}
	return info, nil
}

// VersionHistory lists past uploads, newest first.
func (e *DataOpsEngine) VersionHistory(ctx context.Context, limit int) (*domain.VersionHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	history, err := e.store.UploadHistory(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := &domain.VersionHistory{TotalUploads: len(history), History: history}
	if len(history) == 0 {
		out.Message = "No uploads recorded yet."
	}
	return out, nil
}

// Health probes both stores. A failed graph probe is reported, not fatal.
func (e *DataOpsEngine) Health(ctx context.Context) (*domain.StoreHealth, error) {
	health := &domain.StoreHealth{Tabular: map[string]domain.TableHealth{}}
	for _, cat := range domain.AllCategories {
		ok, err := e.store.HasTable(ctx, cat)
		if err != nil {
			return nil, err
		}
		if !ok {
			health.Tabular[cat.Table()] = domain.TableHealth{Status: "not_loaded"}
			continue
		}
		rows, err := e.store.RowCount(ctx, cat)
		if err != nil {
			return nil, err
		}
		schema, _ := domain.SchemaFor(cat)
		health.Tabular[cat.Table()] = domain.TableHealth{
			Status:  "ok",
			Rows:    rows,
			Columns: len(schema.Columns),
		}
	}

	stats, err := e.graph.Stats(ctx)
	if err != nil {
		e.log.Warn("graph health probe failed", "error", err)
		health.Graph = domain.GraphHealth{Status: "unavailable", Error: err.Error()}
		return health, nil
	}
	health.Graph = domain.GraphHealth{
		Status:        "connected",
		Suppliers:     stats.Suppliers,
		Products:      stats.Products,
		Relationships: stats.Relationships,
	}
	return health, nil
}

// Reset drops every dataset table and clears the graph mirror. A graph
// failure is reported in the result rather than aborting the tabular wipe.
func (e *DataOpsEngine) Reset(ctx context.Context) (*domain.ResetReport, error) {
	dropped, err := e.store.DropAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(dropped)
	report := &domain.ResetReport{TabularDropped: dropped, Message: "All datasets removed."}
	if err := e.graph.Reset(ctx); err != nil {
		e.log.Warn("graph reset failed", "error", err)
		report.GraphError = err.Error()
	} else {
		report.GraphCleared = true
	}
	return report, nil
}

// ShipmentTracking rolls shipments up by status, with in-transit detail.
func (e *DataOpsEngine) ShipmentTracking(ctx context.Context, status string, limit int) (*domain.ShipmentTrackingReport, error) {
	if limit <= 0 {
		limit = 50
	}
	summary, err := e.shipments.ShipmentsByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	report := &domain.ShipmentTrackingReport{Summary: summary}
	if status == "" || status == "in_transit" {
		report.InTransit, err = e.shipments.InTransitShipments(ctx, limit)
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}

// ProductCatalog filters the product master by category and ABC class.
func (e *DataOpsEngine) ProductCatalog(ctx context.Context, category, abcClass string, limit int) (*domain.ProductCatalogReport, error) {
	if limit <= 0 {
		limit = 100
	}
	products, err := e.products.Products(ctx, category, abcClass)
	if err != nil {
		return nil, err
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ProductID < products[j].ProductID })
	if len(products) > limit {
		products = products[:limit]
	}
	return &domain.ProductCatalogReport{Total: len(products), Products: products}, nil
}
