package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

// Analysis outcome labels for metrics.
const (
	outcomeOK      = "ok"
	outcomeDataGap = "data_gap"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

type catalogEntry struct {
	spec domain.AnalysisSpec
	run  func(ctx context.Context, p domain.Params) (any, error)
}

// Catalog is the fixed set of named analyses. Every call is gated on the
// entry's dataset requirements before its engine runs; an unmet requirement
// yields a DataGap result, not an error.
type Catalog struct {
	avail   *AvailabilityResolver
	metrics ports.AnalysisMetrics
	entries []catalogEntry
	byName  map[string]int
}

func NewCatalog(
	avail *AvailabilityResolver,
	metricsEngine *MetricsEngine,
	inventoryEngine *InventoryEngine,
	demandEngine *DemandEngine,
	supplierEngine *SupplierEngine,
	dataOps *DataOpsEngine,
	gate *SQLGate,
	metrics ports.AnalysisMetrics,
) *Catalog {
	c := &Catalog{avail: avail, metrics: metrics, byName: map[string]int{}}
	c.register(metricsEngine, inventoryEngine, demandEngine, supplierEngine, dataOps, gate)
	return c
}

func (c *Catalog) Specs() []domain.AnalysisSpec {
	specs := make([]domain.AnalysisSpec, len(c.entries))
	for i, e := range c.entries {
		specs[i] = e.spec
	}
	return specs
}

// Run dispatches one analysis by name. Unknown names are invalid input.
func (c *Catalog) Run(ctx context.Context, name string, params domain.Params) (any, error) {
	idx, ok := c.byName[name]
	if !ok {
		c.metrics.RecordAnalysis(name, outcomeInvalid, 0)
		return nil, domain.WrapError(domain.ErrInvalidInput, "run analysis",
			fmt.Errorf("unknown analysis %q", name))
	}
	entry := c.entries[idx]
	start := time.Now()

	gap, err := c.avail.Gate(ctx, entry.spec)
	if err != nil {
		c.metrics.RecordAnalysis(name, outcomeError, time.Since(start).Seconds())
		return nil, err
	}
	if gap != nil {
		c.metrics.RecordAnalysis(name, outcomeDataGap, time.Since(start).Seconds())
		return gap, nil
	}

	result, err := entry.run(ctx, params)
	elapsed := time.Since(start).Seconds()
	switch {
	case err == nil:
		if _, isGap := result.(*domain.DataGap); isGap {
			c.metrics.RecordAnalysis(name, outcomeDataGap, elapsed)
		} else {
			c.metrics.RecordAnalysis(name, outcomeOK, elapsed)
		}
	case domain.IsKind(err, domain.ErrInvalidInput) || domain.IsKind(err, domain.ErrNotFound):
		c.metrics.RecordAnalysis(name, outcomeInvalid, elapsed)
	default:
		c.metrics.RecordAnalysis(name, outcomeError, elapsed)
	}
	return result, err
}

func (c *Catalog) add(spec domain.AnalysisSpec, run func(ctx context.Context, p domain.Params) (any, error)) {
	c.byName[spec.Name] = len(c.entries)
	c.entries = append(c.entries, catalogEntry{spec: spec, run: run})
}

func (c *Catalog) register(
	m *MetricsEngine,
	inv *InventoryEngine,
	dem *DemandEngine,
	sup *SupplierEngine,
	ops *DataOpsEngine,
	gate *SQLGate,
) {
	limitParam := domain.ParamSpec{Name: "limit", Kind: domain.ParamNumber, Description: "maximum entries returned"}
	productIDs := domain.ParamSpec{Name: "product_ids", Kind: domain.ParamStringList, Description: "SKUs to evaluate", Required: true}

	// dashboard
	c.add(domain.AnalysisSpec{
		Name:        "get_full_dashboard",
		Group:       "dashboard",
		Description: "Cross-dataset overview, one block per uploaded dataset",
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return ops.Dashboard(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_kpi_summary",
		Group:       "dashboard",
		Description: "Cash conversion cycle (DIO + DSO - DPO) with field-by-field degradation",
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return m.KPISummary(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_data_quality_report",
		Group:       "dashboard",
		Description: "Per-table null counts, duplicate rows and quality score",
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return ops.DataQuality(ctx)
	})

	// inventory
	c.add(domain.AnalysisSpec{
		Name:        "get_reorder_alerts",
		Group:       "inventory",
		Description: "SKUs at or near their reorder point, by severity",
		Requires:    []domain.Category{domain.CategoryInventory},
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return inv.ReorderAlerts(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_smart_reorder_recommendations",
		Group:       "inventory",
		Description: "Prioritized reorder plan joined with the product master",
		Requires:    []domain.Category{domain.CategoryInventory},
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return inv.SmartReorder(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "calculate_safety_stock",
		Group:       "inventory",
		Description: "Safety stock per SKU: Z * demand stddev * sqrt(lead time)",
		Params: []domain.ParamSpec{
			productIDs,
			{Name: "service_level", Kind: domain.ParamNumber, Description: "0.90, 0.95 or 0.99", Default: 0.95},
		},
		Requires: []domain.Category{domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		ids := p.Strings("product_ids")
		if len(ids) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "safety_stock", fmt.Errorf("product_ids is required"))
		}
		return inv.SafetyStock(ctx, ids, p.Float("service_level", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "calculate_eoq",
		Group:       "inventory",
		Description: "Economic order quantity per SKU: sqrt(2DS/H)",
		Params: []domain.ParamSpec{
			productIDs,
			{Name: "order_cost", Kind: domain.ParamNumber, Description: "fixed cost per order", Default: 50},
			{Name: "holding_rate", Kind: domain.ParamNumber, Description: "annual holding rate", Default: 0.25},
		},
		Requires: []domain.Category{domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		ids := p.Strings("product_ids")
		if len(ids) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "eoq", fmt.Errorf("product_ids is required"))
		}
		return inv.EOQ(ctx, ids, p.Float("order_cost", 0), p.Float("holding_rate", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_inventory_turnover",
		Group:       "inventory",
		Description: "Units sold over units held, per SKU",
		Params:      []domain.ParamSpec{limitParam},
		Requires:    []domain.Category{domain.CategoryInventory, domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return inv.Turnover(ctx, p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_inventory_aging",
		Group:       "inventory",
		Description: "Stock bucketed by days since last movement",
		Params:      []domain.ParamSpec{limitParam},
		Requires:    []domain.Category{domain.CategoryInventory},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return inv.Aging(ctx, p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_dead_stock",
		Group:       "inventory",
		Description: "Stocked SKUs with no sale inside the threshold",
		Params: []domain.ParamSpec{
			{Name: "days_threshold", Kind: domain.ParamNumber, Description: "idle-day threshold", Default: 90},
		},
		Requires: []domain.Category{domain.CategoryInventory},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return inv.DeadStock(ctx, p.Int("days_threshold", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_overstock_analysis",
		Group:       "inventory",
		Description: "SKUs flagged overstocked in the snapshot",
		Requires:    []domain.Category{domain.CategoryInventory},
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return inv.Overstock(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_stockout_risk",
		Group:       "inventory",
		Description: "SKUs whose days of supply fall inside the horizon",
		Params: []domain.ParamSpec{
			{Name: "horizon_days", Kind: domain.ParamNumber, Description: "look-ahead in days", Default: 14},
		},
		Requires: []domain.Category{domain.CategoryInventory},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return inv.StockoutRisk(ctx, p.Int("horizon_days", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_abc_xyz_classification",
		Group:       "inventory",
		Description: "ABC by revenue share, XYZ by demand variability",
		Params:      []domain.ParamSpec{limitParam},
		RequiresAny: []domain.Category{domain.CategoryProducts, domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return m.ABCXYZ(ctx, p.Int("limit", 0))
	})

	// cash cycle
	c.add(domain.AnalysisSpec{
		Name:        "simulate_ccc_improvement",
		Group:       "cash_cycle",
		Description: "Cash freed by reducing DIO/DSO or stretching DPO",
		Params: []domain.ParamSpec{
			{Name: "dio_reduction", Kind: domain.ParamNumber, Description: "days of inventory removed", Default: 0},
			{Name: "dso_reduction", Kind: domain.ParamNumber, Description: "days of receivables removed", Default: 0},
			{Name: "dpo_increase", Kind: domain.ParamNumber, Description: "days of payables added", Default: 0},
			{Name: "annual_revenue", Kind: domain.ParamNumber, Description: "override annual revenue"},
		},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return m.SimulateCCC(ctx,
			p.Float("dio_reduction", 0),
			p.Float("dso_reduction", 0),
			p.Float("dpo_increase", 0),
			p.Float("annual_revenue", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_working_capital_summary",
		Group:       "cash_cycle",
		Description: "Cash trapped in inventory, ranked per SKU",
		Params:      []domain.ParamSpec{limitParam},
		Requires:    []domain.Category{domain.CategoryInventory},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return m.WorkingCapital(ctx, p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_carrying_cost_analysis",
		Group:       "cash_cycle",
		Description: "Annual and monthly cost of holding current inventory",
		Params: []domain.ParamSpec{
			{Name: "holding_rate", Kind: domain.ParamNumber, Description: "annual holding rate", Default: 0.25},
		},
		Requires: []domain.Category{domain.CategoryInventory},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return m.CarryingCost(ctx, p.Float("holding_rate", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_pareto_analysis",
		Group:       "cash_cycle",
		Description: "80/20 ranking by revenue, quantity or inventory value",
		Params: []domain.ParamSpec{
			{Name: "dimension", Kind: domain.ParamString, Description: "revenue, quantity or inventory_value", Default: "revenue"},
			limitParam,
		},
		RequiresAny: []domain.Category{domain.CategorySales, domain.CategoryInventory},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return m.Pareto(ctx, p.String("dimension", ""), p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_ar_aging",
		Group:       "cash_cycle",
		Description: "Receivables rolled into aging buckets with dispute and write-off totals",
		Requires:    []domain.Category{domain.CategoryARLedger},
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return m.ARAging(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_dso_analysis",
		Group:       "cash_cycle",
		Description: "Revenue-weighted DSO, overall and per customer",
		Requires:    []domain.Category{domain.CategoryARLedger},
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return m.DSOAnalysis(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_dpo_analysis",
		Group:       "cash_cycle",
		Description: "Spend-weighted DPO, overall and per supplier",
		Requires:    []domain.Category{domain.CategoryAPLedger},
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return m.DPOAnalysis(ctx)
	})

	// demand
	c.add(domain.AnalysisSpec{
		Name:        "forecast_demand",
		Group:       "demand",
		Description: "Moving-average demand projection with trend adjustment",
		Params: []domain.ParamSpec{
			{Name: "product_id", Kind: domain.ParamString, Description: "SKU to forecast", Required: true},
			{Name: "window_days", Kind: domain.ParamNumber, Description: "moving-average window", Default: 7},
			{Name: "horizon_days", Kind: domain.ParamNumber, Description: "projection horizon", Default: 30},
		},
		Requires: []domain.Category{domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return dem.Forecast(ctx, p.String("product_id", ""), p.Int("window_days", 0), p.Int("horizon_days", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "detect_anomalies",
		Group:       "demand",
		Description: "Z-score outliers in one numeric column",
		Params: []domain.ParamSpec{
			{Name: "table", Kind: domain.ParamString, Description: "dataset category to scan", Required: true},
			{Name: "column", Kind: domain.ParamString, Description: "numeric column", Required: true},
			{Name: "z_threshold", Kind: domain.ParamNumber, Description: "absolute Z cutoff", Default: 2.0},
		},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		table := p.String("table", "")
		cat, err := domain.ParseCategory(table)
		if err != nil {
			return nil, err
		}
		ok, err := c.avail.Available(ctx, cat)
		if err != nil {
			return nil, err
		}
		if !ok {
			return domain.NewDataGap(cat), nil
		}
		return dem.Anomalies(ctx, table, p.String("column", ""), p.Float("z_threshold", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_revenue_trends",
		Group:       "demand",
		Description: "Revenue per period with period-over-period growth",
		Params: []domain.ParamSpec{
			{Name: "granularity", Kind: domain.ParamString, Description: "day, week, month or quarter", Default: "month"},
		},
		Requires: []domain.Category{domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return dem.RevenueTrends(ctx, p.String("granularity", ""))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_sales_velocity",
		Group:       "demand",
		Description: "Units per active selling day, fastest movers first",
		Params:      []domain.ParamSpec{limitParam},
		Requires:    []domain.Category{domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return dem.Velocity(ctx, p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_top_skus",
		Group:       "demand",
		Description: "Top SKUs by revenue, quantity or profit",
		Params: []domain.ParamSpec{
			{Name: "metric", Kind: domain.ParamString, Description: "revenue, quantity or profit", Default: "revenue"},
			limitParam,
		},
		Requires: []domain.Category{domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return dem.TopSKUs(ctx, p.String("metric", ""), p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_customer_concentration",
		Group:       "demand",
		Description: "Revenue share of the top customers",
		Params: []domain.ParamSpec{
			{Name: "top_n", Kind: domain.ParamNumber, Description: "number of top customers", Default: 10},
		},
		Requires: []domain.Category{domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return dem.CustomerConcentration(ctx, p.Int("top_n", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_seasonality_analysis",
		Group:       "demand",
		Description: "Monthly demand pattern indexed against the average month",
		Params: []domain.ParamSpec{
			{Name: "product_id", Kind: domain.ParamString, Description: "SKU, or empty for the whole catalogue"},
		},
		Requires: []domain.Category{domain.CategorySales},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return dem.Seasonality(ctx, p.String("product_id", ""))
	})

	// supplier / graph
	c.add(domain.AnalysisSpec{
		Name:        "get_supplier_risk_scores",
		Group:       "supplier",
		Description: "Composite lead-time / delivery / quality risk per supplier",
		Requires:    []domain.Category{domain.CategorySuppliers},
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return sup.RiskScores(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_supplier_performance",
		Group:       "supplier",
		Description: "Supplier master ranked by on-time delivery",
		Params:      []domain.ParamSpec{limitParam},
		Requires:    []domain.Category{domain.CategorySuppliers},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return sup.Performance(ctx, p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_supplier_concentration",
		Group:       "supplier",
		Description: "Purchase-order value share per supplier",
		Requires:    []domain.Category{domain.CategoryPurchaseOrders},
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return sup.Concentration(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_supplier_network",
		Group:       "supplier",
		Description: "Supplier to product relationships, graph first with tabular fallback",
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return sup.Network(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "find_single_source_risks",
		Group:       "supplier",
		Description: "Products with exactly one supplier",
		Params:      []domain.ParamSpec{limitParam},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return sup.SingleSource(ctx, p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "ripple_effect_analysis",
		Group:       "supplier",
		Description: "Products impacted if one supplier fails",
		Params: []domain.ParamSpec{
			{Name: "supplier_id", Kind: domain.ParamString, Description: "the failed supplier", Required: true},
		},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return sup.Ripple(ctx, p.String("supplier_id", ""))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_lead_time_variability",
		Group:       "supplier",
		Description: "Suppliers ranked by average lead time",
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return sup.LeadTimeVariability(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "find_alternative_suppliers",
		Group:       "supplier",
		Description: "Up to five candidate suppliers not currently supplying the product",
		Params: []domain.ParamSpec{
			{Name: "product_id", Kind: domain.ParamString, Description: "the product to re-source", Required: true},
		},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return sup.Alternatives(ctx, p.String("product_id", ""))
	})

	// data ops
	c.add(domain.AnalysisSpec{
		Name:        "list_uploads",
		Group:       "data_ops",
		Description: "Loaded state and row count per dataset category",
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return ops.UploadStatus(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_schema_info",
		Group:       "data_ops",
		Description: "Expected columns and current rows of one dataset",
		Params: []domain.ParamSpec{
			{Name: "table", Kind: domain.ParamString, Description: "dataset category", Required: true},
		},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return ops.SchemaInfo(ctx, p.String("table", ""))
	})
	c.add(domain.AnalysisSpec{
		Name:        "run_sql_query",
		Group:       "data_ops",
		Description: "Read-only ad-hoc query, denylist guarded and row capped",
		Params: []domain.ParamSpec{
			{Name: "query", Kind: domain.ParamString, Description: "SELECT statement", Required: true},
		},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return gate.Run(ctx, p.String("query", ""))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_version_history",
		Group:       "data_ops",
		Description: "Past uploads, newest first",
		Params:      []domain.ParamSpec{limitParam},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return ops.VersionHistory(ctx, p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "trigger_database_refresh",
		Group:       "data_ops",
		Description: "Probe both stores and report per-table health",
	}, func(ctx context.Context, _ domain.Params) (any, error) {
		return ops.Health(ctx)
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_shipment_tracking",
		Group:       "data_ops",
		Description: "Shipments rolled up by status with in-transit detail",
		Params: []domain.ParamSpec{
			{Name: "status", Kind: domain.ParamString, Description: "filter by shipment status"},
			limitParam,
		},
		Requires: []domain.Category{domain.CategoryShipments},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return ops.ShipmentTracking(ctx, p.String("status", ""), p.Int("limit", 0))
	})
	c.add(domain.AnalysisSpec{
		Name:        "get_product_catalog",
		Group:       "data_ops",
		Description: "Product master filtered by category and ABC class",
		Params: []domain.ParamSpec{
			{Name: "category", Kind: domain.ParamString, Description: "product category filter"},
			{Name: "abc_class", Kind: domain.ParamString, Description: "A, B or C"},
			limitParam,
		},
		Requires: []domain.Category{domain.CategoryProducts},
	}, func(ctx context.Context, p domain.Params) (any, error) {
		return ops.ProductCatalog(ctx, p.String("category", ""), p.String("abc_class", ""), p.Int("limit", 0))
	})
}
