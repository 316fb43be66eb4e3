package domain

// KPISummary is the cash-cycle headline: CCC = DIO + DSO - DPO, degraded
// field-by-field. A sub-metric that cannot be computed is zero and carries a
// note naming the missing dataset.
type KPISummary struct {
	Formula string  `json:"formula"`
	Unit    string  `json:"unit"`
	DIO     float64 `json:"dio"`
	DIONote string  `json:"dio_note,omitempty"`
	DSO     float64 `json:"dso"`
	DSONote string  `json:"dso_note,omitempty"`
	DPO     float64 `json:"dpo"`
	DPONote string  `json:"dpo_note,omitempty"`
	CCC     float64 `json:"ccc"`
}

// DashboardOverview has one block per present dataset.
type DashboardOverview struct {
	Revenue        *RevenueBlock   `json:"revenue,omitempty"`
	Inventory      *InventoryBlock `json:"inventory,omitempty"`
	Suppliers      *SupplierBlock  `json:"suppliers,omitempty"`
	Customers      *CustomerBlock  `json:"customers,omitempty"`
	Receivables    *ARBlock        `json:"ar,omitempty"`
	PurchaseOrders *POBlock        `json:"purchase_orders,omitempty"`
	Message        string          `json:"message,omitempty"`
}

type RevenueBlock struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalCost      float64 `json:"total_cost"`
	GrossProfit    float64 `json:"gross_profit"`
	Transactions   int64   `json:"transactions"`
	UniqueProducts int64   `json:"unique_products"`
}

type InventoryBlock struct {
	UniqueSKUs  int64   `json:"unique_skus"`
	TotalUnits  float64 `json:"total_units"`
	TotalValue  float64 `json:"total_value"`
	Stockouts   int64   `json:"stockouts"`
	Overstocked int64   `json:"overstocked"`
}

type SupplierBlock struct {
	Count       int64   `json:"count"`
	AvgLeadTime float64 `json:"avg_lead_time"`
	AvgOTDRate  float64 `json:"avg_otd_rate"`
}

type CustomerBlock struct {
	Count        int64   `json:"count"`
	TotalRevenue float64 `json:"total_ytd_revenue"`
	AvgDaysToPay float64 `json:"avg_days_to_pay"`
}

type ARBlock struct {
	TotalInvoices  int64   `json:"total_invoices"`
	Overdue        int64   `json:"overdue"`
	WriteOffAmount float64 `json:"write_off_amount"`
}

type POBlock struct {
	Count      int64   `json:"count"`
	TotalQty   float64 `json:"total_qty"`
	TotalValue float64 `json:"total_value"`
}

// DataQualityReport maps table name to its quality profile.
type DataQualityReport struct {
	Tables  map[string]TableQuality `json:"tables,omitempty"`
	Message string                  `json:"message,omitempty"`
}

type TableQuality struct {
	Rows          int64            `json:"rows"`
	Columns       int              `json:"columns"`
	NullCounts    map[string]int64 `json:"null_counts,omitempty"`
	DuplicateRows int64            `json:"duplicate_rows"`
	QualityScore  int              `json:"quality_score"`
}

// CarryingCostReport prices holding the current inventory.
type CarryingCostReport struct {
	TotalInventoryValue float64 `json:"total_inventory_value"`
	HoldingRate         float64 `json:"holding_rate"`
	AnnualCarryingCost  float64 `json:"annual_carrying_cost"`
	MonthlyCarryingCost float64 `json:"monthly"`
}

// ParetoEntry is one SKU of the Pareto ranking.
type ParetoEntry struct {
	ProductID     string  `json:"product_id"`
	Value         float64 `json:"value"`
	CumulativePct float64 `json:"cum_pct"`
}

type ParetoReport struct {
	Dimension     string        `json:"dimension"`
	TotalSKUs     int           `json:"total_skus"`
	SKUsDriving80 int           `json:"skus_driving_80pct"`
	PctOfSKUs     float64       `json:"pct_of_skus"`
	Entries       []ParetoEntry `json:"pareto_data"`
}

// ABCXYZEntry is one SKU's classification.
type ABCXYZEntry struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Revenue     float64 `json:"revenue,omitempty"`
	ABC         string  `json:"abc"`
	XYZ         string  `json:"xyz,omitempty"`
}

type ABCXYZReport struct {
	Total          int               `json:"total"`
	Classification []ABCXYZEntry     `json:"classification"`
	Source         string            `json:"source"` // "products" (pre-populated) or "sales_transactions"
	Legend         map[string]string `json:"legend,omitempty"`
}

// CCCSimulation is the what-if output of simulate_ccc_improvement.
type CCCSimulation struct {
	AnnualRevenue  float64          `json:"annual_revenue"`
	DailyRevenue   float64          `json:"daily_revenue"`
	TotalDaysSaved float64          `json:"total_days_saved"`
	TotalCashFreed float64          `json:"total_cash_freed"`
	Breakdown      []CCCLeverImpact `json:"breakdown"`
}

type CCCLeverImpact struct {
	Action    string  `json:"action"`
	CashFreed float64 `json:"cash"`
}

// WorkingCapitalSummary ranks SKUs by trapped cash.
type WorkingCapitalSummary struct {
	TotalCashTrapped float64           `json:"total_cash_trapped"`
	TopItems         []TrappedCashItem `json:"top_items"`
}

type TrappedCashItem struct {
	ProductID   string  `json:"product_id"`
	TotalUnits  float64 `json:"total_units"`
	TrappedCash float64 `json:"trapped_cash"`
}

// ARAgingReport rolls the AR ledger into aging buckets.
type ARAgingReport struct {
	Buckets          []ARAgingBucket `json:"aging_buckets"`
	TotalOutstanding float64         `json:"total_outstanding"`
	Disputes         LedgerFlagTotal `json:"disputes"`
	WriteOffs        LedgerFlagTotal `json:"write_offs"`
}

type ARAgingBucket struct {
	Bucket      string  `json:"aging_bucket"`
	Invoices    int     `json:"invoices"`
	TotalAmount float64 `json:"total_amount"`
	Outstanding float64 `json:"outstanding"`
}

type LedgerFlagTotal struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// DSOReport carries the overall revenue-weighted DSO and a per-customer
// breakdown.
type DSOReport struct {
	OverallDSO float64       `json:"overall_dso"`
	ByCustomer []CustomerDSO `json:"by_customer"`
	Note       string        `json:"note,omitempty"`
}

type CustomerDSO struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name,omitempty"`
	Segment      string  `json:"segment,omitempty"`
	WeightedDSO  float64 `json:"weighted_dso"`
	Invoices     int     `json:"invoices"`
	TotalBilled  float64 `json:"total_billed"`
}

// DPOReport mirrors DSOReport on the payable side.
type DPOReport struct {
	OverallDPO float64       `json:"overall_dpo"`
	BySupplier []SupplierDPO `json:"by_supplier"`
	Note       string        `json:"note,omitempty"`
}

type SupplierDPO struct {
	SupplierID     string  `json:"supplier_id"`
	SupplierName   string  `json:"supplier_name,omitempty"`
	WeightedDPO    float64 `json:"weighted_dpo"`
	ContractDays   *int    `json:"terms,omitempty"`
	Invoices       int     `json:"invoices"`
	TotalDiscounts float64 `json:"total_discounts"`
}
