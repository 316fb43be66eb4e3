package domain

// Reorder severity thresholds: on-hand below the reorder point is critical,
// below 1.2x is a warning.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityOK       = "ok"
)

type ReorderAlert struct {
	ProductID    string   `json:"product_id"`
	LocationID   string   `json:"location_id,omitempty"`
	QtyOnHand    float64  `json:"qty_on_hand"`
	ReorderPoint float64  `json:"reorder_point"`
	SafetyTarget float64  `json:"safety_stock_target,omitempty"`
	StockStatus  string   `json:"stock_status,omitempty"`
	DaysOfSupply float64  `json:"days_of_supply"`
	Severity     string   `json:"severity"`
	StockRatio   *float64 `json:"stock_ratio,omitempty"` // nil when reorder point is 0
}

type ReorderAlertReport struct {
	TotalAlerts int            `json:"total_alerts"`
	Alerts      []ReorderAlert `json:"alerts"`
}

type ReorderRecommendation struct {
	ProductID    string  `json:"product_id"`
	QtyOnHand    float64 `json:"qty_on_hand"`
	ReorderPoint float64 `json:"reorder_point"`
	DaysOfSupply float64 `json:"days_of_supply"`
	OrderQty     float64 `json:"eoq"`
	LeadTimeDays int     `json:"lead_time"`
	StockStatus  string  `json:"stock_status"`
	Priority     int     `json:"priority"` // 1 stockout, 2 low stock, 3 rest
}

type ReorderPlan struct {
	Recommendations []ReorderRecommendation `json:"recommendations"`
	Count           int                     `json:"count"`
}

type SafetyStockResult struct {
	ProductID    string  `json:"product_id"`
	SafetyStock  int     `json:"safety_stock"`
	DemandStdDev float64 `json:"demand_std"`
	LeadTimeDays int     `json:"lead_time"`
	ZScore       float64 `json:"z_score"`
}

type SafetyStockReport struct {
	Formula      string              `json:"formula"`
	ServiceLevel float64             `json:"service_level"`
	Results      []SafetyStockResult `json:"results"`
}

type EOQResult struct {
	ProductID     string  `json:"product_id"`
	EOQ           int     `json:"eoq"`
	AnnualDemand  float64 `json:"annual_demand"`
	UnitCost      float64 `json:"unit_cost"`
	OrdersPerYear float64 `json:"orders_per_year"`
}

type EOQReport struct {
	Formula    string      `json:"formula"`
	OrderCost  float64     `json:"order_cost_S"`
	HoldingPct float64     `json:"holding_pct_H"`
	Results    []EOQResult `json:"results"`
}

type TurnoverEntry struct {
	ProductID      string  `json:"product_id"`
	QtyOnHand      float64 `json:"qty_on_hand"`
	InventoryValue float64 `json:"inventory_value"`
	TotalSold      float64 `json:"total_sold"`
	Revenue        float64 `json:"revenue"`
	TurnoverRatio  float64 `json:"turnover_ratio"`
}

type TurnoverReport struct {
	SKUs  []TurnoverEntry `json:"skus"`
	Count int             `json:"count"`
}

// Aging bucket labels; boundaries are inclusive of the upper edge.
var AgingBucketLabels = []string{"0-30d", "31-60d", "61-90d", "90+d"}

// AgeBucketFor places days-since-last-movement into its bucket label.
func AgeBucketFor(daysIdle int) string {
	switch {
	case daysIdle <= 30:
		return AgingBucketLabels[0]
	case daysIdle <= 60:
		return AgingBucketLabels[1]
	case daysIdle <= 90:
		return AgingBucketLabels[2]
	default:
		return AgingBucketLabels[3]
	}
}

type AgingBucketSummary struct {
	SKUCount   int     `json:"sku_count"`
	TotalValue float64 `json:"total_value"`
}

type AgingDetail struct {
	ProductID string  `json:"product_id"`
	Qty       float64 `json:"qty"`
	Value     float64 `json:"value"`
	DaysIdle  int     `json:"days_idle"`
	AgeBucket string  `json:"age_bucket"`
}

type InventoryAgingReport struct {
	Buckets map[string]AgingBucketSummary `json:"aging_buckets"`
	Details []AgingDetail                 `json:"details"`
}

type DeadStockItem struct {
	ProductID     string  `json:"product_id"`
	Qty           float64 `json:"qty"`
	ValueAtRisk   float64 `json:"value_at_risk"`
	DaysSinceSale *int    `json:"days_since_sale,omitempty"` // nil when never sold
}

type DeadStockReport struct {
	DaysThreshold    int             `json:"days_threshold"`
	Items            int             `json:"items"`
	TotalValueAtRisk float64         `json:"total_value_at_risk"`
	DeadStock        []DeadStockItem `json:"dead_stock"`
}

type OverstockReport struct {
	OverstockedItems int             `json:"overstocked_items"`
	TotalExcessValue float64         `json:"total_excess_value"`
	Items            []InventoryItem `json:"items"`
}

type StockoutRiskReport struct {
	HorizonDays int             `json:"horizon_days"`
	AtRiskCount int             `json:"at_risk_count"`
	Items       []InventoryItem `json:"items"`
}
