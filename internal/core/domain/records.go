package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is one row of the current inventory snapshot (the row set at
// the maximum snapshot date).
type InventoryItem struct {
	ProductID    string  `json:"product_id"`
	LocationID   string  `json:"location_id,omitempty"`
	QtyOnHand    float64 `json:"qty_on_hand"`
	UnitCost     float64 `json:"unit_cost"`
	Value        float64 `json:"inventory_value"`
	ReorderPoint float64 `json:"reorder_point"`
	SafetyTarget float64 `json:"safety_stock_target,omitempty"`
	StockStatus  string  `json:"stock_status,omitempty"`
	DaysOfSupply float64 `json:"days_of_supply"`
	DaysIdle     int     `json:"days_since_last_movement"`
}

// ProductSalesStat aggregates sales_transactions per product.
type ProductSalesStat struct {
	ProductID    string     `json:"product_id"`
	TotalQty     float64    `json:"total_qty"`
	Revenue      float64    `json:"revenue"`
	Cost         float64    `json:"cost"`
	GrossProfit  float64    `json:"gross_profit"`
	SaleDays     int        `json:"sale_days"` // distinct transaction dates
	QtyMean      float64    `json:"qty_mean"`
	QtyStdDev    float64    `json:"qty_stddev"`
	LastSaleDate *time.Time `json:"last_sale_date,omitempty"`
}

// SalesTotals aggregates the whole sales_transactions table.
type SalesTotals struct {
	Revenue        float64 `json:"total_revenue"`
	Cost           float64 `json:"total_cost"`
	GrossProfit    float64 `json:"gross_profit"`
	Transactions   int64   `json:"transactions"`
	UniqueProducts int64   `json:"unique_products"`
	DistinctDays   int64   `json:"distinct_days"`
}

// DailyQuantity is one day of demand for a single SKU.
type DailyQuantity struct {
	Date time.Time `json:"date"`
	Qty  float64   `json:"qty"`
}

// MonthlyQuantity buckets demand by calendar month (1..12) across years.
type MonthlyQuantity struct {
	Month   int     `json:"month"`
	Qty     float64 `json:"qty"`
	Revenue float64 `json:"revenue"`
}

// PeriodRevenue is one period of the revenue trend series.
type PeriodRevenue struct {
	Period     string  `json:"period"`
	Revenue    float64 `json:"revenue"`
	Units      float64 `json:"units"`
	UniqueSKUs int64   `json:"skus"`
}

// CustomerRevenue aggregates revenue per customer.
type CustomerRevenue struct {
	CustomerID     string  `json:"customer_id"`
	CustomerName   string  `json:"customer_name,omitempty"`
	Revenue        float64 `json:"revenue"`
	UniqueProducts int64   `json:"unique_products,omitempty"`
}

// ReceivableEntry is one AR ledger row. DaysToPay is nil when unknown; such
// entries are excluded from both sides of the weighted DSO average.
type ReceivableEntry struct {
	InvoiceID    string          `json:"invoice_id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	Segment      string          `json:"segment,omitempty"`
	Amount       decimal.Decimal `json:"invoice_amount"`
	DaysToPay    *float64        `json:"days_to_pay,omitempty"`
	AgingBucket  string          `json:"aging_bucket,omitempty"`
	Paid         bool            `json:"paid"`
	Disputed     bool            `json:"disputed,omitempty"`
	WrittenOff   bool            `json:"written_off,omitempty"`
}

// PayableEntry is one AP ledger row.
type PayableEntry struct {
	InvoiceID     string          `json:"invoice_id"`
	SupplierID    string          `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	ContractDays  *int            `json:"contracted_payment_days,omitempty"`
	Amount        decimal.Decimal `json:"invoice_amount"`
	ActualDays    *float64        `json:"actual_days_to_pay,omitempty"`
	EarlyDiscount float64         `json:"early_payment_discount,omitempty"`
}

// Supplier is one row of the supplier master.
type Supplier struct {
	SupplierID      string  `json:"supplier_id"`
	SupplierName    string  `json:"supplier_name"`
	Country         string  `json:"country,omitempty"`
	AvgLeadTimeDays float64 `json:"avg_lead_time_days"`
	OnTimeRate      float64 `json:"on_time_delivery_rate"`
	RejectionRate   float64 `json:"quality_rejection_rate"`
	ContractPayDays int     `json:"contracted_payment_days,omitempty"`
	Rating          float64 `json:"rating,omitempty"` // source risk_score column
}

// SupplierOrderStat aggregates purchase_orders per supplier.
type SupplierOrderStat struct {
	SupplierID string  `json:"supplier_id"`
	Orders     int64   `json:"orders"`
	TotalValue float64 `json:"total_value"`
}

// SupplyLink is one supplier→product relationship, from either store.
type SupplyLink struct {
	SupplierID   string  `json:"supplier_id"`
	SupplierName string  `json:"supplier_name,omitempty"`
	ProductID    string  `json:"product_id"`
	LeadTime     float64 `json:"lead_time,omitempty"`
}

// SupplierNode is the graph projection of a supplier row.
type SupplierNode struct {
	SupplierID   string  `json:"supplier_id"`
	SupplierName string  `json:"supplier_name"`
	LeadTime     float64 `json:"lead_time"`
	Rating       float64 `json:"rating"`
	OnTimeRate   float64 `json:"otd_rate"`
	Country      string  `json:"country,omitempty"`
}

// RankedSupplier is a supplier as ranked by graph queries.
type RankedSupplier struct {
	SupplierID   string  `json:"supplier_id"`
	SupplierName string  `json:"supplier_name"`
	LeadTime     float64 `json:"lead_time"`
	Rating       float64 `json:"rating"`
	Country      string  `json:"country,omitempty"`
}

// SingleSourceRisk is a product with exactly one supplier.
type SingleSourceRisk struct {
	ProductID    string `json:"product_id"`
	SoleSupplier string `json:"sole_supplier"`
	RiskLevel    string `json:"risk"`
}

// GraphStats summarizes graph-store content for status reporting.
type GraphStats struct {
	Suppliers     int64 `json:"suppliers"`
	Products      int64 `json:"products"`
	Relationships int64 `json:"relationships"`
}

// Product is one row of the product master.
type Product struct {
	ProductID    string   `json:"product_id"`
	ProductName  string   `json:"product_name"`
	Category     string   `json:"category,omitempty"`
	UnitCost     float64  `json:"unit_cost"`
	UnitPrice    float64  `json:"unit_price,omitempty"`
	LeadTimeDays *int     `json:"lead_time_days,omitempty"`
	EOQ          *float64 `json:"economic_order_qty,omitempty"`
	ABCClass     string   `json:"abc_class,omitempty"`
	XYZClass     string   `json:"xyz_class,omitempty"`
}

// ShipmentStatusGroup is one status bucket of the shipment rollup.
type ShipmentStatusGroup struct {
	Status       string  `json:"status"`
	Count        int64   `json:"count"`
	TotalQty     float64 `json:"total_qty"`
	TotalFreight float64 `json:"total_freight"`
	AvgDelayDays float64 `json:"avg_delay"`
}

// Shipment is one in-transit shipment row.
type Shipment struct {
	ShipmentID      string     `json:"shipment_id"`
	SupplierID      string     `json:"supplier_id"`
	ProductID       string     `json:"product_id"`
	ShipDate        *time.Time `json:"ship_date,omitempty"`
	ExpectedArrival *time.Time `json:"expected_arrival_date,omitempty"`
	QtyShipped      float64    `json:"qty_shipped"`
	Carrier         string     `json:"carrier,omitempty"`
}

// LabeledValue is one scan row for anomaly detection: a row label (usually
// the row's product or invoice id) and the numeric value under test.
type LabeledValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// QueryResult is the capped output of the ad-hoc query gate.
type QueryResult struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"data"`
	RowCount  int              `json:"rows"`
	Truncated bool             `json:"truncated,omitempty"`
}
