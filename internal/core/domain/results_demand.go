package domain

// Demand trend labels. A window average more than 10% above (below) the
// prior window is increasing (decreasing).
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

type DemandForecast struct {
	ProductID      string  `json:"product_id"`
	HistoricalDays int     `json:"historical_days"`
	Window         int     `json:"window"`
	Trend          string  `json:"trend"`
	MovingAverage  float64 `json:"moving_average"`
	TotalPredicted float64 `json:"total_predicted"`
}

type Anomaly struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	ZScore float64 `json:"z_score"`
}

type AnomalyReport struct {
	Table          string    `json:"table"`
	Column         string    `json:"column"`
	ZThreshold     float64   `json:"z_threshold"`
	TotalRows      int       `json:"total_rows"`
	AnomaliesFound int       `json:"anomalies_found"`
	Anomalies      []Anomaly `json:"anomalies"`
}

type RevenueTrendPoint struct {
	Period    string   `json:"period"`
	Revenue   float64  `json:"revenue"`
	Units     float64  `json:"units"`
	SKUs      int64    `json:"skus"`
	GrowthPct *float64 `json:"growth_pct,omitempty"`
}

type RevenueTrendReport struct {
	Granularity string              `json:"granularity"`
	Periods     int                 `json:"periods"`
	Trends      []RevenueTrendPoint `json:"trends"`
}

type VelocityEntry struct {
	ProductID     string  `json:"product_id"`
	TotalSold     float64 `json:"total_sold"`
	SaleDays      int     `json:"sale_days"`
	DailyVelocity float64 `json:"daily_velocity"`
	TotalRevenue  float64 `json:"total_revenue"`
}

type VelocityReport struct {
	FastestMovers []VelocityEntry `json:"fastest_movers"`
	Count         int             `json:"count"`
}

type TopSKU struct {
	ProductID string  `json:"product_id"`
	Revenue   float64 `json:"revenue"`
	Units     float64 `json:"units"`
	Profit    float64 `json:"profit"`
}

type TopSKUReport struct {
	TopSKUs []TopSKU `json:"top_skus"`
	Count   int      `json:"count"`
}

// Concentration risk labels at 80% / 50% of top-N revenue share.
const (
	ConcentrationHigh   = "high"
	ConcentrationMedium = "medium"
	ConcentrationLow    = "low"
)

func ConcentrationRiskFor(topSharePct float64) string {
	switch {
	case topSharePct > 80:
		return ConcentrationHigh
	case topSharePct > 50:
		return ConcentrationMedium
	default:
		return ConcentrationLow
	}
}

type CustomerConcentrationEntry struct {
	CustomerID     string  `json:"customer_id"`
	CustomerName   string  `json:"customer_name,omitempty"`
	Revenue        float64 `json:"revenue"`
	RevenuePct     float64 `json:"revenue_pct"`
	UniqueProducts int64   `json:"unique_products,omitempty"`
}

type CustomerConcentrationReport struct {
	TopCustomers      []CustomerConcentrationEntry `json:"top_customers"`
	TopSharePct       float64                      `json:"top_share_pct"`
	ConcentrationRisk string                       `json:"concentration_risk"`
}

type SeasonalityPoint struct {
	Month      int     `json:"month"`
	Qty        float64 `json:"qty"`
	Revenue    float64 `json:"revenue"`
	IndexVsAvg float64 `json:"index_vs_avg"`
}

type SeasonalityReport struct {
	ProductID      string             `json:"product_id,omitempty"`
	MonthlyPattern []SeasonalityPoint `json:"monthly_pattern"`
	PeakMonth      int                `json:"peak_month"`
	LowMonth       int                `json:"low_month"`
}
