package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

// DemandEngine forecasts demand and scans for statistical outliers.
type DemandEngine struct {
	sales    ports.SalesReader
	columns  ports.ColumnReader
	avail    *AvailabilityResolver
	defaults domain.EngineDefaults
}

func NewDemandEngine(
	sales ports.SalesReader,
	columns ports.ColumnReader,
	avail *AvailabilityResolver,
	defaults domain.EngineDefaults,
) *DemandEngine {
	return &DemandEngine{sales: sales, columns: columns, avail: avail, defaults: defaults}
}

// Forecast projects demand for one SKU over the horizon as moving average
// times horizon days. The window shrinks to the available history; the trend
// label compares the window against the one before it.
func (e *DemandEngine) Forecast(ctx context.Context, productID string, windowDays, horizonDays int) (*domain.DemandForecast, error) {
	if productID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "forecast", fmt.Errorf("product_id is required"))
	}
	if windowDays <= 0 {
		windowDays = e.defaults.ForecastWindowDays
	}
	if horizonDays <= 0 {
		horizonDays = e.defaults.ForecastHorizonDays
	}
	daily, err := e.sales.DailySales(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(daily) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "forecast",
			fmt.Errorf("no sales history for product %s", productID))
	}

	window := windowDays
	if window > len(daily) {
		window = len(daily)
	}
	recent := make([]float64, 0, window)
	for _, d := range daily[len(daily)-window:] {
		recent = append(recent, d.Qty)
	}
	ma := mean(recent)

	trend := domain.TrendStable
	if len(daily) >= window*2 {
		prior := make([]float64, 0, window)
		for _, d := range daily[len(daily)-window*2 : len(daily)-window] {
			prior = append(prior, d.Qty)
		}
		priorMA := mean(prior)
		switch {
		case priorMA > 0 && ma > priorMA*1.1:
			trend = domain.TrendIncreasing
		case priorMA > 0 && ma < priorMA*0.9:
			trend = domain.TrendDecreasing
		}
	}

	return &domain.DemandForecast{
		ProductID:      productID,
		HistoricalDays: len(daily),
		Window:         window,
		Trend:          trend,
		MovingAverage:  round2(ma),
		TotalPredicted: round1(ma * float64(horizonDays)),
	}, nil
}

// Anomalies scans one numeric column for |z| above the threshold. The table
// and column are checked against the schema registry before any query runs.
func (e *DemandEngine) Anomalies(ctx context.Context, table, column string, zThreshold float64) (*domain.AnomalyReport, error) {
	if zThreshold <= 0 {
		zThreshold = e.defaults.AnomalyZThreshold
	}
	cat, err := domain.ParseCategory(table)
	if err != nil {
		return nil, err
	}
	allowed := domain.NumericColumnsFor(cat)
	found := false
	for _, c := range allowed {
		if c == column {
			found = true
			break
		}
	}
	if !found {
		return nil, domain.WrapError(domain.ErrInvalidInput, "anomalies",
			fmt.Errorf("column %q is not a numeric column of %s (have %v)", column, table, allowed))
	}

	values, err := e.columns.NumericColumn(ctx, cat, column)
	if err != nil {
		return nil, err
	}
	series := make([]float64, len(values))
	for i, v := range values {
		series[i] = v.Value
	}
	m := mean(series)
	sd := stddev(series)

	report := &domain.AnomalyReport{
		Table:      table,
		Column:     column,
		ZThreshold: zThreshold,
		TotalRows:  len(values),
		Anomalies:  []domain.Anomaly{},
	}
	if sd == 0 {
		return report, nil
	}
	for _, v := range values {
		z := (v.Value - m) / sd
		if z > zThreshold || z < -zThreshold {
			report.Anomalies = append(report.Anomalies, domain.Anomaly{
				Label:  v.Label,
				Value:  v.Value,
				ZScore: round2(z),
			})
		}
	}
	sort.Slice(report.Anomalies, func(i, j int) bool {
		ai, aj := report.Anomalies[i].ZScore, report.Anomalies[j].ZScore
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		if ai != aj {
			return ai > aj
		}
		return report.Anomalies[i].Label < report.Anomalies[j].Label
	})
	report.AnomaliesFound = len(report.Anomalies)
	return report, nil
}

// RevenueTrends reports period revenue with period-over-period growth. The
// first period has no growth figure.
func (e *DemandEngine) RevenueTrends(ctx context.Context, granularity string) (*domain.RevenueTrendReport, error) {
	switch granularity {
	case "":
		granularity = "month"
	case "day", "week", "month", "quarter":
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "revenue_trends",
			fmt.Errorf("granularity %q not one of day, week, month, quarter", granularity))
	}
	periods, err := e.sales.RevenueByPeriod(ctx, granularity)
	if err != nil {
		return nil, err
	}
	trends := make([]domain.RevenueTrendPoint, 0, len(periods))
	for i, p := range periods {
		point := domain.RevenueTrendPoint{
			Period:  p.Period,
			Revenue: round2(p.Revenue),
			Units:   p.Units,
			SKUs:    p.UniqueSKUs,
		}
		if i > 0 && periods[i-1].Revenue > 0 {
			g := round1((p.Revenue - periods[i-1].Revenue) / periods[i-1].Revenue * 100)
			point.GrowthPct = &g
		}
		trends = append(trends, point)
	}
	return &domain.RevenueTrendReport{
		Granularity: granularity,
		Periods:     len(trends),
		Trends:      trends,
	}, nil
}

// Velocity ranks SKUs by units sold per active selling day.
func (e *DemandEngine) Velocity(ctx context.Context, limit int) (*domain.VelocityReport, error) {
	if limit <= 0 {
		limit = 20
	}
	stats, err := e.sales.ProductSales(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.VelocityEntry, 0, len(stats))
	for _, s := range stats {
		velocity := 0.0
		if s.SaleDays > 0 {
			velocity = round2(s.TotalQty / float64(s.SaleDays))
		}
		entries = append(entries, domain.VelocityEntry{
			ProductID:     s.ProductID,
			TotalSold:     s.TotalQty,
			SaleDays:      s.SaleDays,
			DailyVelocity: velocity,
			TotalRevenue:  round2(s.Revenue),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DailyVelocity != entries[j].DailyVelocity {
			return entries[i].DailyVelocity > entries[j].DailyVelocity
		}
		return entries[i].ProductID < entries[j].ProductID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return &domain.VelocityReport{FastestMovers: entries, Count: len(entries)}, nil
}

// TopSKUs ranks SKUs on the chosen metric.
func (e *DemandEngine) TopSKUs(ctx context.Context, metric string, limit int) (*domain.TopSKUReport, error) {
	if limit <= 0 {
		limit = 10
	}
	if metric == "" {
		metric = "revenue"
	}
	stats, err := e.sales.ProductSales(ctx)
	if err != nil {
		return nil, err
	}
	skus := make([]domain.TopSKU, 0, len(stats))
	for _, s := range stats {
		skus = append(skus, domain.TopSKU{
			ProductID: s.ProductID,
			Revenue:   round2(s.Revenue),
			Units:     s.TotalQty,
			Profit:    round2(s.GrossProfit),
		})
	}
	var key func(domain.TopSKU) float64
	switch metric {
	case "revenue":
		key = func(s domain.TopSKU) float64 { return s.Revenue }
	case "quantity":
		key = func(s domain.TopSKU) float64 { return s.Units }
	case "profit":
		key = func(s domain.TopSKU) float64 { return s.Profit }
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "top_skus",
			fmt.Errorf("metric %q not one of revenue, quantity, profit", metric))
	}
	sort.Slice(skus, func(i, j int) bool {
		if key(skus[i]) != key(skus[j]) {
			return key(skus[i]) > key(skus[j])
		}
		return skus[i].ProductID < skus[j].ProductID
	})
	if len(skus) > limit {
		skus = skus[:limit]
	}
	return &domain.TopSKUReport{TopSKUs: skus, Count: len(skus)}, nil
}

// CustomerConcentration measures how much revenue the top customers carry.
func (e *DemandEngine) CustomerConcentration(ctx context.Context, topN int) (*domain.CustomerConcentrationReport, error) {
	if topN <= 0 {
		topN = 10
	}
	all, err := e.sales.RevenueByCustomer(ctx, 0)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, c := range all {
		total += c.Revenue
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Revenue != all[j].Revenue {
			return all[i].Revenue > all[j].Revenue
		}
		return all[i].CustomerID < all[j].CustomerID
	})
	top := all
	if len(top) > topN {
		top = top[:topN]
	}
	var topShare float64
	entries := make([]domain.CustomerConcentrationEntry, 0, len(top))
	for _, c := range top {
		pct := 0.0
		if total > 0 {
			pct = c.Revenue / total * 100
		}
		topShare += pct
		entries = append(entries, domain.CustomerConcentrationEntry{
			CustomerID:     c.CustomerID,
			CustomerName:   c.CustomerName,
			Revenue:        round2(c.Revenue),
			RevenuePct:     round1(pct),
			UniqueProducts: c.UniqueProducts,
		})
	}
	topShare = round1(topShare)
	return &domain.CustomerConcentrationReport{
		TopCustomers:      entries,
		TopSharePct:       topShare,
		ConcentrationRisk: domain.ConcentrationRiskFor(topShare),
	}, nil
}

// Seasonality indexes each calendar month against the average month. An
// empty product id looks across the whole catalogue.
func (e *DemandEngine) Seasonality(ctx context.Context, productID string) (*domain.SeasonalityReport, error) {
	months, err := e.sales.MonthlySales(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(months) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "seasonality",
			fmt.Errorf("no sales history%s", forProduct(productID)))
	}
	var totalQty float64
	for _, m := range months {
		totalQty += m.Qty
	}
	avg := totalQty / float64(len(months))

	report := &domain.SeasonalityReport{ProductID: productID}
	peakIdx, lowIdx := 0, 0
	for i, m := range months {
		idx := 0.0
		if avg > 0 {
			idx = round2(m.Qty / avg)
		}
		report.MonthlyPattern = append(report.MonthlyPattern, domain.SeasonalityPoint{
			Month:      m.Month,
			Qty:        m.Qty,
			Revenue:    round2(m.Revenue),
			IndexVsAvg: idx,
		})
		if m.Qty > months[peakIdx].Qty {
			peakIdx = i
		}
		if m.Qty < months[lowIdx].Qty {
			lowIdx = i
		}
	}
	report.PeakMonth = months[peakIdx].Month
	report.LowMonth = months[lowIdx].Month
	return report, nil
}

func forProduct(productID string) string {
	if productID == "" {
		return ""
	}
	return " for product " + productID
}
