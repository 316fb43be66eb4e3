package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

// InventoryEngine computes stock-health analyses over the current snapshot.
type InventoryEngine struct {
	inventory ports.InventoryReader
	sales     ports.SalesReader
	products  ports.ProductReader
	avail     *AvailabilityResolver
	defaults  domain.EngineDefaults
	now       func() time.Time
}

func NewInventoryEngine(
	inventory ports.InventoryReader,
	sales ports.SalesReader,
	products ports.ProductReader,
	avail *AvailabilityResolver,
	defaults domain.EngineDefaults,
) *InventoryEngine {
	return &InventoryEngine{
		inventory: inventory,
		sales:     sales,
		products:  products,
		avail:     avail,
		defaults:  defaults,
		now:       time.Now,
	}
}

// ReorderAlerts flags SKUs at or below their reorder point. On-hand below the
// point is critical, below 1.2x is a warning. A non-positive reorder point
// gives no ranking signal: the alert carries no stock ratio and sorts last.
func (e *InventoryEngine) ReorderAlerts(ctx context.Context) (*domain.ReorderAlertReport, error) {
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return nil, err
	}
	var alerts []domain.ReorderAlert
	for _, it := range items {
		severity := domain.SeverityOK
		switch {
		case it.QtyOnHand < it.ReorderPoint:
			severity = domain.SeverityCritical
		case it.QtyOnHand < it.ReorderPoint*1.2:
			severity = domain.SeverityWarning
		}
		if severity == domain.SeverityOK {
			continue
		}
		alert := domain.ReorderAlert{
			ProductID:    it.ProductID,
			LocationID:   it.LocationID,
			QtyOnHand:    it.QtyOnHand,
			ReorderPoint: it.ReorderPoint,
			SafetyTarget: it.SafetyTarget,
			StockStatus:  it.StockStatus,
			DaysOfSupply: it.DaysOfSupply,
			Severity:     severity,
		}
		if it.ReorderPoint > 0 {
			ratio := round2(it.QtyOnHand / it.ReorderPoint)
			alert.StockRatio = &ratio
		}
		alerts = append(alerts, alert)
	}
	sort.Slice(alerts, func(i, j int) bool {
		ri, rj := alerts[i].StockRatio, alerts[j].StockRatio
		switch {
		case ri == nil && rj != nil:
			return false
		case ri != nil && rj == nil:
			return true
		case ri != nil && rj != nil && *ri != *rj:
			return *ri < *rj
		}
		return alerts[i].ProductID < alerts[j].ProductID
	})
	return &domain.ReorderAlertReport{TotalAlerts: len(alerts), Alerts: alerts}, nil
}

// SmartReorder joins the snapshot with the product master to recommend order
// quantities. Stocked-out SKUs rank first, then low stock, then the rest of
// the at-risk set.
func (e *InventoryEngine) SmartReorder(ctx context.Context) (*domain.ReorderPlan, error) {
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return nil, err
	}
	var atRisk []domain.InventoryItem
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.QtyOnHand <= 0 || it.QtyOnHand < it.ReorderPoint*1.2 {
			atRisk = append(atRisk, it)
			ids = append(ids, it.ProductID)
		}
	}

	master := map[string]domain.Product{}
	productsOK, err := e.avail.Available(ctx, domain.CategoryProducts)
	if err != nil {
		return nil, err
	}
	if productsOK && len(ids) > 0 {
		master, err = e.products.ProductsByID(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	recs := make([]domain.ReorderRecommendation, 0, len(atRisk))
	for _, it := range atRisk {
		orderQty := e.defaults.EOQFallback
		leadTime := e.defaults.LeadTimeDaysFallback
		if p, ok := master[it.ProductID]; ok {
			if p.EOQ != nil && *p.EOQ > 0 {
				orderQty = *p.EOQ
			}
			if p.LeadTimeDays != nil && *p.LeadTimeDays > 0 {
				leadTime = *p.LeadTimeDays
			}
		}
		priority := 3
		switch {
		case it.QtyOnHand <= 0 || it.StockStatus == "stockout":
			priority = 1
		case it.QtyOnHand < it.ReorderPoint:
			priority = 2
		}
		recs = append(recs, domain.ReorderRecommendation{
			ProductID:    it.ProductID,
			QtyOnHand:    it.QtyOnHand,
			ReorderPoint: it.ReorderPoint,
			DaysOfSupply: it.DaysOfSupply,
			OrderQty:     orderQty,
			LeadTimeDays: leadTime,
			StockStatus:  it.StockStatus,
			Priority:     priority,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority < recs[j].Priority
		}
		if recs[i].DaysOfSupply != recs[j].DaysOfSupply {
			return recs[i].DaysOfSupply < recs[j].DaysOfSupply
		}
		return recs[i].ProductID < recs[j].ProductID
	})
	return &domain.ReorderPlan{Recommendations: recs, Count: len(recs)}, nil
}

// SafetyStock computes SS = Z * sigma_demand * sqrt(lead_time) per SKU, with
// configured fallbacks when history or the product master is missing.
func (e *InventoryEngine) SafetyStock(ctx context.Context, productIDs []string, serviceLevel float64) (*domain.SafetyStockReport, error) {
	if serviceLevel <= 0 {
		serviceLevel = e.defaults.ServiceLevel
	}
	z := zScoreFor(serviceLevel)

	stats, err := e.sales.ProductSalesFor(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	sigmaByID := make(map[string]float64, len(stats))
	for _, s := range stats {
		sigmaByID[s.ProductID] = s.QtyStdDev
	}

	master := map[string]domain.Product{}
	productsOK, err := e.avail.Available(ctx, domain.CategoryProducts)
	if err != nil {
		return nil, err
	}
	if productsOK {
		master, err = e.products.ProductsByID(ctx, productIDs)
		if err != nil {
			return nil, err
		}
	}

	results := make([]domain.SafetyStockResult, 0, len(productIDs))
	for _, id := range productIDs {
		sigma, ok := sigmaByID[id]
		if !ok || sigma <= 0 {
			sigma = e.defaults.DemandSigmaFallback
		}
		leadTime := e.defaults.LeadTimeDaysFallback
		if p, found := master[id]; found && p.LeadTimeDays != nil && *p.LeadTimeDays > 0 {
			leadTime = *p.LeadTimeDays
		}
		ss := int(math.Round(z * sigma * math.Sqrt(float64(leadTime))))
		results = append(results, domain.SafetyStockResult{
			ProductID:    id,
			SafetyStock:  ss,
			DemandStdDev: round2(sigma),
			LeadTimeDays: leadTime,
			ZScore:       z,
		})
	}
	return &domain.SafetyStockReport{
		Formula:      "SS = Z * sigma_demand * sqrt(lead_time)",
		ServiceLevel: serviceLevel,
		Results:      results,
	}, nil
}

// EOQ computes sqrt(2*D*S / H) per SKU, where D is annualized demand, S the
// order cost and H the per-unit annual holding cost. A non-positive H yields
// an EOQ of zero.
func (e *InventoryEngine) EOQ(ctx context.Context, productIDs []string, orderCost, holdingRate float64) (*domain.EOQReport, error) {
	if orderCost <= 0 {
		orderCost = e.defaults.OrderCost
	}
	if holdingRate <= 0 {
		holdingRate = e.defaults.HoldingCostRate
	}

	stats, err := e.sales.ProductSalesFor(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	statByID := make(map[string]domain.ProductSalesStat, len(stats))
	for _, s := range stats {
		statByID[s.ProductID] = s
	}

	master := map[string]domain.Product{}
	productsOK, err := e.avail.Available(ctx, domain.CategoryProducts)
	if err != nil {
		return nil, err
	}
	if productsOK {
		master, err = e.products.ProductsByID(ctx, productIDs)
		if err != nil {
			return nil, err
		}
	}

	results := make([]domain.EOQResult, 0, len(productIDs))
	for _, id := range productIDs {
		s := statByID[id]
		annualDemand := s.TotalQty
		if s.SaleDays > 0 {
			annualDemand = s.TotalQty / float64(s.SaleDays) * 365
		}
		unitCost := e.defaults.UnitCostFallback
		if p, found := master[id]; found && p.UnitCost > 0 {
			unitCost = p.UnitCost
		}
		holding := unitCost * holdingRate
		eoq := 0
		ordersPerYear := 0.0
		if holding > 0 && annualDemand > 0 {
			eoq = int(math.Round(math.Sqrt(2 * annualDemand * orderCost / holding)))
			if eoq > 0 {
				ordersPerYear = round1(annualDemand / float64(eoq))
			}
		}
		results = append(results, domain.EOQResult{
			ProductID:     id,
			EOQ:           eoq,
			AnnualDemand:  round1(annualDemand),
			UnitCost:      unitCost,
			OrdersPerYear: ordersPerYear,
		})
	}
	return &domain.EOQReport{
		Formula:    "EOQ = sqrt(2*D*S / H)",
		OrderCost:  orderCost,
		HoldingPct: holdingRate,
		Results:    results,
	}, nil
}

// Turnover ranks SKUs by units sold over units held. Zero on-hand SKUs report
// a zero ratio rather than dividing.
func (e *InventoryEngine) Turnover(ctx context.Context, limit int) (*domain.TurnoverReport, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := e.sales.ProductSales(ctx)
	if err != nil {
		return nil, err
	}
	statByID := make(map[string]domain.ProductSalesStat, len(stats))
	for _, s := range stats {
		statByID[s.ProductID] = s
	}

	perProduct := map[string]*domain.TurnoverEntry{}
	for _, it := range items {
		entry, ok := perProduct[it.ProductID]
		if !ok {
			entry = &domain.TurnoverEntry{ProductID: it.ProductID}
			perProduct[it.ProductID] = entry
		}
		entry.QtyOnHand += it.QtyOnHand
		entry.InventoryValue += it.Value
	}
	entries := make([]domain.TurnoverEntry, 0, len(perProduct))
	for id, entry := range perProduct {
		if s, ok := statByID[id]; ok {
			entry.TotalSold = s.TotalQty
			entry.Revenue = round2(s.Revenue)
		}
		if entry.QtyOnHand > 0 {
			entry.TurnoverRatio = round2(entry.TotalSold / entry.QtyOnHand)
		}
		entry.InventoryValue = round2(entry.InventoryValue)
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TurnoverRatio != entries[j].TurnoverRatio {
			return entries[i].TurnoverRatio > entries[j].TurnoverRatio
		}
		return entries[i].ProductID < entries[j].ProductID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return &domain.TurnoverReport{SKUs: entries, Count: len(entries)}, nil
}

// Aging buckets the snapshot by days since last movement.
func (e *InventoryEngine) Aging(ctx context.Context, detailLimit int) (*domain.InventoryAgingReport, error) {
	if detailLimit <= 0 {
		detailLimit = 50
	}
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return nil, err
	}
	buckets := map[string]domain.AgingBucketSummary{}
	for _, label := range domain.AgingBucketLabels {
		buckets[label] = domain.AgingBucketSummary{}
	}
	details := make([]domain.AgingDetail, 0, len(items))
	for _, it := range items {
		label := domain.AgeBucketFor(it.DaysIdle)
		b := buckets[label]
		b.SKUCount++
		b.TotalValue = round2(b.TotalValue + it.Value)
		buckets[label] = b
		details = append(details, domain.AgingDetail{
			ProductID: it.ProductID,
			Qty:       it.QtyOnHand,
			Value:     round2(it.Value),
			DaysIdle:  it.DaysIdle,
			AgeBucket: label,
		})
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].DaysIdle != details[j].DaysIdle {
			return details[i].DaysIdle > details[j].DaysIdle
		}
		return details[i].ProductID < details[j].ProductID
	})
	if len(details) > detailLimit {
		details = details[:detailLimit]
	}
	return &domain.InventoryAgingReport{Buckets: buckets, Details: details}, nil
}

// DeadStock lists stocked SKUs whose last sale is strictly older than the
// threshold, plus SKUs never sold at all.
func (e *InventoryEngine) DeadStock(ctx context.Context, daysThreshold int) (*domain.DeadStockReport, error) {
	if daysThreshold <= 0 {
		daysThreshold = e.defaults.DeadStockDays
	}
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return nil, err
	}
	lastSale := map[string]*time.Time{}
	salesOK, err := e.avail.Available(ctx, domain.CategorySales)
	if err != nil {
		return nil, err
	}
	if salesOK {
		stats, err := e.sales.ProductSales(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range stats {
			lastSale[s.ProductID] = s.LastSaleDate
		}
	}

	now := e.now()
	qtyByID := map[string]float64{}
	valueByID := map[string]float64{}
	var order []string
	for _, it := range items {
		if it.QtyOnHand <= 0 {
			continue
		}
		if _, seen := qtyByID[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		qtyByID[it.ProductID] += it.QtyOnHand
		valueByID[it.ProductID] += it.Value
	}

	report := &domain.DeadStockReport{DaysThreshold: daysThreshold}
	for _, id := range order {
		var daysSince *int
		if last, ok := lastSale[id]; ok && last != nil {
			d := int(now.Sub(*last).Hours() / 24)
			daysSince = &d
		}
		dead := daysSince == nil || *daysSince > daysThreshold
		if !dead {
			continue
		}
		value := round2(valueByID[id])
		report.DeadStock = append(report.DeadStock, domain.DeadStockItem{
			ProductID:     id,
			Qty:           qtyByID[id],
			ValueAtRisk:   value,
			DaysSinceSale: daysSince,
		})
		report.TotalValueAtRisk = round2(report.TotalValueAtRisk + value)
	}
	sort.Slice(report.DeadStock, func(i, j int) bool {
		if report.DeadStock[i].ValueAtRisk != report.DeadStock[j].ValueAtRisk {
			return report.DeadStock[i].ValueAtRisk > report.DeadStock[j].ValueAtRisk
		}
		return report.DeadStock[i].ProductID < report.DeadStock[j].ProductID
	})
	report.Items = len(report.DeadStock)
	return report, nil
}

// Overstock lists SKUs the snapshot itself marks as overstocked. Snapshots
// write the status as either "overstock" or "overstocked".
func (e *InventoryEngine) Overstock(ctx context.Context) (*domain.OverstockReport, error) {
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return nil, err
	}
	report := &domain.OverstockReport{}
	for _, it := range items {
		if it.StockStatus != "overstock" && it.StockStatus != "overstocked" {
			continue
		}
		report.Items = append(report.Items, it)
		report.TotalExcessValue = round2(report.TotalExcessValue + it.Value)
	}
	sort.Slice(report.Items, func(i, j int) bool {
		if report.Items[i].Value != report.Items[j].Value {
			return report.Items[i].Value > report.Items[j].Value
		}
		return report.Items[i].ProductID < report.Items[j].ProductID
	})
	report.OverstockedItems = len(report.Items)
	return report, nil
}

// StockoutRisk lists SKUs whose days of supply are non-negative and strictly
// below the horizon. Negative values are sentinels, not imminent stockouts.
func (e *InventoryEngine) StockoutRisk(ctx context.Context, horizonDays int) (*domain.StockoutRiskReport, error) {
	if horizonDays <= 0 {
		horizonDays = e.defaults.StockoutHorizonDays
	}
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return nil, err
	}
	report := &domain.StockoutRiskReport{HorizonDays: horizonDays}
	for _, it := range items {
		if it.DaysOfSupply < 0 || it.DaysOfSupply >= float64(horizonDays) {
			continue
		}
		report.Items = append(report.Items, it)
	}
	sort.Slice(report.Items, func(i, j int) bool {
		if report.Items[i].DaysOfSupply != report.Items[j].DaysOfSupply {
			return report.Items[i].DaysOfSupply < report.Items[j].DaysOfSupply
		}
		return report.Items[i].ProductID < report.Items[j].ProductID
	})
	report.AtRiskCount = len(report.Items)
	return report, nil
}
