package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

func newInventoryEngine(avail *AvailabilityResolver, inv *fakeInventory, sales *fakeSales, products *fakeProducts) *InventoryEngine {
	if inv == nil {
		inv = &fakeInventory{}
	}
	if sales == nil {
		sales = &fakeSales{}
	}
	if products == nil {
		products = &fakeProducts{}
	}
	return NewInventoryEngine(inv, sales, products, avail, domain.DefaultEngineDefaults())
}

func TestReorderAlertsSeverity(t *testing.T) {
	inv := &fakeInventory{items: []domain.InventoryItem{
		{ProductID: "P-CRIT", QtyOnHand: 80, ReorderPoint: 100},
		{ProductID: "P-WARN", QtyOnHand: 110, ReorderPoint: 100},
		{ProductID: "P-OK", QtyOnHand: 130, ReorderPoint: 100},
		{ProductID: "P-QUIET", QtyOnHand: 5, ReorderPoint: 0},
		{ProductID: "P-NOPOINT", QtyOnHand: -5, ReorderPoint: 0},
	}}
	engine := newInventoryEngine(newAvail(domain.CategoryInventory), inv, nil, nil)

	got, err := engine.ReorderAlerts(context.Background())
	if err != nil {
		t.Fatalf("reorder alerts: %v", err)
	}
	if got.TotalAlerts != 3 {
		t.Fatalf("expected 3 alerts, got %d: %+v", got.TotalAlerts, got.Alerts)
	}

	byID := map[string]domain.ReorderAlert{}
	for _, a := range got.Alerts {
		byID[a.ProductID] = a
	}
	if byID["P-CRIT"].Severity != domain.SeverityCritical {
		t.Fatalf("expected critical below reorder point, got %+v", byID["P-CRIT"])
	}
	if byID["P-WARN"].Severity != domain.SeverityWarning {
		t.Fatalf("expected warning below 1.2x reorder point, got %+v", byID["P-WARN"])
	}
	if _, ok := byID["P-OK"]; ok {
		t.Fatal("stock above 1.2x reorder point should not alert")
	}
	if _, ok := byID["P-QUIET"]; ok {
		t.Fatal("zero reorder point with stock on hand should not alert")
	}
	if ratio := byID["P-CRIT"].StockRatio; ratio == nil || *ratio != 0.8 {
		t.Fatalf("expected stock ratio 0.8, got %v", ratio)
	}
	last := got.Alerts[len(got.Alerts)-1]
	if last.ProductID != "P-NOPOINT" || last.StockRatio != nil {
		t.Fatalf("alerts without a reorder point carry no ratio and sort last, got %+v", last)
	}
	if last.Severity != domain.SeverityCritical {
		t.Fatalf("negative stock is critical even without a reorder point, got %+v", last)
	}
}

func TestSmartReorderPriorities(t *testing.T) {
	inv := &fakeInventory{items: []domain.InventoryItem{
		{ProductID: "P-OUT", QtyOnHand: 0, ReorderPoint: 50, DaysOfSupply: 0},
		{ProductID: "P-LOW", QtyOnHand: 40, ReorderPoint: 50, DaysOfSupply: 4},
		{ProductID: "P-NEAR", QtyOnHand: 55, ReorderPoint: 50, DaysOfSupply: 9},
		{ProductID: "P-FINE", QtyOnHand: 200, ReorderPoint: 50, DaysOfSupply: 60},
	}}
	eoq := 250.0
	lead := 7
	products := &fakeProducts{byID: map[string]domain.Product{
		"P-OUT": {ProductID: "P-OUT", EOQ: &eoq, LeadTimeDays: &lead},
	}}
	avail := newAvail(domain.CategoryInventory, domain.CategoryProducts)
	engine := newInventoryEngine(avail, inv, nil, products)

	got, err := engine.SmartReorder(context.Background())
	if err != nil {
		t.Fatalf("smart reorder: %v", err)
	}
	if got.Count != 3 {
		t.Fatalf("expected 3 recommendations, got %d", got.Count)
	}
	if got.Recommendations[0].ProductID != "P-OUT" || got.Recommendations[0].Priority != 1 {
		t.Fatalf("expected stockout first, got %+v", got.Recommendations[0])
	}
	if got.Recommendations[0].OrderQty != 250 || got.Recommendations[0].LeadTimeDays != 7 {
		t.Fatalf("expected master EOQ and lead time, got %+v", got.Recommendations[0])
	}
	if got.Recommendations[1].ProductID != "P-LOW" || got.Recommendations[1].Priority != 2 {
		t.Fatalf("expected below-reorder-point second, got %+v", got.Recommendations[1])
	}
	if got.Recommendations[2].ProductID != "P-NEAR" || got.Recommendations[2].Priority != 3 {
		t.Fatalf("expected near-reorder-point third, got %+v", got.Recommendations[2])
	}
	if got.Recommendations[1].OrderQty != 100 || got.Recommendations[1].LeadTimeDays != 14 {
		t.Fatalf("expected fallback order qty and lead time, got %+v", got.Recommendations[1])
	}
}

func TestSafetyStockFormula(t *testing.T) {
	sales := &fakeSales{productSales: []domain.ProductSalesStat{
		{ProductID: "P-1", QtyStdDev: 50},
	}}
	lead := 14
	products := &fakeProducts{byID: map[string]domain.Product{
		"P-1": {ProductID: "P-1", LeadTimeDays: &lead},
	}}
	avail := newAvail(domain.CategorySales, domain.CategoryProducts)
	engine := newInventoryEngine(avail, nil, sales, products)

	got, err := engine.SafetyStock(context.Background(), []string{"P-1"}, 0.95)
	if err != nil {
		t.Fatalf("safety stock: %v", err)
	}
	if len(got.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got.Results))
	}
	r := got.Results[0]
	if r.SafetyStock != 309 {
		t.Fatalf("expected SS 309 for Z=1.65 sigma=50 LT=14, got %d", r.SafetyStock)
	}
	if r.ZScore != 1.65 || r.LeadTimeDays != 14 {
		t.Fatalf("unexpected inputs: %+v", r)
	}
}

func TestSafetyStockFallbacks(t *testing.T) {
	avail := newAvail(domain.CategorySales)
	engine := newInventoryEngine(avail, nil, &fakeSales{}, nil)

	got, err := engine.SafetyStock(context.Background(), []string{"P-UNKNOWN"}, 0)
	if err != nil {
		t.Fatalf("safety stock: %v", err)
	}
	r := got.Results[0]
	if r.DemandStdDev != 50 || r.LeadTimeDays != 14 {
		t.Fatalf("expected sigma and lead time fallbacks, got %+v", r)
	}
	if got.ServiceLevel != 0.95 {
		t.Fatalf("expected default service level, got %v", got.ServiceLevel)
	}
}

func TestEOQFormula(t *testing.T) {
	sales := &fakeSales{productSales: []domain.ProductSalesStat{
		{ProductID: "P-1", TotalQty: 10, SaleDays: 1},
	}}
	products := &fakeProducts{byID: map[string]domain.Product{
		"P-1": {ProductID: "P-1", UnitCost: 10},
	}}
	avail := newAvail(domain.CategorySales, domain.CategoryProducts)
	engine := newInventoryEngine(avail, nil, sales, products)

	got, err := engine.EOQ(context.Background(), []string{"P-1"}, 50, 0.25)
	if err != nil {
		t.Fatalf("eoq: %v", err)
	}
	r := got.Results[0]
	if r.AnnualDemand != 3650 {
		t.Fatalf("expected annualized demand 3650, got %v", r.AnnualDemand)
	}
	if r.EOQ != 382 {
		t.Fatalf("expected EOQ 382, got %d", r.EOQ)
	}
	if r.OrdersPerYear != round1(3650.0/382) {
		t.Fatalf("unexpected orders per year %v", r.OrdersPerYear)
	}
}

func TestEOQZeroWhenNoDemand(t *testing.T) {
	avail := newAvail(domain.CategorySales)
	engine := newInventoryEngine(avail, nil, &fakeSales{}, nil)

	got, err := engine.EOQ(context.Background(), []string{"P-IDLE"}, 0, 0)
	if err != nil {
		t.Fatalf("eoq: %v", err)
	}
	if got.Results[0].EOQ != 0 || got.Results[0].OrdersPerYear != 0 {
		t.Fatalf("expected zero EOQ for zero demand, got %+v", got.Results[0])
	}
}

func TestTurnoverRatio(t *testing.T) {
	inv := &fakeInventory{items: []domain.InventoryItem{
		{ProductID: "P-1", QtyOnHand: 50, Value: 500},
		{ProductID: "P-2", QtyOnHand: 0, Value: 0},
	}}
	sales := &fakeSales{productSales: []domain.ProductSalesStat{
		{ProductID: "P-1", TotalQty: 200, Revenue: 2000},
		{ProductID: "P-2", TotalQty: 10, Revenue: 100},
	}}
	avail := newAvail(domain.CategoryInventory, domain.CategorySales)
	engine := newInventoryEngine(avail, inv, sales, nil)

	got, err := engine.Turnover(context.Background(), 0)
	if err != nil {
		t.Fatalf("turnover: %v", err)
	}
	byID := map[string]domain.TurnoverEntry{}
	for _, e := range got.SKUs {
		byID[e.ProductID] = e
	}
	if byID["P-1"].TurnoverRatio != 4 {
		t.Fatalf("expected ratio 4, got %v", byID["P-1"].TurnoverRatio)
	}
	if byID["P-2"].TurnoverRatio != 0 {
		t.Fatalf("zero on-hand should not divide, got %v", byID["P-2"].TurnoverRatio)
	}
}

func TestAgingBuckets(t *testing.T) {
	inv := &fakeInventory{items: []domain.InventoryItem{
		{ProductID: "P-1", QtyOnHand: 1, Value: 10, DaysIdle: 30},
		{ProductID: "P-2", QtyOnHand: 1, Value: 20, DaysIdle: 31},
		{ProductID: "P-3", QtyOnHand: 1, Value: 30, DaysIdle: 90},
		{ProductID: "P-4", QtyOnHand: 1, Value: 40, DaysIdle: 91},
	}}
	engine := newInventoryEngine(newAvail(domain.CategoryInventory), inv, nil, nil)

	got, err := engine.Aging(context.Background(), 0)
	if err != nil {
		t.Fatalf("aging: %v", err)
	}
	for _, label := range domain.AgingBucketLabels {
		if _, ok := got.Buckets[label]; !ok {
			t.Fatalf("expected bucket %q to be present", label)
		}
	}
	if got.Buckets["0-30d"].SKUCount != 1 || got.Buckets["0-30d"].TotalValue != 10 {
		t.Fatalf("unexpected 0-30d bucket: %+v", got.Buckets["0-30d"])
	}
	if got.Buckets["31-60d"].SKUCount != 1 {
		t.Fatalf("day 31 belongs to 31-60d, got %+v", got.Buckets["31-60d"])
	}
	if got.Buckets["61-90d"].SKUCount != 1 {
		t.Fatalf("day 90 belongs to 61-90d, got %+v", got.Buckets["61-90d"])
	}
	if got.Buckets["90+d"].SKUCount != 1 {
		t.Fatalf("day 91 belongs to 90+d, got %+v", got.Buckets["90+d"])
	}
}

func TestDeadStockStrictThreshold(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	inv := &fakeInventory{items: []domain.InventoryItem{
		{ProductID: "P-EDGE", QtyOnHand: 10, Value: 100},
		{ProductID: "P-DEAD", QtyOnHand: 5, Value: 50},
		{ProductID: "P-NEVER", QtyOnHand: 3, Value: 30},
		{ProductID: "P-EMPTY", QtyOnHand: 0, Value: 0},
	}}
	sales := &fakeSales{productSales: []domain.ProductSalesStat{
		{ProductID: "P-EDGE", LastSaleDate: daysAgo(now, 90)},
		{ProductID: "P-DEAD", LastSaleDate: daysAgo(now, 91)},
	}}
	avail := newAvail(domain.CategoryInventory, domain.CategorySales)
	engine := newInventoryEngine(avail, inv, sales, nil)
	engine.now = func() time.Time { return now }

	got, err := engine.DeadStock(context.Background(), 90)
	if err != nil {
		t.Fatalf("dead stock: %v", err)
	}
	if got.Items != 2 {
		t.Fatalf("expected 2 dead SKUs, got %d: %+v", got.Items, got.DeadStock)
	}
	byID := map[string]domain.DeadStockItem{}
	for _, item := range got.DeadStock {
		byID[item.ProductID] = item
	}
	if _, ok := byID["P-EDGE"]; ok {
		t.Fatal("a sale exactly at the threshold is not dead stock")
	}
	if item, ok := byID["P-DEAD"]; !ok || item.DaysSinceSale == nil || *item.DaysSinceSale != 91 {
		t.Fatalf("expected P-DEAD at 91 days, got %+v", item)
	}
	if item, ok := byID["P-NEVER"]; !ok || item.DaysSinceSale != nil {
		t.Fatalf("never-sold stock is dead with unknown age, got %+v", item)
	}
	if _, ok := byID["P-EMPTY"]; ok {
		t.Fatal("zero quantity cannot be dead stock")
	}
	if got.TotalValueAtRisk != 80 {
		t.Fatalf("expected 80 at risk, got %v", got.TotalValueAtRisk)
	}
}

func TestStockoutRiskHorizon(t *testing.T) {
	inv := &fakeInventory{items: []domain.InventoryItem{
		{ProductID: "P-1", DaysOfSupply: 2},
		{ProductID: "P-2", DaysOfSupply: 13},
		{ProductID: "P-EDGE", DaysOfSupply: 14},
		{ProductID: "P-FAR", DaysOfSupply: 15},
		{ProductID: "P-NEG", DaysOfSupply: -1},
	}}
	engine := newInventoryEngine(newAvail(domain.CategoryInventory), inv, nil, nil)

	got, err := engine.StockoutRisk(context.Background(), 0)
	if err != nil {
		t.Fatalf("stockout risk: %v", err)
	}
	if got.HorizonDays != 14 {
		t.Fatalf("expected default horizon 14, got %d", got.HorizonDays)
	}
	if got.AtRiskCount != 2 {
		t.Fatalf("expected 2 at-risk SKUs, got %d: %+v", got.AtRiskCount, got.Items)
	}
	if got.Items[0].ProductID != "P-1" || got.Items[1].ProductID != "P-2" {
		t.Fatalf("expected lowest days of supply first, got %+v", got.Items)
	}
	for _, it := range got.Items {
		if it.ProductID == "P-EDGE" {
			t.Fatal("days of supply equal to the horizon is not at risk")
		}
		if it.ProductID == "P-NEG" {
			t.Fatal("negative days of supply must be excluded")
		}
	}
}

func TestOverstockUsesSnapshotStatus(t *testing.T) {
	inv := &fakeInventory{items: []domain.InventoryItem{
		{ProductID: "P-1", StockStatus: "overstocked", Value: 900},
		{ProductID: "P-2", StockStatus: "ok", Value: 100},
		{ProductID: "P-3", StockStatus: "overstock", Value: 400},
	}}
	engine := newInventoryEngine(newAvail(domain.CategoryInventory), inv, nil, nil)

	got, err := engine.Overstock(context.Background())
	if err != nil {
		t.Fatalf("overstock: %v", err)
	}
	if got.OverstockedItems != 2 || got.TotalExcessValue != 1300 {
		t.Fatalf("unexpected overstock report: %+v", got)
	}
	if got.Items[0].ProductID != "P-1" {
		t.Fatalf("expected highest value first, got %+v", got.Items)
	}
}
