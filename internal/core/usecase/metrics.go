package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

// MetricsEngine computes the cash-cycle KPIs and revenue classifications.
type MetricsEngine struct {
	avail     *AvailabilityResolver
	inventory ports.InventoryReader
	sales     ports.SalesReader
	ledgers   ports.LedgerReader
	products  ports.ProductReader
	defaults  domain.EngineDefaults
}

func NewMetricsEngine(
	avail *AvailabilityResolver,
	inventory ports.InventoryReader,
	sales ports.SalesReader,
	ledgers ports.LedgerReader,
	products ports.ProductReader,
	defaults domain.EngineDefaults,
) *MetricsEngine {
	return &MetricsEngine{
		avail:     avail,
		inventory: inventory,
		sales:     sales,
		ledgers:   ledgers,
		products:  products,
		defaults:  defaults,
	}
}

// KPISummary degrades field-by-field: each sub-metric is either computed or
// zero with a note naming what is missing. CCC is always recomputed from the
// three sub-metrics.
func (e *MetricsEngine) KPISummary(ctx context.Context) (*domain.KPISummary, error) {
	out := &domain.KPISummary{Formula: "CCC = DIO + DSO - DPO", Unit: "days"}

	invOK, err := e.avail.Available(ctx, domain.CategoryInventory)
	if err != nil {
		return nil, err
	}
	salesOK, err := e.avail.Available(ctx, domain.CategorySales)
	if err != nil {
		return nil, err
	}
	if invOK && salesOK {
		dio, err := e.dio(ctx)
		if err != nil {
			return nil, err
		}
		out.DIO = dio
	} else {
		out.DIONote = "Need inventory_snapshot + sales_transactions"
	}

	arOK, err := e.avail.Available(ctx, domain.CategoryARLedger)
	if err != nil {
		return nil, err
	}
	if arOK {
		dso, ok, err := e.dso(ctx)
		if err != nil {
			return nil, err
		}
		out.DSO = dso
		if !ok {
			out.DSONote = "ar_ledger has no weighted base (zero invoice amounts)"
		}
	} else {
		out.DSONote = "Upload ar_ledger for DSO"
	}

	apOK, err := e.avail.Available(ctx, domain.CategoryAPLedger)
	if err != nil {
		return nil, err
	}
	if apOK {
		dpo, ok, err := e.dpo(ctx)
		if err != nil {
			return nil, err
		}
		out.DPO = dpo
		if !ok {
			out.DPONote = "ap_ledger has no weighted base (zero invoice amounts)"
		}
	} else {
		out.DPONote = "Upload ap_ledger for DPO"
	}

	out.CCC = round1(out.DIO + out.DSO - out.DPO)
	return out, nil
}

// dio is total current inventory value over average daily COGS; zero when
// daily COGS is zero.
func (e *MetricsEngine) dio(ctx context.Context) (float64, error) {
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return 0, err
	}
	var invValue float64
	for _, it := range items {
		invValue += it.Value
	}
	totals, err := e.sales.SalesTotals(ctx)
	if err != nil {
		return 0, err
	}
	days := totals.DistinctDays
	if days < 1 {
		days = 1
	}
	dailyCOGS := totals.Cost / float64(days)
	if dailyCOGS <= 0 {
		return 0, nil
	}
	return round1(invValue / dailyCOGS), nil
}

func (e *MetricsEngine) dso(ctx context.Context) (float64, bool, error) {
	entries, err := e.ledgers.Receivables(ctx)
	if err != nil {
		return 0, false, err
	}
	amounts := make([]decimal.Decimal, len(entries))
	days := make([]*float64, len(entries))
	for i, entry := range entries {
		amounts[i] = entry.Amount
		days[i] = entry.DaysToPay
	}
	avg, ok := weightedDays(amounts, days)
	return round1(avg), ok, nil
}

func (e *MetricsEngine) dpo(ctx context.Context) (float64, bool, error) {
	entries, err := e.ledgers.Payables(ctx)
	if err != nil {
		return 0, false, err
	}
	amounts := make([]decimal.Decimal, len(entries))
	days := make([]*float64, len(entries))
	for i, entry := range entries {
		amounts[i] = entry.Amount
		days[i] = entry.ActualDays
	}
	avg, ok := weightedDays(amounts, days)
	return round1(avg), ok, nil
}

func (e *MetricsEngine) CarryingCost(ctx context.Context, holdingRate float64) (*domain.CarryingCostReport, error) {
	if holdingRate <= 0 {
		holdingRate = e.defaults.HoldingCostRate
	}
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, it := range items {
		total += it.Value
	}
	return &domain.CarryingCostReport{
		TotalInventoryValue: round2(total),
		HoldingRate:         holdingRate,
		AnnualCarryingCost:  round2(total * holdingRate),
		MonthlyCarryingCost: round2(total * holdingRate / 12),
	}, nil
}

// Pareto ranks SKUs on the chosen dimension. Ties sort by product id
// ascending so the ranking is reproducible.
func (e *MetricsEngine) Pareto(ctx context.Context, dimension string, limit int) (*domain.ParetoReport, error) {
	if limit <= 0 {
		limit = 50
	}
	values := map[string]float64{}
	switch dimension {
	case "", "revenue":
		dimension = "revenue"
		stats, err := e.sales.ProductSales(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range stats {
			values[s.ProductID] += s.Revenue
		}
	case "quantity":
		stats, err := e.sales.ProductSales(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range stats {
			values[s.ProductID] += s.TotalQty
		}
	case "inventory_value":
		items, err := e.inventory.CurrentInventory(ctx)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			values[it.ProductID] += it.Value
		}
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "pareto",
			fmt.Errorf("unknown dimension %q (revenue, quantity, inventory_value)", dimension))
	}

	ranked := classifyABC(values)
	var total float64
	for _, v := range values {
		total += v
	}
	entries := make([]domain.ParetoEntry, 0, len(ranked))
	driving80 := 0
	var running float64
	for _, r := range ranked {
		running += r.Revenue
		cum := 100.0
		if total > 0 {
			cum = running / total * 100
		}
		if cum <= 80 {
			driving80++
		}
		entries = append(entries, domain.ParetoEntry{
			ProductID:     r.ProductID,
			Value:         r.Revenue,
			CumulativePct: round2(cum),
		})
	}
	pct := 0.0
	if len(entries) > 0 {
		pct = round1(float64(driving80) / float64(len(entries)) * 100)
	}
	capped := entries
	if len(capped) > limit {
		capped = capped[:limit]
	}
	return &domain.ParetoReport{
		Dimension:     dimension,
		TotalSKUs:     len(entries),
		SKUsDriving80: driving80,
		PctOfSKUs:     pct,
		Entries:       capped,
	}, nil
}

// ABCXYZ prefers classes pre-populated in the product master; otherwise both
// letters are recomputed from sales history.
func (e *MetricsEngine) ABCXYZ(ctx context.Context, limit int) (*domain.ABCXYZReport, error) {
	if limit <= 0 {
		limit = 100
	}
	legend := map[string]string{
		"A": "Top 80% revenue", "B": "Next 15%", "C": "Bottom 5%",
		"X": "Stable demand", "Y": "Variable", "Z": "Erratic",
	}

	productsOK, err := e.avail.Available(ctx, domain.CategoryProducts)
	if err != nil {
		return nil, err
	}
	if productsOK {
		preClassed, err := e.products.ProductsHaveClasses(ctx)
		if err != nil {
			return nil, err
		}
		if preClassed {
			products, err := e.products.Products(ctx, "", "")
			if err != nil {
				return nil, err
			}
			entries := make([]domain.ABCXYZEntry, 0, len(products))
			for _, p := range products {
				entries = append(entries, domain.ABCXYZEntry{
					ProductID:   p.ProductID,
					ProductName: p.ProductName,
					ABC:         p.ABCClass,
					XYZ:         p.XYZClass,
				})
			}
			sort.Slice(entries, func(i, j int) bool {
				if entries[i].ABC != entries[j].ABC {
					return entries[i].ABC < entries[j].ABC
				}
				if entries[i].XYZ != entries[j].XYZ {
					return entries[i].XYZ < entries[j].XYZ
				}
				return entries[i].ProductID < entries[j].ProductID
			})
			if len(entries) > limit {
				entries = entries[:limit]
			}
			return &domain.ABCXYZReport{
				Total:          len(entries),
				Classification: entries,
				Source:         string(domain.CategoryProducts),
				Legend:         legend,
			}, nil
		}
	}

	stats, err := e.sales.ProductSales(ctx)
	if err != nil {
		return nil, err
	}
	revenue := make(map[string]float64, len(stats))
	byID := make(map[string]domain.ProductSalesStat, len(stats))
	for _, s := range stats {
		revenue[s.ProductID] = s.Revenue
		byID[s.ProductID] = s
	}
	entries := classifyABC(revenue)
	for i := range entries {
		s := byID[entries[i].ProductID]
		entries[i].XYZ = classifyXYZ(demandCV(s.QtyStdDev, s.QtyMean))
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return &domain.ABCXYZReport{
		Total:          len(entries),
		Classification: entries,
		Source:         string(domain.CategorySales),
		Legend:         legend,
	}, nil
}

// SimulateCCC prices hypothetical day reductions. Annual revenue defaults to
// the observed revenue-per-day annualized, then to the configured fallback.
func (e *MetricsEngine) SimulateCCC(ctx context.Context, dioReduction, dsoReduction, dpoIncrease, annualRevenue float64) (*domain.CCCSimulation, error) {
	if annualRevenue <= 0 {
		salesOK, err := e.avail.Available(ctx, domain.CategorySales)
		if err != nil {
			return nil, err
		}
		if salesOK {
			totals, err := e.sales.SalesTotals(ctx)
			if err != nil {
				return nil, err
			}
			days := totals.DistinctDays
			if days < 1 {
				days = 1
			}
			annualRevenue = totals.Revenue / float64(days) * 365
		}
	}
	if annualRevenue <= 0 {
		annualRevenue = e.defaults.AnnualRevenueFallback
	}

	daily := annualRevenue / 365
	saved := dioReduction + dsoReduction + dpoIncrease
	return &domain.CCCSimulation{
		AnnualRevenue:  round2(annualRevenue),
		DailyRevenue:   round2(daily),
		TotalDaysSaved: saved,
		TotalCashFreed: round2(saved * daily),
		Breakdown: []domain.CCCLeverImpact{
			{Action: fmt.Sprintf("Reduce DIO by %gd", dioReduction), CashFreed: round2(dioReduction * daily)},
			{Action: fmt.Sprintf("Reduce DSO by %gd", dsoReduction), CashFreed: round2(dsoReduction * daily)},
			{Action: fmt.Sprintf("Increase DPO by %gd", dpoIncrease), CashFreed: round2(dpoIncrease * daily)},
		},
	}, nil
}

func (e *MetricsEngine) WorkingCapital(ctx context.Context, limit int) (*domain.WorkingCapitalSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := e.inventory.CurrentInventory(ctx)
	if err != nil {
		return nil, err
	}
	perProduct := map[string]*domain.TrappedCashItem{}
	var total float64
	for _, it := range items {
		entry, ok := perProduct[it.ProductID]
		if !ok {
			entry = &domain.TrappedCashItem{ProductID: it.ProductID}
			perProduct[it.ProductID] = entry
		}
		entry.TotalUnits += it.QtyOnHand
		entry.TrappedCash += it.Value
		total += it.Value
	}
	top := make([]domain.TrappedCashItem, 0, len(perProduct))
	for _, entry := range perProduct {
		entry.TrappedCash = round2(entry.TrappedCash)
		top = append(top, *entry)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].TrappedCash != top[j].TrappedCash {
			return top[i].TrappedCash > top[j].TrappedCash
		}
		return top[i].ProductID < top[j].ProductID
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return &domain.WorkingCapitalSummary{
		TotalCashTrapped: round2(total),
		TopItems:         top,
	}, nil
}

// ARAging rolls receivables into their fixed bucket order.
func (e *MetricsEngine) ARAging(ctx context.Context) (*domain.ARAgingReport, error) {
	entries, err := e.ledgers.Receivables(ctx)
	if err != nil {
		return nil, err
	}
	bucketOrder := []string{"Current", "1-30 days", "31-60 days", "61-90 days", "90+ days"}
	buckets := map[string]*domain.ARAgingBucket{}
	report := &domain.ARAgingReport{}
	for _, entry := range entries {
		amount, _ := entry.Amount.Float64()
		bucket := entry.AgingBucket
		if bucket == "" {
			bucket = "Current"
		}
		b, ok := buckets[bucket]
		if !ok {
			b = &domain.ARAgingBucket{Bucket: bucket}
			buckets[bucket] = b
		}
		b.Invoices++
		b.TotalAmount = round2(b.TotalAmount + amount)
		if !entry.Paid {
			b.Outstanding = round2(b.Outstanding + amount)
			report.TotalOutstanding = round2(report.TotalOutstanding + amount)
		}
		if entry.Disputed {
			report.Disputes.Count++
			report.Disputes.Amount = round2(report.Disputes.Amount + amount)
		}
		if entry.WrittenOff {
			report.WriteOffs.Count++
			report.WriteOffs.Amount = round2(report.WriteOffs.Amount + amount)
		}
	}
	for _, label := range bucketOrder {
		if b, ok := buckets[label]; ok {
			report.Buckets = append(report.Buckets, *b)
			delete(buckets, label)
		}
	}
	// Unrecognized bucket labels sort after the known ones.
	var rest []string
	for label := range buckets {
		rest = append(rest, label)
	}
	sort.Strings(rest)
	for _, label := range rest {
		report.Buckets = append(report.Buckets, *buckets[label])
	}
	return report, nil
}

func (e *MetricsEngine) DSOAnalysis(ctx context.Context) (*domain.DSOReport, error) {
	entries, err := e.ledgers.Receivables(ctx)
	if err != nil {
		return nil, err
	}
	amounts := make([]decimal.Decimal, len(entries))
	days := make([]*float64, len(entries))
	for i, entry := range entries {
		amounts[i] = entry.Amount
		days[i] = entry.DaysToPay
	}
	overall, _ := weightedDays(amounts, days)

	type agg struct {
		name, segment string
		amounts       []decimal.Decimal
		days          []*float64
		billed        decimal.Decimal
		invoices      int
	}
	perCustomer := map[string]*agg{}
	for _, entry := range entries {
		if entry.DaysToPay == nil {
			continue
		}
		a, ok := perCustomer[entry.CustomerID]
		if !ok {
			a = &agg{name: entry.CustomerName, segment: entry.Segment, billed: decimal.Zero}
			perCustomer[entry.CustomerID] = a
		}
		a.amounts = append(a.amounts, entry.Amount)
		a.days = append(a.days, entry.DaysToPay)
		a.billed = a.billed.Add(entry.Amount)
		a.invoices++
	}

	byCustomer := make([]domain.CustomerDSO, 0, len(perCustomer))
	for id, a := range perCustomer {
		weighted, _ := weightedDays(a.amounts, a.days)
		billed, _ := a.billed.Float64()
		byCustomer = append(byCustomer, domain.CustomerDSO{
			CustomerID:   id,
			CustomerName: a.name,
			Segment:      a.segment,
			WeightedDSO:  round1(weighted),
			Invoices:     a.invoices,
			TotalBilled:  round2(billed),
		})
	}
	sort.Slice(byCustomer, func(i, j int) bool {
		if byCustomer[i].WeightedDSO != byCustomer[j].WeightedDSO {
			return byCustomer[i].WeightedDSO > byCustomer[j].WeightedDSO
		}
		return byCustomer[i].CustomerID < byCustomer[j].CustomerID
	})
	if len(byCustomer) > 20 {
		byCustomer = byCustomer[:20]
	}

	report := &domain.DSOReport{OverallDSO: round1(overall), ByCustomer: byCustomer}
	customersOK, err := e.avail.Available(ctx, domain.CategoryCustomers)
	if err != nil {
		return nil, err
	}
	if !customersOK {
		report.Note = "customers not uploaded; names and segments unavailable"
	}
	return report, nil
}

func (e *MetricsEngine) DPOAnalysis(ctx context.Context) (*domain.DPOReport, error) {
	entries, err := e.ledgers.Payables(ctx)
	if err != nil {
		return nil, err
	}
	amounts := make([]decimal.Decimal, len(entries))
	days := make([]*float64, len(entries))
	for i, entry := range entries {
		amounts[i] = entry.Amount
		days[i] = entry.ActualDays
	}
	overall, _ := weightedDays(amounts, days)

	type agg struct {
		name      string
		contract  *int
		amounts   []decimal.Decimal
		days      []*float64
		discounts float64
		invoices  int
	}
	perSupplier := map[string]*agg{}
	for _, entry := range entries {
		a, ok := perSupplier[entry.SupplierID]
		if !ok {
			a = &agg{name: entry.SupplierName, contract: entry.ContractDays}
			perSupplier[entry.SupplierID] = a
		}
		a.invoices++
		a.discounts += entry.EarlyDiscount
		if entry.ActualDays == nil {
			continue
		}
		a.amounts = append(a.amounts, entry.Amount)
		a.days = append(a.days, entry.ActualDays)
	}

	bySupplier := make([]domain.SupplierDPO, 0, len(perSupplier))
	for id, a := range perSupplier {
		weighted, _ := weightedDays(a.amounts, a.days)
		bySupplier = append(bySupplier, domain.SupplierDPO{
			SupplierID:     id,
			SupplierName:   a.name,
			WeightedDPO:    round1(weighted),
			ContractDays:   a.contract,
			Invoices:       a.invoices,
			TotalDiscounts: round2(a.discounts),
		})
	}
	sort.Slice(bySupplier, func(i, j int) bool {
		if bySupplier[i].WeightedDPO != bySupplier[j].WeightedDPO {
			return bySupplier[i].WeightedDPO > bySupplier[j].WeightedDPO
		}
		return bySupplier[i].SupplierID < bySupplier[j].SupplierID
	})

	report := &domain.DPOReport{OverallDPO: round1(overall), BySupplier: bySupplier}
	suppliersOK, err := e.avail.Available(ctx, domain.CategorySuppliers)
	if err != nil {
		return nil, err
	}
	if !suppliersOK {
		report.Note = "suppliers not uploaded; names and terms unavailable"
	}
	return report, nil
}
