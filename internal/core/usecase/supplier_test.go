package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

func newSupplierEngine(suppliers *fakeSuppliers, graph *fakeGraph, avail *AvailabilityResolver) *SupplierEngine {
	if suppliers == nil {
		suppliers = &fakeSuppliers{}
	}
	if graph == nil {
		graph = &fakeGraph{}
	}
	if avail == nil {
		avail = newAvail(domain.CategorySuppliers, domain.CategoryPurchaseOrders)
	}
	return NewSupplierEngine(suppliers, graph, avail, discardLogger())
}

func TestRiskScoreComposite(t *testing.T) {
	suppliers := &fakeSuppliers{suppliers: []domain.Supplier{
		{SupplierID: "S-MED", SupplierName: "Medium Co", AvgLeadTimeDays: 15, OnTimeRate: 0.8, RejectionRate: 0.05},
		{SupplierID: "S-LOW", SupplierName: "Low Co", AvgLeadTimeDays: 5, OnTimeRate: 1.0, RejectionRate: 0},
		{SupplierID: "S-HIGH", SupplierName: "High Co", AvgLeadTimeDays: 60, OnTimeRate: 0.5, RejectionRate: 0.1},
	}}
	engine := newSupplierEngine(suppliers, nil, nil)

	got, err := engine.RiskScores(context.Background())
	if err != nil {
		t.Fatalf("risk scores: %v", err)
	}

	byID := map[string]domain.SupplierRiskScore{}
	for _, s := range got.Suppliers {
		byID[s.SupplierID] = s
	}
	// 0.3*clamp((15-5)*3) + 0.4*(1-0.8)*200 + 0.3*0.05*1000 = 9 + 16 + 15
	if s := byID["S-MED"]; s.RiskScore != 40 || s.RiskLevel != domain.RiskMedium {
		t.Fatalf("unexpected medium score: %+v", s)
	}
	if s := byID["S-LOW"]; s.RiskScore != 0 || s.RiskLevel != domain.RiskLow {
		t.Fatalf("unexpected low score: %+v", s)
	}
	// lead component clamps at 100: 30 + 40 + 30 = 100
	if s := byID["S-HIGH"]; s.RiskScore != 100 || s.RiskLevel != domain.RiskHigh {
		t.Fatalf("unexpected high score: %+v", s)
	}
	if got.Suppliers[0].SupplierID != "S-HIGH" {
		t.Fatalf("expected riskiest first, got %+v", got.Suppliers[0])
	}
}

func TestConcentrationTop3(t *testing.T) {
	suppliers := &fakeSuppliers{orderStats: []domain.SupplierOrderStat{
		{SupplierID: "S-1", Orders: 10, TotalValue: 6000},
		{SupplierID: "S-2", Orders: 5, TotalValue: 3000},
		{SupplierID: "S-3", Orders: 2, TotalValue: 500},
		{SupplierID: "S-4", Orders: 1, TotalValue: 500},
	}}
	engine := newSupplierEngine(suppliers, nil, nil)

	got, err := engine.Concentration(context.Background())
	if err != nil {
		t.Fatalf("concentration: %v", err)
	}
	if got.Suppliers[0].SupplierID != "S-1" || got.Suppliers[0].ValuePct != 60 {
		t.Fatalf("unexpected leader: %+v", got.Suppliers[0])
	}
	if got.Top3ValuePct != 95 {
		t.Fatalf("expected top-3 share 95, got %v", got.Top3ValuePct)
	}
	if got.ConcentrationRisk != domain.ConcentrationHigh {
		t.Fatalf("expected high concentration, got %q", got.ConcentrationRisk)
	}
}

func TestNetworkPrefersGraph(t *testing.T) {
	graph := &fakeGraph{network: []domain.SupplyLink{
		{SupplierID: "S-1", ProductID: "P-1"},
		{SupplierID: "S-2", ProductID: "P-1"},
	}}
	engine := newSupplierEngine(nil, graph, nil)

	got, err := engine.Network(context.Background())
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	if got.Source != domain.SourceGraph || got.Relationships != 2 {
		t.Fatalf("expected graph answer, got %+v", got)
	}
	if got.Note != "" {
		t.Fatalf("graph answers carry no fallback note, got %q", got.Note)
	}
}

func TestNetworkFallsBackToTables(t *testing.T) {
	graph := &fakeGraph{err: errors.New("connection refused")}
	suppliers := &fakeSuppliers{links: []domain.SupplyLink{
		{SupplierID: "S-1", ProductID: "P-1"},
	}}
	engine := newSupplierEngine(suppliers, graph, nil)

	got, err := engine.Network(context.Background())
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	if got.Source != domain.SourceTabular {
		t.Fatalf("expected tabular fallback, got %q", got.Source)
	}
	if got.Note != graphFallbackNote {
		t.Fatalf("expected fallback note, got %q", got.Note)
	}
}

func TestNetworkFallbackNeedsTables(t *testing.T) {
	graph := &fakeGraph{err: errors.New("connection refused")}
	engine := newSupplierEngine(nil, graph, newAvail(domain.CategorySuppliers))

	_, err := engine.Network(context.Background())
	if !domain.IsKind(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable without purchase_orders, got %v", err)
	}
}

func TestSingleSourceTabularFallback(t *testing.T) {
	graph := &fakeGraph{err: errors.New("down")}
	suppliers := &fakeSuppliers{links: []domain.SupplyLink{
		{SupplierID: "S-1", SupplierName: "Solo Co", ProductID: "P-SOLO"},
		{SupplierID: "S-1", ProductID: "P-DUAL"},
		{SupplierID: "S-2", ProductID: "P-DUAL"},
	}}
	engine := newSupplierEngine(suppliers, graph, nil)

	got, err := engine.SingleSource(context.Background(), 0)
	if err != nil {
		t.Fatalf("single source: %v", err)
	}
	if got.Total != 1 || got.Risks[0].ProductID != "P-SOLO" {
		t.Fatalf("expected only P-SOLO, got %+v", got.Risks)
	}
	if got.Risks[0].SoleSupplier != "Solo Co" || got.Risks[0].RiskLevel != domain.RiskHigh {
		t.Fatalf("unexpected risk entry: %+v", got.Risks[0])
	}
	if got.Source != domain.SourceTabular || got.Note != graphFallbackNote {
		t.Fatalf("expected tagged fallback, got %+v", got)
	}
}

func TestRippleRequiresSupplierID(t *testing.T) {
	engine := newSupplierEngine(nil, nil, nil)
	if _, err := engine.Ripple(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRippleSeverity(t *testing.T) {
	graph := &fakeGraph{
		supplierName: "Acme Metals",
		products:     []string{"P-4", "P-1", "P-2", "P-3", "P-5"},
	}
	engine := newSupplierEngine(nil, graph, nil)

	got, err := engine.Ripple(context.Background(), "S-1")
	if err != nil {
		t.Fatalf("ripple: %v", err)
	}
	if got.Count != 5 || got.Severity != domain.RiskMedium {
		t.Fatalf("five impacted products is medium severity, got %+v", got)
	}
	if got.SupplierName != "Acme Metals" || got.Source != domain.SourceGraph {
		t.Fatalf("unexpected report: %+v", got)
	}
	if got.ImpactedProducts[0] != "P-1" {
		t.Fatalf("expected sorted products, got %v", got.ImpactedProducts)
	}
}

func TestNetworkFallsBackWhenGraphEmpty(t *testing.T) {
	suppliers := &fakeSuppliers{links: []domain.SupplyLink{
		{SupplierID: "S-1", ProductID: "P-1"},
	}}
	engine := newSupplierEngine(suppliers, &fakeGraph{}, nil)

	got, err := engine.Network(context.Background())
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	if got.Source != domain.SourceTabular || got.Relationships != 1 {
		t.Fatalf("an empty mirror should defer to the tables, got %+v", got)
	}
	if got.Note != graphEmptyNote {
		t.Fatalf("expected empty-mirror note, got %q", got.Note)
	}
}

func TestRippleUnknownSupplierIsNotFound(t *testing.T) {
	graph := &fakeGraph{err: domain.WrapError(domain.ErrNotFound, "graph lookup", errors.New("supplier S-GONE not in graph"))}
	engine := newSupplierEngine(&fakeSuppliers{}, graph, nil)

	_, err := engine.Ripple(context.Background(), "S-GONE")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("unknown supplier must be not found, got %v", err)
	}
}

func TestRippleAnswersFromTablesWhenMirrorLags(t *testing.T) {
	graph := &fakeGraph{err: domain.WrapError(domain.ErrNotFound, "graph lookup", errors.New("supplier S-1 not in graph"))}
	suppliers := &fakeSuppliers{links: []domain.SupplyLink{
		{SupplierID: "S-1", SupplierName: "Acme Metals", ProductID: "P-1"},
	}}
	engine := newSupplierEngine(suppliers, graph, nil)

	got, err := engine.Ripple(context.Background(), "S-1")
	if err != nil {
		t.Fatalf("ripple: %v", err)
	}
	if got.Count != 1 || got.Source != domain.SourceTabular {
		t.Fatalf("expected tabular answer for a lagging mirror, got %+v", got)
	}
	if got.SupplierName != "Acme Metals" || got.Note != graphEmptyNote {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestRippleZeroImpactNeedsKnownSupplier(t *testing.T) {
	graph := &fakeGraph{err: errors.New("connection refused")}
	suppliers := &fakeSuppliers{suppliers: []domain.Supplier{
		{SupplierID: "S-IDLE", SupplierName: "Idle Co"},
	}}
	engine := newSupplierEngine(suppliers, graph, nil)

	got, err := engine.Ripple(context.Background(), "S-IDLE")
	if err != nil {
		t.Fatalf("ripple: %v", err)
	}
	if got.Count != 0 || got.SupplierName != "Idle Co" || got.Severity != domain.RiskLow {
		t.Fatalf("a supplier with no orders is a zero-impact answer, got %+v", got)
	}

	if _, err := engine.Ripple(context.Background(), "S-GONE"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("a supplier in neither store must be not found, got %v", err)
	}
}

func TestAlternativesExcludeCurrentSuppliers(t *testing.T) {
	graph := &fakeGraph{err: errors.New("down")}
	suppliers := &fakeSuppliers{
		suppliers: []domain.Supplier{
			{SupplierID: "S-CUR", SupplierName: "Current", AvgLeadTimeDays: 10, Rating: 20},
			{SupplierID: "S-BEST", SupplierName: "Best", AvgLeadTimeDays: 12, Rating: 90},
			{SupplierID: "S-FAST", SupplierName: "Fast", AvgLeadTimeDays: 3, Rating: 90},
			{SupplierID: "S-MEH", SupplierName: "Meh", AvgLeadTimeDays: 20, Rating: 40},
		},
		links: []domain.SupplyLink{{SupplierID: "S-CUR", ProductID: "P-1"}},
	}
	engine := newSupplierEngine(suppliers, graph, nil)

	got, err := engine.Alternatives(context.Background(), "P-1")
	if err != nil {
		t.Fatalf("alternatives: %v", err)
	}
	if len(got.Current) != 1 || got.Current[0].SupplierID != "S-CUR" {
		t.Fatalf("unexpected current suppliers: %+v", got.Current)
	}
	if len(got.Alternatives) != 3 {
		t.Fatalf("expected 3 alternatives, got %+v", got.Alternatives)
	}
	// equal rating breaks ties on lead time
	if got.Alternatives[0].SupplierID != "S-FAST" || got.Alternatives[1].SupplierID != "S-BEST" {
		t.Fatalf("unexpected ranking: %+v", got.Alternatives)
	}
	if got.Source != domain.SourceTabular {
		t.Fatalf("expected tabular fallback, got %q", got.Source)
	}
}

func TestLeadTimeVariabilityFallbackSortsAscending(t *testing.T) {
	graph := &fakeGraph{err: errors.New("down")}
	suppliers := &fakeSuppliers{suppliers: []domain.Supplier{
		{SupplierID: "S-SLOW", AvgLeadTimeDays: 30},
		{SupplierID: "S-QUICK", AvgLeadTimeDays: 4},
	}}
	engine := newSupplierEngine(suppliers, graph, nil)

	got, err := engine.LeadTimeVariability(context.Background())
	if err != nil {
		t.Fatalf("lead time variability: %v", err)
	}
	if got.Suppliers[0].SupplierID != "S-QUICK" {
		t.Fatalf("expected shortest lead time first, got %+v", got.Suppliers[0])
	}
	if got.Source != domain.SourceTabular || got.Note != graphFallbackNote {
		t.Fatalf("expected tagged fallback, got %+v", got)
	}
}
