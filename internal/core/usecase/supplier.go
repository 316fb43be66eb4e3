package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

const (
	graphFallbackNote = "graph store unavailable; answered from relational tables"
	graphEmptyNote    = "graph mirror had no answer; answered from relational tables"
)

// fallbackNote distinguishes an unreachable graph from a reachable one that
// simply had nothing to say.
func fallbackNote(gerr error) string {
	if gerr != nil && !errors.Is(gerr, domain.ErrNotFound) {
		return graphFallbackNote
	}
	return graphEmptyNote
}

// SupplierEngine scores supplier risk and answers network questions. Network
// queries prefer the graph mirror and fall back to the relational tables when
// the graph is unreachable or returns nothing, tagging the answer source
// either way.
type SupplierEngine struct {
	suppliers ports.SupplierReader
	graph     ports.GraphStore
	avail     *AvailabilityResolver
	log       *slog.Logger
}

func NewSupplierEngine(
	suppliers ports.SupplierReader,
	graph ports.GraphStore,
	avail *AvailabilityResolver,
	log *slog.Logger,
) *SupplierEngine {
	return &SupplierEngine{suppliers: suppliers, graph: graph, avail: avail, log: log}
}

// RiskScores computes the composite risk score per supplier:
// 0.3 * lead-time component + 0.4 * delivery component + 0.3 * quality
// component, each clamped to 0..100.
func (e *SupplierEngine) RiskScores(ctx context.Context) (*domain.SupplierRiskReport, error) {
	suppliers, err := e.suppliers.Suppliers(ctx)
	if err != nil {
		return nil, err
	}
	scores := make([]domain.SupplierRiskScore, 0, len(suppliers))
	for _, s := range suppliers {
		leadComponent := clamp((s.AvgLeadTimeDays-5)*3, 0, 100)
		deliveryComponent := (1 - s.OnTimeRate) * 200
		if deliveryComponent < 0 {
			deliveryComponent = 0
		}
		qualityComponent := s.RejectionRate * 1000
		score := round1(0.3*leadComponent + 0.4*deliveryComponent + 0.3*qualityComponent)
		scores = append(scores, domain.SupplierRiskScore{
			SupplierID:    s.SupplierID,
			SupplierName:  s.SupplierName,
			RiskScore:     score,
			RiskLevel:     domain.RiskLevelFor(score),
			LeadTime:      s.AvgLeadTimeDays,
			OnTimeRate:    s.OnTimeRate,
			RejectionRate: s.RejectionRate,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].RiskScore != scores[j].RiskScore {
			return scores[i].RiskScore > scores[j].RiskScore
		}
		return scores[i].SupplierID < scores[j].SupplierID
	})
	return &domain.SupplierRiskReport{Suppliers: scores}, nil
}

// Performance returns the supplier master sorted by on-time rate descending.
func (e *SupplierEngine) Performance(ctx context.Context, limit int) (*domain.SupplierPerformanceReport, error) {
	if limit <= 0 {
		limit = 50
	}
	suppliers, err := e.suppliers.Suppliers(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(suppliers, func(i, j int) bool {
		if suppliers[i].OnTimeRate != suppliers[j].OnTimeRate {
			return suppliers[i].OnTimeRate > suppliers[j].OnTimeRate
		}
		return suppliers[i].SupplierID < suppliers[j].SupplierID
	})
	if len(suppliers) > limit {
		suppliers = suppliers[:limit]
	}
	return &domain.SupplierPerformanceReport{Suppliers: suppliers, Count: len(suppliers)}, nil
}

// Concentration measures purchase-order value share per supplier.
func (e *SupplierEngine) Concentration(ctx context.Context) (*domain.SupplierConcentrationReport, error) {
	stats, err := e.suppliers.SupplierOrderStats(ctx)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, s := range stats {
		total += s.TotalValue
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalValue != stats[j].TotalValue {
			return stats[i].TotalValue > stats[j].TotalValue
		}
		return stats[i].SupplierID < stats[j].SupplierID
	})
	entries := make([]domain.SupplierConcentrationEntry, 0, len(stats))
	var top3 float64
	for i, s := range stats {
		pct := 0.0
		if total > 0 {
			pct = s.TotalValue / total * 100
		}
		if i < 3 {
			top3 += pct
		}
		entries = append(entries, domain.SupplierConcentrationEntry{
			SupplierID: s.SupplierID,
			Orders:     s.Orders,
			TotalValue: round2(s.TotalValue),
			ValuePct:   round1(pct),
		})
	}
	top3 = round1(top3)
	return &domain.SupplierConcentrationReport{
		Suppliers:         entries,
		Top3ValuePct:      top3,
		ConcentrationRisk: domain.ConcentrationRiskFor(top3),
	}, nil
}

// Network lists supplier to product relationships, graph first.
func (e *SupplierEngine) Network(ctx context.Context) (*domain.SupplierNetworkReport, error) {
	links, gerr := e.graph.Network(ctx)
	if gerr == nil && len(links) > 0 {
		return &domain.SupplierNetworkReport{
			Relationships: len(links),
			Network:       links,
			Source:        domain.SourceGraph,
		}, nil
	}
	if gerr != nil {
		e.log.Warn("graph network query failed, using tabular fallback", "error", gerr)
	}

	tabular, err := e.tabularLinks(ctx)
	if err != nil {
		if gerr == nil {
			return &domain.SupplierNetworkReport{Source: domain.SourceGraph}, nil
		}
		return nil, err
	}
	return &domain.SupplierNetworkReport{
		Relationships: len(tabular),
		Network:       tabular,
		Source:        domain.SourceTabular,
		Note:          fallbackNote(gerr),
	}, nil
}

// SingleSource lists products with exactly one supplier.
func (e *SupplierEngine) SingleSource(ctx context.Context, limit int) (*domain.SingleSourceReport, error) {
	if limit <= 0 {
		limit = 50
	}
	risks, gerr := e.graph.SingleSourceProducts(ctx, limit)
	if gerr == nil && len(risks) > 0 {
		return &domain.SingleSourceReport{Total: len(risks), Risks: risks, Source: domain.SourceGraph}, nil
	}
	if gerr != nil {
		e.log.Warn("graph single-source query failed, using tabular fallback", "error", gerr)
	}

	links, err := e.tabularLinks(ctx)
	if err != nil {
		if gerr == nil {
			return &domain.SingleSourceReport{Source: domain.SourceGraph}, nil
		}
		return nil, err
	}
	suppliersByProduct := map[string][]string{}
	for _, l := range links {
		name := l.SupplierName
		if name == "" {
			name = l.SupplierID
		}
		suppliersByProduct[l.ProductID] = append(suppliersByProduct[l.ProductID], name)
	}
	var risksOut []domain.SingleSourceRisk
	for productID, names := range suppliersByProduct {
		if len(names) != 1 {
			continue
		}
		risksOut = append(risksOut, domain.SingleSourceRisk{
			ProductID:    productID,
			SoleSupplier: names[0],
			RiskLevel:    domain.RiskHigh,
		})
	}
	sort.Slice(risksOut, func(i, j int) bool { return risksOut[i].ProductID < risksOut[j].ProductID })
	if len(risksOut) > limit {
		risksOut = risksOut[:limit]
	}
	return &domain.SingleSourceReport{
		Total:  len(risksOut),
		Risks:  risksOut,
		Source: domain.SourceTabular,
		Note:   fallbackNote(gerr),
	}, nil
}

// Ripple lists every product impacted if one supplier fails. Impact count
// above 10 is high severity, above 3 medium. A supplier id unknown to both
// stores is a not-found error, never an empty success.
func (e *SupplierEngine) Ripple(ctx context.Context, supplierID string) (*domain.RippleReport, error) {
	if supplierID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ripple", fmt.Errorf("supplier_id is required"))
	}
	name, products, gerr := e.graph.ProductsOfSupplier(ctx, supplierID)
	if gerr == nil && len(products) > 0 {
		sort.Strings(products)
		return &domain.RippleReport{
			SupplierID:       supplierID,
			SupplierName:     name,
			ImpactedProducts: products,
			Count:            len(products),
			Severity:         domain.RippleSeverityFor(len(products)),
			Source:           domain.SourceGraph,
		}, nil
	}
	if gerr != nil && !errors.Is(gerr, domain.ErrNotFound) {
		e.log.Warn("graph ripple query failed, using tabular fallback", "error", gerr)
	}

	links, err := e.tabularLinks(ctx)
	if err != nil {
		if gerr == nil {
			// the graph knows the supplier; it just has no supply edges
			return e.rippleReport(supplierID, name, nil, domain.SourceGraph, ""), nil
		}
		if errors.Is(gerr, domain.ErrNotFound) {
			return nil, gerr
		}
		return nil, err
	}
	var impacted []string
	seen := map[string]bool{}
	fallbackName := ""
	for _, l := range links {
		if l.SupplierID != supplierID || seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		impacted = append(impacted, l.ProductID)
		if l.SupplierName != "" {
			fallbackName = l.SupplierName
		}
	}
	sort.Strings(impacted)
	if len(impacted) == 0 {
		if gerr == nil {
			return e.rippleReport(supplierID, name, nil, domain.SourceGraph, ""), nil
		}
		row, err := e.supplierRow(ctx, supplierID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, domain.WrapError(domain.ErrNotFound, "ripple",
				fmt.Errorf("supplier %s not found", supplierID))
		}
		fallbackName = row.SupplierName
	}
	return e.rippleReport(supplierID, fallbackName, impacted, domain.SourceTabular, fallbackNote(gerr)), nil
}

func (e *SupplierEngine) rippleReport(supplierID, name string, impacted []string, source, note string) *domain.RippleReport {
	return &domain.RippleReport{
		SupplierID:       supplierID,
		SupplierName:     name,
		ImpactedProducts: impacted,
		Count:            len(impacted),
		Severity:         domain.RippleSeverityFor(len(impacted)),
		Source:           source,
		Note:             note,
	}
}

func (e *SupplierEngine) supplierRow(ctx context.Context, supplierID string) (*domain.Supplier, error) {
	suppliers, err := e.suppliers.Suppliers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range suppliers {
		if suppliers[i].SupplierID == supplierID {
			return &suppliers[i], nil
		}
	}
	return nil, nil
}

// LeadTimeVariability ranks suppliers by lead time ascending.
func (e *SupplierEngine) LeadTimeVariability(ctx context.Context) (*domain.LeadTimeReport, error) {
	entries, gerr := e.graph.LeadTimeRanking(ctx)
	if gerr == nil && len(entries) > 0 {
		return &domain.LeadTimeReport{Suppliers: entries, Source: domain.SourceGraph}, nil
	}
	if gerr != nil {
		e.log.Warn("graph lead-time query failed, using tabular fallback", "error", gerr)
	}

	suppliers, err := e.suppliers.Suppliers(ctx)
	if err != nil {
		if gerr == nil {
			return &domain.LeadTimeReport{Source: domain.SourceGraph}, nil
		}
		return nil, err
	}
	entries = make([]domain.LeadTimeEntry, 0, len(suppliers))
	for _, s := range suppliers {
		entries = append(entries, domain.LeadTimeEntry{
			SupplierID:   s.SupplierID,
			SupplierName: s.SupplierName,
			LeadTime:     s.AvgLeadTimeDays,
			Rating:       s.Rating,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LeadTime != entries[j].LeadTime {
			return entries[i].LeadTime < entries[j].LeadTime
		}
		return entries[i].SupplierID < entries[j].SupplierID
	})
	return &domain.LeadTimeReport{
		Suppliers: entries,
		Source:    domain.SourceTabular,
		Note:      fallbackNote(gerr),
	}, nil
}

// Alternatives proposes up to five suppliers not currently supplying the
// product, best rating first, shortest lead time breaking ties.
func (e *SupplierEngine) Alternatives(ctx context.Context, productID string) (*domain.AlternativeSupplierReport, error) {
	if productID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "alternatives", fmt.Errorf("product_id is required"))
	}
	current, gerr := e.graph.SuppliersOfProduct(ctx, productID)
	var graphAlternatives []domain.RankedSupplier
	if gerr == nil {
		graphAlternatives, gerr = e.graph.AlternativeSuppliers(ctx, productID, 5)
	}
	if gerr == nil && len(current)+len(graphAlternatives) > 0 {
		return &domain.AlternativeSupplierReport{
			ProductID:    productID,
			Current:      current,
			Alternatives: graphAlternatives,
			Source:       domain.SourceGraph,
		}, nil
	}
	if gerr != nil {
		e.log.Warn("graph alternatives query failed, using tabular fallback", "error", gerr)
	}

	suppliers, err := e.suppliers.Suppliers(ctx)
	if err == nil {
		var links []domain.SupplyLink
		links, err = e.tabularLinks(ctx)
		if err == nil {
			return e.alternativesFromTables(productID, suppliers, links, fallbackNote(gerr)), nil
		}
	}
	if gerr == nil {
		return &domain.AlternativeSupplierReport{ProductID: productID, Source: domain.SourceGraph}, nil
	}
	return nil, err
}

func (e *SupplierEngine) alternativesFromTables(
	productID string,
	suppliers []domain.Supplier,
	links []domain.SupplyLink,
	note string,
) *domain.AlternativeSupplierReport {
	currentIDs := map[string]bool{}
	for _, l := range links {
		if l.ProductID == productID {
			currentIDs[l.SupplierID] = true
		}
	}
	var currentOut, alternatives []domain.RankedSupplier
	for _, s := range suppliers {
		ranked := domain.RankedSupplier{
			SupplierID:   s.SupplierID,
			SupplierName: s.SupplierName,
			LeadTime:     s.AvgLeadTimeDays,
			Rating:       s.Rating,
			Country:      s.Country,
		}
		if currentIDs[s.SupplierID] {
			currentOut = append(currentOut, ranked)
		} else {
			alternatives = append(alternatives, ranked)
		}
	}
	rankSuppliers(currentOut)
	rankSuppliers(alternatives)
	if len(alternatives) > 5 {
		alternatives = alternatives[:5]
	}
	return &domain.AlternativeSupplierReport{
		ProductID:    productID,
		Current:      currentOut,
		Alternatives: alternatives,
		Source:       domain.SourceTabular,
		Note:         note,
	}
}

func rankSuppliers(s []domain.RankedSupplier) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Rating != s[j].Rating {
			return s[i].Rating > s[j].Rating
		}
		if s[i].LeadTime != s[j].LeadTime {
			return s[i].LeadTime < s[j].LeadTime
		}
		return s[i].SupplierID < s[j].SupplierID
	})
}

func (e *SupplierEngine) tabularLinks(ctx context.Context) ([]domain.SupplyLink, error) {
	missing, err := e.avail.Missing(ctx, domain.CategorySuppliers, domain.CategoryPurchaseOrders)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "supplier_network",
			fmt.Errorf("graph unavailable and tabular fallback needs %v", missing))
	}
	return e.suppliers.SupplyLinks(ctx)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
