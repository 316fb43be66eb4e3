package domain

// Supplier risk levels from the composite score: >60 high, >30 medium.
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

func RiskLevelFor(score float64) string {
	switch {
	case score > 60:
		return RiskHigh
	case score > 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

type SupplierRiskScore struct {
	SupplierID    string  `json:"supplier_id"`
	SupplierName  string  `json:"supplier_name"`
	RiskScore     float64 `json:"risk_score"`
	RiskLevel     string  `json:"risk_level"`
	LeadTime      float64 `json:"lead_time"`
	OnTimeRate    float64 `json:"otd_rate"`
	RejectionRate float64 `json:"qrr"`
}

type SupplierRiskReport struct {
	Suppliers []SupplierRiskScore `json:"suppliers"`
}

type SupplierPerformanceReport struct {
	Suppliers []Supplier `json:"suppliers"`
	Count     int        `json:"count"`
}

type SupplierConcentrationEntry struct {
	SupplierID string  `json:"supplier_id"`
	Orders     int64   `json:"orders"`
	TotalValue float64 `json:"total_value"`
	ValuePct   float64 `json:"value_pct"`
}

type SupplierConcentrationReport struct {
	Suppliers         []SupplierConcentrationEntry `json:"suppliers"`
	Top3ValuePct      float64                      `json:"top3_value_pct"`
	ConcentrationRisk string                       `json:"concentration_risk"`
}

// SourceGraph / SourceTabular tag where a network answer came from. Tabular
// answers are the documented fallback when the mirror is unavailable.
const (
	SourceGraph   = "graph"
	SourceTabular = "tabular_fallback"
)

type SupplierNetworkReport struct {
	Relationships int          `json:"relationships"`
	Network       []SupplyLink `json:"network"`
	Source        string       `json:"source"`
	Note          string       `json:"note,omitempty"`
}

type SingleSourceReport struct {
	Total  int                `json:"total"`
	Risks  []SingleSourceRisk `json:"risks"`
	Source string             `json:"source"`
	Note   string             `json:"note,omitempty"`
}

// Ripple severity: more than 10 impacted products is high, more than 3 medium.
func RippleSeverityFor(impacted int) string {
	switch {
	case impacted > 10:
		return RiskHigh
	case impacted > 3:
		return RiskMedium
	default:
		return RiskLow
	}
}

type RippleReport struct {
	SupplierID       string   `json:"failed_supplier_id"`
	SupplierName     string   `json:"supplier_name,omitempty"`
	ImpactedProducts []string `json:"impacted"`
	Count            int      `json:"count"`
	Severity         string   `json:"severity"`
	Source           string   `json:"source"`
	Note             string   `json:"note,omitempty"`
}

type LeadTimeEntry struct {
	SupplierID   string  `json:"supplier_id"`
	SupplierName string  `json:"supplier_name"`
	LeadTime     float64 `json:"lead_time"`
	Rating       float64 `json:"rating"`
}

type LeadTimeReport struct {
	Suppliers []LeadTimeEntry `json:"suppliers"`
	Source    string          `json:"source"`
	Note      string          `json:"note,omitempty"`
}

type AlternativeSupplierReport struct {
	ProductID    string           `json:"product_id"`
	Current      []RankedSupplier `json:"current,omitempty"`
	Alternatives []RankedSupplier `json:"alternatives"`
	Source       string           `json:"source"`
	Note         string           `json:"note,omitempty"`
}
