package domain

// ParamKind is the JSON-schema-ish type of one analysis parameter.
type ParamKind string

const (
	ParamNumber     ParamKind = "number"
	ParamString     ParamKind = "string"
	ParamStringList ParamKind = "string_list"
)

type ParamSpec struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"kind"`
	Description string    `json:"description"`
	Default     any       `json:"default,omitempty"`
	Required    bool      `json:"required,omitempty"`
}

// AnalysisSpec is one entry of the fixed analysis catalogue: the contract a
// caller selects by name.
type AnalysisSpec struct {
	Name        string      `json:"name"`
	Group       string      `json:"group"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"params,omitempty"`
	Requires    []Category  `json:"requires,omitempty"`     // all must be present and non-empty
	RequiresAny []Category  `json:"requires_any,omitempty"` // at least one must be present
}

// EngineDefaults collects the tunable formula defaults. They are injected at
// construction rather than hard-coded at call sites.
type EngineDefaults struct {
	HoldingCostRate       float64 // annual, fraction of inventory value
	OrderCost             float64 // fixed cost per order (EOQ "S")
	ServiceLevel          float64 // safety stock default service level
	DemandSigmaFallback   float64 // stddev of demand when no sales history
	LeadTimeDaysFallback  int     // lead time when absent from product master
	UnitCostFallback      float64 // unit cost when absent from product master
	EOQFallback           float64 // reorder quantity when product master lacks one
	DeadStockDays         int     // idle-day threshold
	StockoutHorizonDays   int     // days-of-supply horizon
	ForecastWindowDays    int     // moving-average window
	ForecastHorizonDays   int     // projection horizon
	AnomalyZThreshold     float64
	AnnualRevenueFallback float64 // CCC simulation when revenue is unknown
	QueryRowCap           int     // ad-hoc query result cap
}

func DefaultEngineDefaults() EngineDefaults {
	return EngineDefaults{
		HoldingCostRate:       0.25,
		OrderCost:             50,
		ServiceLevel:          0.95,
		DemandSigmaFallback:   50,
		LeadTimeDaysFallback:  14,
		UnitCostFallback:      10.0,
		EOQFallback:           100,
		DeadStockDays:         90,
		StockoutHorizonDays:   14,
		ForecastWindowDays:    7,
		ForecastHorizonDays:   30,
		AnomalyZThreshold:     2.0,
		AnnualRevenueFallback: 100_000_000,
		QueryRowCap:           100,
	}
}
