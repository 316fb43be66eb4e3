package usecase

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
)

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation, matching the Z-score contract
// of anomaly detection.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// weightedDays computes sum(days*amount)/sum(amount) over entries with a
// known day count. Entries without one are excluded from both sides. A zero
// amount base yields (0, false).
func weightedDays(amounts []decimal.Decimal, days []*float64) (float64, bool) {
	num := decimal.Zero
	den := decimal.Zero
	for i, amt := range amounts {
		if days[i] == nil {
			continue
		}
		num = num.Add(amt.Mul(decimal.NewFromFloat(*days[i])))
		den = den.Add(amt)
	}
	if den.IsZero() {
		return 0, false
	}
	avg, _ := num.Div(den).Round(4).Float64()
	return avg, true
}

// zScoreTable maps service level to the normal-distribution Z value used for
// safety stock. Unrecognized levels fall back to the 95% value.
var zScoreTable = map[float64]float64{
	0.90: 1.28,
	0.95: 1.65,
	0.99: 2.33,
}

func zScoreFor(serviceLevel float64) float64 {
	if z, ok := zScoreTable[serviceLevel]; ok {
		return z
	}
	return zScoreTable[0.95]
}

// classifyABC assigns A/B/C by cumulative share of the given per-SKU values,
// sorted descending with SKU id ascending as the deterministic tie-break.
// Returns entries in that sort order.
func classifyABC(values map[string]float64) []domain.ABCXYZEntry {
	type kv struct {
		id    string
		value float64
	}
	ranked := make([]kv, 0, len(values))
	var total float64
	for id, v := range values {
		ranked = append(ranked, kv{id, v})
		total += v
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value != ranked[j].value {
			return ranked[i].value > ranked[j].value
		}
		return ranked[i].id < ranked[j].id
	})

	out := make([]domain.ABCXYZEntry, 0, len(ranked))
	var running float64
	for _, r := range ranked {
		running += r.value
		cum := 100.0
		if total > 0 {
			cum = running / total * 100
		}
		class := "C"
		switch {
		case cum <= 80:
			class = "A"
		case cum <= 95:
			class = "B"
		}
		out = append(out, domain.ABCXYZEntry{ProductID: r.id, Revenue: round2(r.value), ABC: class})
	}
	return out
}

// demandCV is the coefficient of variation of demand; zero mean demand is
// zero CV (class X).
func demandCV(qtyStdDev, qtyMean float64) float64 {
	if qtyMean <= 0 {
		return 0
	}
	return qtyStdDev / qtyMean
}

func classifyXYZ(cv float64) string {
	switch {
	case cv < 0.5:
		return "X"
	case cv < 1.0:
		return "Y"
	default:
		return "Z"
	}
}
