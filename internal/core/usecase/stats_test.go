package usecase

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifyABCCumulativeShares(t *testing.T) {
	entries := classifyABC(map[string]float64{
		"P-1": 50,
		"P-2": 30,
		"P-3": 15,
		"P-4": 5,
	})

	want := map[string]string{"P-1": "A", "P-2": "A", "P-3": "B", "P-4": "C"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for _, e := range entries {
		if want[e.ProductID] != e.ABC {
			t.Errorf("%s: expected class %s, got %s", e.ProductID, want[e.ProductID], e.ABC)
		}
	}
	if entries[0].ProductID != "P-1" || entries[3].ProductID != "P-4" {
		t.Fatalf("expected value-descending order, got %+v", entries)
	}
}

func TestClassifyABCTieBreaksByID(t *testing.T) {
	entries := classifyABC(map[string]float64{"P-B": 10, "P-A": 10, "P-C": 10})
	if entries[0].ProductID != "P-A" || entries[1].ProductID != "P-B" || entries[2].ProductID != "P-C" {
		t.Fatalf("expected id-ascending tie-break, got %+v", entries)
	}
}

func TestClassifyXYZBoundaries(t *testing.T) {
	tests := []struct {
		cv   float64
		want string
	}{
		{0.0, "X"},
		{0.49, "X"},
		{0.5, "Y"},
		{0.99, "Y"},
		{1.0, "Z"},
		{2.5, "Z"},
	}
	for _, tc := range tests {
		if got := classifyXYZ(tc.cv); got != tc.want {
			t.Errorf("cv %.2f: expected %s, got %s", tc.cv, tc.want, got)
		}
	}
}

func TestDemandCVZeroMeanIsStable(t *testing.T) {
	if cv := demandCV(10, 0); cv != 0 {
		t.Fatalf("expected zero CV for zero mean, got %v", cv)
	}
	if classifyXYZ(demandCV(10, 0)) != "X" {
		t.Fatal("zero-mean demand should classify X")
	}
}

func TestWeightedDaysExcludesUnknownDays(t *testing.T) {
	amounts := []decimal.Decimal{
		decimal.NewFromInt(1000),
		decimal.NewFromInt(500),
		decimal.NewFromInt(9999),
	}
	days := []*float64{floatPtr(30), floatPtr(60), nil}

	got, ok := weightedDays(amounts, days)
	if !ok {
		t.Fatal("expected a weighted average")
	}
	want := (30.0*1000 + 60.0*500) / 1500.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWeightedDaysZeroBase(t *testing.T) {
	amounts := []decimal.Decimal{decimal.NewFromInt(100)}
	days := []*float64{nil}
	if _, ok := weightedDays(amounts, days); ok {
		t.Fatal("expected no average when every day count is unknown")
	}
}

func TestZScoreFor(t *testing.T) {
	if z := zScoreFor(0.90); z != 1.28 {
		t.Fatalf("expected 1.28, got %v", z)
	}
	if z := zScoreFor(0.99); z != 2.33 {
		t.Fatalf("expected 2.33, got %v", z)
	}
	if z := zScoreFor(0.42); z != 1.65 {
		t.Fatalf("expected fallback 1.65, got %v", z)
	}
}

func TestStddevPopulation(t *testing.T) {
	got := stddev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("expected population stddev 2.0, got %v", got)
	}
	if stddev(nil) != 0 {
		t.Fatal("expected zero stddev for empty input")
	}
}
