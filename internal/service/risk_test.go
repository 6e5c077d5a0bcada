package service

import (
	"math"
	"testing"

	"github.com/wallet-insight/internal/types"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 110, trough 107 afterwards: (107-110)/110 = -2.727%.
	prices := []float64{100, 102, 105, 110, 107}
	got := MaxDrawdown(prices)
	if !almostEqual(got, -2.7272727, 1e-4) {
		t.Errorf("MaxDrawdown = %v, want about -2.727", got)
	}
}

func TestMaxDrawdown_MonotonicRiseIsZero(t *testing.T) {
	if got := MaxDrawdown([]float64{1, 2, 3, 4}); got != 0 {
		t.Errorf("MaxDrawdown = %v, want 0 for a rising series", got)
	}
}

func TestMaxDrawdown_ShortHistory(t *testing.T) {
	if got := MaxDrawdown([]float64{100}); got != 0 {
		t.Errorf("MaxDrawdown = %v, want 0 for short history", got)
	}
}

func TestTrailingStop(t *testing.T) {
	prices := []float64{100, 102, 105, 110, 107}
	if got := TrailingStop(prices, 5); !almostEqual(got, 104.5, 1e-9) {
		t.Errorf("TrailingStop = %v, want 104.5", got)
	}
}

func TestTrailingStop_Empty(t *testing.T) {
	if got := TrailingStop(nil, 5); got != 0 {
		t.Errorf("TrailingStop = %v, want 0", got)
	}
}

func TestSharpeRatio_FlatSeriesIsZero(t *testing.T) {
	if got := SharpeRatio([]float64{100, 100, 100}, 0.01); got != 0 {
		t.Errorf("SharpeRatio = %v, want 0 for a flat series", got)
	}
}

func TestSharpeRatio_ShortHistory(t *testing.T) {
	if got := SharpeRatio([]float64{100}, 0.01); got != 0 {
		t.Errorf("SharpeRatio = %v, want 0 for short history", got)
	}
}

func TestSharpeRatio_KnownSeries(t *testing.T) {
	// Returns: +10%, -5%. Daily rf = 0.01/252.
	prices := []float64{100, 110, 104.5}
	rf := 0.01 / 252
	r1 := 0.10 - rf
	r2 := -0.05 - rf
	mean := (r1 + r2) / 2
	std := math.Sqrt(((r1-mean)*(r1-mean) + (r2-mean)*(r2-mean)) / 2)
	want := mean / std

	if got := SharpeRatio(prices, 0.01); !almostEqual(got, want, 1e-9) {
		t.Errorf("SharpeRatio = %v, want %v", got, want)
	}
}

func TestCalculateRiskMetrics(t *testing.T) {
	points := []types.PricePoint{
		{Timestamp: 1, Price: 100},
		{Timestamp: 2, Price: 102},
		{Timestamp: 3, Price: 105},
		{Timestamp: 4, Price: 110},
		{Timestamp: 5, Price: 107},
	}

	metrics := CalculateRiskMetrics(points)
	if !almostEqual(metrics.TrailingStop, 104.5, 1e-9) {
		t.Errorf("TrailingStop = %v, want 104.5", metrics.TrailingStop)
	}
	if metrics.MaxDrawdown >= 0 {
		t.Errorf("MaxDrawdown = %v, want negative", metrics.MaxDrawdown)
	}
	if metrics.SharpeRatio == 0 {
		t.Errorf("SharpeRatio = 0, want nonzero for varying prices")
	}
}

func TestCalculateRiskMetrics_Empty(t *testing.T) {
	metrics := CalculateRiskMetrics(nil)
	if metrics.SharpeRatio != 0 || metrics.MaxDrawdown != 0 || metrics.TrailingStop != 0 {
		t.Errorf("Expected zeroed metrics, got %+v", metrics)
	}
}

func TestPositionSize(t *testing.T) {
	if got := PositionSize(1000, 0.02, 50); got != 0.4 {
		t.Errorf("PositionSize = %v, want 0.4", got)
	}
	if got := PositionSize(1000, 0.02, 0); got != 0 {
		t.Errorf("PositionSize = %v, want 0 for zero price", got)
	}
}
