package service

import (
	"math"

	"github.com/wallet-insight/internal/types"
)

const (
	// defaultRiskFreeRate is the annual risk-free rate assumed for the
	// Sharpe ratio.
	defaultRiskFreeRate = 0.01
	// tradingDaysPerYear converts the annual risk-free rate to daily.
	tradingDaysPerYear = 252
	// defaultTrailingPercent is how far below the peak the trailing stop
	// sits.
	defaultTrailingPercent = 5.0
)

// RiskMetrics summarizes a price series. Short histories produce zeroed
// ratios and drawdown; TrailingStop needs at least one sample.
type RiskMetrics struct {
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	TrailingStop float64 `json:"trailing_stop"`
}

// CalculateRiskMetrics derives Sharpe ratio, max drawdown and trailing
// stop from a price history.
func CalculateRiskMetrics(points []types.PricePoint) RiskMetrics {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return RiskMetrics{
		SharpeRatio:  SharpeRatio(prices, defaultRiskFreeRate),
		MaxDrawdown:  MaxDrawdown(prices),
		TrailingStop: TrailingStop(prices, defaultTrailingPercent),
	}
}

// SharpeRatio computes mean excess daily return over its population
// standard deviation. Fewer than two prices, or a flat series, yield 0.
func SharpeRatio(prices []float64, riskFreeRate float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	dailyRate := riskFreeRate / tradingDaysPerYear
	excess := make([]float64, 0, len(prices)-1)
	var sum float64
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		r := prices[i]/prices[i-1] - 1 - dailyRate
		excess = append(excess, r)
		sum += r
	}
	if len(excess) == 0 {
		return 0
	}

	mean := sum / float64(len(excess))
	var variance float64
	for _, r := range excess {
		d := r - mean
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(len(excess)))
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev
}

// MaxDrawdown returns the worst peak-to-trough decline as a negative
// percentage. Fewer than two prices yield 0.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	peak := prices[0]
	worst := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak == 0 {
			continue
		}
		drawdown := (p - peak) / peak
		if drawdown < worst {
			worst = drawdown
		}
	}
	return worst * 100
}

// TrailingStop returns the stop price trailing the series peak by the
// given percentage, or 0 for an empty series.
func TrailingStop(prices []float64, trailingPercent float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	peak := prices[0]
	for _, p := range prices {
		if p > peak {
			peak = p
		}
	}
	return peak * (1 - trailingPercent/100)
}

// PositionSize returns how many units a balance buys when risking a
// fraction of it at the given price.
func PositionSize(balance, riskFraction, price float64) float64 {
	if price == 0 {
		return 0
	}
	return balance * riskFraction / price
}
