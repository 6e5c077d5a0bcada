package service

import (
	"context"
	"testing"

	"github.com/wallet-insight/internal/types"
)

func pricePoints(prices ...float64) []types.PricePoint {
	points := make([]types.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = types.PricePoint{Timestamp: int64(i), Price: p}
	}
	return points
}

func TestTrendSignal_BuyBelowAverage(t *testing.T) {
	// Last seven average 100, current 95 is more than 2% below.
	provider := &fakePriceProvider{points: pricePoints(100, 101, 102, 101, 100, 101, 95)}
	market := NewMarketService(provider, nil, 0, testLogger())

	signal, price := market.TrendSignal(context.Background(), "bitcoin", 30)
	if signal != SignalBuy {
		t.Errorf("Signal = %s, want Buy", signal)
	}
	if price != 95 {
		t.Errorf("Price = %v, want 95", price)
	}
}

func TestTrendSignal_HoldAboveAverage(t *testing.T) {
	provider := &fakePriceProvider{points: pricePoints(100, 100, 100, 100, 100, 100, 110)}
	market := NewMarketService(provider, nil, 0, testLogger())

	signal, _ := market.TrendSignal(context.Background(), "bitcoin", 30)
	if signal != SignalHold {
		t.Errorf("Signal = %s, want Hold", signal)
	}
}

func TestTrendSignal_NeutralInsideBand(t *testing.T) {
	provider := &fakePriceProvider{points: pricePoints(100, 100, 100, 100, 100, 100, 101)}
	market := NewMarketService(provider, nil, 0, testLogger())

	signal, _ := market.TrendSignal(context.Background(), "bitcoin", 30)
	if signal != SignalNeutral {
		t.Errorf("Signal = %s, want Neutral", signal)
	}
}

func TestTrendSignal_InsufficientData(t *testing.T) {
	provider := &fakePriceProvider{points: pricePoints(100, 101, 102)}
	market := NewMarketService(provider, nil, 0, testLogger())

	signal, price := market.TrendSignal(context.Background(), "bitcoin", 30)
	if signal != SignalInsufficient {
		t.Errorf("Signal = %s, want insufficient-data sentinel", signal)
	}
	if price != 0 {
		t.Errorf("Price = %v, want 0", price)
	}
}

func TestHistory_PassesThroughWithoutCache(t *testing.T) {
	provider := &fakePriceProvider{points: pricePoints(1, 2, 3)}
	market := NewMarketService(provider, nil, 0, testLogger())

	points := market.History(context.Background(), "bitcoin", 7)
	if len(points) != 3 {
		t.Errorf("History returned %d points, want 3", len(points))
	}
}
