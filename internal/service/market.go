package service

import (
	"context"
	"time"

	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/types"
)

// PriceProvider is the market-data API surface the service consumes.
type PriceProvider interface {
	HistoricalPrices(ctx context.Context, coin string, days int) []types.PricePoint
	HistoricalRange(ctx context.Context, coin string, from, to int64) []types.PricePoint
	SpotPrice(ctx context.Context, coin string) (price, change24h float64, err error)
}

// PriceCache caches historical price series.
type PriceCache interface {
	GetPrices(ctx context.Context, coin string, days int) ([]types.PricePoint, error)
	SetPrices(ctx context.Context, coin string, days int, points []types.PricePoint, ttl time.Duration) error
}

// MarketService serves price history and spot quotes, caching series to
// stay inside the provider's rate limit. cache may be nil.
type MarketService struct {
	provider PriceProvider
	cache    PriceCache
	cacheTTL time.Duration
	logger   *logging.Logger
}

// NewMarketService creates a market-data service.
func NewMarketService(provider PriceProvider, cache PriceCache, cacheTTL time.Duration, logger *logging.Logger) *MarketService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &MarketService{
		provider: provider,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.WithField("component", "market"),
	}
}

// History returns up to days of price samples for a coin, empty when the
// provider has nothing. Cache problems are logged and bypassed.
func (s *MarketService) History(ctx context.Context, coin string, days int) []types.PricePoint {
	if s.cache != nil {
		cached, err := s.cache.GetPrices(ctx, coin, days)
		if err != nil {
			s.logger.WithError(err).Warn("Price cache read failed")
		} else if cached != nil {
			return cached
		}
	}

	points := s.provider.HistoricalPrices(ctx, coin, days)

	if s.cache != nil && len(points) > 0 {
		if err := s.cache.SetPrices(ctx, coin, days, points, s.cacheTTL); err != nil {
			s.logger.WithError(err).Warn("Price cache write failed")
		}
	}
	return points
}

// HistoryRange returns price samples between two unix timestamps.
func (s *MarketService) HistoryRange(ctx context.Context, coin string, from, to int64) []types.PricePoint {
	return s.provider.HistoricalRange(ctx, coin, from, to)
}

// Spot returns the current price and 24h change for a coin.
func (s *MarketService) Spot(ctx context.Context, coin string) (price, change24h float64, err error) {
	return s.provider.SpotPrice(ctx, coin)
}

// MarketSignal is a trend call relative to the recent price average.
type MarketSignal string

const (
	SignalBuy          MarketSignal = "Buy"
	SignalHold         MarketSignal = "Hold"
	SignalNeutral      MarketSignal = "Neutral"
	SignalInsufficient MarketSignal = "Not enough data"
)

// TrendSignal compares the latest price against the average of the last
// seven samples: 2% below it is a buy, 2% above a hold, anything between
// is neutral.
func (s *MarketService) TrendSignal(ctx context.Context, coin string, days int) (MarketSignal, float64) {
	points := s.History(ctx, coin, days)
	if len(points) < 7 {
		return SignalInsufficient, 0
	}

	recent := points[len(points)-7:]
	var sum float64
	for _, p := range recent {
		sum += p.Price
	}
	avg := sum / float64(len(recent))
	current := points[len(points)-1].Price

	switch {
	case current < avg*0.98:
		return SignalBuy, current
	case current > avg*1.02:
		return SignalHold, current
	default:
		return SignalNeutral, current
	}
}
