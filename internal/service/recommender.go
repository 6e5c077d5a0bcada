package service

import (
	"context"
	"fmt"

	"github.com/wallet-insight/internal/adapter"
	apperrors "github.com/wallet-insight/internal/errors"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/types"
)

const (
	// buyDipThreshold is the 24h change below which a dip is buyable.
	buyDipThreshold = -2.0
	// sellRallyThreshold is the 24h change above which taking profit is
	// suggested.
	sellRallyThreshold = 2.0
	// lowBalanceThreshold gates buy suggestions to wallets that are not
	// already heavily loaded.
	lowBalanceThreshold = 10.0
)

// TradeAdvice is the outcome of one recommendation request.
type TradeAdvice struct {
	WalletAddress  string               `json:"wallet_address"`
	Blockchain     types.ChainID        `json:"blockchain"`
	Recommendation types.Recommendation `json:"recommendation"`
	Price          float64              `json:"price"`
	Change24h      float64              `json:"change_24h"`
	Balance        float64              `json:"balance"`
}

// coinIDs maps chains to the market-data provider's coin identifiers.
var coinIDs = map[types.ChainID]string{
	types.ChainEthereum: "ethereum",
	types.ChainBSC:      "binancecoin",
	types.ChainSolana:   "solana",
	types.ChainBitcoin:  "bitcoin",
}

// CoinID returns the market-data identifier for a chain's native coin.
func CoinID(chain types.ChainID) string {
	if id, ok := coinIDs[chain]; ok {
		return id
	}
	return string(chain)
}

// RecommenderService produces a heuristic trade signal from the wallet's
// balance and the coin's 24h movement.
type RecommenderService struct {
	market   *MarketService
	balances map[types.ChainID]adapter.BalanceSource
	adapters *adapter.Registry
	logger   *logging.Logger
}

// NewRecommenderService creates a recommender.
func NewRecommenderService(market *MarketService, balances map[types.ChainID]adapter.BalanceSource, adapters *adapter.Registry, logger *logging.Logger) *RecommenderService {
	return &RecommenderService{
		market:   market,
		balances: balances,
		adapters: adapters,
		logger:   logger.WithField("component", "recommender"),
	}
}

// Recommend suggests BUY on a dip when the wallet holds little, SELL on
// a rally, HOLD otherwise. Provider failures surface as errors here: a
// recommendation built on missing data would be worse than none.
func (s *RecommenderService) Recommend(ctx context.Context, walletAddress string, chain types.ChainID) (*TradeAdvice, error) {
	source := s.balances[chain]
	if source == nil {
		return nil, apperrors.NewUnsupportedChainError(string(chain))
	}
	if s.adapters != nil {
		if chainAdapter := s.adapters.Get(chain); chainAdapter != nil && !chainAdapter.ValidateAddress(walletAddress) {
			return nil, apperrors.NewInvalidAddressError(walletAddress, string(chain))
		}
	}

	price, change24h, err := s.market.Spot(ctx, CoinID(chain))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market trend: %w", err)
	}

	balance, err := source.FetchBalance(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wallet balance: %w", err)
	}

	recommendation := types.RecommendHold
	if change24h < buyDipThreshold && balance < lowBalanceThreshold {
		recommendation = types.RecommendBuy
	} else if change24h > sellRallyThreshold {
		recommendation = types.RecommendSell
	}

	s.logger.WithFields(map[string]interface{}{
		"wallet":         walletAddress,
		"chain":          chain,
		"recommendation": recommendation,
		"change_24h":     change24h,
		"balance":        balance,
	}).Info("Trade recommendation generated")

	return &TradeAdvice{
		WalletAddress:  walletAddress,
		Blockchain:     chain,
		Recommendation: recommendation,
		Price:          price,
		Change24h:      change24h,
		Balance:        balance,
	}, nil
}
