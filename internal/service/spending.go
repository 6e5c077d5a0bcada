package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wallet-insight/internal/adapter"
	apperrors "github.com/wallet-insight/internal/errors"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/types"
)

// ErrNoData reports that a wallet had no usable transactions in the
// provider response. Callers treat it as an empty outcome, not a failure.
var ErrNoData = errors.New("no transaction data for wallet")

const (
	// maxAnalyzedTransactions caps how much history one analysis reads.
	maxAnalyzedTransactions = 50

	// smallTradeThreshold marks a spend as dust-sized.
	smallTradeThreshold = 0.01

	// largeSpendThreshold marks a spend as outsized.
	largeSpendThreshold = 10.0

	// demoSmallTradeLimit flags a wallet when dust trades exceed it.
	demoSmallTradeLimit = 10

	// demoTokenRepeatLimit flags a wallet when any one token is traded
	// more often than it.
	demoTokenRepeatLimit = 5
)

// Window bounds an analysis to [From, To] epoch seconds inclusive. It is
// applied only when both bounds are set.
type Window struct {
	From int64
	To   int64
}

// Bounded reports whether the window constrains anything.
func (w Window) Bounded() bool {
	return w.From != 0 && w.To != 0
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts int64) bool {
	return ts >= w.From && ts <= w.To
}

// ProfileStore persists spending profiles.
type ProfileStore interface {
	Save(ctx context.Context, profile *models.SpendingProfile) error
}

// SpendingService classifies a wallet's outgoing transactions into a
// behaviour profile and flags demo-like activity.
type SpendingService struct {
	adapters *adapter.Registry
	sources  map[types.ChainID]adapter.WalletTransactionSource
	profiles ProfileStore

	// treatNegativeAsIncoming excludes negative balance deltas from the
	// dust-trade counter. Off by default: a negative delta still counts
	// as a small trade, matching long-standing behaviour.
	treatNegativeAsIncoming bool

	logger *logging.Logger
}

// NewSpendingService creates a new spending classifier.
func NewSpendingService(
	adapters *adapter.Registry,
	sources map[types.ChainID]adapter.WalletTransactionSource,
	profiles ProfileStore,
	treatNegativeAsIncoming bool,
	logger *logging.Logger,
) *SpendingService {
	return &SpendingService{
		adapters:                adapters,
		sources:                 sources,
		profiles:                profiles,
		treatNegativeAsIncoming: treatNegativeAsIncoming,
		logger:                  logger.WithField("component", "spending"),
	}
}

// Analyze builds and persists the wallet's spending profile from its
// most recent transactions. Returns ErrNoData when the provider had
// nothing usable for the wallet.
func (s *SpendingService) Analyze(ctx context.Context, address string, chain types.ChainID, window Window) (*models.SpendingProfile, error) {
	chainAdapter := s.adapters.Get(chain)
	source := s.sources[chain]
	if chainAdapter == nil || source == nil {
		return nil, ErrNoData
	}
	if !chainAdapter.ValidateAddress(address) {
		return nil, apperrors.NewInvalidAddressError(address, string(chain))
	}

	raws := source.FetchForWallet(ctx, address)
	if len(raws) == 0 {
		return nil, ErrNoData
	}
	if len(raws) > maxAnalyzedTransactions {
		raws = raws[:maxAnalyzedTransactions]
	}

	profile := &models.SpendingProfile{
		WalletAddress:       address,
		RepeatedTokenTrades: make(map[string]int),
	}

	analyzed := 0
	for _, raw := range raws {
		rec, err := chainAdapter.NormalizeSpend(raw)
		if err != nil {
			continue
		}
		if window.Bounded() && !window.Contains(rec.Timestamp) {
			continue
		}

		if rec.Amount < smallTradeThreshold {
			if rec.Amount >= 0 || !s.treatNegativeAsIncoming {
				profile.FrequentSmallTrades++
			}
		}
		profile.RepeatedTokenTrades[rec.Token]++
		if rec.Amount > largeSpendThreshold {
			profile.LargeSpends++
		}
		analyzed++
	}

	// A window that excludes everything still produces a zero-counter
	// profile; only an unusable provider response is no data.
	profile.IsDemo = s.isDemo(profile)

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to persist spending profile: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"address":      address,
		"chain":        chain,
		"analyzed":     analyzed,
		"small_trades": profile.FrequentSmallTrades,
		"large_spends": profile.LargeSpends,
		"is_demo":      profile.IsDemo,
	}).Info("Spending analysis completed")

	return profile, nil
}

// isDemo applies the flagging rule: too many dust trades, or any single
// token churned past the repeat limit.
func (s *SpendingService) isDemo(profile *models.SpendingProfile) bool {
	if profile.FrequentSmallTrades > demoSmallTradeLimit {
		return true
	}
	for _, count := range profile.RepeatedTokenTrades {
		if count > demoTokenRepeatLimit {
			return true
		}
	}
	return false
}
