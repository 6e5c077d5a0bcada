// Package service holds the analytics pipeline: wallet aggregation,
// spending classification, the daily top-spender scan, registrations,
// trade recommendations and risk metrics. Services compute, repositories
// persist, notify dispatches. Computation never talks to a channel.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wallet-insight/internal/adapter"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/types"
)

// smallDepositThreshold is the amount below which a record is dropped
// when a detection run excludes demo-sized inflows.
const smallDepositThreshold = 0.01

// repeatBuyerMinimum is the transaction count above which a wallet is a
// repeat buyer.
const repeatBuyerMinimum = 2

// WalletStore persists detected wallets.
type WalletStore interface {
	Upsert(ctx context.Context, wallet *models.Wallet) error
}

// InflowArchive records the normalized inflows a detection run saw.
type InflowArchive interface {
	InsertBatch(ctx context.Context, inflows []*models.Inflow) error
}

// DetectionResult is the outcome of one aggregation run. AllWallets,
// PotentialNewWallets and PotentialRepeatedBuyers always describe the
// full unfiltered set; SortedWallets is the slice the caller's filter
// selected, in ranked order.
type DetectionResult struct {
	Chain                   types.ChainID    `json:"blockchain"`
	Filter                  types.FilterType `json:"filter"`
	AllWallets              []*models.Wallet `json:"all_wallets"`
	PotentialNewWallets     []*models.Wallet `json:"potential_new_wallets"`
	PotentialRepeatedBuyers []*models.Wallet `json:"potential_repeated_buyers"`
	SortedWallets           []*models.Wallet `json:"sorted_wallets"`
}

// AggregatorService folds a chain's latest raw records into per-wallet
// totals, ranks them and persists the selected cohort.
type AggregatorService struct {
	adapters   *adapter.Registry
	sources    map[types.ChainID]adapter.TransactionSource
	wallets    WalletStore
	archive    InflowArchive
	maxWallets int
	logger     *logging.Logger
}

// NewAggregatorService creates a new aggregator. archive may be nil when
// no run history is kept.
func NewAggregatorService(
	adapters *adapter.Registry,
	sources map[types.ChainID]adapter.TransactionSource,
	wallets WalletStore,
	archive InflowArchive,
	maxWallets int,
	logger *logging.Logger,
) *AggregatorService {
	if maxWallets <= 0 {
		maxWallets = 150
	}
	return &AggregatorService{
		adapters:   adapters,
		sources:    sources,
		wallets:    wallets,
		archive:    archive,
		maxWallets: maxWallets,
		logger:     logger.WithField("component", "aggregator"),
	}
}

// Detect runs one aggregation pass over the chain's latest records.
//
// Provider failures and unsupported chains yield an empty result, never
// an error. A failed wallet upsert does fail the call: losing detected
// wallets silently would defeat the point of the run.
func (s *AggregatorService) Detect(ctx context.Context, chain types.ChainID, filter types.FilterType, skipDemo bool) (*DetectionResult, error) {
	result := &DetectionResult{
		Chain:                   chain,
		Filter:                  filter,
		AllWallets:              []*models.Wallet{},
		PotentialNewWallets:     []*models.Wallet{},
		PotentialRepeatedBuyers: []*models.Wallet{},
		SortedWallets:           []*models.Wallet{},
	}

	chainAdapter := s.adapters.Get(chain)
	source := s.sources[chain]
	if chainAdapter == nil || source == nil {
		s.logger.WithField("chain", chain).Warn("No adapter or source for chain, returning empty result")
		return result, nil
	}

	raws := source.FetchLatest(ctx, s.maxWallets)
	if len(raws) == 0 {
		return result, nil
	}

	records := s.normalize(chainAdapter, raws, skipDemo)
	if len(records) == 0 {
		return result, nil
	}

	wallets := s.aggregate(chain, records)
	sortWallets(wallets)

	result.AllWallets = wallets
	for _, w := range wallets {
		if w.IsRepeatBuyer() {
			result.PotentialRepeatedBuyers = append(result.PotentialRepeatedBuyers, w)
		} else {
			result.PotentialNewWallets = append(result.PotentialNewWallets, w)
		}
	}

	switch filter {
	case types.FilterNew:
		result.SortedWallets = result.PotentialNewWallets
	case types.FilterPotential:
		result.SortedWallets = result.PotentialRepeatedBuyers
	default:
		result.SortedWallets = result.AllWallets
	}

	for _, w := range result.SortedWallets {
		if err := s.wallets.Upsert(ctx, w); err != nil {
			return nil, fmt.Errorf("failed to persist wallet %s: %w", w.Address, err)
		}
	}

	s.archiveRun(ctx, chain, records)

	s.logger.WithFields(map[string]interface{}{
		"chain":    chain,
		"filter":   filter,
		"wallets":  len(result.AllWallets),
		"selected": len(result.SortedWallets),
	}).Info("Detection run completed")

	return result, nil
}

// normalize converts raw provider records through the chain's deposit
// path, dropping unusable records and, when skipDemo is set, anything
// below the small-deposit threshold.
func (s *AggregatorService) normalize(chainAdapter adapter.ChainAdapter, raws []json.RawMessage, skipDemo bool) []*types.TransactionRecord {
	records := make([]*types.TransactionRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := chainAdapter.NormalizeDeposit(raw)
		if err != nil {
			continue
		}
		if skipDemo && rec.Amount < smallDepositThreshold {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// aggregate folds records into one Wallet per address, preserving first
// appearance order.
func (s *AggregatorService) aggregate(chain types.ChainID, records []*types.TransactionRecord) []*models.Wallet {
	byAddress := make(map[string]*models.Wallet, len(records))
	order := make([]*models.Wallet, 0, len(records))

	for _, rec := range records {
		w, ok := byAddress[rec.Address]
		if !ok {
			w = &models.Wallet{Address: rec.Address, Blockchain: chain}
			byAddress[rec.Address] = w
			order = append(order, w)
		}
		w.TotalReceived += rec.Amount
		w.TransactionCount++
	}

	return order
}

// sortWallets ranks repeat buyers ahead of everyone else, then by total
// received descending. The sort is stable so ties keep first-seen order.
func sortWallets(wallets []*models.Wallet) {
	sort.SliceStable(wallets, func(i, j int) bool {
		ri, rj := wallets[i].IsRepeatBuyer(), wallets[j].IsRepeatBuyer()
		if ri != rj {
			return ri
		}
		return wallets[i].TotalReceived > wallets[j].TotalReceived
	})
}

// archiveRun writes the run's normalized records to the inflow archive.
// Best effort: archive problems are logged, the run result stands.
func (s *AggregatorService) archiveRun(ctx context.Context, chain types.ChainID, records []*types.TransactionRecord) {
	if s.archive == nil {
		return
	}

	runID := uuid.New().String()
	now := time.Now().UTC()
	inflows := make([]*models.Inflow, 0, len(records))
	for _, rec := range records {
		inflows = append(inflows, &models.Inflow{
			RunID:      runID,
			Blockchain: chain,
			Address:    rec.Address,
			Amount:     rec.Amount,
			Token:      rec.Token,
			Timestamp:  time.Unix(rec.Timestamp, 0).UTC(),
			IngestedAt: now,
		})
	}

	if err := s.archive.InsertBatch(ctx, inflows); err != nil {
		s.logger.WithField("chain", chain).WithError(err).Warn("Failed to archive detection run")
	}
}
