package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/wallet-insight/internal/adapter"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/types"
)

// topSpenderScanDepth is how many recent records one scan considers.
const topSpenderScanDepth = 200

// TopSpenderStore persists the per-day winner.
type TopSpenderStore interface {
	Save(ctx context.Context, spender *models.TopSpender) error
	Get(ctx context.Context, day string) (*models.TopSpender, error)
}

// TopSpenderService finds the wallet that spent the most on a chain
// during one UTC day.
type TopSpenderService struct {
	sources map[types.ChainID]adapter.TransactionSource
	store   TopSpenderStore
	logger  *logging.Logger
}

// NewTopSpenderService creates a top-spender scanner.
func NewTopSpenderService(sources map[types.ChainID]adapter.TransactionSource, store TopSpenderStore, logger *logging.Logger) *TopSpenderService {
	return &TopSpenderService{
		sources: sources,
		store:   store,
		logger:  logger.WithField("component", "topspender"),
	}
}

// spendRecord is the subset of a raw record the scan reads. Providers
// encode value as either a quoted decimal string or a bare number.
type spendRecord struct {
	From      string          `json:"from"`
	Value     json.RawMessage `json:"value"`
	TimeStamp json.RawMessage `json:"timeStamp"`
}

// Scan sums outgoing value per sender over the day and persists the
// single largest. day is "YYYY-MM-DD" in UTC; empty means today. A scan
// with no matching records returns nil without error.
func (s *TopSpenderService) Scan(ctx context.Context, chain types.ChainID, day string) (*models.TopSpender, error) {
	source := s.sources[chain]
	if source == nil {
		return nil, nil
	}
	if day == "" {
		day = time.Now().UTC().Format("2006-01-02")
	}

	raws := source.FetchLatest(ctx, topSpenderScanDepth)
	if len(raws) == 0 {
		return nil, nil
	}
	if len(raws) > topSpenderScanDepth {
		raws = raws[:topSpenderScanDepth]
	}

	totals := make(map[string]float64)
	var order []string
	for _, raw := range raws {
		var rec spendRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}

		ts := flexibleInt(rec.TimeStamp)
		if time.Unix(ts, 0).UTC().Format("2006-01-02") != day {
			continue
		}

		wallet := rec.From
		if wallet == "" {
			wallet = "Unknown"
		}

		amount := flexibleFloat(rec.Value)
		if chain != types.ChainBitcoin {
			amount /= 1e18
		}
		if _, seen := totals[wallet]; !seen {
			order = append(order, wallet)
		}
		totals[wallet] += amount
	}

	if len(totals) == 0 {
		return nil, nil
	}

	// Walk wallets in first-seen order so an amount tie always resolves
	// to the wallet that appeared earliest in the feed.
	topWallet := order[0]
	topAmount := totals[topWallet]
	for _, wallet := range order[1:] {
		if totals[wallet] > topAmount {
			topWallet, topAmount = wallet, totals[wallet]
		}
	}

	spender := &models.TopSpender{
		Day:        day,
		Blockchain: chain,
		Wallet:     topWallet,
		Amount:     topAmount,
	}
	if err := s.store.Save(ctx, spender); err != nil {
		return nil, fmt.Errorf("failed to persist top spender: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"chain":  chain,
		"day":    day,
		"wallet": topWallet,
		"amount": topAmount,
	}).Info("Top spender recorded")

	return spender, nil
}

// ForDay returns the stored winner for a day, nil when none was recorded.
func (s *TopSpenderService) ForDay(ctx context.Context, day string) (*models.TopSpender, error) {
	return s.store.Get(ctx, day)
}

// flexibleInt decodes a JSON number or quoted decimal string.
func flexibleInt(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.ParseInt(str, 10, 64); err == nil {
			return v
		}
	}
	return 0
}

// flexibleFloat decodes a JSON number or quoted decimal string.
func flexibleFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.ParseFloat(str, 64); err == nil {
			return v
		}
	}
	return 0
}
