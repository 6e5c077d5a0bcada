package models

import (
	"time"

	"github.com/wallet-insight/internal/types"
)

// Wallet represents aggregated inflow stats for one wallet on one chain.
// One row per (wallet_address, blockchain); a re-run of the aggregator
// replaces the row rather than incrementing it.
type Wallet struct {
	Address          string        `json:"walletAddress" db:"wallet_address"`
	Blockchain       types.ChainID `json:"blockchain" db:"blockchain"`
	TotalReceived    float64       `json:"totalReceived" db:"total_received"`
	TransactionCount int           `json:"transactionCount" db:"transaction_count"`
	LastUpdated      time.Time     `json:"lastUpdated" db:"last_updated"`
}

// IsRepeatBuyer reports whether the wallet falls in the repeat-buyer cohort.
func (w *Wallet) IsRepeatBuyer() bool {
	return w.TransactionCount > 2
}
