package models

import "time"

// SpendingProfile holds behavioral counters derived from a wallet's recent
// transactions. Keyed by wallet address; every analysis run recomputes the
// profile in full and overwrites the stored row (no incremental merge).
type SpendingProfile struct {
	WalletAddress       string         `json:"walletAddress" db:"wallet_address"`
	FrequentSmallTrades int            `json:"frequent_small_trades" db:"frequent_small_trades"`
	RepeatedTokenTrades map[string]int `json:"repeated_token_trades" db:"repeated_token_trades"`
	LargeSpends         int            `json:"large_spends" db:"large_spends"`
	IsDemo              bool           `json:"is_demo" db:"is_demo"`
	UpdatedAt           time.Time      `json:"updatedAt" db:"updated_at"`
}
