package models

import (
	"time"

	"github.com/wallet-insight/internal/types"
)

// Registration maps a username to a tracked wallet. Write-once: a second
// registration attempt for the same username reports a conflict and never
// overwrites the stored record.
type Registration struct {
	ID            string        `json:"id" db:"id"`
	Username      string        `json:"username" db:"username"`
	WalletAddress string        `json:"walletAddress" db:"wallet_address"`
	Blockchain    types.ChainID `json:"blockchain" db:"blockchain"`
	RegisteredAt  time.Time     `json:"registeredAt" db:"registered_at"`
}
