package models

import (
	"time"

	"github.com/wallet-insight/internal/types"
)

// TopSpender records the highest-spending wallet for one UTC day.
// One row per day; a re-scan of the same day replaces the row.
type TopSpender struct {
	Day        string        `json:"day" db:"day"` // YYYY-MM-DD (UTC)
	Blockchain types.ChainID `json:"blockchain" db:"blockchain"`
	Wallet     string        `json:"wallet" db:"wallet"`
	Amount     float64       `json:"amount" db:"amount"`
	DetectedAt time.Time     `json:"detectedAt" db:"detected_at"`
}
