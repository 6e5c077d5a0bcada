package models

import (
	"time"

	"github.com/wallet-insight/internal/types"
)

// Inflow is one normalized transaction record as seen by an aggregation
// run, archived to ClickHouse for later queries. Rows are append-only.
type Inflow struct {
	RunID      string        `json:"runId" ch:"run_id"`
	Blockchain types.ChainID `json:"blockchain" ch:"blockchain"`
	Address    string        `json:"address" ch:"address"`
	Amount     float64       `json:"amount" ch:"amount"`
	Token      string        `json:"token" ch:"token"`
	Timestamp  time.Time     `json:"timestamp" ch:"timestamp"`
	IngestedAt time.Time     `json:"ingestedAt" ch:"ingested_at"`
}
