// Package adapter normalizes provider-shaped blockchain records into the
// common TransactionRecord shape and hosts the provider clients. Each chain
// has one adapter; the aggregator and classifier never see raw records.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wallet-insight/internal/types"
)

// ChainAdapter converts a chain's raw provider records into TransactionRecords.
//
// The two normalize paths scale value differently on purpose: deposits use
// the chain's base-unit divisor, while the spend path mirrors the wallet's
// outgoing-amount resolution (Solana balance deltas, Bitcoin values left
// unscaled). See NormalizeSpend on each adapter.
type ChainAdapter interface {
	// ChainID returns the chain identifier
	ChainID() types.ChainID

	// NormalizeDeposit extracts the destination wallet and the scaled
	// credited amount from a raw record. Returns ErrSkipRecord for records
	// with no usable destination.
	NormalizeDeposit(raw json.RawMessage) (*types.TransactionRecord, error)

	// NormalizeSpend extracts the spent amount, token symbol and timestamp
	// from a raw record for spending-pattern analysis.
	NormalizeSpend(raw json.RawMessage) (*types.TransactionRecord, error)

	// ValidateAddress checks if an address is plausible for this chain
	ValidateAddress(address string) bool
}

// TransactionSource fetches the latest raw records for a chain.
type TransactionSource interface {
	// FetchLatest returns up to limit raw records, or an empty slice on any
	// provider failure. It never returns an error across this boundary.
	FetchLatest(ctx context.Context, limit int) []json.RawMessage
}

// WalletTransactionSource fetches raw records for a single wallet.
type WalletTransactionSource interface {
	// FetchForWallet returns the wallet's recent raw records in provider
	// order, or an empty slice on any failure.
	FetchForWallet(ctx context.Context, address string) []json.RawMessage
}

// BalanceSource fetches the current balance of a wallet in the chain's
// human unit.
type BalanceSource interface {
	FetchBalance(ctx context.Context, address string) (float64, error)
}

var (
	// ErrSkipRecord indicates a record has no usable destination address
	// and should be dropped without failing the batch.
	ErrSkipRecord = fmt.Errorf("record has no usable destination")

	// ErrInvalidRecord indicates the raw record could not be parsed.
	ErrInvalidRecord = fmt.Errorf("invalid record format")
)

// unknownAddress is a sentinel some providers emit for unresolvable
// destinations; records carrying it are skipped.
const unknownAddress = "Unknown"

// Registry maps chain identifiers to their adapters.
type Registry struct {
	adapters map[types.ChainID]ChainAdapter
}

// NewRegistry creates a registry with the given adapters.
func NewRegistry(adapters ...ChainAdapter) *Registry {
	reg := &Registry{adapters: make(map[types.ChainID]ChainAdapter, len(adapters))}
	for _, a := range adapters {
		reg.adapters[a.ChainID()] = a
	}
	return reg
}

// Get returns the adapter for a chain, or nil if the chain is unsupported.
func (r *Registry) Get(chain types.ChainID) ChainAdapter {
	return r.adapters[chain]
}
