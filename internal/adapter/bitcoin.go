package adapter

import (
	"encoding/json"

	"github.com/wallet-insight/internal/types"
)

// BitcoinAdapter normalizes blockchain.info-shaped records.
type BitcoinAdapter struct{}

// NewBitcoinAdapter creates a Bitcoin chain adapter.
func NewBitcoinAdapter() *BitcoinAdapter {
	return &BitcoinAdapter{}
}

// ChainID returns the chain identifier
func (a *BitcoinAdapter) ChainID() types.ChainID {
	return types.ChainBitcoin
}

type bitcoinOutput struct {
	Addr  string `json:"addr"`
	Value int64  `json:"value"`
}

type bitcoinTransaction struct {
	Out   []bitcoinOutput `json:"out"`
	Time  int64           `json:"time"`
	Value float64         `json:"value"`
}

// NormalizeDeposit credits the transaction to the first non-empty output
// address. The amount is the sum of ALL output values scaled by 1e8, not
// the matched output's share; multi-output transactions therefore
// over-credit the matched address. Pinned by tests.
func (a *BitcoinAdapter) NormalizeDeposit(raw json.RawMessage) (*types.TransactionRecord, error) {
	var tx bitcoinTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, ErrInvalidRecord
	}

	var address string
	for _, out := range tx.Out {
		if out.Addr != "" {
			address = out.Addr
			break
		}
	}
	if address == "" {
		return nil, ErrSkipRecord
	}

	var total int64
	for _, out := range tx.Out {
		total += out.Value
	}

	return &types.TransactionRecord{
		Address:   address,
		Amount:    float64(total) / 1e8,
		Token:     types.NativeToken,
		Timestamp: tx.Time,
	}, nil
}

// NormalizeSpend takes the record's value field unscaled (satoshis are not
// divided on the spend path) and the "time" timestamp.
func (a *BitcoinAdapter) NormalizeSpend(raw json.RawMessage) (*types.TransactionRecord, error) {
	var tx bitcoinTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, ErrInvalidRecord
	}

	return &types.TransactionRecord{
		Amount:    tx.Value,
		Token:     types.NativeToken,
		Timestamp: tx.Time,
	}, nil
}

// ValidateAddress performs a light plausibility check on the base58/bech32
// length range.
func (a *BitcoinAdapter) ValidateAddress(address string) bool {
	return len(address) >= 26 && len(address) <= 62
}
