package adapter

import (
	"encoding/json"

	"github.com/wallet-insight/internal/types"
)

// SolanaAdapter normalizes solana.fm-shaped records.
type SolanaAdapter struct{}

// NewSolanaAdapter creates a Solana chain adapter.
func NewSolanaAdapter() *SolanaAdapter {
	return &SolanaAdapter{}
}

// ChainID returns the chain identifier
func (a *SolanaAdapter) ChainID() types.ChainID {
	return types.ChainSolana
}

type solanaTransaction struct {
	To          string `json:"to"`
	Value       string `json:"value"`
	TimeStamp   string `json:"timeStamp"`
	Time        int64  `json:"time"`
	TokenSymbol string `json:"tokenSymbol"`
	Transaction struct {
		Meta struct {
			PreBalances  []int64 `json:"preBalances"`
			PostBalances []int64 `json:"postBalances"`
		} `json:"meta"`
	} `json:"transaction"`
}

// NormalizeDeposit credits the raw lamport value, scaled by 1e9, to the
// record's "to" address.
func (a *SolanaAdapter) NormalizeDeposit(raw json.RawMessage) (*types.TransactionRecord, error) {
	var tx solanaTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, ErrInvalidRecord
	}

	if tx.To == "" || tx.To == unknownAddress {
		return nil, ErrSkipRecord
	}

	return &types.TransactionRecord{
		Address:   tx.To,
		Amount:    parseAmount(tx.Value) / types.ChainSolana.DepositDivisor(),
		Token:     tokenOrNative(tx.TokenSymbol),
		Timestamp: a.resolveTimestamp(&tx),
	}, nil
}

// NormalizeSpend derives the spent amount from the fee payer's balance
// delta: (preBalances[0] - postBalances[0]) / 1e9. The delta is negative
// for incoming transfers; the classifier decides how to treat that.
func (a *SolanaAdapter) NormalizeSpend(raw json.RawMessage) (*types.TransactionRecord, error) {
	var tx solanaTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, ErrInvalidRecord
	}

	var amount float64
	pre := tx.Transaction.Meta.PreBalances
	post := tx.Transaction.Meta.PostBalances
	if len(pre) > 0 && len(post) > 0 {
		amount = float64(pre[0]-post[0]) / 1e9
	}

	return &types.TransactionRecord{
		Amount:    amount,
		Token:     tokenOrNative(tx.TokenSymbol),
		Timestamp: a.resolveTimestamp(&tx),
	}, nil
}

func (a *SolanaAdapter) resolveTimestamp(tx *solanaTransaction) int64 {
	if ts := parseTimestamp(tx.TimeStamp); ts != 0 {
		return ts
	}
	return tx.Time
}

// ValidateAddress performs a light plausibility check on base58 length.
func (a *SolanaAdapter) ValidateAddress(address string) bool {
	return len(address) >= 32 && len(address) <= 44
}
