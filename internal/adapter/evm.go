package adapter

import (
	"encoding/json"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/wallet-insight/internal/types"
)

// EVMAdapter normalizes Etherscan-shaped records for Ethereum and BSC.
type EVMAdapter struct {
	chainID types.ChainID
}

// NewEVMAdapter creates an adapter for an EVM chain (ethereum or bsc).
func NewEVMAdapter(chainID types.ChainID) *EVMAdapter {
	return &EVMAdapter{chainID: chainID}
}

// ChainID returns the chain identifier
func (a *EVMAdapter) ChainID() types.ChainID {
	return a.chainID
}

// evmTransaction mirrors the fields of an Etherscan/BscScan txlist record
// that the normalization paths consume.
type evmTransaction struct {
	To          string `json:"to"`
	Value       string `json:"value"`
	TimeStamp   string `json:"timeStamp"`
	TokenSymbol string `json:"tokenSymbol"`
}

// NormalizeDeposit credits the raw wei value, scaled by 1e18, to the
// transaction's "to" address. Records with a missing destination or the
// "Unknown" sentinel are skipped.
func (a *EVMAdapter) NormalizeDeposit(raw json.RawMessage) (*types.TransactionRecord, error) {
	var tx evmTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, ErrInvalidRecord
	}

	if tx.To == "" || tx.To == unknownAddress {
		return nil, ErrSkipRecord
	}

	return &types.TransactionRecord{
		Address:   tx.To,
		Amount:    parseAmount(tx.Value) / a.chainID.DepositDivisor(),
		Token:     tokenOrNative(tx.TokenSymbol),
		Timestamp: parseTimestamp(tx.TimeStamp),
	}, nil
}

// NormalizeSpend scales the raw value by 1e18 and resolves the token symbol,
// defaulting to Native.
func (a *EVMAdapter) NormalizeSpend(raw json.RawMessage) (*types.TransactionRecord, error) {
	var tx evmTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, ErrInvalidRecord
	}

	return &types.TransactionRecord{
		Address:   tx.To,
		Amount:    parseAmount(tx.Value) / 1e18,
		Token:     tokenOrNative(tx.TokenSymbol),
		Timestamp: parseTimestamp(tx.TimeStamp),
	}, nil
}

// ValidateAddress checks the 0x hex format
func (a *EVMAdapter) ValidateAddress(address string) bool {
	return common.IsHexAddress(address)
}

func parseAmount(value string) float64 {
	if value == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return amount
}

func parseTimestamp(value string) int64 {
	if value == "" {
		return 0
	}
	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

func tokenOrNative(symbol string) string {
	if symbol == "" {
		return types.NativeToken
	}
	return symbol
}
