// Package types provides common type definitions for the wallet insight system.
package types

// ChainID represents supported blockchain networks
type ChainID string

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = "ethereum"
	// ChainBSC represents the BNB Smart Chain
	ChainBSC ChainID = "bsc"
	// ChainSolana represents the Solana mainnet
	ChainSolana ChainID = "solana"
	// ChainBitcoin represents the Bitcoin network
	ChainBitcoin ChainID = "bitcoin"
)

// ParseChainID maps a chain name to a ChainID. Unsupported names report
// false; callers degrade to an empty result rather than fail.
func ParseChainID(name string) (ChainID, bool) {
	switch ChainID(name) {
	case ChainEthereum, ChainBSC, ChainSolana, ChainBitcoin:
		return ChainID(name), true
	default:
		return "", false
	}
}

// DepositDivisor returns the base-unit divisor used when crediting
// incoming value to a wallet (wei, lamports, satoshis).
func (c ChainID) DepositDivisor() float64 {
	switch c {
	case ChainSolana:
		return 1e9
	case ChainBitcoin:
		return 1e8
	default:
		return 1e18
	}
}

// NativeToken is the token symbol recorded when a transaction carries no
// explicit token symbol.
const NativeToken = "Native"

// FilterType selects which wallet cohort a detection run returns.
type FilterType string

const (
	// FilterAll returns every detected wallet
	FilterAll FilterType = "all"
	// FilterNew returns wallets with at most two transactions
	FilterNew FilterType = "new"
	// FilterPotential returns repeat-buyer wallets (more than two transactions)
	FilterPotential FilterType = "potential"
)

// ParseFilterType maps a filter name to a FilterType, defaulting to FilterAll.
func ParseFilterType(name string) FilterType {
	switch FilterType(name) {
	case FilterNew, FilterPotential:
		return FilterType(name)
	default:
		return FilterAll
	}
}

// TransactionRecord is the chain-agnostic shape every raw provider record
// is normalized into before it reaches the aggregator or classifier.
// Amount is already scaled to a human unit.
type TransactionRecord struct {
	Address   string  `json:"address"`
	Amount    float64 `json:"amount"`
	Token     string  `json:"token"`
	Timestamp int64   `json:"timestamp"`
}

// Recommendation represents a heuristic trade signal.
type Recommendation string

const (
	// RecommendBuy suggests accumulating
	RecommendBuy Recommendation = "BUY"
	// RecommendSell suggests reducing exposure
	RecommendSell Recommendation = "SELL"
	// RecommendHold suggests no action
	RecommendHold Recommendation = "HOLD"
)

// PricePoint is one (timestamp, price) sample from the market-data provider.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
