package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wallet-insight/internal/logging"
)

// SolanaClient fetches Solana transactions from the solana.fm REST API and
// balances from the mainnet JSON-RPC endpoint.
type SolanaClient struct {
	baseURL string
	rpcURL  string
	apiKey  string
	client  *http.Client
}

// NewSolanaClient creates a solana.fm client. The API key is sent as a
// Bearer token when present.
func NewSolanaClient(baseURL, apiKey string) *SolanaClient {
	return &SolanaClient{
		baseURL: baseURL,
		rpcURL:  "https://api.mainnet-beta.solana.com",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type solanaTxList struct {
	Transactions []json.RawMessage `json:"transactions"`
}

// FetchLatest returns up to limit raw records from the recent
// transactions feed.
func (c *SolanaClient) FetchLatest(ctx context.Context, limit int) []json.RawMessage {
	url := fmt.Sprintf("%s/transactions?limit=%d", c.baseURL, limit)
	return truncate(c.fetchTxs(ctx, url), limit)
}

// FetchForWallet returns the wallet's recent raw transaction records.
func (c *SolanaClient) FetchForWallet(ctx context.Context, address string) []json.RawMessage {
	url := fmt.Sprintf("%s/accounts/%s/transactions", c.baseURL, address)
	return c.fetchTxs(ctx, url)
}

func (c *SolanaClient) fetchTxs(ctx context.Context, url string) []json.RawMessage {
	logger := logging.FromContext(ctx).WithField("chain", "solana")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.WithError(err).Warn("Failed to build solana.fm request")
		return nil
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.WithError(err).Warn("solana.fm request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.WithField("status", resp.StatusCode).Warn("solana.fm returned non-200")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithError(err).Warn("Failed to read solana.fm response")
		return nil
	}

	var list solanaTxList
	if err := json.Unmarshal(body, &list); err != nil {
		logger.WithError(err).Warn("Failed to parse solana.fm response")
		return nil
	}

	return list.Transactions
}

// FetchBalance returns the address balance in SOL via the getBalance RPC.
func (c *SolanaClient) FetchBalance(ctx context.Context, address string) (float64, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "getBalance",
		"params":  []string{address},
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("solana RPC returned status %d", resp.StatusCode)
	}

	var rpcResp struct {
		Result struct {
			Value int64 `json:"value"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return 0, fmt.Errorf("failed to parse getBalance response: %w", err)
	}

	return float64(rpcResp.Result.Value) / 1e9, nil
}
