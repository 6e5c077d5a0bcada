package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wallet-insight/internal/logging"
)

// BlockchainInfoClient fetches Bitcoin transactions and balances from the
// blockchain.info REST API.
type BlockchainInfoClient struct {
	baseURL string
	client  *http.Client
}

// NewBlockchainInfoClient creates a blockchain.info client.
func NewBlockchainInfoClient(baseURL string) *BlockchainInfoClient {
	return &BlockchainInfoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type blockchainInfoTxList struct {
	Txs []json.RawMessage `json:"txs"`
}

// FetchLatest returns up to limit raw records from the unconfirmed
// transactions feed.
func (c *BlockchainInfoClient) FetchLatest(ctx context.Context, limit int) []json.RawMessage {
	url := fmt.Sprintf("%s/unconfirmed-transactions?format=json", c.baseURL)
	return truncate(c.fetchTxs(ctx, url), limit)
}

// FetchForWallet returns the wallet's raw transaction records.
func (c *BlockchainInfoClient) FetchForWallet(ctx context.Context, address string) []json.RawMessage {
	url := fmt.Sprintf("%s/rawaddr/%s", c.baseURL, address)
	return c.fetchTxs(ctx, url)
}

func (c *BlockchainInfoClient) fetchTxs(ctx context.Context, url string) []json.RawMessage {
	logger := logging.FromContext(ctx).WithField("chain", "bitcoin")

	body, err := c.doRequest(ctx, url)
	if err != nil {
		logger.WithError(err).Warn("blockchain.info request failed")
		return nil
	}

	var list blockchainInfoTxList
	if err := json.Unmarshal(body, &list); err != nil {
		logger.WithError(err).Warn("Failed to parse blockchain.info response")
		return nil
	}

	return list.Txs
}

// FetchBalance returns the address balance in BTC.
func (c *BlockchainInfoClient) FetchBalance(ctx context.Context, address string) (float64, error) {
	url := fmt.Sprintf("%s/balance?active=%s", c.baseURL, address)

	body, err := c.doRequest(ctx, url)
	if err != nil {
		return 0, err
	}

	var resp map[string]struct {
		FinalBalance int64 `json:"final_balance"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("failed to parse balance response: %w", err)
	}

	entry, ok := resp[address]
	if !ok {
		return 0, fmt.Errorf("balance response missing address %s", address)
	}

	return float64(entry.FinalBalance) / 1e8, nil
}

func (c *BlockchainInfoClient) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blockchain.info returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
