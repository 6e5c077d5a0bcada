package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/types"
	"golang.org/x/time/rate"
)

// ScanClient fetches transaction lists from an Etherscan-style REST API
// (Etherscan, BscScan). It satisfies TransactionSource,
// WalletTransactionSource and BalanceSource. Any provider failure degrades
// to an empty record list; errors never cross this boundary.
type ScanClient struct {
	chain   types.ChainID
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewScanClient creates a client for one chain's scan API.
// Free tier allows 5 requests per second.
func NewScanClient(chain types.ChainID, baseURL, apiKey string) *ScanClient {
	return &ScanClient{
		chain:   chain,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

// scanResponse is the common Etherscan-style envelope.
type scanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// FetchLatest returns up to limit recent raw transaction records.
func (c *ScanClient) FetchLatest(ctx context.Context, limit int) []json.RawMessage {
	url := fmt.Sprintf("%s?module=account&action=txlist&sort=desc&apikey=%s", c.baseURL, c.apiKey)
	return truncate(c.fetchTxList(ctx, url), limit)
}

// FetchForWallet returns the wallet's recent raw transaction records.
func (c *ScanClient) FetchForWallet(ctx context.Context, address string) []json.RawMessage {
	url := fmt.Sprintf("%s?module=account&action=txlist&address=%s&sort=desc&apikey=%s",
		c.baseURL, address, c.apiKey)
	return c.fetchTxList(ctx, url)
}

func (c *ScanClient) fetchTxList(ctx context.Context, url string) []json.RawMessage {
	logger := logging.FromContext(ctx).WithField("chain", string(c.chain))

	body, err := c.doRequest(ctx, url)
	if err != nil {
		logger.WithError(err).Warn("Scan API request failed")
		return nil
	}

	var resp scanResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		logger.WithError(err).Warn("Failed to parse scan API response")
		return nil
	}

	// Status "0" with a string result is the provider's empty/error shape
	if len(resp.Result) == 0 || resp.Result[0] == '"' {
		return nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(resp.Result, &records); err != nil {
		logger.WithError(err).Warn("Failed to parse scan API result list")
		return nil
	}

	return records
}

// FetchBalance returns the address's native balance scaled to a human unit.
func (c *ScanClient) FetchBalance(ctx context.Context, address string) (float64, error) {
	url := fmt.Sprintf("%s?module=account&action=balance&address=%s&apikey=%s",
		c.baseURL, address, c.apiKey)

	body, err := c.doRequest(ctx, url)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("failed to parse balance response: %w", err)
	}

	wei, err := strconv.ParseFloat(resp.Result, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse balance value %q: %w", resp.Result, err)
	}

	return wei / 1e18, nil
}

func (c *ScanClient) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

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
		return nil, fmt.Errorf("scan API returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func truncate(records []json.RawMessage, limit int) []json.RawMessage {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
