package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wallet-insight/internal/errors"
	"github.com/wallet-insight/internal/retry"
	"github.com/wallet-insight/internal/types"
)

// CoinGeckoClient fetches spot and historical prices. HTTP 429 responses
// are retried with exponential backoff (5s base, doubling, three attempts);
// any other failure degrades to an empty series.
type CoinGeckoClient struct {
	baseURL  string
	client   *http.Client
	retryCfg *retry.Config
}

// NewCoinGeckoClient creates a CoinGecko API client.
func NewCoinGeckoClient(baseURL string) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		retryCfg: retry.ProviderConfig(),
	}
}

// SetRetryConfig overrides the backoff configuration. Used by tests to
// avoid real sleeps.
func (c *CoinGeckoClient) SetRetryConfig(cfg *retry.Config) {
	c.retryCfg = cfg
}

type marketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

// HistoricalPrices returns day-count-scoped price history, oldest first,
// or an empty slice when the provider cannot serve the request.
func (c *CoinGeckoClient) HistoricalPrices(ctx context.Context, coin string, days int) []types.PricePoint {
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d", c.baseURL, coin, days)
	return c.fetchPrices(ctx, url)
}

// HistoricalRange returns price history between two epoch-second bounds.
func (c *CoinGeckoClient) HistoricalRange(ctx context.Context, coin string, from, to int64) []types.PricePoint {
	url := fmt.Sprintf("%s/coins/%s/market_chart/range?vs_currency=usd&from=%d&to=%d",
		c.baseURL, coin, from, to)
	return c.fetchPrices(ctx, url)
}

func (c *CoinGeckoClient) fetchPrices(ctx context.Context, url string) []types.PricePoint {
	var body []byte

	err := retry.Do(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
		b, err := c.doRequest(ctx, url)
		if err != nil {
			if errors.IsRateLimitError(err) {
				return err
			}
			return retry.Permanent(err)
		}
		body = b
		return nil
	})
	if err != nil {
		return nil
	}

	var chart marketChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil
	}

	points := make([]types.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if len(p) < 2 {
			continue
		}
		points = append(points, types.PricePoint{
			Timestamp: int64(p[0]) / 1000, // provider sends milliseconds
			Price:     p[1],
		})
	}

	return points
}

// SpotPrice returns the current USD price and 24h change percentage.
func (c *CoinGeckoClient) SpotPrice(ctx context.Context, coin string) (price, change24h float64, err error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		c.baseURL, coin)

	var body []byte
	err = retry.Do(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
		b, reqErr := c.doRequest(ctx, url)
		if reqErr != nil {
			if errors.IsRateLimitError(reqErr) {
				return reqErr
			}
			return retry.Permanent(reqErr)
		}
		body = b
		return nil
	})
	if err != nil {
		return 0, 0, errors.NewProviderError("coingecko", err)
	}

	var resp map[string]map[string]float64
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, 0, errors.NewProviderError("coingecko", err)
	}

	quote, ok := resp[coin]
	if !ok {
		return 0, 0, errors.NewNotFoundError("coin", coin)
	}

	return quote["usd"], quote["usd_24h_change"], nil
}

// doRequest performs one request. A 429 is returned as an error so the
// retry wrapper backs off; other non-200 statuses are also errors but the
// callers collapse the final failure to an empty result.
func (c *CoinGeckoClient) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.NewProviderRateLimitError("coingecko")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
