package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ohlcvd/internal/ohlcv"
)

type RESTClient struct {
	baseURL    string
	category   string
	httpClient *http.Client
}

func NewRESTClient(baseURL, category string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    baseURL,
		category:   category,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// GetUSDTSymbols fetches symbols with quoteCoin = USDT for the configured
// category. Used for symbol discovery when no explicit list is configured.
func (c *RESTClient) GetUSDTSymbols(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/v5/market/instruments-info?category=%s&limit=1000", c.baseURL, c.category)

	result, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var instruments InstrumentListResponse
	if err := json.Unmarshal(result, &instruments); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	seen := map[string]bool{}
	var symbols []string
	for _, inst := range instruments.List {
		if inst.QuoteCoin == "USDT" && !seen[inst.BaseCoin] {
			symbols = append(symbols, inst.Symbol)
			seen[inst.BaseCoin] = true
		}
	}
	return symbols, nil
}

// Klines fetches up to limit historical candles for symbol at the given
// resolution. A zero start means the most recent limit bars; otherwise bars
// from start (milliseconds) forward. Implements ohlcv.HistorySource.
func (c *RESTClient) Klines(ctx context.Context, symbol string, res ohlcv.Resolution, limit int, start int64) ([]ohlcv.Event, error) {
	interval, err := IntervalForResolution(res)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("category", c.category)
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))
	if start > 0 {
		params.Set("start", strconv.FormatInt(start, 10))
	}
	endpoint := fmt.Sprintf("%s/v5/market/kline?%s", c.baseURL, params.Encode())

	result, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var klines KlinesResponse
	if err := json.Unmarshal(result, &klines); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	return ParseKlineRows(klines.List), nil
}

// get executes a GET request and unwraps the standard response envelope.
func (c *RESTClient) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bybit error: %s", body)
	}

	var rawResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rawResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rawResp.RetCode != 0 {
		return nil, fmt.Errorf("bybit error %d: %s", rawResp.RetCode, rawResp.RetMsg)
	}

	return rawResp.Result, nil
}
