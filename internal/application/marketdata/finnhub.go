package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockfolio-backend/internal/pkg/validation"

	"gorm.io/datatypes"
)

const DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"

var ErrMissingAPIKey = errors.New("finnhub: FINNHUB_API_KEY is not set")

// FinnhubClient is a Gateway backed by the finnhub.io REST API.
type FinnhubClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewFinnhubClient builds a client with its own HTTP timeout.
func NewFinnhubClient(baseURL, apiKey string, timeout time.Duration) *FinnhubClient {
	if baseURL == "" {
		baseURL = DefaultFinnhubBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FinnhubClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

type finnhubQuote struct {
	C  float64  `json:"c"`
	D  *float64 `json:"d"`
	DP *float64 `json:"dp"`
	H  float64  `json:"h"`
	L  float64  `json:"l"`
	O  float64  `json:"o"`
	PC float64  `json:"pc"`
	T  int64    `json:"t"`
}

type finnhubSearch struct {
	Count  int           `json:"count"`
	Result []SymbolMatch `json:"result"`
}

func (c *FinnhubClient) Quote(ctx context.Context, ticker string) (*Quote, error) {
	var raw finnhubQuote
	if err := c.get(ctx, "/quote", url.Values{"symbol": {ticker}}, &raw); err != nil {
		return nil, err
	}
	// Unknown symbols come back as an all-zero quote.
	if raw.C == 0 && raw.PC == 0 && raw.H == 0 {
		return nil, ErrNoData
	}
	q := &Quote{
		Current:       raw.C,
		High:          raw.H,
		Low:           raw.L,
		Open:          raw.O,
		PreviousClose: raw.PC,
		Timestamp:     raw.T,
	}
	if raw.D != nil {
		q.Change = *raw.D
	}
	if raw.DP != nil {
		q.PercentChange = *raw.DP
	}
	return q, nil
}

func (c *FinnhubClient) CompanyProfile(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	var doc datatypes.JSONMap
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {ticker}}, &doc); err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, ErrNoData
	}
	return doc, nil
}

func (c *FinnhubClient) FinancialMetrics(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	var doc datatypes.JSONMap
	if err := c.get(ctx, "/stock/metric", url.Values{"symbol": {ticker}, "metric": {"all"}}, &doc); err != nil {
		return nil, err
	}
	if m, ok := doc["metric"].(map[string]interface{}); !ok || len(m) == 0 {
		return nil, ErrNoData
	}
	return doc, nil
}

func (c *FinnhubClient) CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]NewsItem, error) {
	params := url.Values{
		"symbol": {ticker},
		"from":   {from.Format(validation.DateLayout)},
		"to":     {to.Format(validation.DateLayout)},
	}
	var items []NewsItem
	if err := c.get(ctx, "/company-news", params, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []NewsItem{}
	}
	return items, nil
}

func (c *FinnhubClient) SymbolSearch(ctx context.Context, query string) ([]SymbolMatch, error) {
	var res finnhubSearch
	if err := c.get(ctx, "/search", url.Values{"q": {query}}, &res); err != nil {
		return nil, err
	}
	if res.Result == nil {
		res.Result = []SymbolMatch{}
	}
	return res.Result, nil
}

// get performs one authenticated GET and decodes the JSON body into out.
func (c *FinnhubClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultFinnhubBaseURL
	}
	endpoint := strings.TrimRight(base, "/") + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Finnhub-Token", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("finnhub request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("finnhub read %s: %w", path, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("finnhub: API key rejected (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("finnhub: rate limit exceeded on %s", path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("finnhub error: status %d body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if len(strings.TrimSpace(string(body))) == 0 || string(body) == "null" {
		return ErrNoData
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("finnhub decode %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
