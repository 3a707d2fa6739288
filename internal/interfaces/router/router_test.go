package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	mdsvc "stockfolio-backend/internal/application/marketdata"
	"stockfolio-backend/internal/config"
	"stockfolio-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type quoteOnlyGateway struct{}

func (quoteOnlyGateway) Quote(ctx context.Context, ticker string) (*mdsvc.Quote, error) {
	if ticker == "AAPL" || ticker == "^N225" {
		return &mdsvc.Quote{Current: 200}, nil
	}
	return nil, mdsvc.ErrNoData
}

func (quoteOnlyGateway) CompanyProfile(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	return nil, mdsvc.ErrNoData
}

func (quoteOnlyGateway) FinancialMetrics(ctx context.Context, ticker string) (datatypes.JSONMap, error) {
	return nil, mdsvc.ErrNoData
}

func (quoteOnlyGateway) CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]mdsvc.NewsItem, error) {
	return []mdsvc.NewsItem{}, nil
}

func (quoteOnlyGateway) SymbolSearch(ctx context.Context, query string) ([]mdsvc.SymbolMatch, error) {
	return nil, nil
}

func setupRouterTest(t *testing.T) (*fiber.App, *redis.Client) {
	db, err := database.Open("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	cfg := &config.Config{
		PriceFanoutLimit:   4,
		MarketDataTimeout:  time.Second,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		HealthAdminKey:     "k",
	}
	return New(cfg, Deps{DB: db, Rdb: rdb, Gateway: quoteOnlyGateway{}}), rdb
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestRoutes_PortfolioFlow(t *testing.T) {
	app, _ := setupRouterTest(t)

	code, _ := call(t, app, "POST", "/api/v1/strategies", `{"name":"Core"}`)
	assert.Equal(t, 201, code)

	code, _ = call(t, app, "POST", "/api/v1/stocks", `{"ticker":"AAPL","quantity":10,"acquisition_price":150,"strategy_ids":[1]}`)
	assert.Equal(t, 201, code)

	code, body := call(t, app, "GET", "/api/v1/stocks/live-prices", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, map[string]interface{}{"1": 200.0}, body["data"])

	code, _ = call(t, app, "GET", "/api/v1/stocks/live-prices/MSFT", "")
	assert.Equal(t, 404, code)

	code, _ = call(t, app, "GET", "/api/v1/stocks/1", "")
	assert.Equal(t, 200, code)

	code, _ = call(t, app, "DELETE", "/api/v1/strategies/1", "")
	assert.Equal(t, 200, code)

	code, _ = call(t, app, "POST", "/api/v1/allocations", `{"category":"us_equity","percentage":60}`)
	assert.Equal(t, 201, code)
	code, body = call(t, app, "GET", "/api/v1/allocations/summary", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, 40.0, body["data"].(map[string]interface{})["unallocated"])
}

func TestRoutes_UnknownRouteAndHealth(t *testing.T) {
	app, rdb := setupRouterTest(t)

	code, body := call(t, app, "GET", "/api/v1/nope", "")
	assert.Equal(t, 404, code)
	assert.Equal(t, "error", body["status"])

	code, _ = call(t, app, "GET", "/health/json", "")
	assert.Equal(t, 200, code)

	total, err := rdb.Get(context.Background(), "health:global:req_total").Int()
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRoutes_DecodesPathParams(t *testing.T) {
	app, _ := setupRouterTest(t)

	for _, category := range []string{"real estate", "日本株"} {
		code, _ := call(t, app, "POST", "/api/v1/allocations", `{"category":"`+category+`","percentage":10}`)
		require.Equal(t, 201, code)

		code, body := call(t, app, "DELETE", "/api/v1/allocations/"+url.PathEscape(category), "")
		assert.Equal(t, 200, code, category)
		assert.Equal(t, category, body["data"].(map[string]interface{})["category"])
	}

	code, body := call(t, app, "GET", "/api/v1/stocks/live-prices/%5EN225", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "^N225", body["data"].(map[string]interface{})["ticker"])
}
