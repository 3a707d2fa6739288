package holdings

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	holdsvc "stockfolio-backend/internal/application/holdings"
	"stockfolio-backend/internal/domain"
	"stockfolio-backend/internal/infrastructure/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHoldingsTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := database.Open("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	h := &Handlers{Service: &holdsvc.Service{DB: db, FanoutLimit: 2}}

	app := fiber.New()
	app.Post("/stocks", h.Upsert)
	app.Get("/stocks", h.List)
	app.Get("/stocks/live-prices", h.LivePrices)
	app.Get("/stocks/:id", h.Get)
	app.Put("/stocks/:id", h.Replace)
	app.Delete("/stocks/:id", h.Delete)
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
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
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestUpsert_CreateThenMerge(t *testing.T) {
	app, _ := setupHoldingsTest(t)

	code, body := doJSON(t, app, "POST", "/stocks", `{"ticker":"AAPL","quantity":10,"acquisition_price":150}`)
	assert.Equal(t, 201, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "unknown name", data["name"])
	assert.Equal(t, "us_equity", data["category"])

	code, body = doJSON(t, app, "POST", "/stocks", `{"ticker":"AAPL","quantity":5,"acquisition_price":180}`)
	assert.Equal(t, 200, code)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, 15.0, data["quantity"])
	assert.Equal(t, 160.0, data["acquisition_price"])
}

func TestUpsert_BadInput(t *testing.T) {
	app, _ := setupHoldingsTest(t)

	code, body := doJSON(t, app, "POST", "/stocks", `{"ticker":"AAPL"}`)
	assert.Equal(t, 400, code)
	assert.Equal(t, "error", body["status"])

	code, _ = doJSON(t, app, "POST", "/stocks", `not json`)
	assert.Equal(t, 400, code)

	doJSON(t, app, "POST", "/stocks", `{"ticker":"AAPL","quantity":5,"acquisition_price":1}`)
	code, body = doJSON(t, app, "POST", "/stocks", `{"ticker":"AAPL","quantity":-5,"acquisition_price":1}`)
	assert.Equal(t, 400, code)
	assert.Equal(t, "validation", body["error"].(map[string]interface{})["kind"])
}

func TestReplace_ReportsSkippedStrategies(t *testing.T) {
	app, db := setupHoldingsTest(t)
	st := domain.Strategy{Name: "Core"}
	require.NoError(t, db.Create(&st).Error)
	doJSON(t, app, "POST", "/stocks", `{"ticker":"MSFT","quantity":1,"acquisition_price":300}`)

	code, body := doJSON(t, app, "PUT", "/stocks/1", `{"ticker":"MSFT","name":"Microsoft","quantity":2,"acquisition_price":310,"category":"core","strategy_ids":[1,77]}`)
	assert.Equal(t, 200, code)
	meta := body["metadata"].(map[string]interface{})
	assert.Equal(t, []interface{}{77.0}, meta["skipped_strategy_ids"])

	code, _ = doJSON(t, app, "PUT", "/stocks/9", `{"ticker":"MSFT","quantity":2,"acquisition_price":310}`)
	assert.Equal(t, 404, code)

	code, _ = doJSON(t, app, "PUT", "/stocks/abc", `{"ticker":"MSFT","quantity":2,"acquisition_price":310}`)
	assert.Equal(t, 400, code)
}

func TestGetListDelete(t *testing.T) {
	app, _ := setupHoldingsTest(t)
	doJSON(t, app, "POST", "/stocks", `{"ticker":"7203","quantity":100,"acquisition_price":2500}`)

	code, body := doJSON(t, app, "GET", "/stocks", "")
	assert.Equal(t, 200, code)
	list := body["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "jp_equity", list[0].(map[string]interface{})["category"])

	code, _ = doJSON(t, app, "GET", "/stocks/1", "")
	assert.Equal(t, 200, code)

	code, _ = doJSON(t, app, "DELETE", "/stocks/1", "")
	assert.Equal(t, 200, code)
	code, _ = doJSON(t, app, "DELETE", "/stocks/1", "")
	assert.Equal(t, 404, code)
}

func TestLivePrices_NoMarketIsEmpty(t *testing.T) {
	app, _ := setupHoldingsTest(t)
	doJSON(t, app, "POST", "/stocks", `{"ticker":"AAPL","quantity":1,"acquisition_price":1}`)

	code, body := doJSON(t, app, "GET", "/stocks/live-prices", "")
	assert.Equal(t, 200, code)
	assert.Empty(t, body["data"])
}
