package allocations

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	allocsvc "stockfolio-backend/internal/application/allocations"
	"stockfolio-backend/internal/infrastructure/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAllocationsTest(t *testing.T) *fiber.App {
	db, err := database.Open("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	h := &Handlers{Service: &allocsvc.Service{DB: db}}

	app := fiber.New()
	app.Post("/allocations", h.Upsert)
	app.Get("/allocations", h.List)
	app.Get("/allocations/summary", h.Summary)
	app.Delete("/allocations/:category", h.Delete)
	return app
}

func post(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/allocations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestUpsert(t *testing.T) {
	app := setupAllocationsTest(t)

	assert.Equal(t, 400, post(t, app, `{"category":"us_equity","percentage":0}`))
	assert.Equal(t, 400, post(t, app, `{"category":"us_equity","percentage":150}`))
	assert.Equal(t, 400, post(t, app, `{"category":"us_equity"}`))
	assert.Equal(t, 201, post(t, app, `{"category":"us_equity","percentage":50}`))
	assert.Equal(t, 200, post(t, app, `{"category":"us_equity","percentage":60}`))
}

func TestSummaryAndDelete(t *testing.T) {
	app := setupAllocationsTest(t)
	post(t, app, `{"category":"us_equity","percentage":70}`)
	post(t, app, `{"category":"jp_equity","percentage":40}`)

	resp, err := app.Test(httptest.NewRequest("GET", "/allocations/summary", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	var body struct {
		Data allocsvc.Summary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 110.0, body.Data.Total)
	assert.Equal(t, -10.0, body.Data.Unallocated)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/allocations/jp_equity", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/allocations/jp_equity", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
