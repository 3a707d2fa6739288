package marketdata

import (
	mdsvc "stockfolio-backend/internal/application/marketdata"
	"stockfolio-backend/internal/pkg/response"
	"stockfolio-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves single-ticker market data lookups.
type Handlers struct {
	Service *mdsvc.Service
}

// GET /api/v1/stocks/live-prices/:ticker
func (h *Handlers) Quote(c *fiber.Ctx) error {
	ticker, ok := tickerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid ticker")
	}
	q, err := h.Service.Quote(c.UserContext(), ticker)
	if err != nil {
		return response.FromError(c, err)
	}
	price, _ := q.LastPrice()
	return response.Success(c, "Quote fetched successfully", fiber.Map{
		"ticker": ticker,
		"price":  price,
		"quote":  q,
	}, nil)
}

// GET /api/v1/stocks/name/:ticker
func (h *Handlers) Name(c *fiber.Ctx) error {
	ticker, ok := tickerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid ticker")
	}
	res, err := h.Service.LookupName(c.UserContext(), ticker)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Stock name fetched successfully", res, nil)
}

func (h *Handlers) Profile(c *fiber.Ctx) error {
	ticker, ok := tickerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid ticker")
	}
	p, err := h.Service.CompanyProfile(c.UserContext(), ticker)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Company profile fetched successfully", p, nil)
}

func (h *Handlers) Metrics(c *fiber.Ctx) error {
	ticker, ok := tickerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid ticker")
	}
	m, err := h.Service.FinancialMetrics(c.UserContext(), ticker)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Financial metrics fetched successfully", m, nil)
}

// GET /api/v1/stocks/:ticker/news?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handlers) News(c *fiber.Ctx) error {
	ticker, ok := tickerParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid ticker")
	}
	if c.Query("from") == "" || c.Query("to") == "" {
		return response.BadRequest(c, "from and to are required (YYYY-MM-DD)")
	}
	items, err := h.Service.CompanyNews(c.UserContext(), ticker, c.Query("from"), c.Query("to"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Company news fetched successfully", items, fiber.Map{"count": len(items)})
}

// GET /api/v1/market/search/:query
func (h *Handlers) Search(c *fiber.Ctx) error {
	matches, err := h.Service.SymbolSearch(c.UserContext(), c.Params("query"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Search results fetched successfully", matches, fiber.Map{"count": len(matches)})
}

func tickerParam(c *fiber.Ctx) (string, bool) {
	t := c.Params("ticker")
	return t, validation.IsValidTicker(t)
}
