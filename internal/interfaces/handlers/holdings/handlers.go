package holdings

import (
	"strconv"

	holdsvc "stockfolio-backend/internal/application/holdings"
	"stockfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *holdsvc.Service
}

type upsertRequest struct {
	Ticker           string   `json:"ticker"`
	Quantity         *int64   `json:"quantity"`
	AcquisitionPrice *float64 `json:"acquisition_price"`
	Category         string   `json:"category"`
	StrategyIDs      []uint   `json:"strategy_ids"`
}

type replaceRequest struct {
	Ticker           string   `json:"ticker"`
	Name             *string  `json:"name"`
	Quantity         *int64   `json:"quantity"`
	AcquisitionPrice *float64 `json:"acquisition_price"`
	Category         string   `json:"category"`
	StrategyIDs      *[]uint  `json:"strategy_ids"`
}

// POST /api/v1/stocks: 201 when a new holding is created, 200 when merged
func (h *Handlers) Upsert(c *fiber.Ctx) error {
	var body upsertRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if body.Ticker == "" || body.Quantity == nil || body.AcquisitionPrice == nil {
		return response.BadRequest(c, "ticker, quantity and acquisition_price are required")
	}
	holding, created, err := h.Service.Upsert(c.UserContext(), holdsvc.UpsertInput{
		Ticker:           body.Ticker,
		Quantity:         *body.Quantity,
		AcquisitionPrice: *body.AcquisitionPrice,
		Category:         body.Category,
		StrategyIDs:      body.StrategyIDs,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	if created {
		return response.SuccessCreated(c, "Holding created successfully", holding, nil)
	}
	return response.Success(c, "Holding updated successfully", holding, nil)
}

// GET /api/v1/stocks?skip=&limit=
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.UserContext(), c.QueryInt("skip", 0), c.QueryInt("limit", 0))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Holdings fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/v1/stocks/live-prices: map of holding id to last price
func (h *Handlers) LivePrices(c *fiber.Ctx) error {
	prices, err := h.Service.LivePrices(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Live prices fetched successfully", prices, nil)
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid holding id")
	}
	holding, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Holding fetched successfully", holding, nil)
}

// PUT /api/v1/stocks/:id: unknown strategy ids are reported in metadata
func (h *Handlers) Replace(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid holding id")
	}
	var body replaceRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if body.Ticker == "" || body.Quantity == nil || body.AcquisitionPrice == nil {
		return response.BadRequest(c, "ticker, quantity and acquisition_price are required")
	}
	holding, skipped, err := h.Service.Replace(c.UserContext(), id, holdsvc.ReplaceInput{
		Ticker:           body.Ticker,
		Name:             body.Name,
		Quantity:         *body.Quantity,
		AcquisitionPrice: *body.AcquisitionPrice,
		Category:         body.Category,
		StrategyIDs:      body.StrategyIDs,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	var meta interface{}
	if len(skipped) > 0 {
		meta = fiber.Map{"skipped_strategy_ids": skipped}
	}
	return response.Success(c, "Holding replaced successfully", holding, meta)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid holding id")
	}
	removed, err := h.Service.Delete(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Holding deleted successfully", removed, nil)
}

func paramID(c *fiber.Ctx) (uint, bool) {
	v, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
