package allocations

import (
	allocsvc "stockfolio-backend/internal/application/allocations"
	"stockfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *allocsvc.Service
}

type upsertRequest struct {
	Category   string   `json:"category"`
	Percentage *float64 `json:"percentage"`
}

// POST /api/v1/allocations: 201 on insert, 200 on overwrite
func (h *Handlers) Upsert(c *fiber.Ctx) error {
	var body upsertRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if body.Percentage == nil {
		return response.BadRequest(c, "percentage is required")
	}
	target, created, err := h.Service.Upsert(c.UserContext(), body.Category, *body.Percentage)
	if err != nil {
		return response.FromError(c, err)
	}
	if created {
		return response.SuccessCreated(c, "Allocation created successfully", target, nil)
	}
	return response.Success(c, "Allocation updated successfully", target, nil)
}

// GET /api/v1/allocations?skip=&limit=
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.UserContext(), c.QueryInt("skip", 0), c.QueryInt("limit", 0))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Allocations fetched successfully", list, nil)
}

func (h *Handlers) Summary(c *fiber.Ctx) error {
	sum, err := h.Service.Summary(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Allocation summary fetched successfully", sum, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	removed, err := h.Service.Delete(c.UserContext(), c.Params("category"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Allocation deleted successfully", removed, nil)
}
