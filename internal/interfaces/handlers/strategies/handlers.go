package strategies

import (
	"strconv"

	stratsvc "stockfolio-backend/internal/application/strategies"
	"stockfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *stratsvc.Service
}

type strategyRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ParentID    *uint   `json:"parent_id"`
}

func (r strategyRequest) input() stratsvc.Input {
	return stratsvc.Input{Name: r.Name, Description: r.Description, ParentID: r.ParentID}
}

// POST /api/v1/strategies
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body strategyRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	st, err := h.Service.Create(c.UserContext(), body.input())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Strategy created successfully", st, nil)
}

// GET /api/v1/strategies?skip=&limit=&roots=true|&parent_id=N
func (h *Handlers) List(c *fiber.Ctx) error {
	var filter stratsvc.ListFilter
	if raw := c.Query("parent_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return response.BadRequest(c, "Invalid parent_id")
		}
		pid := uint(v)
		filter.ParentID = &pid
	}
	filter.RootsOnly = c.QueryBool("roots", false)

	list, err := h.Service.List(c.UserContext(), c.QueryInt("skip", 0), c.QueryInt("limit", 0), filter)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Strategies fetched successfully", list, fiber.Map{"count": len(list)})
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid strategy id")
	}
	st, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Strategy fetched successfully", st, nil)
}

// PUT /api/v1/strategies/:id: a missing parent_id makes the strategy a root
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid strategy id")
	}
	var body strategyRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	st, err := h.Service.Update(c.UserContext(), id, body.input())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Strategy updated successfully", st, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return response.BadRequest(c, "Invalid strategy id")
	}
	removed, err := h.Service.Delete(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Strategy deleted successfully", removed, nil)
}

func paramID(c *fiber.Ctx) (uint, bool) {
	v, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
