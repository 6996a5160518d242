package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/models"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/types"
	"github.com/localnerve/obrasdb/internal/utils"
)

const maxEventLimit = 500

// ListEvents handles GET /api/events-history?table=&recordId=&actorId=&actorType=&architectId=&limit=
// Events are newest first.
// @Summary List the event history
// @Router /events-history [get]
func (h *Handler) ListEvents(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	filter := services.EventFilter{
		Table:     c.Query("table"),
		ActorType: models.ActorKind(c.Query("actorType")),
		Limit:     100,
	}
	recordID, err := queryUint(c, "recordId")
	if err != nil {
		return err
	}
	actorID, err := queryUint(c, "actorId")
	if err != nil {
		return err
	}
	architectID, err := queryUint(c, "architectId")
	if err != nil {
		return err
	}
	filter.RecordID, filter.ActorID, filter.ArchitectID = deref(recordID), deref(actorID), deref(architectID)

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxEventLimit {
			return &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: "limit must be between 1 and " + strconv.Itoa(maxEventLimit),
				Type:    "query",
			}
		}
		filter.Limit = limit
	}

	events, err := h.Inventory.ListEvents(c.UserContext(), a, filter)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, events, fiber.StatusOK)
}
