package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/models"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/types"
	"github.com/localnerve/obrasdb/internal/utils"
)

type elementRequest struct {
	Name         string            `json:"name" validate:"required,max=255"`
	Description  string            `json:"description"`
	Brand        string            `json:"brand" validate:"max=255"`
	Provider     string            `json:"provider" validate:"max=255"`
	Quantity     int               `json:"quantity" validate:"gte=0"`
	BuyDate      *time.Time        `json:"buyDate"`
	CategoryID   *types.FlexUint64 `json:"categoryId"`
	ArchitectID  types.FlexUint64  `json:"architectId"`
	LocationType string            `json:"locationType"`
	LocationID   types.FlexUint64  `json:"locationId"`
}

type elementPatchRequest struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string           `json:"description"`
	Brand       *string           `json:"brand" validate:"omitempty,max=255"`
	Provider    *string           `json:"provider" validate:"omitempty,max=255"`
	Quantity    *int              `json:"quantity" validate:"omitempty,gte=0"`
	BuyDate     *time.Time        `json:"buyDate"`
	CategoryID  *types.FlexUint64 `json:"categoryId"`
}

type locationRequest struct {
	LocationType string           `json:"locationType" validate:"required"`
	LocationID   types.FlexUint64 `json:"locationId"`
}

func toLocation(kind string, id types.FlexUint64) models.Location {
	if kind == "" || models.LocationKind(kind) == models.LocationNone {
		return models.NoLocation
	}
	return models.Location{Kind: models.LocationKind(kind), ID: id.Uint64()}
}

// CreateElement handles POST /api/elements
// @Summary Create an element at its initial location
// @Router /elements [post]
func (h *Handler) CreateElement(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req elementRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	element, err := h.Inventory.CreateElement(c.UserContext(), a, services.ElementInput{
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		Provider:    req.Provider,
		Quantity:    req.Quantity,
		BuyDate:     req.BuyDate,
		CategoryID:  req.CategoryID.Ptr(),
		ArchitectID: req.ArchitectID.Uint64(),
		Location:    toLocation(req.LocationType, req.LocationID),
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, element, fiber.StatusCreated)
}

// UpdateElement handles PUT /api/elements/:id
func (h *Handler) UpdateElement(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req elementPatchRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	element, err := h.Inventory.UpdateElement(c.UserContext(), a, id, services.ElementPatch{
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		Provider:    req.Provider,
		Quantity:    req.Quantity,
		BuyDate:     req.BuyDate,
		CategoryID:  req.CategoryID.Ptr(),
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, element, fiber.StatusOK)
}

// DeleteElement handles DELETE /api/elements/:id
func (h *Handler) DeleteElement(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.Inventory.DeleteElement(c.UserContext(), a, id); err != nil {
		return err
	}
	return utils.DeletedResponse(c, id)
}

// MoveElement handles POST /api/elements/:id/move
// @Summary Move an element to a deposit, construction, worker or nowhere
// @Router /elements/{id}/move [post]
func (h *Handler) MoveElement(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req locationRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	element, err := h.Inventory.MoveElement(c.UserContext(), a, id, toLocation(req.LocationType, req.LocationID))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, element, fiber.StatusOK)
}

// GetElementLocation handles GET /api/elements/:id/location
func (h *Handler) GetElementLocation(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	loc, err := h.Inventory.LocationOf(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, loc, fiber.StatusOK)
}

// GetElementAssignments handles GET /api/elements/:id/assignments
func (h *Handler) GetElementAssignments(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	assignments, err := h.Inventory.AssignmentHistory(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, assignments, fiber.StatusOK)
}

// GetLocationElements handles GET /api/locations/:kind/:id/elements
func (h *Handler) GetLocationElements(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	loc := models.Location{Kind: models.LocationKind(c.Params("kind")), ID: id}

	elements, err := h.Inventory.HoldersOf(c.UserContext(), a, loc)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, elements, fiber.StatusOK)
}

// ListElements handles GET /api/elements?architectId=&categoryId=&locationType=&locationId=
// @Summary List the live elements of an architect
// @Router /elements [get]
func (h *Handler) ListElements(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var filter services.ElementFilter
	architectID, err := queryUint(c, "architectId")
	if err != nil {
		return err
	}
	filter.ArchitectID = deref(architectID)
	if filter.CategoryID, err = queryUint(c, "categoryId"); err != nil {
		return err
	}
	if kind := c.Query("locationType"); kind != "" {
		locationID, err := queryUint(c, "locationId")
		if err != nil {
			return err
		}
		filter.Location = &models.Location{Kind: models.LocationKind(kind), ID: deref(locationID)}
	}

	elements, err := h.Inventory.ListElements(c.UserContext(), a, filter)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, elements, fiber.StatusOK)
}
