package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/models"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/types"
	"github.com/localnerve/obrasdb/internal/utils"
)

type missingRequest struct {
	ElementID      types.FlexUint64  `json:"elementId" validate:"required"`
	Title          string            `json:"title" validate:"required,max=255"`
	Text           string            `json:"text"`
	Status         string            `json:"status" validate:"required"`
	Urgent         bool              `json:"urgent"`
	ConstructionID *types.FlexUint64 `json:"constructionId"`
}

type missingPatchRequest struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=255"`
	Text   *string `json:"text"`
	Urgent *bool   `json:"urgent"`
}

type missingStatusRequest struct {
	Status    string `json:"status" validate:"required"`
	NoteTitle string `json:"noteTitle" validate:"max=255"`
	NoteText  string `json:"noteText"`
}

// ReportMissing handles POST /api/missings
// @Summary Report a missing, broken or out of stock element
// @Router /missings [post]
func (h *Handler) ReportMissing(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req missingRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	missing, err := h.Inventory.ReportMissing(c.UserContext(), a, services.ReportInput{
		ElementID:      req.ElementID.Uint64(),
		Title:          req.Title,
		Text:           req.Text,
		Status:         models.MissingStatus(req.Status),
		Urgent:         req.Urgent,
		ConstructionID: req.ConstructionID.Ptr(),
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, missing, fiber.StatusCreated)
}

// ListMissings handles GET /api/missings?status=&urgent=&constructionId=&workerId=&architectId=
// Results are urgent first, then newest first.
func (h *Handler) ListMissings(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	var filter services.MissingFilter
	if s := c.Query("status"); s != "" {
		status := models.MissingStatus(s)
		filter.Status = &status
	}
	if filter.Urgent, err = queryBool(c, "urgent"); err != nil {
		return err
	}
	if filter.ConstructionID, err = queryUint(c, "constructionId"); err != nil {
		return err
	}
	if filter.WorkerID, err = queryUint(c, "workerId"); err != nil {
		return err
	}
	architectID, err := queryUint(c, "architectId")
	if err != nil {
		return err
	}
	filter.ArchitectID = deref(architectID)

	missings, err := h.Inventory.ListMissings(c.UserContext(), a, filter)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, missings, fiber.StatusOK)
}

// GetMissing handles GET /api/missings/:id
func (h *Handler) GetMissing(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	missing, err := h.Inventory.GetMissing(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, missing, fiber.StatusOK)
}

// UpdateMissing handles PATCH /api/missings/:id
func (h *Handler) UpdateMissing(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req missingPatchRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	missing, err := h.Inventory.UpdateMissing(c.UserContext(), a, id, services.MissingUpdate{
		Title:  req.Title,
		Text:   req.Text,
		Urgent: req.Urgent,
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, missing, fiber.StatusOK)
}

// ChangeMissingStatus handles PATCH /api/missings/:id/status
// A non-empty noteText attaches a note to the report in the same operation.
func (h *Handler) ChangeMissingStatus(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req missingStatusRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	var note *services.NoteInput
	if req.NoteText != "" {
		note = &services.NoteInput{Title: req.NoteTitle, Text: req.NoteText}
	}

	change, err := h.Inventory.ChangeMissingStatus(c.UserContext(), a, id, models.MissingStatus(req.Status), note)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, change, fiber.StatusOK)
}
