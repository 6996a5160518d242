package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/models"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/types"
	"github.com/localnerve/obrasdb/internal/utils"
)

type noteRequest struct {
	Title       string            `json:"title" validate:"max=255"`
	Text        string            `json:"text" validate:"required"`
	Context     string            `json:"context" validate:"max=255"`
	ElementID   *types.FlexUint64 `json:"elementId"`
	MissingID   *types.FlexUint64 `json:"missingId"`
	ArchitectID types.FlexUint64  `json:"architectId"`
}

type noteUpdateRequest struct {
	Title string `json:"title" validate:"max=255"`
	Text  string `json:"text" validate:"required"`
}

// AddNote handles POST /api/notes
func (h *Handler) AddNote(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req noteRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	note, err := h.Inventory.AddNote(c.UserContext(), a, services.NoteCreate{
		Title:       req.Title,
		Text:        req.Text,
		Context:     req.Context,
		ElementID:   req.ElementID.Ptr(),
		MissingID:   req.MissingID.Ptr(),
		ArchitectID: req.ArchitectID.Uint64(),
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, note, fiber.StatusCreated)
}

// UpdateNote handles PUT /api/notes/:id
func (h *Handler) UpdateNote(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req noteUpdateRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	note, err := h.Inventory.UpdateNote(c.UserContext(), a, id, req.Title, req.Text)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, note, fiber.StatusOK)
}

// DeleteNote handles DELETE /api/notes/:id
func (h *Handler) DeleteNote(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Inventory.DeleteNote(c.UserContext(), a, id); err != nil {
		return err
	}
	return utils.DeletedResponse(c, id)
}

// ListNotes handles GET /api/notes?elementId=&missingId=&authorId=&authorType=&architectId=
func (h *Handler) ListNotes(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	filter := services.NoteFilter{AuthorType: models.ActorKind(c.Query("authorType"))}
	if filter.ElementID, err = queryUint(c, "elementId"); err != nil {
		return err
	}
	if filter.MissingID, err = queryUint(c, "missingId"); err != nil {
		return err
	}
	if filter.AuthorID, err = queryUint(c, "authorId"); err != nil {
		return err
	}
	architectID, err := queryUint(c, "architectId")
	if err != nil {
		return err
	}
	filter.ArchitectID = deref(architectID)

	notes, err := h.Inventory.ListNotes(c.UserContext(), a, filter)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, notes, fiber.StatusOK)
}
