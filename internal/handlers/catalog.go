package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/types"
	"github.com/localnerve/obrasdb/internal/utils"
)

type architectRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

type categoryRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	ArchitectID types.FlexUint64 `json:"architectId"`
}

type depositRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Address     string           `json:"address" validate:"max=255"`
	ArchitectID types.FlexUint64 `json:"architectId"`
}

type constructionRequest struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Description string           `json:"description"`
	Address     string           `json:"address" validate:"max=255"`
	ArchitectID types.FlexUint64 `json:"architectId"`
}

type workerRequest struct {
	Name           string            `json:"name" validate:"required,max=255"`
	Email          string            `json:"email" validate:"omitempty,email,max=255"`
	ArchitectID    types.FlexUint64  `json:"architectId"`
	ConstructionID *types.FlexUint64 `json:"constructionId"`
}

type workerConstructionRequest struct {
	ConstructionID *types.FlexUint64 `json:"constructionId"`
}

// CreateArchitect handles POST /api/architects
// @Summary Register an architect (admin only)
// @Router /architects [post]
func (h *Handler) CreateArchitect(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req architectRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	architect, err := h.Inventory.CreateArchitect(c.UserContext(), a, services.ArchitectInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, architect, fiber.StatusCreated)
}

// CreateCategory handles POST /api/categories
func (h *Handler) CreateCategory(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	category, err := h.Inventory.CreateCategory(c.UserContext(), a, services.CategoryInput{
		Name:        req.Name,
		ArchitectID: req.ArchitectID.Uint64(),
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, category, fiber.StatusCreated)
}

// CreateDeposit handles POST /api/deposits
func (h *Handler) CreateDeposit(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req depositRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	deposit, err := h.Inventory.CreateDeposit(c.UserContext(), a, services.DepositInput{
		Name:        req.Name,
		Address:     req.Address,
		ArchitectID: req.ArchitectID.Uint64(),
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, deposit, fiber.StatusCreated)
}

// DeleteDeposit handles DELETE /api/deposits/:id
func (h *Handler) DeleteDeposit(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Inventory.DeleteDeposit(c.UserContext(), a, id); err != nil {
		return err
	}
	return utils.DeletedResponse(c, id)
}

// CreateConstruction handles POST /api/constructions
func (h *Handler) CreateConstruction(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req constructionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	construction, err := h.Inventory.CreateConstruction(c.UserContext(), a, services.ConstructionInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		ArchitectID: req.ArchitectID.Uint64(),
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, construction, fiber.StatusCreated)
}

// CloseConstruction handles DELETE /api/constructions/:id
func (h *Handler) CloseConstruction(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	construction, err := h.Inventory.CloseConstruction(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, construction, fiber.StatusOK)
}

// RestoreConstruction handles POST /api/constructions/:id/restore
func (h *Handler) RestoreConstruction(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	construction, err := h.Inventory.RestoreConstruction(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, construction, fiber.StatusOK)
}

// CreateWorker handles POST /api/workers
func (h *Handler) CreateWorker(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	var req workerRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	worker, err := h.Inventory.CreateWorker(c.UserContext(), a, services.WorkerInput{
		Name:           req.Name,
		Email:          req.Email,
		ArchitectID:    req.ArchitectID.Uint64(),
		ConstructionID: req.ConstructionID.Ptr(),
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, worker, fiber.StatusCreated)
}

// AssignWorkerToConstruction handles PATCH /api/workers/:id/construction
// A null constructionId takes the worker off their construction.
func (h *Handler) AssignWorkerToConstruction(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req workerConstructionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	worker, err := h.Inventory.AssignWorkerToConstruction(c.UserContext(), a, id, req.ConstructionID.Ptr())
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, worker, fiber.StatusOK)
}

// RecordLogin handles POST /api/logins
// The auth collaborator calls it after a successful credential check.
func (h *Handler) RecordLogin(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}

	event, err := h.Inventory.RecordLogin(c.UserContext(), a)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, event, fiber.StatusCreated)
}

// ListConstructions handles GET /api/constructions?architectId=&includeClosed=
// @Summary List the constructions of an architect
// @Router /constructions [get]
func (h *Handler) ListConstructions(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	architectID, err := queryUint(c, "architectId")
	if err != nil {
		return err
	}
	includeClosed, err := queryBool(c, "includeClosed")
	if err != nil {
		return err
	}

	constructions, err := h.Inventory.ListConstructions(c.UserContext(), a, deref(architectID),
		includeClosed != nil && *includeClosed)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, constructions, fiber.StatusOK)
}

// ListDeposits handles GET /api/deposits?architectId=
func (h *Handler) ListDeposits(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	architectID, err := queryUint(c, "architectId")
	if err != nil {
		return err
	}

	deposits, err := h.Inventory.ListDeposits(c.UserContext(), a, deref(architectID))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, deposits, fiber.StatusOK)
}

// ListCategories handles GET /api/categories?architectId=
func (h *Handler) ListCategories(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	architectID, err := queryUint(c, "architectId")
	if err != nil {
		return err
	}

	categories, err := h.Inventory.ListCategories(c.UserContext(), a, deref(architectID))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, categories, fiber.StatusOK)
}

// ListWorkers handles GET /api/workers?architectId=&constructionId=
func (h *Handler) ListWorkers(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	architectID, err := queryUint(c, "architectId")
	if err != nil {
		return err
	}
	constructionID, err := queryUint(c, "constructionId")
	if err != nil {
		return err
	}

	workers, err := h.Inventory.ListWorkers(c.UserContext(), a, deref(architectID), constructionID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, workers, fiber.StatusOK)
}
