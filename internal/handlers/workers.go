// workers.go
//
// Construction-site inventory service: element custody, missing-item triage and event history
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of obrasdb.
// obrasdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// obrasdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with obrasdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/types"
	"github.com/localnerve/obrasdb/internal/utils"
)

// inventoryRequest takes a single elementId, a list of elementIds, or both.
type inventoryRequest struct {
	ElementID  types.FlexUint64                 `json:"elementId"`
	ElementIDs types.FlexList[types.FlexUint64] `json:"elementIds" validate:"omitempty,dive,gt=0"`
}

func (r inventoryRequest) ids() []types.FlexUint64 {
	ids := r.ElementIDs.Slice()
	if r.ElementID != 0 {
		ids = append([]types.FlexUint64{r.ElementID}, ids...)
	}
	return types.Distinct(ids)
}

// AssignToWorker handles POST /api/workers/:workerId/inventory
// Each element is assigned in its own transaction. The first failure stops the batch; its error
// names the elements already handed over by this request.
// @Summary Hand one or more elements to a worker
// @Router /workers/{workerId}/inventory [post]
func (h *Handler) AssignToWorker(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	workerID, err := paramID(c, "workerId")
	if err != nil {
		return err
	}
	var req inventoryRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	elementIDs := req.ids()
	if len(elementIDs) == 0 {
		return types.BadRequest("body", "elementId or elementIds is required")
	}

	results := make([]*services.AssignResult, 0, len(elementIDs))
	assigned := make([]uint64, 0, len(elementIDs))
	for _, elementID := range elementIDs {
		result, err := h.Inventory.AssignToWorker(c.UserContext(), a, workerID, elementID.Uint64())
		if err != nil {
			if len(assigned) > 0 {
				return fmt.Errorf("%w (assigned before the failure: %v)", err, assigned)
			}
			return err
		}
		results = append(results, result)
		assigned = append(assigned, elementID.Uint64())
	}
	return utils.SuccessResponse(c, results, fiber.StatusCreated)
}

// ReturnFromWorker handles PATCH /api/workers/:workerId/inventory/:elementId/return
func (h *Handler) ReturnFromWorker(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	workerID, err := paramID(c, "workerId")
	if err != nil {
		return err
	}
	elementID, err := paramID(c, "elementId")
	if err != nil {
		return err
	}

	result, err := h.Inventory.ReturnFromWorker(c.UserContext(), a, workerID, elementID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}

// GetWorkerInventory handles GET /api/workers/:workerId/inventory
func (h *Handler) GetWorkerInventory(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	workerID, err := paramID(c, "workerId")
	if err != nil {
		return err
	}

	items, err := h.Inventory.WorkerInventory(c.UserContext(), a, workerID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, items, fiber.StatusOK)
}

// GetWorkerElements handles GET /api/workers/:workerId/elements
func (h *Handler) GetWorkerElements(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return err
	}
	workerID, err := paramID(c, "workerId")
	if err != nil {
		return err
	}

	elements, err := h.Inventory.WorkerElements(c.UserContext(), a, workerID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, elements, fiber.StatusOK)
}
