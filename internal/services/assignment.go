// assignment.go
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

package services

import (
	"fmt"
	"time"

	"github.com/localnerve/obrasdb/internal/models"
	"gorm.io/gorm"
)

// AssignResult is the outcome of an assign or return.
type AssignResult struct {
	Assignment models.Assignment `json:"assignment"`
	Element    models.Element    `json:"element"`
	// Changed is false when an assign found the element already open to the same worker.
	Changed bool `json:"changed"`
}

// InventoryItem is an element in a worker's custody with the assignment holding it.
type InventoryItem struct {
	Element    models.Element    `json:"element"`
	Assignment models.Assignment `json:"assignment"`
}

// WorkerElement is a tenant element seen from one worker: who holds it, and whether that is the worker.
type WorkerElement struct {
	models.Element
	ActiveAssignment          *models.Assignment `json:"activeAssignment"`
	IsAssigned                bool               `json:"isAssigned"`
	IsAssignedToCurrentWorker bool               `json:"isAssignedToCurrentWorker"`
}

// openAssignment returns the open assignment of an element, or nil.
func openAssignment(db *gorm.DB, elementID uint64) (*models.Assignment, error) {
	var assignments []models.Assignment
	err := db.Where("element_id = ? AND returned_at IS NULL", elementID).
		Order("id").
		Limit(1).
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read open assignment of element %d: %w", elementID, err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	return &assignments[0], nil
}

// OpenAssignment returns the open assignment of an element, or nil when nobody holds it.
func OpenAssignment(db *gorm.DB, elementID uint64) (*models.Assignment, error) {
	var element models.Element
	if err := db.Select("id").First(&element, elementID).Error; err != nil {
		return nil, translate(err, models.TableElement, elementID)
	}
	return openAssignment(db, elementID)
}

// Assign opens an assignment of the element to the worker and moves the element to the worker.
// Assigning to the worker already holding the element changes nothing.
func Assign(tx *gorm.DB, now time.Time, actor Actor, workerID, elementID uint64) (*AssignResult, error) {
	element, err := lockElement(tx, elementID)
	if err != nil {
		return nil, err
	}

	var worker models.ConstructionWorker
	if err := tx.First(&worker, workerID).Error; err != nil {
		return nil, translate(err, models.TableConstructionWorker, workerID)
	}
	if worker.ArchitectID != element.ArchitectID {
		return nil, fmt.Errorf("%w: worker %d and element %d belong to different architects",
			ErrOwnershipMismatch, workerID, elementID)
	}

	open, err := openAssignment(tx, elementID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		if open.WorkerID == workerID {
			return &AssignResult{Assignment: *open, Element: *element, Changed: false}, nil
		}
		return nil, fmt.Errorf("%w: element %d is held by worker %d", ErrAlreadyAssigned, elementID, open.WorkerID)
	}

	from := element.Location()
	if from.Kind == models.LocationWorker {
		// a worker location without an open assignment cannot be returned to
		from = models.NoLocation
	}

	assignment := models.Assignment{
		ElementID:      elementID,
		WorkerID:       workerID,
		AssignedAt:     now,
		AssignedBy:     actor.ID,
		AssignedByType: string(actor.Kind),
	}
	assignment.SetFrom(from)
	if err := tx.Create(&assignment).Error; err != nil {
		return nil, translate(err, "worker_element_assignment", elementID)
	}

	if err := writeLocation(tx, element, models.Location{Kind: models.LocationWorker, ID: workerID}); err != nil {
		return nil, err
	}
	return &AssignResult{Assignment: assignment, Element: *element, Changed: true}, nil
}

// Return closes the worker's open assignment of the element and puts the element back where
// it was before the assignment. When that holder no longer exists the element ends up nowhere.
func Return(tx *gorm.DB, now time.Time, workerID, elementID uint64) (*AssignResult, error) {
	element, err := lockElement(tx, elementID)
	if err != nil {
		return nil, err
	}

	open, err := openAssignment(tx, elementID)
	if err != nil {
		return nil, err
	}
	if open == nil || open.WorkerID != workerID {
		return nil, fmt.Errorf("%w: element %d is not held by worker %d", ErrNoOpenAssignment, elementID, workerID)
	}

	if err := closeAssignment(tx, open, now); err != nil {
		return nil, err
	}

	target := open.From()
	exists, err := locationExists(tx, target)
	if err != nil {
		return nil, err
	}
	if !exists {
		target = models.NoLocation
	}
	if err := writeLocation(tx, element, target); err != nil {
		return nil, err
	}
	return &AssignResult{Assignment: *open, Element: *element, Changed: true}, nil
}

// closeAssignment stamps returned_at on an open assignment.
func closeAssignment(tx *gorm.DB, assignment *models.Assignment, now time.Time) error {
	result := tx.Model(&models.Assignment{}).
		Where("id = ? AND returned_at IS NULL", assignment.ID).
		Update("returned_at", now)
	if result.Error != nil {
		return fmt.Errorf("failed to close assignment %d: %w", assignment.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: assignment %d was closed concurrently", ErrConcurrencyConflict, assignment.ID)
	}
	assignment.ReturnedAt = &now
	return nil
}

// WorkerInventory lists the elements a worker currently holds, newest assignment first.
func WorkerInventory(db *gorm.DB, workerID uint64) ([]InventoryItem, error) {
	var worker models.ConstructionWorker
	if err := db.Select("id").First(&worker, workerID).Error; err != nil {
		return nil, translate(err, models.TableConstructionWorker, workerID)
	}

	var assignments []models.Assignment
	err := db.Where("worker_id = ? AND returned_at IS NULL", workerID).
		Order("assigned_at DESC").
		Order("id DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments of worker %d: %w", workerID, err)
	}
	if len(assignments) == 0 {
		return []InventoryItem{}, nil
	}

	ids := make([]uint64, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ElementID)
	}
	var elements []models.Element
	if err := db.Where("id IN ?", ids).Find(&elements).Error; err != nil {
		return nil, fmt.Errorf("failed to load elements of worker %d: %w", workerID, err)
	}
	byID := make(map[uint64]models.Element, len(elements))
	for _, e := range elements {
		byID[e.ID] = e
	}

	items := make([]InventoryItem, 0, len(assignments))
	for _, a := range assignments {
		element, ok := byID[a.ElementID]
		if !ok {
			continue
		}
		items = append(items, InventoryItem{Element: element, Assignment: a})
	}
	return items, nil
}

// WorkerElements lists every live element of the worker's architect with its open assignment, if any.
func WorkerElements(db *gorm.DB, workerID uint64) ([]WorkerElement, error) {
	var worker models.ConstructionWorker
	if err := db.First(&worker, workerID).Error; err != nil {
		return nil, translate(err, models.TableConstructionWorker, workerID)
	}

	var elements []models.Element
	if err := db.Where("architect_id = ?", worker.ArchitectID).Order("id").Find(&elements).Error; err != nil {
		return nil, fmt.Errorf("failed to list elements of architect %d: %w", worker.ArchitectID, err)
	}
	if len(elements) == 0 {
		return []WorkerElement{}, nil
	}

	ids := make([]uint64, 0, len(elements))
	for _, e := range elements {
		ids = append(ids, e.ID)
	}
	var open []models.Assignment
	err := db.Where("element_id IN ? AND returned_at IS NULL", ids).Find(&open).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open assignments of architect %d: %w", worker.ArchitectID, err)
	}
	byElement := make(map[uint64]models.Assignment, len(open))
	for _, a := range open {
		byElement[a.ElementID] = a
	}

	out := make([]WorkerElement, 0, len(elements))
	for _, e := range elements {
		view := WorkerElement{Element: e}
		if a, ok := byElement[e.ID]; ok {
			view.ActiveAssignment = &a
			view.IsAssigned = true
			view.IsAssignedToCurrentWorker = a.WorkerID == workerID
		}
		out = append(out, view)
	}
	return out, nil
}

// AssignmentHistory lists every assignment of an element, newest first.
func AssignmentHistory(db *gorm.DB, elementID uint64) ([]models.Assignment, error) {
	var element models.Element
	if err := db.Unscoped().Select("id").First(&element, elementID).Error; err != nil {
		return nil, translate(err, models.TableElement, elementID)
	}

	var assignments []models.Assignment
	err := db.Where("element_id = ?", elementID).
		Order("assigned_at DESC").
		Order("id DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments of element %d: %w", elementID, err)
	}
	return assignments, nil
}
