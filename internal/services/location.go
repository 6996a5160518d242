// location.go
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
	"errors"
	"fmt"

	"github.com/localnerve/obrasdb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// lockElement loads a live element and takes its row lock for the rest of tx.
// Every mutation of an element's location or assignments goes through this lock.
func lockElement(tx *gorm.DB, elementID uint64) (*models.Element, error) {
	var element models.Element
	err := tx.Clauses(lockForUpdate).First(&element, elementID).Error
	if err != nil {
		return nil, translate(err, models.TableElement, elementID)
	}
	return &element, nil
}

// locationOwner returns the architect owning the holder at loc.
// Closed constructions count as missing. LocationNone has no owner and returns zero.
func locationOwner(db *gorm.DB, loc models.Location) (uint64, error) {
	var (
		owner uint64
		err   error
		table string
	)

	switch loc.Kind {
	case models.LocationNone, "":
		return 0, nil
	case models.LocationDeposit:
		var deposit models.Deposit
		table = models.TableDeposit
		err = db.Select("id", "architect_id").First(&deposit, loc.ID).Error
		owner = deposit.ArchitectID
	case models.LocationConstruction:
		var construction models.Construction
		table = models.TableConstruction
		err = db.Select("id", "architect_id", "deleted_at").First(&construction, loc.ID).Error
		owner = construction.ArchitectID
	case models.LocationWorker:
		var worker models.ConstructionWorker
		table = models.TableConstructionWorker
		err = db.Select("id", "architect_id").First(&worker, loc.ID).Error
		owner = worker.ArchitectID
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLocationKind, loc.Kind)
	}

	if err != nil {
		return 0, translate(err, table, loc.ID)
	}
	return owner, nil
}

// checkLocation validates that loc is a live holder belonging to architectID.
func checkLocation(db *gorm.DB, loc models.Location, architectID uint64) error {
	if !loc.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLocationKind, loc.Kind)
	}
	if loc.IsNone() {
		return nil
	}
	owner, err := locationOwner(db, loc)
	if err != nil {
		return err
	}
	if owner != architectID {
		return fmt.Errorf("%w: %s %d is not owned by architect %d", ErrOwnershipMismatch, loc.Kind, loc.ID, architectID)
	}
	return nil
}

// locationExists reports whether loc still resolves to a live holder.
func locationExists(db *gorm.DB, loc models.Location) (bool, error) {
	if loc.IsNone() {
		return true, nil
	}
	if _, err := locationOwner(db, loc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// writeLocation persists loc onto element. The caller holds the element lock.
func writeLocation(tx *gorm.DB, element *models.Element, loc models.Location) error {
	kind, id := locationColumns(loc)
	err := tx.Model(element).Updates(map[string]interface{}{
		"current_location_type": kind,
		"current_location_id":   id,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update location of element %d: %w", element.ID, err)
	}
	element.SetLocation(loc)
	return nil
}

// locationColumns returns the column values for loc, using untyped nil for LocationNone.
func locationColumns(loc models.Location) (interface{}, interface{}) {
	if loc.IsNone() {
		return nil, nil
	}
	return string(loc.Kind), loc.ID
}

// SetLocation places the element at a deposit, a construction, or nowhere.
// A worker target is only accepted when the element already has an open assignment to that
// worker, which keeps location and ledger in step; use Assign to hand an element to a worker.
func SetLocation(tx *gorm.DB, elementID uint64, loc models.Location) (*models.Element, error) {
	if !loc.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocationKind, loc.Kind)
	}
	if loc.IsNone() {
		loc = models.NoLocation
	}

	element, err := lockElement(tx, elementID)
	if err != nil {
		return nil, err
	}
	if err := checkLocation(tx, loc, element.ArchitectID); err != nil {
		return nil, err
	}

	open, err := openAssignment(tx, elementID)
	if err != nil {
		return nil, err
	}
	switch {
	case loc.Kind == models.LocationWorker && (open == nil || open.WorkerID != loc.ID):
		return nil, fmt.Errorf("%w: element %d has no open assignment to worker %d", ErrNoOpenAssignment, elementID, loc.ID)
	case loc.Kind != models.LocationWorker && open != nil:
		return nil, fmt.Errorf("%w: element %d is held by worker %d", ErrAlreadyAssigned, elementID, open.WorkerID)
	}

	if err := writeLocation(tx, element, loc); err != nil {
		return nil, err
	}
	return element, nil
}

// LocationOf returns the current holder of a live element.
func LocationOf(db *gorm.DB, elementID uint64) (models.Location, error) {
	var element models.Element
	err := db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Select("id", "current_location_type", "current_location_id").
		First(&element, elementID).Error
	if err != nil {
		return models.NoLocation, translate(err, models.TableElement, elementID)
	}
	return element.Location(), nil
}

// HoldersOf lists the live elements currently held at loc, ordered by id.
func HoldersOf(db *gorm.DB, loc models.Location) ([]models.Element, error) {
	if !loc.Kind.Valid() || loc.IsNone() {
		return nil, fmt.Errorf("%w: %q is not a holder", ErrInvalidLocationKind, loc.Kind)
	}

	var elements []models.Element
	err := db.Where("current_location_type = ? AND current_location_id = ?", string(loc.Kind), loc.ID).
		Order("id").
		Find(&elements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list elements at %s %d: %w", loc.Kind, loc.ID, err)
	}
	return elements, nil
}
