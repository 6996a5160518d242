// inventory.go
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
	"context"
	"fmt"
	"time"

	"github.com/localnerve/obrasdb/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Inventory is the entry point for every business operation. Each mutating call runs in one
// transaction: the element row lock, the registry and ledger writes, and the history row commit together.
type Inventory struct {
	db      *gorm.DB
	history *HistoryRecorder
	log     *zap.Logger
	now     func() time.Time
}

// NewInventory creates the facade over db.
func NewInventory(db *gorm.DB, log *zap.Logger) *Inventory {
	return &Inventory{
		db:      db,
		history: NewHistoryRecorder(log),
		log:     log.Named("inventory"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for assignment timestamps.
func (s *Inventory) WithClock(now func() time.Time) *Inventory {
	s.now = now
	return s
}

// DB exposes the underlying connection for health checks.
func (s *Inventory) DB() *gorm.DB {
	return s.db
}

// mutate runs fn in a transaction and records the event fn returns before committing.
// A nil event means fn changed nothing worth recording.
func (s *Inventory) mutate(ctx context.Context, fn func(tx *gorm.DB) (*Event, error)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev, err := fn(tx)
		if err != nil {
			return err
		}
		if ev != nil {
			s.history.RecordBestEffort(tx, *ev)
		}
		return nil
	})
}

// tenantFor resolves the architect a create call acts for.
// Admins must name the architect; everyone else acts for their own tenant.
func tenantFor(db *gorm.DB, actor Actor, requested uint64) (uint64, error) {
	if actor.Kind == models.ActorAdmin {
		if requested == 0 {
			return 0, fmt.Errorf("%w: architectId is required for admin actors", ErrInvalidInput)
		}
		var architect models.Architect
		if err := db.Select("id").First(&architect, requested).Error; err != nil {
			return 0, translate(err, models.TableArchitect, requested)
		}
		return requested, nil
	}

	tenant, err := tenantOf(db, actor)
	if err != nil {
		return 0, err
	}
	if requested != 0 && requested != tenant {
		return 0, fmt.Errorf("%w: %s %d cannot act for architect %d", ErrOwnershipMismatch, actor.Kind, actor.ID, requested)
	}
	return tenant, nil
}

// authorizeElement checks actor against the tenant of a live element and returns that tenant.
func authorizeElement(db *gorm.DB, actor Actor, elementID uint64) (uint64, error) {
	var element models.Element
	if err := db.Select("id", "architect_id").First(&element, elementID).Error; err != nil {
		return 0, translate(err, models.TableElement, elementID)
	}
	return element.ArchitectID, authorize(db, actor, element.ArchitectID)
}

// authorizeWorker checks actor against the tenant of a worker.
func authorizeWorker(db *gorm.DB, actor Actor, workerID uint64) (uint64, error) {
	var worker models.ConstructionWorker
	if err := db.Select("id", "architect_id").First(&worker, workerID).Error; err != nil {
		return 0, translate(err, models.TableConstructionWorker, workerID)
	}
	return worker.ArchitectID, authorize(db, actor, worker.ArchitectID)
}

// ElementInput describes a new element.
type ElementInput struct {
	Name        string
	Description string
	Brand       string
	Provider    string
	Quantity    int
	BuyDate     *time.Time
	CategoryID  *uint64
	ArchitectID uint64
	Location    models.Location
}

// ElementPatch carries the editable fields of an element. Nil fields are left untouched.
type ElementPatch struct {
	Name        *string
	Description *string
	Brand       *string
	Provider    *string
	Quantity    *int
	BuyDate     *time.Time
	CategoryID  *uint64
}

func checkCategory(db *gorm.DB, categoryID *uint64, architectID uint64) error {
	if categoryID == nil {
		return nil
	}
	var category models.Category
	if err := db.Select("id", "architect_id").First(&category, *categoryID).Error; err != nil {
		return translate(err, models.TableCategory, *categoryID)
	}
	if category.ArchitectID != architectID {
		return fmt.Errorf("%w: category %d is not owned by architect %d", ErrOwnershipMismatch, *categoryID, architectID)
	}
	return nil
}

// CreateElement creates an element at its initial location. An initial worker location is
// handed over through the assign protocol, so the element starts with an open assignment.
func (s *Inventory) CreateElement(ctx context.Context, actor Actor, in ElementInput) (*models.Element, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: element name is required", ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	loc := in.Location
	if loc.Kind == "" {
		loc = models.NoLocation
	}
	if !loc.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocationKind, loc.Kind)
	}

	var element *models.Element
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := tenantFor(tx, actor, in.ArchitectID)
		if err != nil {
			return nil, err
		}
		if err := checkCategory(tx, in.CategoryID, architectID); err != nil {
			return nil, err
		}
		if err := checkLocation(tx, loc, architectID); err != nil {
			return nil, err
		}

		element = &models.Element{
			Name:        in.Name,
			Description: in.Description,
			Brand:       in.Brand,
			Provider:    in.Provider,
			Quantity:    in.Quantity,
			BuyDate:     in.BuyDate,
			CategoryID:  in.CategoryID,
			ArchitectID: architectID,
		}
		if loc.Kind != models.LocationWorker {
			element.SetLocation(loc)
		}
		if err := tx.Create(element).Error; err != nil {
			return nil, fmt.Errorf("failed to create element: %w", err)
		}

		if loc.Kind == models.LocationWorker {
			result, err := Assign(tx, s.now(), actor, loc.ID, element.ID)
			if err != nil {
				return nil, err
			}
			element = &result.Element
		}

		return &Event{
			Table:       models.TableElement,
			RecordID:    element.ID,
			Action:      models.ActionCreate,
			Actor:       actor,
			ArchitectID: architectID,
			NewData:     element,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return element, nil
}

// UpdateElement edits the descriptive fields of an element. Location is changed through MoveElement.
func (s *Inventory) UpdateElement(ctx context.Context, actor Actor, elementID uint64, patch ElementPatch) (*models.Element, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, fmt.Errorf("%w: element name must not be empty", ErrInvalidInput)
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}

	var element *models.Element
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := authorizeElement(tx, actor, elementID)
		if err != nil {
			return nil, err
		}
		if err := checkCategory(tx, patch.CategoryID, architectID); err != nil {
			return nil, err
		}

		element, err = lockElement(tx, elementID)
		if err != nil {
			return nil, err
		}
		old := *element

		updates := map[string]interface{}{}
		if patch.Name != nil {
			updates["name"] = *patch.Name
			element.Name = *patch.Name
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
			element.Description = *patch.Description
		}
		if patch.Brand != nil {
			updates["brand"] = *patch.Brand
			element.Brand = *patch.Brand
		}
		if patch.Provider != nil {
			updates["provider"] = *patch.Provider
			element.Provider = *patch.Provider
		}
		if patch.Quantity != nil {
			updates["quantity"] = *patch.Quantity
			element.Quantity = *patch.Quantity
		}
		if patch.BuyDate != nil {
			updates["buy_date"] = *patch.BuyDate
			element.BuyDate = patch.BuyDate
		}
		if patch.CategoryID != nil {
			updates["category_id"] = *patch.CategoryID
			element.CategoryID = patch.CategoryID
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Element{ID: elementID}).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update element %d: %w", elementID, err)
			}
		}

		return &Event{
			Table:       models.TableElement,
			RecordID:    elementID,
			Action:      models.ActionUpdate,
			Actor:       actor,
			ArchitectID: architectID,
			OldData:     old,
			NewData:     element,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return element, nil
}

// MoveElement changes the holder of an element. Moving to a worker runs the assign protocol and
// records an assign event. Moving an element away from a worker closes that worker's assignment first.
func (s *Inventory) MoveElement(ctx context.Context, actor Actor, elementID uint64, target models.Location) (*models.Element, error) {
	if target.Kind == "" {
		target = models.NoLocation
	}
	if !target.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocationKind, target.Kind)
	}
	if target.Kind == models.LocationWorker {
		result, err := s.AssignToWorker(ctx, actor, target.ID, elementID)
		if err != nil {
			return nil, err
		}
		return &result.Element, nil
	}

	var element *models.Element
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := authorizeElement(tx, actor, elementID)
		if err != nil {
			return nil, err
		}

		current, err := lockElement(tx, elementID)
		if err != nil {
			return nil, err
		}
		old := *current

		open, err := openAssignment(tx, elementID)
		if err != nil {
			return nil, err
		}
		if open != nil {
			if err := closeAssignment(tx, open, s.now()); err != nil {
				return nil, err
			}
		}

		element, err = SetLocation(tx, elementID, target)
		if err != nil {
			return nil, err
		}

		return &Event{
			Table:       models.TableElement,
			RecordID:    elementID,
			Action:      models.ActionMove,
			Actor:       actor,
			ArchitectID: architectID,
			OldData:     old,
			NewData:     element,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return element, nil
}

// DeleteElement closes any open assignment, clears the location and soft deletes the element.
func (s *Inventory) DeleteElement(ctx context.Context, actor Actor, elementID uint64) (*models.Element, error) {
	var element *models.Element
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := authorizeElement(tx, actor, elementID)
		if err != nil {
			return nil, err
		}

		element, err = lockElement(tx, elementID)
		if err != nil {
			return nil, err
		}
		old := *element

		open, err := openAssignment(tx, elementID)
		if err != nil {
			return nil, err
		}
		if open != nil {
			if err := closeAssignment(tx, open, s.now()); err != nil {
				return nil, err
			}
		}
		if err := writeLocation(tx, element, models.NoLocation); err != nil {
			return nil, err
		}
		if err := tx.Delete(element).Error; err != nil {
			return nil, fmt.Errorf("failed to delete element %d: %w", elementID, err)
		}

		return &Event{
			Table:       models.TableElement,
			RecordID:    elementID,
			Action:      models.ActionDelete,
			Actor:       actor,
			ArchitectID: architectID,
			OldData:     old,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return element, nil
}

// AssignToWorker hands an element to a worker. Re-assigning to the current holder is a no-op
// that returns the open assignment and records nothing.
func (s *Inventory) AssignToWorker(ctx context.Context, actor Actor, workerID, elementID uint64) (*AssignResult, error) {
	var result *AssignResult
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := authorizeElement(tx, actor, elementID)
		if err != nil {
			return nil, err
		}

		before, err := lockElement(tx, elementID)
		if err != nil {
			return nil, err
		}

		result, err = Assign(tx, s.now(), actor, workerID, elementID)
		if err != nil {
			return nil, err
		}
		if !result.Changed {
			return nil, nil
		}

		return &Event{
			Table:       models.TableElement,
			RecordID:    elementID,
			Action:      models.ActionAssign,
			Actor:       actor,
			ArchitectID: architectID,
			OldData:     before,
			NewData:     result,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReturnFromWorker takes an element back from a worker and restores its prior location.
func (s *Inventory) ReturnFromWorker(ctx context.Context, actor Actor, workerID, elementID uint64) (*AssignResult, error) {
	var result *AssignResult
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := authorizeElement(tx, actor, elementID)
		if err != nil {
			return nil, err
		}

		before, err := lockElement(tx, elementID)
		if err != nil {
			return nil, err
		}

		result, err = Return(tx, s.now(), workerID, elementID)
		if err != nil {
			return nil, err
		}

		return &Event{
			Table:       models.TableElement,
			RecordID:    elementID,
			Action:      models.ActionReturn,
			Actor:       actor,
			ArchitectID: architectID,
			OldData:     before,
			NewData:     result,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReportMissing records a problem with an element.
func (s *Inventory) ReportMissing(ctx context.Context, actor Actor, in ReportInput) (*models.Missing, error) {
	var missing *models.Missing
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := authorizeElement(tx, actor, in.ElementID)
		if err != nil {
			return nil, err
		}

		missing, err = ReportMissing(tx, actor, in)
		if err != nil {
			return nil, err
		}

		return &Event{
			Table:       models.TableMissing,
			RecordID:    missing.ID,
			Action:      models.ActionCreate,
			Actor:       actor,
			ArchitectID: architectID,
			NewData:     missing,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}

// authorizeMissing checks actor against the tenant of a missing report.
func authorizeMissing(db *gorm.DB, actor Actor, missingID uint64) (uint64, error) {
	var missing models.Missing
	if err := db.Select("id", "architect_id").First(&missing, missingID).Error; err != nil {
		return 0, translate(err, models.TableMissing, missingID)
	}
	return missing.ArchitectID, authorize(db, actor, missing.ArchitectID)
}

// StatusChange is the outcome of a missing status change.
type StatusChange struct {
	Missing *models.Missing `json:"missing"`
	Note    *models.Note    `json:"note,omitempty"`
}

// ChangeMissingStatus sets a new status, optionally with a note, as one missing/update event.
func (s *Inventory) ChangeMissingStatus(ctx context.Context, actor Actor, missingID uint64, status models.MissingStatus, note *NoteInput) (*StatusChange, error) {
	var change StatusChange
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := authorizeMissing(tx, actor, missingID)
		if err != nil {
			return nil, err
		}

		before, after, created, err := ChangeMissingStatus(tx, actor, missingID, status, note)
		if err != nil {
			return nil, err
		}
		change = StatusChange{Missing: after, Note: created}

		return &Event{
			Table:       models.TableMissing,
			RecordID:    missingID,
			Action:      models.ActionUpdate,
			Actor:       actor,
			ArchitectID: architectID,
			OldData:     before,
			NewData:     change,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// ResolveMissing is ChangeMissingStatus under the name the triage view uses.
func (s *Inventory) ResolveMissing(ctx context.Context, actor Actor, missingID uint64, status models.MissingStatus, note *NoteInput) (*StatusChange, error) {
	return s.ChangeMissingStatus(ctx, actor, missingID, status, note)
}

// UpdateMissing edits the title, text or urgency of a report.
func (s *Inventory) UpdateMissing(ctx context.Context, actor Actor, missingID uint64, in MissingUpdate) (*models.Missing, error) {
	var missing *models.Missing
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		architectID, err := authorizeMissing(tx, actor, missingID)
		if err != nil {
			return nil, err
		}

		before, after, err := UpdateMissing(tx, missingID, in)
		if err != nil {
			return nil, err
		}
		missing = after

		return &Event{
			Table:       models.TableMissing,
			RecordID:    missingID,
			Action:      models.ActionUpdate,
			Actor:       actor,
			ArchitectID: architectID,
			OldData:     before,
			NewData:     after,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}

// AddNote creates a note. Notes on an element or report are checked against its tenant.
func (s *Inventory) AddNote(ctx context.Context, actor Actor, in NoteCreate) (*models.Note, error) {
	var note *models.Note
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		if in.ElementID == nil && in.MissingID == nil {
			architectID, err := tenantFor(tx, actor, in.ArchitectID)
			if err != nil {
				return nil, err
			}
			in.ArchitectID = architectID
		}

		var err error
		note, err = AddNote(tx, actor, in)
		if err != nil {
			return nil, err
		}
		if err := authorize(tx, actor, note.ArchitectID); err != nil {
			return nil, err
		}

		return &Event{
			Table:       models.TableNote,
			RecordID:    note.ID,
			Action:      models.ActionCreate,
			Actor:       actor,
			ArchitectID: note.ArchitectID,
			NewData:     note,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// UpdateNote edits a note and stamps actor as its last editor.
func (s *Inventory) UpdateNote(ctx context.Context, actor Actor, noteID uint64, title, text string) (*models.Note, error) {
	var note *models.Note
	err := s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		existing, err := GetNote(tx, noteID)
		if err != nil {
			return nil, err
		}
		if err := authorize(tx, actor, existing.ArchitectID); err != nil {
			return nil, err
		}

		before, after, err := UpdateNote(tx, actor, noteID, title, text)
		if err != nil {
			return nil, err
		}
		note = after

		return &Event{
			Table:       models.TableNote,
			RecordID:    noteID,
			Action:      models.ActionUpdate,
			Actor:       actor,
			ArchitectID: after.ArchitectID,
			OldData:     before,
			NewData:     after,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// DeleteNote removes a note. The history row keeps its last content.
func (s *Inventory) DeleteNote(ctx context.Context, actor Actor, noteID uint64) error {
	return s.mutate(ctx, func(tx *gorm.DB) (*Event, error) {
		existing, err := GetNote(tx, noteID)
		if err != nil {
			return nil, err
		}
		if err := authorize(tx, actor, existing.ArchitectID); err != nil {
			return nil, err
		}

		deleted, err := DeleteNote(tx, noteID)
		if err != nil {
			return nil, err
		}

		return &Event{
			Table:       models.TableNote,
			RecordID:    noteID,
			Action:      models.ActionDelete,
			Actor:       actor,
			ArchitectID: deleted.ArchitectID,
			OldData:     deleted,
		}, nil
	})
}
